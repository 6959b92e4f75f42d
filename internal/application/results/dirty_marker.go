package results

import (
	"context"
	"fmt"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/competition"
	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DirtyMarker handles the events that change scores and queues the affected
// competitors for the results flush job
type DirtyMarker struct {
	queue  competition.DirtyQueue
	logger *zap.Logger
}

// NewDirtyMarker creates a new handler marking competitors dirty
func NewDirtyMarker(queue competition.DirtyQueue, logger *zap.Logger) *DirtyMarker {
	return &DirtyMarker{
		queue:  queue,
		logger: logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *DirtyMarker) EventTypes() []string {
	return []string{
		trip.EventTypeTripSaved,
		trip.EventTypeTripDeleted,
		attendance.EventTypeTeamMembershipChanged,
		payment.EventTypePaymentStatusChanged,
		competition.EventTypeAnswerScored,
	}
}

// Handle marks the attendance behind the event dirty. Membership changes
// also mark both teams so their member counts get recomputed.
func (h *DirtyMarker) Handle(ctx context.Context, event shared.DomainEvent) error {
	var refs []competition.CompetitorRef

	switch e := event.(type) {
	case *trip.TripSavedEvent:
		refs = append(refs, attendanceRef(e.UserAttendanceID))
	case *trip.TripDeletedEvent:
		refs = append(refs, attendanceRef(e.UserAttendanceID))
	case *payment.PaymentStatusChangedEvent:
		refs = append(refs, attendanceRef(e.UserAttendanceID))
	case *competition.AnswerScoredEvent:
		refs = append(refs, attendanceRef(e.UserAttendanceID))
	case *attendance.TeamMembershipChangedEvent:
		refs = append(refs, attendanceRef(e.UserAttendanceID))
		if e.OldTeamID != nil {
			refs = append(refs, competition.CompetitorRef{Kind: competition.KindTeam, ID: *e.OldTeamID})
		}
		if e.NewTeamID != nil && (e.OldTeamID == nil || *e.NewTeamID != *e.OldTeamID) {
			refs = append(refs, competition.CompetitorRef{Kind: competition.KindTeam, ID: *e.NewTeamID})
		}
	default:
		h.logger.Error("unexpected event type",
			zap.String("actual", event.EventType()))
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	if err := h.queue.Mark(ctx, event.CampaignID(), refs...); err != nil {
		h.logger.Error("failed to mark competitors dirty",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err))
		return fmt.Errorf("failed to mark competitors dirty: %w", err)
	}
	h.logger.Debug("competitors marked dirty",
		zap.String("event_type", event.EventType()),
		zap.Int("count", len(refs)))
	return nil
}

func attendanceRef(id uuid.UUID) competition.CompetitorRef {
	return competition.CompetitorRef{Kind: competition.KindUserAttendance, ID: id}
}
