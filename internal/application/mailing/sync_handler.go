package mailing

import (
	"context"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/dpnk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SyncHandler pushes a participant to the mailing list as soon as their
// team or payment status changes, ahead of the periodic campaign sync
type SyncHandler struct {
	sync   *SyncService
	logger *zap.Logger
}

// NewSyncHandler creates a new mailing list event handler
func NewSyncHandler(sync *SyncService, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{sync: sync, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *SyncHandler) EventTypes() []string {
	return []string{
		attendance.EventTypeTeamMembershipChanged,
		payment.EventTypePaymentStatusChanged,
	}
}

// Handle syncs the attendance behind the event. Failures are logged and
// left to the periodic sync.
func (h *SyncHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var err error
	switch e := event.(type) {
	case *attendance.TeamMembershipChangedEvent:
		err = h.sync.SyncAttendance(ctx, e.UserAttendanceID)
	case *payment.PaymentStatusChangedEvent:
		err = h.sync.SyncAttendance(ctx, e.UserAttendanceID)
	default:
		return nil
	}
	if err != nil {
		h.logger.Warn("Mailing list sync failed",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err),
		)
	}
	return nil
}
