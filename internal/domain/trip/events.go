package trip

import (
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeTrip = "Trip"

// Event type constants
const (
	EventTypeTripSaved   = "TripSaved"
	EventTypeTripDeleted = "TripDeleted"
)

// TripSavedEvent is published when a trip is created or changed
type TripSavedEvent struct {
	shared.BaseDomainEvent
	UserAttendanceID  uuid.UUID       `json:"user_attendance_id"`
	Date              time.Time       `json:"date"`
	CommuteMode       CommuteMode     `json:"commute_mode"`
	Distance          decimal.Decimal `json:"distance"`
	SourceApplication string          `json:"source_application,omitempty"`
}

// NewTripSavedEvent creates a new TripSavedEvent
func NewTripSavedEvent(t *Trip) *TripSavedEvent {
	return &TripSavedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeTripSaved, AggregateTypeTrip, t.ID, t.CampaignID),
		UserAttendanceID:  t.UserAttendanceID,
		Date:              t.Date,
		CommuteMode:       t.CommuteMode,
		Distance:          t.Distance,
		SourceApplication: t.SourceApplication,
	}
}

// TripDeletedEvent is published when a trip is removed
type TripDeletedEvent struct {
	shared.BaseDomainEvent
	UserAttendanceID uuid.UUID `json:"user_attendance_id"`
	Date             time.Time `json:"date"`
}

// NewTripDeletedEvent creates a new TripDeletedEvent
func NewTripDeletedEvent(t *Trip) *TripDeletedEvent {
	return &TripDeletedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeTripDeleted, AggregateTypeTrip, t.ID, t.CampaignID),
		UserAttendanceID: t.UserAttendanceID,
		Date:             t.Date,
	}
}
