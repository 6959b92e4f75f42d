package trip

import (
	"time"

	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LogTripInput creates or replaces the trip of one day and direction
type LogTripInput struct {
	Date              time.Time        `json:"date" binding:"required"`
	Direction         trip.Direction   `json:"direction" binding:"required"`
	CommuteMode       trip.CommuteMode `json:"commute_mode" binding:"required"`
	Distance          decimal.Decimal  `json:"distance"`
	DurationSeconds   int              `json:"duration" binding:"min=0"`
	SourceApplication string           `json:"source_application" binding:"max=100"`
	SourceID          string           `json:"source_id" binding:"max=255"`
	Description       string           `json:"description" binding:"max=500"`

	// Force skips the editability window; only staff may set it
	Force bool `json:"-"`
}

func (in LogTripInput) details() trip.Details {
	return trip.Details{
		CommuteMode:       in.CommuteMode,
		Distance:          in.Distance,
		DurationSeconds:   in.DurationSeconds,
		SourceApplication: in.SourceApplication,
		SourceID:          in.SourceID,
		Description:       in.Description,
	}
}

// ImportGPXInput is an uploaded GPX file of one ride
type ImportGPXInput struct {
	Date      time.Time
	Direction trip.Direction
	FileName  string
	Data      []byte
	Force     bool
}

// TripResponse represents a trip in API responses
type TripResponse struct {
	ID                uuid.UUID        `json:"id"`
	Date              string           `json:"date"`
	Direction         trip.Direction   `json:"direction"`
	CommuteMode       trip.CommuteMode `json:"commute_mode"`
	Distance          decimal.Decimal  `json:"distance"`
	DurationSeconds   int              `json:"duration"`
	SourceApplication string           `json:"source_application,omitempty"`
	HasTrack          bool             `json:"has_track"`
	Description       string           `json:"description,omitempty"`
}

// ToTripResponse converts a domain trip
func ToTripResponse(t *trip.Trip) TripResponse {
	return TripResponse{
		ID:                t.ID,
		Date:              t.Date.Format(time.DateOnly),
		Direction:         t.Direction,
		CommuteMode:       t.CommuteMode,
		Distance:          t.Distance,
		DurationSeconds:   t.DurationSeconds,
		SourceApplication: t.SourceApplication,
		HasTrack:          t.TrackKey != "",
		Description:       t.Description,
	}
}

// CalendarDayResponse is one day of the rides calendar
type CalendarDayResponse struct {
	Date     string         `json:"date"`
	Editable bool           `json:"editable"`
	Trips    []TripResponse `json:"trips"`
}
