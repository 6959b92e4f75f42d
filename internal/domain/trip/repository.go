package trip

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ModeStatistics aggregates trips of one commute mode
type ModeStatistics struct {
	CommuteMode CommuteMode
	Trips       int64
	Distance    decimal.Decimal
}

// TripRepository defines persistence operations for trips
type TripRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Trip, error)

	// FindByKey returns shared.ErrNotFound when the slot is empty
	FindByKey(ctx context.Context, key Key) (*Trip, error)

	// FindByAttendance lists trips with from <= date <= to, ordered by date
	FindByAttendance(ctx context.Context, userAttendanceID uuid.UUID, from, to time.Time) ([]Trip, error)

	// FindByAttendances lists trips of several participants for result computation
	FindByAttendances(ctx context.Context, userAttendanceIDs []uuid.UUID, from, to time.Time) ([]Trip, error)
	Save(ctx context.Context, trip *Trip) error
	Delete(ctx context.Context, id uuid.UUID) error
	StatisticsByMode(ctx context.Context, campaignID uuid.UUID) ([]ModeStatistics, error)
}
