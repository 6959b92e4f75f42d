package models

import (
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TripModel is the persistence model for the Trip aggregate. One row per
// attendance, day and direction.
type TripModel struct {
	CampaignAggregateModel
	UserAttendanceID  uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_trip_slot,priority:1"`
	Date              time.Time        `gorm:"type:date;not null;uniqueIndex:idx_trip_slot,priority:2"`
	Direction         trip.Direction   `gorm:"type:varchar(20);not null;uniqueIndex:idx_trip_slot,priority:3"`
	CommuteMode       trip.CommuteMode `gorm:"type:varchar(20);not null;index"`
	Distance          decimal.Decimal  `gorm:"type:decimal(10,2);not null;default:0"`
	DurationSeconds   int              `gorm:"not null;default:0"`
	SourceApplication string           `gorm:"type:varchar(40)"`
	SourceID          string           `gorm:"type:varchar(255)"`
	TrackKey          string           `gorm:"type:varchar(255)"`
	FromApplication   bool             `gorm:"not null;default:false"`
	Description       string           `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TripModel) TableName() string {
	return "trips"
}

// ToDomain converts the persistence model to a domain Trip.
func (m *TripModel) ToDomain() *trip.Trip {
	return &trip.Trip{
		CampaignAggregateRoot: m.CampaignAggregate(),
		UserAttendanceID:      m.UserAttendanceID,
		Date:                  shared.DateOf(m.Date),
		Direction:             m.Direction,
		CommuteMode:           m.CommuteMode,
		Distance:              m.Distance,
		DurationSeconds:       m.DurationSeconds,
		SourceApplication:     m.SourceApplication,
		SourceID:              m.SourceID,
		TrackKey:              m.TrackKey,
		FromApplication:       m.FromApplication,
		Description:           m.Description,
	}
}

// TripModelFromDomain creates a new persistence model from a domain Trip.
func TripModelFromDomain(t *trip.Trip) *TripModel {
	m := &TripModel{
		UserAttendanceID:  t.UserAttendanceID,
		Date:              shared.DateOf(t.Date),
		Direction:         t.Direction,
		CommuteMode:       t.CommuteMode,
		Distance:          t.Distance,
		DurationSeconds:   t.DurationSeconds,
		SourceApplication: t.SourceApplication,
		SourceID:          t.SourceID,
		TrackKey:          t.TrackKey,
		FromApplication:   t.FromApplication,
		Description:       t.Description,
	}
	m.SetCampaignAggregate(t.CampaignAggregateRoot)
	return m
}
