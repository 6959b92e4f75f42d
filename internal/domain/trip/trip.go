package trip

import (
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxDistance is the longest single trip in km that is accepted
var MaxDistance = decimal.NewFromInt(1000)

// Direction of a trip
type Direction string

const (
	DirectionTo           Direction = "trip_to"
	DirectionFrom         Direction = "trip_from"
	DirectionRecreational Direction = "recreational"
)

// IsValid returns true if the direction is known
func (d Direction) IsValid() bool {
	return d == DirectionTo || d == DirectionFrom || d == DirectionRecreational
}

// IsCommute reports whether the trip is a ride to or from work
func (d Direction) IsCommute() bool {
	return d == DirectionTo || d == DirectionFrom
}

// CommuteMode is the way a trip was made
type CommuteMode string

const (
	ModeBicycle        CommuteMode = "bicycle"
	ModeByFoot         CommuteMode = "by_foot"
	ModeByOtherVehicle CommuteMode = "by_other_vehicle"
	ModeNoWork         CommuteMode = "no_work"
	ModeByCar          CommuteMode = "by_car"
	ModeTelecommute    CommuteMode = "telecommute"
)

// AllModes lists the commute modes in display order
var AllModes = []CommuteMode{ModeBicycle, ModeByFoot, ModeByOtherVehicle, ModeByCar, ModeTelecommute, ModeNoWork}

// IsValid returns true if the mode is known
func (m CommuteMode) IsValid() bool {
	for _, mode := range AllModes {
		if m == mode {
			return true
		}
	}
	return false
}

// Eco modes count as rides for frequency and as distance for length
func (m CommuteMode) Eco() bool {
	return m == ModeBicycle || m == ModeByFoot
}

// DoesCount reports whether the trip is a working day commute and so
// counts into the frequency divisor
func (m CommuteMode) DoesCount() bool {
	return m == ModeBicycle || m == ModeByFoot || m == ModeByOtherVehicle || m == ModeByCar
}

// RequiresDistance returns true when a zero distance is not allowed
func (m CommuteMode) RequiresDistance() bool {
	return m == ModeBicycle
}

// ForcesZeroDistance returns true for days without a commute
func (m CommuteMode) ForcesZeroDistance() bool {
	return m == ModeNoWork || m == ModeTelecommute
}

// Trip is one direction of one day of a participant
type Trip struct {
	shared.CampaignAggregateRoot
	UserAttendanceID  uuid.UUID
	Date              time.Time
	Direction         Direction
	CommuteMode       CommuteMode
	Distance          decimal.Decimal
	DurationSeconds   int
	SourceApplication string
	SourceID          string
	TrackKey          string
	FromApplication   bool
	Description       string
}

// Details carries the mutable part of a trip
type Details struct {
	CommuteMode       CommuteMode
	Distance          decimal.Decimal
	DurationSeconds   int
	SourceApplication string
	SourceID          string
	Description       string
}

// NewTrip creates a trip for the day and direction
func NewTrip(campaignID, userAttendanceID uuid.UUID, date time.Time, direction Direction, details Details) (*Trip, error) {
	if userAttendanceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "trip must belong to an attendance")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "unknown trip direction: "+string(direction))
	}
	t := &Trip{
		CampaignAggregateRoot: shared.NewCampaignAggregateRoot(campaignID),
		UserAttendanceID:      userAttendanceID,
		Date:                  shared.DateOf(date),
		Direction:             direction,
	}
	if err := t.apply(details); err != nil {
		return nil, err
	}
	t.AddDomainEvent(NewTripSavedEvent(t))
	return t, nil
}

// Update replaces the trip details
func (t *Trip) Update(details Details) error {
	if err := t.apply(details); err != nil {
		return err
	}
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	t.AddDomainEvent(NewTripSavedEvent(t))
	return nil
}

// MarkDeleted records the deletion event; the repository removes the row
func (t *Trip) MarkDeleted() {
	t.AddDomainEvent(NewTripDeletedEvent(t))
}

// AttachTrack stores the object storage key of the uploaded GPX file
func (t *Trip) AttachTrack(key string) {
	t.TrackKey = key
}

// Key identifies the trip slot of a participant
func (t *Trip) Key() Key {
	return Key{UserAttendanceID: t.UserAttendanceID, Date: t.Date, Direction: t.Direction}
}

// IsEco reports whether the trip counts as a ride
func (t *Trip) IsEco() bool {
	return t.CommuteMode.Eco()
}

func (t *Trip) apply(d Details) error {
	if !d.CommuteMode.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "unknown commute mode: "+string(d.CommuteMode))
	}
	distance := d.Distance.Round(2)
	if distance.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "distance cannot be negative")
	}
	if distance.GreaterThan(MaxDistance) {
		return shared.NewDomainError("INVALID_INPUT", "distance cannot exceed 1000 km")
	}
	if d.CommuteMode.ForcesZeroDistance() {
		distance = decimal.Zero
	} else if d.CommuteMode.RequiresDistance() && !distance.IsPositive() {
		return shared.NewDomainError("INVALID_INPUT", "distance is required for "+string(d.CommuteMode))
	}
	if d.DurationSeconds < 0 {
		return shared.NewDomainError("INVALID_INPUT", "duration cannot be negative")
	}
	t.CommuteMode = d.CommuteMode
	t.Distance = distance
	t.DurationSeconds = d.DurationSeconds
	t.SourceApplication = d.SourceApplication
	t.SourceID = d.SourceID
	t.Description = d.Description
	t.FromApplication = d.SourceApplication != ""
	return nil
}

// Key is the unique slot of a trip
type Key struct {
	UserAttendanceID uuid.UUID
	Date             time.Time
	Direction        Direction
}
