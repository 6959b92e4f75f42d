package trip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/dpnk/backend/internal/infrastructure/gpx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TripService records the daily commutes of participants
type TripService struct {
	campaigns   campaign.CampaignRepository
	attendances attendance.UserAttendanceRepository
	trips       trip.TripRepository
	tx          shared.Transactor
	publisher   shared.EventPublisher
	storage     shared.FileStorage
	logger      *zap.Logger
	now         func() time.Time
}

// NewTripService creates a new trip service
func NewTripService(
	campaigns campaign.CampaignRepository,
	attendances attendance.UserAttendanceRepository,
	trips trip.TripRepository,
	tx shared.Transactor,
	publisher shared.EventPublisher,
	storage shared.FileStorage,
	logger *zap.Logger,
) *TripService {
	return &TripService{
		campaigns:   campaigns,
		attendances: attendances,
		trips:       trips,
		tx:          tx,
		publisher:   publisher,
		storage:     storage,
		logger:      logger,
		now:         time.Now,
	}
}

// LogTrip creates the trip of a day and direction or replaces its details.
// The day has to be editable unless input.Force is set.
func (s *TripService) LogTrip(ctx context.Context, campaignID, userID uuid.UUID, input LogTripInput) (*TripResponse, error) {
	c, ua, err := s.participant(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditable(c, input.Date, input.Force); err != nil {
		return nil, err
	}

	t, err := s.upsert(ctx, c, ua, input.Date, input.Direction, input.details(), nil)
	if err != nil {
		return nil, err
	}
	resp := ToTripResponse(t)
	return &resp, nil
}

// upsert saves the trip of the slot; track, when set, runs inside the
// transaction after the trip has been saved
func (s *TripService) upsert(
	ctx context.Context,
	c *campaign.Campaign,
	ua *attendance.UserAttendance,
	date time.Time,
	direction trip.Direction,
	details trip.Details,
	track func(ctx context.Context, t *trip.Trip) error,
) (*trip.Trip, error) {
	var saved *trip.Trip
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		key := trip.Key{UserAttendanceID: ua.ID, Date: shared.DateOf(date), Direction: direction}
		t, err := s.trips.FindByKey(ctx, key)
		switch {
		case err == nil:
			if err := t.Update(details); err != nil {
				return err
			}
		case errors.Is(err, shared.ErrNotFound):
			t, err = trip.NewTrip(c.ID, ua.ID, date, direction, details)
			if err != nil {
				return err
			}
		default:
			return err
		}

		if track != nil {
			if err := track(ctx, t); err != nil {
				return err
			}
		}
		if err := s.trips.Save(ctx, t); err != nil {
			return err
		}
		if err := s.publisher.Publish(ctx, t.GetDomainEvents()...); err != nil {
			return err
		}
		t.ClearDomainEvents()
		saved = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Trip saved",
		zap.String("user_attendance_id", ua.ID.String()),
		zap.Time("date", saved.Date),
		zap.String("direction", string(saved.Direction)),
		zap.String("mode", string(saved.CommuteMode)))
	return saved, nil
}

// DeleteTrip removes a trip of the user inside the editability window
func (s *TripService) DeleteTrip(ctx context.Context, campaignID, userID, tripID uuid.UUID, force bool) error {
	c, ua, err := s.participant(ctx, campaignID, userID)
	if err != nil {
		return err
	}
	t, err := s.trips.FindByID(ctx, tripID)
	if err != nil {
		return err
	}
	if t.UserAttendanceID != ua.ID {
		return shared.ErrNotFound
	}
	if err := s.checkEditable(c, t.Date, force); err != nil {
		return err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		t.MarkDeleted()
		if err := s.trips.Delete(ctx, t.ID); err != nil {
			return err
		}
		if err := s.publisher.Publish(ctx, t.GetDomainEvents()...); err != nil {
			return err
		}
		t.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return err
	}

	if t.TrackKey != "" {
		if err := s.storage.Delete(ctx, t.TrackKey); err != nil {
			s.logger.Warn("Failed to delete GPX track",
				zap.String("key", t.TrackKey),
				zap.Error(err))
		}
	}
	return nil
}

// ListTrips returns the trips of the user between from and to inclusive.
// Zero bounds default to the competition phase.
func (s *TripService) ListTrips(ctx context.Context, campaignID, userID uuid.UUID, from, to time.Time) ([]TripResponse, error) {
	c, ua, err := s.participant(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	from, to = s.bounds(c, from, to)
	trips, err := s.trips.FindByAttendance(ctx, ua.ID, from, to)
	if err != nil {
		return nil, err
	}
	items := make([]TripResponse, len(trips))
	for i := range trips {
		items[i] = ToTripResponse(&trips[i])
	}
	return items, nil
}

// RidesCalendar lays the trips of the user out per day with the editability
// of each day
func (s *TripService) RidesCalendar(ctx context.Context, campaignID, userID uuid.UUID, from, to time.Time) ([]CalendarDayResponse, error) {
	c, ua, err := s.participant(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	from, to = s.bounds(c, from, to)
	if shared.DaysBetween(from, to) > 366 {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "The calendar range cannot exceed one year")
	}
	trips, err := s.trips.FindByAttendance(ctx, ua.ID, from, to)
	if err != nil {
		return nil, err
	}

	today := s.now()
	days := trip.BuildCalendar(from, to, trips, func(day time.Time) bool {
		return c.DayActive(day, today)
	})
	out := make([]CalendarDayResponse, len(days))
	for i, day := range days {
		out[i] = CalendarDayResponse{
			Date:     day.Date.Format(time.DateOnly),
			Editable: day.Editable,
			Trips:    make([]TripResponse, len(day.Trips)),
		}
		for j := range day.Trips {
			out[i].Trips[j] = ToTripResponse(&day.Trips[j])
		}
	}
	return out, nil
}

// ImportGPX measures an uploaded GPX file, stores it and records it as a
// bicycle trip of the day and direction
func (s *TripService) ImportGPX(ctx context.Context, campaignID, userID uuid.UUID, input ImportGPXInput) (*TripResponse, error) {
	c, ua, err := s.participant(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditable(c, input.Date, input.Force); err != nil {
		return nil, err
	}

	track, err := gpx.Parse(input.Data)
	if err != nil {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, err.Error())
	}

	details := trip.Details{
		CommuteMode:     trip.ModeBicycle,
		Distance:        track.Distance,
		DurationSeconds: track.DurationSeconds(),
		Description:     input.FileName,
	}
	key := trackKey(c.Slug, ua.ID, input.Date, input.Direction)
	t, err := s.upsert(ctx, c, ua, input.Date, input.Direction, details, func(ctx context.Context, t *trip.Trip) error {
		if err := s.storage.Put(ctx, key, input.Data, "application/gpx+xml"); err != nil {
			return fmt.Errorf("store gpx track: %w", err)
		}
		t.AttachTrack(key)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("GPX track imported",
		zap.String("user_attendance_id", ua.ID.String()),
		zap.String("distance", track.Distance.String()),
		zap.Int("points", track.Points))

	resp := ToTripResponse(t)
	return &resp, nil
}

// TrackURL returns a temporary download link of the GPX file of a trip
func (s *TripService) TrackURL(ctx context.Context, campaignID, userID, tripID uuid.UUID) (string, error) {
	_, ua, err := s.participant(ctx, campaignID, userID)
	if err != nil {
		return "", err
	}
	t, err := s.trips.FindByID(ctx, tripID)
	if err != nil {
		return "", err
	}
	if t.UserAttendanceID != ua.ID || t.TrackKey == "" {
		return "", shared.ErrNotFound
	}
	url, _, err := s.storage.DownloadURL(ctx, t.TrackKey, 15*time.Minute)
	return url, err
}

func trackKey(campaignSlug string, userAttendanceID uuid.UUID, date time.Time, direction trip.Direction) string {
	return fmt.Sprintf("gpx/%s/%s/%s-%s.gpx", campaignSlug, userAttendanceID, shared.DateOf(date).Format(time.DateOnly), direction)
}

func (s *TripService) participant(ctx context.Context, campaignID, userID uuid.UUID) (*campaign.Campaign, *attendance.UserAttendance, error) {
	c, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, nil, err
	}
	ua, err := s.attendances.FindByUser(ctx, campaignID, userID)
	if err != nil {
		return nil, nil, err
	}
	return c, ua, nil
}

func (s *TripService) checkEditable(c *campaign.Campaign, day time.Time, force bool) error {
	if force || c.DayActive(day, s.now()) {
		return nil
	}
	return shared.NewDomainError("DAY_NOT_EDITABLE", "Trips of this day can no longer be changed")
}

func (s *TripService) bounds(c *campaign.Campaign, from, to time.Time) (time.Time, time.Time) {
	if phase, ok := c.Phase(campaign.PhaseCompetition); ok {
		if from.IsZero() && phase.DateFrom != nil {
			from = *phase.DateFrom
		}
		if to.IsZero() && phase.DateTo != nil {
			to = *phase.DateTo
		}
	}
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -c.DaysActive)
	}
	return shared.DateOf(from), shared.DateOf(to)
}
