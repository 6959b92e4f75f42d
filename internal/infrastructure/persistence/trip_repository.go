package persistence

import (
	"context"
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/dpnk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormTripRepository implements trip.TripRepository using GORM
type GormTripRepository struct {
	db *gorm.DB
}

// NewGormTripRepository creates a new GormTripRepository
func NewGormTripRepository(db *gorm.DB) *GormTripRepository {
	return &GormTripRepository{db: db}
}

// FindByID finds a trip by ID
func (r *GormTripRepository) FindByID(ctx context.Context, id uuid.UUID) (*trip.Trip, error) {
	var model models.TripModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByKey finds the trip occupying a day and direction
func (r *GormTripRepository) FindByKey(ctx context.Context, key trip.Key) (*trip.Trip, error) {
	var model models.TripModel
	if err := conn(ctx, r.db).
		Where("user_attendance_id = ? AND date = ? AND direction = ?", key.UserAttendanceID, shared.DateOf(key.Date), key.Direction).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByAttendance lists trips of one participant within [from, to]
func (r *GormTripRepository) FindByAttendance(ctx context.Context, userAttendanceID uuid.UUID, from, to time.Time) ([]trip.Trip, error) {
	return r.FindByAttendances(ctx, []uuid.UUID{userAttendanceID}, from, to)
}

// FindByAttendances lists trips of several participants within [from, to]
func (r *GormTripRepository) FindByAttendances(ctx context.Context, userAttendanceIDs []uuid.UUID, from, to time.Time) ([]trip.Trip, error) {
	if len(userAttendanceIDs) == 0 {
		return []trip.Trip{}, nil
	}
	var rows []models.TripModel
	if err := conn(ctx, r.db).
		Where("user_attendance_id IN ?", userAttendanceIDs).
		Where("date >= ? AND date <= ?", shared.DateOf(from), shared.DateOf(to)).
		Order("date ASC, direction ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	trips := make([]trip.Trip, 0, len(rows))
	for i := range rows {
		trips = append(trips, *rows[i].ToDomain())
	}
	return trips, nil
}

// Save creates or updates a trip
func (r *GormTripRepository) Save(ctx context.Context, t *trip.Trip) error {
	return conn(ctx, r.db).Save(models.TripModelFromDomain(t)).Error
}

// Delete removes a trip
func (r *GormTripRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.TripModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type modeStatisticsRow struct {
	CommuteMode trip.CommuteMode
	Trips       int64
	Distance    decimal.Decimal
}

// StatisticsByMode sums trips and distance of a campaign per commute mode
func (r *GormTripRepository) StatisticsByMode(ctx context.Context, campaignID uuid.UUID) ([]trip.ModeStatistics, error) {
	var rows []modeStatisticsRow
	if err := conn(ctx, r.db).
		Model(&models.TripModel{}).
		Select("commute_mode, COUNT(*) AS trips, COALESCE(SUM(distance), 0) AS distance").
		Scopes(CampaignScope(campaignID)).
		Group("commute_mode").
		Order("commute_mode ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	stats := make([]trip.ModeStatistics, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, trip.ModeStatistics{CommuteMode: row.CommuteMode, Trips: row.Trips, Distance: row.Distance})
	}
	return stats, nil
}
