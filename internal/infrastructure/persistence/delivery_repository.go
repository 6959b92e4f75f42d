package persistence

import (
	"context"
	"database/sql"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/delivery"
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/dpnk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPackageRepository implements delivery.PackageRepository using GORM
type GormPackageRepository struct {
	db *gorm.DB
}

// NewGormPackageRepository creates a new GormPackageRepository
func NewGormPackageRepository(db *gorm.DB) *GormPackageRepository {
	return &GormPackageRepository{db: db}
}

func (r *GormPackageRepository) packages(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).Model(&models.TransactionModel{}).Where("kind = ?", payment.KindPackage)
}

// FindByBatch lists the packages of a batch by tracking number
func (r *GormPackageRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]delivery.PackageTransaction, error) {
	var rows []models.TransactionModel
	if err := r.packages(ctx).
		Where("batch_id = ?", batchID).
		Order("tracking_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return packagesToDomain(rows), nil
}

// FindByAttendance lists the packages sent to a participant
func (r *GormPackageRepository) FindByAttendance(ctx context.Context, userAttendanceID uuid.UUID) ([]delivery.PackageTransaction, error) {
	var rows []models.TransactionModel
	if err := r.packages(ctx).
		Where("user_attendance_id = ?", userAttendanceID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return packagesToDomain(rows), nil
}

// FindByTrackingNumber finds a package of a campaign by its tracking number
func (r *GormPackageRepository) FindByTrackingNumber(ctx context.Context, campaignID uuid.UUID, trackingNumber int64) (*delivery.PackageTransaction, error) {
	var model models.TransactionModel
	if err := r.packages(ctx).
		Scopes(CampaignScope(campaignID)).
		Where("tracking_number = ?", trackingNumber).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToPackage(), nil
}

// LastTrackingNumber returns the highest tracking number used in the campaign
func (r *GormPackageRepository) LastTrackingNumber(ctx context.Context, campaignID uuid.UUID) (*int64, error) {
	var last sql.NullInt64
	if err := r.packages(ctx).
		Scopes(CampaignScope(campaignID)).
		Select("MAX(tracking_number)").
		Row().Scan(&last); err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Int64, nil
}

// SaveBatch creates the packages of a batch in one statement
func (r *GormPackageRepository) SaveBatch(ctx context.Context, packages []*delivery.PackageTransaction) error {
	if len(packages) == 0 {
		return nil
	}
	rows := make([]*models.TransactionModel, 0, len(packages))
	for _, p := range packages {
		rows = append(rows, models.TransactionModelFromPackage(p))
	}
	return conn(ctx, r.db).CreateInBatches(rows, 200).Error
}

// Save creates or updates a package
func (r *GormPackageRepository) Save(ctx context.Context, pkg *delivery.PackageTransaction) error {
	return conn(ctx, r.db).Save(models.TransactionModelFromPackage(pkg)).Error
}

func packagesToDomain(rows []models.TransactionModel) []delivery.PackageTransaction {
	packages := make([]delivery.PackageTransaction, 0, len(rows))
	for i := range rows {
		packages = append(packages, *rows[i].ToPackage())
	}
	return packages
}

// GormBatchRepository implements delivery.BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByID finds a delivery batch by ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*delivery.Batch, error) {
	var model models.DeliveryBatchModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCampaign lists the batches of a campaign, newest first
func (r *GormBatchRepository) FindByCampaign(ctx context.Context, campaignID uuid.UUID) ([]delivery.Batch, error) {
	var rows []models.DeliveryBatchModel
	if err := conn(ctx, r.db).
		Scopes(CampaignScope(campaignID)).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	batches := make([]delivery.Batch, 0, len(rows))
	for i := range rows {
		batches = append(batches, *rows[i].ToDomain())
	}
	return batches, nil
}

// FindCandidates lists paid approved team members with a shippable t-shirt
// size who have no package yet, grouped by subsidiary
func (r *GormBatchRepository) FindCandidates(ctx context.Context, campaignID uuid.UUID) ([]delivery.Candidate, error) {
	db := conn(ctx, r.db)
	shipped := db.Model(&models.TransactionModel{}).
		Select("user_attendance_id").
		Where("kind = ? AND campaign_id = ?", payment.KindPackage, campaignID)

	var rows []candidateRow
	if err := db.Model(&models.UserAttendanceModel{}).
		Select("user_attendances.id AS user_attendance_id, teams.subsidiary_id AS subsidiary_id, user_attendances.tshirt_size_id AS tshirt_size_id").
		Joins("JOIN teams ON teams.id = user_attendances.team_id").
		Joins("JOIN tshirt_sizes ON tshirt_sizes.id = user_attendances.tshirt_size_id").
		Where("user_attendances.campaign_id = ?", campaignID).
		Where("user_attendances.approved_for_team = ?", organization.ApprovalApproved).
		Where("user_attendances.payment_status IN ?", []attendance.PaymentState{attendance.PaymentDone, attendance.PaymentNoAdmission}).
		Where("tshirt_sizes.ship_it = ?", true).
		Where("user_attendances.id NOT IN (?)", shipped).
		Order("teams.subsidiary_id ASC, user_attendances.created_at ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	candidates := make([]delivery.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, delivery.Candidate{
			UserAttendanceID: row.UserAttendanceID,
			SubsidiaryID:     row.SubsidiaryID,
			TShirtSizeID:     row.TShirtSizeID,
		})
	}
	return candidates, nil
}

type candidateRow struct {
	UserAttendanceID uuid.UUID `gorm:"column:user_attendance_id"`
	SubsidiaryID     uuid.UUID `gorm:"column:subsidiary_id"`
	TShirtSizeID     uuid.UUID `gorm:"column:tshirt_size_id"`
}

// Save creates or updates a delivery batch
func (r *GormBatchRepository) Save(ctx context.Context, batch *delivery.Batch) error {
	return conn(ctx, r.db).Save(models.DeliveryBatchModelFromDomain(batch)).Error
}
