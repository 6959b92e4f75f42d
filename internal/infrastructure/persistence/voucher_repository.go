package persistence

import (
	"context"
	"strings"

	"github.com/dpnk/backend/internal/domain/voucher"
	"github.com/dpnk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCouponRepository implements voucher.CouponRepository using GORM
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository creates a new GormCouponRepository
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// FindByID finds a coupon by ID
func (r *GormCouponRepository) FindByID(ctx context.Context, id uuid.UUID) (*voucher.DiscountCoupon, error) {
	var model models.DiscountCouponModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCode finds a coupon by its type prefix and token
func (r *GormCouponRepository) FindByCode(ctx context.Context, campaignID uuid.UUID, couponType, token string) (*voucher.DiscountCoupon, error) {
	var model models.DiscountCouponModel
	if err := conn(ctx, r.db).
		Scopes(CampaignScope(campaignID)).
		Where("coupon_type = ? AND token = ?", strings.ToUpper(couponType), strings.ToUpper(token)).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// CountUses counts attendances that applied the coupon
func (r *GormCouponRepository) CountUses(ctx context.Context, couponID uuid.UUID) (int, error) {
	var count int64
	if err := conn(ctx, r.db).
		Model(&models.UserAttendanceModel{}).
		Where("discount_coupon_id = ? AND discount_coupon_used = ?", couponID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// Save creates or updates a coupon
func (r *GormCouponRepository) Save(ctx context.Context, coupon *voucher.DiscountCoupon) error {
	return conn(ctx, r.db).Save(models.DiscountCouponModelFromDomain(coupon)).Error
}

// GormVoucherRepository implements voucher.VoucherRepository using GORM
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewGormVoucherRepository creates a new GormVoucherRepository
func NewGormVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// FindByAttendance lists the vouchers assigned to a participant
func (r *GormVoucherRepository) FindByAttendance(ctx context.Context, userAttendanceID uuid.UUID) ([]voucher.Voucher, error) {
	var rows []models.VoucherModel
	if err := conn(ctx, r.db).
		Where("user_attendance_id = ?", userAttendanceID).
		Order("type ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	vouchers := make([]voucher.Voucher, 0, len(rows))
	for i := range rows {
		vouchers = append(vouchers, *rows[i].ToDomain())
	}
	return vouchers, nil
}

// FindFreeForUpdate locks one unassigned voucher of the type. Vouchers
// locked by a concurrent assignment are skipped.
func (r *GormVoucherRepository) FindFreeForUpdate(ctx context.Context, campaignID uuid.UUID, typ voucher.Type) (*voucher.Voucher, error) {
	var model models.VoucherModel
	if err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Scopes(CampaignScope(campaignID)).
		Where("type = ? AND user_attendance_id IS NULL", typ).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a voucher
func (r *GormVoucherRepository) Save(ctx context.Context, v *voucher.Voucher) error {
	return conn(ctx, r.db).Save(models.VoucherModelFromDomain(v)).Error
}
