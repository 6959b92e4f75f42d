package voucher

import (
	"context"

	"github.com/google/uuid"
)

// CouponRepository defines persistence operations for discount coupons
type CouponRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*DiscountCoupon, error)
	FindByCode(ctx context.Context, campaignID uuid.UUID, couponType, token string) (*DiscountCoupon, error)

	// CountUses counts attendances that applied the coupon
	CountUses(ctx context.Context, couponID uuid.UUID) (int, error)
	Save(ctx context.Context, coupon *DiscountCoupon) error
}

// VoucherRepository defines persistence operations for vouchers
type VoucherRepository interface {
	FindByAttendance(ctx context.Context, userAttendanceID uuid.UUID) ([]Voucher, error)

	// FindFreeForUpdate locks one unassigned voucher of the type
	FindFreeForUpdate(ctx context.Context, campaignID uuid.UUID, typ Type) (*Voucher, error)
	Save(ctx context.Context, v *Voucher) error
}
