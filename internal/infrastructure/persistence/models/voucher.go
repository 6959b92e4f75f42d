package models

import (
	"time"

	"github.com/dpnk/backend/internal/domain/voucher"
	"github.com/google/uuid"
)

// DiscountCouponModel is the persistence model for discount coupons
type DiscountCouponModel struct {
	CampaignAggregateModel
	CouponType           string `gorm:"type:varchar(10);not null;uniqueIndex:idx_coupon_code,priority:1"`
	Token                string `gorm:"type:varchar(10);not null;uniqueIndex:idx_coupon_code,priority:2"`
	Discount             int    `gorm:"not null;default:100"`
	UserAttendanceNumber *int
	ValidUntil           *time.Time `gorm:"type:date"`
	Note                 string     `gorm:"type:text"`
	Sent                 bool       `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (DiscountCouponModel) TableName() string {
	return "discount_coupons"
}

// ToDomain converts the persistence model to a domain DiscountCoupon.
func (m *DiscountCouponModel) ToDomain() *voucher.DiscountCoupon {
	return &voucher.DiscountCoupon{
		CampaignAggregateRoot: m.CampaignAggregate(),
		CouponType:            m.CouponType,
		Token:                 m.Token,
		Discount:              m.Discount,
		UserAttendanceNumber:  m.UserAttendanceNumber,
		ValidUntil:            utcDay(m.ValidUntil),
		Note:                  m.Note,
		Sent:                  m.Sent,
	}
}

// DiscountCouponModelFromDomain creates a new persistence model from a domain DiscountCoupon.
func DiscountCouponModelFromDomain(c *voucher.DiscountCoupon) *DiscountCouponModel {
	m := &DiscountCouponModel{
		CouponType:           c.CouponType,
		Token:                c.Token,
		Discount:             c.Discount,
		UserAttendanceNumber: c.UserAttendanceNumber,
		ValidUntil:           c.ValidUntil,
		Note:                 c.Note,
		Sent:                 c.Sent,
	}
	m.SetCampaignAggregate(c.CampaignAggregateRoot)
	return m
}

// VoucherModel is the persistence model for partner vouchers
type VoucherModel struct {
	CampaignAggregateModel
	Type             voucher.Type `gorm:"type:varchar(16);not null;index"`
	Token            string       `gorm:"type:varchar(100);not null"`
	UserAttendanceID *uuid.UUID   `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (VoucherModel) TableName() string {
	return "vouchers"
}

// ToDomain converts the persistence model to a domain Voucher.
func (m *VoucherModel) ToDomain() *voucher.Voucher {
	return &voucher.Voucher{
		CampaignAggregateRoot: m.CampaignAggregate(),
		Type:                  m.Type,
		Token:                 m.Token,
		UserAttendanceID:      m.UserAttendanceID,
	}
}

// VoucherModelFromDomain creates a new persistence model from a domain Voucher.
func VoucherModelFromDomain(v *voucher.Voucher) *VoucherModel {
	m := &VoucherModel{Type: v.Type, Token: v.Token, UserAttendanceID: v.UserAttendanceID}
	m.SetCampaignAggregate(v.CampaignAggregateRoot)
	return m
}
