package voucher

import (
	"regexp"
	"strings"
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const tokenAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var (
	couponPattern = regexp.MustCompile(`^([A-Z]{2})-([A-Z0-9]{6})$`)
	prefixPattern = regexp.MustCompile(`^[A-Z]{2}$`)
)

// DiscountCoupon lowers or waives the entry fee
type DiscountCoupon struct {
	shared.CampaignAggregateRoot
	CouponType           string
	Token                string
	Discount             int
	UserAttendanceNumber *int
	ValidUntil           *time.Time
	Note                 string
	Sent                 bool
}

// NewDiscountCoupon creates a coupon with a random token. limit is the
// maximum number of attendances that may use it; nil means unlimited.
func NewDiscountCoupon(campaignID uuid.UUID, couponType string, discount int, limit *int, validUntil *time.Time) (*DiscountCoupon, error) {
	couponType = strings.ToUpper(strings.TrimSpace(couponType))
	if !prefixPattern.MatchString(couponType) {
		return nil, shared.NewDomainError("INVALID_INPUT", "coupon type must be two letters")
	}
	if discount < 0 || discount > 100 {
		return nil, shared.NewDomainError("INVALID_INPUT", "discount must be between 0 and 100 percent")
	}
	if limit != nil && *limit < 1 {
		return nil, shared.NewDomainError("INVALID_INPUT", "usage limit must be positive")
	}
	token, err := randomToken(6)
	if err != nil {
		return nil, err
	}
	return &DiscountCoupon{
		CampaignAggregateRoot: shared.NewCampaignAggregateRoot(campaignID),
		CouponType:            couponType,
		Token:                 token,
		Discount:              discount,
		UserAttendanceNumber:  limit,
		ValidUntil:            validUntil,
	}, nil
}

// Code is the coupon as typed by the participant
func (c *DiscountCoupon) Code() string {
	return c.CouponType + "-" + c.Token
}

// ParseCode splits a coupon code into type and token
func ParseCode(code string) (couponType, token string, err error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	m := couponPattern.FindStringSubmatch(code)
	if m == nil {
		return "", "", shared.NewDomainError("INVALID_COUPON", "coupon code must look like XX-ABC123")
	}
	return m[1], m[2], nil
}

// CheckUsable validates expiry and the usage limit. used is the number of
// attendances that already applied the coupon.
func (c *DiscountCoupon) CheckUsable(used int, today time.Time) error {
	if c.ValidUntil != nil && shared.DateOf(today).After(shared.DateOf(*c.ValidUntil)) {
		return shared.NewDomainError("INVALID_COUPON", "coupon has expired")
	}
	if c.UserAttendanceNumber != nil && used >= *c.UserAttendanceNumber {
		return shared.NewDomainError("INVALID_COUPON", "coupon has already been used up")
	}
	return nil
}

// IsFree reports whether the coupon waives the whole fee
func (c *DiscountCoupon) IsFree() bool {
	return c.Discount >= 100
}

// Apply returns the fee after the discount, rounded to whole crowns
func (c *DiscountCoupon) Apply(fee decimal.Decimal) decimal.Decimal {
	if c.IsFree() {
		return decimal.Zero
	}
	remaining := decimal.NewFromInt(int64(100 - c.Discount))
	return fee.Mul(remaining).Div(decimal.NewFromInt(100)).Round(0)
}
