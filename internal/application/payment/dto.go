package payment

import (
	"time"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/dpnk/backend/internal/domain/voucher"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StartPaymentInput represents a request to pay the entry fee online
type StartPaymentInput struct {
	PayType  payment.PayType `json:"pay_type"`
	ClientIP string          `json:"-"`
}

// PaymentFormResponse is the form the browser posts to the gateway
type PaymentFormResponse struct {
	PaymentID uuid.UUID         `json:"payment_id"`
	Action    string            `json:"action"`
	Fields    map[string]string `json:"fields"`
}

// NotificationInput is the status ping posted by the gateway
type NotificationInput struct {
	PosID     string `form:"pos_id" binding:"required"`
	SessionID string `form:"session_id" binding:"required"`
	Timestamp string `form:"ts" binding:"required"`
	Signature string `form:"sig" binding:"required"`
}

// ToNotification converts the input to the domain notification
func (i NotificationInput) ToNotification() payment.Notification {
	return payment.Notification{
		PosID:     i.PosID,
		SessionID: i.SessionID,
		Timestamp: i.Timestamp,
		Signature: i.Signature,
	}
}

// ReturnInput is what the gateway appends to the return URL
type ReturnInput struct {
	SessionID string `form:"session_id" binding:"required"`
	TransID   string `form:"trans_id"`
	PosID     string `form:"pos_id"`
	Error     string `form:"error"`
}

// ApplyCouponInput represents a discount coupon entered by a participant
type ApplyCouponInput struct {
	Code string `json:"code" binding:"required,min=9,max=9"`
}

// CouponResponse shows the effect of an applied coupon
type CouponResponse struct {
	Code          string                  `json:"code"`
	Discount      int                     `json:"discount"`
	Fee           decimal.Decimal         `json:"fee"`
	PaymentStatus attendance.PaymentState `json:"payment_status"`
}

// CompanyDecisionInput approves or rejects company-paid entries
type CompanyDecisionInput struct {
	PaymentIDs []uuid.UUID `json:"payment_ids" binding:"required,min=1"`
	Reject     bool        `json:"reject"`
}

// CommonTransactionInput records a manual payment state
type CommonTransactionInput struct {
	UserAttendanceID uuid.UUID      `json:"user_attendance_id" binding:"required"`
	Status           payment.Status `json:"status" binding:"required"`
	Description      string         `json:"description" binding:"required,max=500"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID               uuid.UUID       `json:"id"`
	UserAttendanceID uuid.UUID       `json:"user_attendance_id"`
	Status           payment.Status  `json:"status"`
	StatusName       string          `json:"status_name"`
	PayType          payment.PayType `json:"pay_type"`
	Amount           decimal.Decimal `json:"amount"`
	SessionID        string          `json:"session_id,omitempty"`
	OrderID          string          `json:"order_id,omitempty"`
	TransID          string          `json:"trans_id,omitempty"`
	Error            string          `json:"error,omitempty"`
	Realized         *time.Time      `json:"realized,omitempty"`
	InvoiceID        *uuid.UUID      `json:"invoice_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ToPaymentResponse converts a domain Payment to PaymentResponse
func ToPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID,
		UserAttendanceID: p.UserAttendanceID,
		Status:           p.Status,
		StatusName:       p.Status.String(),
		PayType:          p.PayType,
		Amount:           p.Amount,
		SessionID:        p.SessionID,
		OrderID:          p.OrderID,
		TransID:          p.TransID,
		Error:            p.Error,
		Realized:         p.Realized,
		InvoiceID:        p.InvoiceID,
		CreatedAt:        p.CreatedAt,
	}
}

// PaymentsOverview lists the payments of a participant with the derived state
type PaymentsOverview struct {
	PaymentStatus attendance.PaymentState `json:"payment_status"`
	Fee           decimal.Decimal         `json:"fee"`
	Payments      []PaymentResponse       `json:"payments"`
}

// ReturnResponse is shown after the gateway redirects the participant back
type ReturnResponse struct {
	Success       bool                    `json:"success"`
	Payment       PaymentResponse         `json:"payment"`
	PaymentStatus attendance.PaymentState `json:"payment_status"`
}

// VoucherResponse is a partner voucher of the participant
type VoucherResponse struct {
	ID    uuid.UUID    `json:"id"`
	Type  voucher.Type `json:"type"`
	Token string       `json:"token"`
}

// ToVoucherResponse converts a domain Voucher to VoucherResponse
func ToVoucherResponse(v *voucher.Voucher) VoucherResponse {
	return VoucherResponse{ID: v.ID, Type: v.Type, Token: v.Token}
}
