package payment

import (
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypePayment           = "Payment"
	AggregateTypeCommonTransaction = "CommonTransaction"
)

// Event type constants
const (
	EventTypePaymentStatusChanged = "PaymentStatusChanged"
)

// PaymentStatusChangedEvent is published when a payment is created or its
// status changes. The attendance payment state is derived from it.
type PaymentStatusChangedEvent struct {
	shared.BaseDomainEvent
	UserAttendanceID uuid.UUID       `json:"user_attendance_id"`
	OldStatus        Status          `json:"old_status"`
	NewStatus        Status          `json:"new_status"`
	PayType          PayType         `json:"pay_type"`
	Amount           decimal.Decimal `json:"amount"`
}

// NewPaymentStatusChangedEvent creates a new PaymentStatusChangedEvent
func NewPaymentStatusChangedEvent(p *Payment, old Status) *PaymentStatusChangedEvent {
	return &PaymentStatusChangedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypePaymentStatusChanged, AggregateTypePayment, p.ID, p.CampaignID),
		UserAttendanceID: p.UserAttendanceID,
		OldStatus:        old,
		NewStatus:        p.Status,
		PayType:          p.PayType,
		Amount:           p.Amount,
	}
}

// NewCommonTransactionEvent reports a status entered by staff. It carries
// no amount and no pay type; the previous status is unknown.
func NewCommonTransactionEvent(t *CommonTransaction) *PaymentStatusChangedEvent {
	return &PaymentStatusChangedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypePaymentStatusChanged, AggregateTypeCommonTransaction, t.ID, t.CampaignID),
		UserAttendanceID: t.UserAttendanceID,
		NewStatus:        t.Status,
		Amount:           decimal.Zero,
	}
}
