package payment

import (
	"strings"
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind distinguishes the rows of the transaction table
type Kind string

const (
	KindPayment Kind = "payment"
	KindPackage Kind = "package"
	KindCommon  Kind = "common"
)

// Payment is an entry fee transaction of a participant
type Payment struct {
	shared.CampaignAggregateRoot
	UserAttendanceID uuid.UUID
	Status           Status
	Realized         *time.Time
	AuthorID         *uuid.UUID
	Description      string
	OrderID          string
	SessionID        string
	TransID          string
	Amount           decimal.Decimal
	PayType          PayType
	Error            string
	InvoiceID        *uuid.UUID
}

// NewPayment creates a payment in status new. sessionID must be unique
// across all payments.
func NewPayment(campaignID, userAttendanceID uuid.UUID, amount decimal.Decimal, payType PayType, orderID, sessionID string) (*Payment, error) {
	if userAttendanceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "payment must belong to an attendance")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "amount cannot be negative")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "session id is required")
	}
	p := &Payment{
		CampaignAggregateRoot: shared.NewCampaignAggregateRoot(campaignID),
		UserAttendanceID:      userAttendanceID,
		Status:                StatusNew,
		OrderID:               orderID,
		SessionID:             sessionID,
		Amount:                amount.Round(2),
		PayType:               payType,
	}
	p.AddDomainEvent(NewPaymentStatusChangedEvent(p, 0))
	return p, nil
}

// NewFreeEntry creates a settled payment for a participant whose entry fee
// is fully covered
func NewFreeEntry(campaignID, userAttendanceID uuid.UUID, sessionID, description string) (*Payment, error) {
	p, err := NewPayment(campaignID, userAttendanceID, decimal.Zero, PayTypeFreeEntry, "", sessionID)
	if err != nil {
		return nil, err
	}
	p.Description = description
	p.ClearDomainEvents()
	p.setStatus(StatusDone)
	return p, nil
}

// NewCompanyPayment creates a payment the employer is asked to cover
func NewCompanyPayment(campaignID, userAttendanceID uuid.UUID, amount decimal.Decimal, sessionID string) (*Payment, error) {
	return NewPayment(campaignID, userAttendanceID, amount, PayTypeCompany, "", sessionID)
}

// AmountInHalers returns the amount in the smallest currency unit
func (p *Payment) AmountInHalers() int64 {
	return p.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// GatewayReport is the state of a transaction reported by the payment gateway
type GatewayReport struct {
	Status  Status
	TransID string
	PayType PayType
	Amount  int64
	Error   string
}

// ApplyGatewayReport updates the payment from a gateway status query. A
// reported amount that differs from the ordered one moves the payment to
// StatusWrongAmount. Returns true when the status changed.
func (p *Payment) ApplyGatewayReport(r GatewayReport) bool {
	if r.TransID != "" {
		p.TransID = r.TransID
	}
	if r.PayType != "" {
		p.PayType = r.PayType
	}
	p.Error = r.Error

	status := r.Status
	if r.Amount != p.AmountInHalers() {
		status = StatusWrongAmount
	}
	if status == p.Status {
		return false
	}
	p.setStatus(status)
	return true
}

// AcceptByCompany marks a company-paid entry as accepted by the company admin
func (p *Payment) AcceptByCompany(authorID uuid.UUID) error {
	if p.PayType != PayTypeCompany {
		return shared.NewDomainError("INVALID_STATE", "only company payments can be accepted by a company")
	}
	if !p.Status.IsWaiting() && p.Status != StatusRejected {
		return shared.NewDomainError("INVALID_STATE", "payment is not waiting for the company")
	}
	p.AuthorID = &authorID
	p.setStatus(StatusCompanyAccepts)
	return nil
}

// RejectByCompany refuses a company-paid entry
func (p *Payment) RejectByCompany(authorID uuid.UUID) error {
	if p.PayType != PayTypeCompany {
		return shared.NewDomainError("INVALID_STATE", "only company payments can be rejected by a company")
	}
	if p.Status != StatusNew && p.Status != StatusCompanyAccepts {
		return shared.NewDomainError("INVALID_STATE", "payment can no longer be rejected")
	}
	p.AuthorID = &authorID
	p.setStatus(StatusRejected)
	return nil
}

// AttachToInvoice moves an accepted company payment onto an invoice
func (p *Payment) AttachToInvoice(invoiceID uuid.UUID) error {
	if p.Status != StatusCompanyAccepts {
		return shared.NewDomainError("INVALID_STATE", "only accepted company payments can be invoiced")
	}
	p.InvoiceID = &invoiceID
	p.setStatus(StatusInvoiceMade)
	return nil
}

// MarkInvoicePaid settles an invoiced payment
func (p *Payment) MarkInvoicePaid() error {
	if p.Status != StatusInvoiceMade {
		return shared.NewDomainError("INVALID_STATE", "payment is not invoiced")
	}
	p.setStatus(StatusInvoicePaid)
	return nil
}

// DetachFromInvoice returns an invoiced payment to the accepted state
func (p *Payment) DetachFromInvoice() {
	if p.InvoiceID == nil {
		return
	}
	p.InvoiceID = nil
	p.setStatus(StatusCompanyAccepts)
}

func (p *Payment) setStatus(status Status) {
	old := p.Status
	p.Status = status
	now := time.Now()
	if status.IsDone() && p.Realized == nil {
		p.Realized = &now
	}
	p.UpdatedAt = now
	p.IncrementVersion()
	p.AddDomainEvent(NewPaymentStatusChangedEvent(p, old))
}

// CommonTransaction is a manual status record entered by an administrator,
// e.g. an entry fee settled outside the payment gateway
type CommonTransaction struct {
	shared.CampaignAggregateRoot
	UserAttendanceID uuid.UUID
	Status           Status
	AuthorID         *uuid.UUID
	Description      string
	Realized         *time.Time
}

// NewCommonTransaction records a manual status change
func NewCommonTransaction(campaignID, userAttendanceID uuid.UUID, status Status, authorID uuid.UUID, description string) (*CommonTransaction, error) {
	if !status.IsKnown() {
		return nil, shared.NewDomainError("INVALID_INPUT", "unknown transaction status")
	}
	if strings.TrimSpace(description) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "description is required")
	}
	now := time.Now()
	t := &CommonTransaction{
		CampaignAggregateRoot: shared.NewCampaignAggregateRoot(campaignID),
		UserAttendanceID:      userAttendanceID,
		Status:                status,
		AuthorID:              &authorID,
		Description:           strings.TrimSpace(description),
		Realized:              &now,
	}
	t.AddDomainEvent(NewCommonTransactionEvent(t))
	return t, nil
}
