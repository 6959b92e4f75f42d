package invoice

import (
	"time"

	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VATRate is the Czech standard VAT rate in percent. Invoice totals include it.
var VATRate = decimal.NewFromInt(21)

// Invoice bills a company for the entry fees of its employees
type Invoice struct {
	shared.CampaignAggregateRoot
	CompanyID                uuid.UUID
	SequenceNumber           int64
	Number                   string
	ExposureDate             time.Time
	TaxableDate              time.Time
	PaidDate                 *time.Time
	OrderNumber              string
	CompanyPaysBenefitialFee bool
	TotalAmount              decimal.Decimal
	PaymentIDs               []uuid.UUID
	PDFKey                   string
}

// Line is one row of the invoice
type Line struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// NewInvoice bills the accepted company payments. The payments are moved to
// StatusInvoiceMade.
func NewInvoice(c *campaign.Campaign, company *organization.Company, sequence int64, payments []*payment.Payment, orderNumber string, benefitialFee bool, today time.Time) (*Invoice, error) {
	if len(payments) == 0 {
		return nil, shared.NewDomainError("INVALID_STATE", "there are no accepted payments to invoice")
	}
	if sequence < c.InvoiceSequenceFirst || sequence > c.InvoiceSequenceLast {
		return nil, shared.ErrSequenceExhausted
	}
	inv := &Invoice{
		CampaignAggregateRoot:    shared.NewCampaignAggregateRoot(c.ID),
		CompanyID:                company.ID,
		SequenceNumber:           sequence,
		Number:                   c.InvoiceNumber(sequence),
		ExposureDate:             shared.DateOf(today),
		TaxableDate:              shared.DateOf(today),
		OrderNumber:              orderNumber,
		CompanyPaysBenefitialFee: benefitialFee,
		TotalAmount:              decimal.Zero,
	}
	for _, p := range payments {
		if p.CampaignID != c.ID {
			return nil, shared.NewDomainError("INVALID_INPUT", "payment belongs to another campaign")
		}
		if err := p.AttachToInvoice(inv.ID); err != nil {
			return nil, err
		}
		amount := p.Amount
		if benefitialFee && c.BenefitialAdmissionFee.IsPositive() {
			amount = c.BenefitialAdmissionFee
		}
		inv.TotalAmount = inv.TotalAmount.Add(amount)
		inv.PaymentIDs = append(inv.PaymentIDs, p.ID)
	}
	return inv, nil
}

// Lines groups the billed fees by unit price
func (i *Invoice) Lines(payments []payment.Payment, benefitialFee decimal.Decimal) []Line {
	counts := make(map[string]int)
	prices := make(map[string]decimal.Decimal)
	order := make([]string, 0)
	for _, p := range payments {
		price := p.Amount
		if i.CompanyPaysBenefitialFee && benefitialFee.IsPositive() {
			price = benefitialFee
		}
		key := price.StringFixed(2)
		if _, ok := counts[key]; !ok {
			order = append(order, key)
			prices[key] = price
		}
		counts[key]++
	}
	lines := make([]Line, 0, len(order))
	for _, key := range order {
		qty := counts[key]
		lines = append(lines, Line{
			Description: "Entry fee",
			Quantity:    qty,
			UnitPrice:   prices[key],
			Total:       prices[key].Mul(decimal.NewFromInt(int64(qty))),
		})
	}
	return lines
}

// VAT returns the tax contained in the total
func (i *Invoice) VAT() decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	return i.TotalAmount.Mul(VATRate).DivRound(hundred.Add(VATRate), 2)
}

// AmountWithoutVAT returns the tax base
func (i *Invoice) AmountWithoutVAT() decimal.Decimal {
	return i.TotalAmount.Sub(i.VAT())
}

// IsPaid reports whether the company paid the invoice
func (i *Invoice) IsPaid() bool {
	return i.PaidDate != nil
}

// MarkPaid settles the invoice and every payment on it
func (i *Invoice) MarkPaid(paid time.Time, payments []*payment.Payment) error {
	if i.IsPaid() {
		return shared.NewDomainError("INVALID_STATE", "invoice is already paid")
	}
	for _, p := range payments {
		if p.InvoiceID == nil || *p.InvoiceID != i.ID {
			return shared.NewDomainError("INVALID_INPUT", "payment is not on this invoice")
		}
		if err := p.MarkInvoicePaid(); err != nil {
			return err
		}
	}
	d := shared.DateOf(paid)
	i.PaidDate = &d
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// AttachPDF stores the object storage key of the rendered document
func (i *Invoice) AttachPDF(key string) {
	i.PDFKey = key
}
