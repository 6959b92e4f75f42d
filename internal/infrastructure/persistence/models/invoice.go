package models

import (
	"time"

	"github.com/dpnk/backend/internal/domain/invoice"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate. The
// covered payments point back through transactions.invoice_id.
type InvoiceModel struct {
	CampaignAggregateModel
	CompanyID                uuid.UUID       `gorm:"type:uuid;not null;index"`
	SequenceNumber           int64           `gorm:"not null;index"`
	Number                   string          `gorm:"type:varchar(20);not null"`
	ExposureDate             time.Time       `gorm:"type:date;not null"`
	TaxableDate              time.Time       `gorm:"type:date;not null"`
	PaidDate                 *time.Time      `gorm:"type:date"`
	OrderNumber              string          `gorm:"type:varchar(40)"`
	CompanyPaysBenefitialFee bool            `gorm:"not null;default:false"`
	TotalAmount              decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PDFKey                   string          `gorm:"column:pdf_key;type:varchar(255)"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice. PaymentIDs
// are loaded by the repository.
func (m *InvoiceModel) ToDomain() *invoice.Invoice {
	return &invoice.Invoice{
		CampaignAggregateRoot:    m.CampaignAggregate(),
		CompanyID:                m.CompanyID,
		SequenceNumber:           m.SequenceNumber,
		Number:                   m.Number,
		ExposureDate:             shared.DateOf(m.ExposureDate),
		TaxableDate:              shared.DateOf(m.TaxableDate),
		PaidDate:                 utcDay(m.PaidDate),
		OrderNumber:              m.OrderNumber,
		CompanyPaysBenefitialFee: m.CompanyPaysBenefitialFee,
		TotalAmount:              m.TotalAmount,
		PDFKey:                   m.PDFKey,
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *invoice.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		CompanyID:                inv.CompanyID,
		SequenceNumber:           inv.SequenceNumber,
		Number:                   inv.Number,
		ExposureDate:             inv.ExposureDate,
		TaxableDate:              inv.TaxableDate,
		PaidDate:                 inv.PaidDate,
		OrderNumber:              inv.OrderNumber,
		CompanyPaysBenefitialFee: inv.CompanyPaysBenefitialFee,
		TotalAmount:              inv.TotalAmount,
		PDFKey:                   inv.PDFKey,
	}
	m.SetCampaignAggregate(inv.CampaignAggregateRoot)
	return m
}
