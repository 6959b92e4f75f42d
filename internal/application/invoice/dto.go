package invoice

import (
	"time"

	"github.com/dpnk/backend/internal/domain/invoice"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateInvoiceInput represents a company admin's invoice request
type CreateInvoiceInput struct {
	OrderNumber              string `json:"order_number" binding:"max=50"`
	CompanyPaysBenefitialFee bool   `json:"company_pays_benefitial_fee"`
}

// MarkPaidInput represents the settlement of an invoice
type MarkPaidInput struct {
	PaidDate *time.Time `json:"paid_date"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                       uuid.UUID       `json:"id"`
	CompanyID                uuid.UUID       `json:"company_id"`
	Number                   string          `json:"number"`
	ExposureDate             string          `json:"exposure_date"`
	TaxableDate              string          `json:"taxable_date"`
	PaidDate                 *string         `json:"paid_date,omitempty"`
	OrderNumber              string          `json:"order_number,omitempty"`
	CompanyPaysBenefitialFee bool            `json:"company_pays_benefitial_fee"`
	TotalAmount              decimal.Decimal `json:"total_amount"`
	VAT                      decimal.Decimal `json:"vat"`
	PaymentCount             int             `json:"payment_count"`
	HasPDF                   bool            `json:"has_pdf"`
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse
func ToInvoiceResponse(i *invoice.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:                       i.ID,
		CompanyID:                i.CompanyID,
		Number:                   i.Number,
		ExposureDate:             i.ExposureDate.Format(time.DateOnly),
		TaxableDate:              i.TaxableDate.Format(time.DateOnly),
		OrderNumber:              i.OrderNumber,
		CompanyPaysBenefitialFee: i.CompanyPaysBenefitialFee,
		TotalAmount:              i.TotalAmount,
		VAT:                      i.VAT(),
		PaymentCount:             len(i.PaymentIDs),
		HasPDF:                   i.PDFKey != "",
	}
	if i.PaidDate != nil {
		paid := i.PaidDate.Format(time.DateOnly)
		resp.PaidDate = &paid
	}
	return resp
}

// Document is a rendered invoice file
type Document struct {
	Filename string
	Content  []byte
}
