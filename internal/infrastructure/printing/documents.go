package printing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Party is a supplier or customer block on an invoice
type Party struct {
	Name        string
	Street      string
	City        string
	Zip         string
	ICO         string
	DIC         string
	BankAccount string
}

// InvoiceLine is one billed row
type InvoiceLine struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// InvoiceDocument is the data printed on a company invoice
type InvoiceDocument struct {
	Campaign     string
	Number       string
	ExposureDate time.Time
	TaxableDate  time.Time
	DueDate      time.Time
	PaidDate     *time.Time
	OrderNumber  string
	Supplier     Party
	Customer     Party
	Lines        []InvoiceLine
	VATRate      decimal.Decimal
	Base         decimal.Decimal
	VAT          decimal.Decimal
	Total        decimal.Decimal
}

// SheetPackage is one package listed on a box sheet
type SheetPackage struct {
	TrackingCode string
	Name         string
	TShirt       string
	Team         string
}

// SheetBox is the sheet packed into one subsidiary box
type SheetBox struct {
	Number         int
	Company        string
	Street         string
	City           string
	Zip            string
	AddresseeName  string
	AddresseePhone string
	AddresseeEmail string
	Packages       []SheetPackage
}

// CustomerSheets is the printout of a delivery batch, one page per box
type CustomerSheets struct {
	Campaign string
	BatchID  string
	Created  time.Time
	Boxes    []SheetBox
}

// DocumentPrinter turns document data into PDF files
type DocumentPrinter struct {
	engine   *TemplateEngine
	renderer PDFRenderer
	logger   *zap.Logger
}

// NewDocumentPrinter creates a new document printer
func NewDocumentPrinter(engine *TemplateEngine, renderer PDFRenderer, logger *zap.Logger) *DocumentPrinter {
	return &DocumentPrinter{engine: engine, renderer: renderer, logger: logger}
}

const pageNumberFooter = `<div style="font-size:8px;width:100%;text-align:center;">` +
	`<span class="pageNumber"></span> / <span class="totalPages"></span></div>`

// InvoicePDF renders an invoice
func (p *DocumentPrinter) InvoicePDF(ctx context.Context, doc *InvoiceDocument) ([]byte, error) {
	return p.print(ctx, TemplateInvoice, doc, &RenderRequest{
		PaperSize:  PaperSizeA4,
		Margins:    DefaultMargins,
		Title:      "Faktura " + doc.Number,
		FooterHTML: pageNumberFooter,
	})
}

// CustomerSheetsPDF renders the box sheets of a delivery batch
func (p *DocumentPrinter) CustomerSheetsPDF(ctx context.Context, sheets *CustomerSheets) ([]byte, error) {
	return p.print(ctx, TemplateCustomerSheets, sheets, &RenderRequest{
		PaperSize: PaperSizeA4,
		Margins:   UniformMargins(10),
		Title:     "Zákaznické listy " + sheets.BatchID,
	})
}

func (p *DocumentPrinter) print(ctx context.Context, name string, data any, req *RenderRequest) ([]byte, error) {
	html, err := p.engine.Render(name, data)
	if err != nil {
		return nil, err
	}
	req.HTML = html

	result, err := p.renderer.Render(ctx, req)
	if err != nil {
		p.logger.Error("Failed to render document", zap.String("template", name), zap.Error(err))
		return nil, err
	}
	return result.PDFData, nil
}
