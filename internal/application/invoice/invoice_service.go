package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/invoice"
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/infrastructure/email"
	"github.com/dpnk/backend/internal/infrastructure/printing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxInvoicedPayments caps the payments collected onto one invoice
const maxInvoicedPayments = 10000

// Repositories groups the stores the invoice service works with
type Repositories struct {
	Campaigns     campaign.CampaignRepository
	Companies     organization.CompanyRepository
	CompanyAdmins organization.CompanyAdminRepository
	Users         identity.UserRepository
	Invoices      invoice.InvoiceRepository
	Payments      payment.PaymentRepository
}

// Printer renders invoice documents
type Printer interface {
	InvoicePDF(ctx context.Context, doc *printing.InvoiceDocument) ([]byte, error)
}

// InvoiceService bills companies for the entry fees they accepted
type InvoiceService struct {
	repos    Repositories
	printer  Printer
	storage  shared.FileStorage
	supplier printing.Party
	dueDays  int
	tx       shared.Transactor
	events   shared.EventPublisher
	postman  *email.Postman
	logger   *zap.Logger
	now      func() time.Time
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	repos Repositories,
	printer Printer,
	storage shared.FileStorage,
	supplier printing.Party,
	dueDays int,
	tx shared.Transactor,
	events shared.EventPublisher,
	postman *email.Postman,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		repos:    repos,
		printer:  printer,
		storage:  storage,
		supplier: supplier,
		dueDays:  dueDays,
		tx:       tx,
		events:   events,
		postman:  postman,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateForAdmin bills the accepted payments of the company the user
// coordinates
func (s *InvoiceService) CreateForAdmin(ctx context.Context, campaignID, userID uuid.UUID, input CreateInvoiceInput) (*InvoiceResponse, error) {
	admin, err := s.companyAdmin(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	return s.CreateInvoice(ctx, campaignID, admin.CompanyID, input)
}

// CreateInvoice moves every accepted company payment of the company onto a
// new invoice with the next sequence number, renders the PDF and sends it
// to the company admins
func (s *InvoiceService) CreateInvoice(ctx context.Context, campaignID, companyID uuid.UUID, input CreateInvoiceInput) (*InvoiceResponse, error) {
	c, err := s.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := c.RequirePhase(campaign.PhaseInvoices, s.now()); err != nil {
		return nil, err
	}
	company, err := s.repos.Companies.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	var inv *invoice.Invoice
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		accepted, _, err := s.repos.Payments.FindAll(ctx, campaignID, payment.Filter{
			Filter:    shared.Filter{Page: 1, PageSize: maxInvoicedPayments},
			CompanyID: &companyID,
			PayType:   payment.PayTypeCompany,
			Statuses:  []payment.Status{payment.StatusCompanyAccepts},
		})
		if err != nil {
			return err
		}
		last, err := s.repos.Invoices.LastSequenceNumber(ctx, campaignID)
		if err != nil {
			return err
		}
		sequence, err := campaign.NextSequence(c.InvoiceSequenceFirst, c.InvoiceSequenceLast, last)
		if err != nil {
			return err
		}

		payments := make([]*payment.Payment, len(accepted))
		for i := range accepted {
			payments[i] = &accepted[i]
		}
		inv, err = invoice.NewInvoice(c, company, sequence, payments, input.OrderNumber, input.CompanyPaysBenefitialFee, s.now())
		if err != nil {
			return err
		}
		if err := s.repos.Invoices.Save(ctx, inv); err != nil {
			return err
		}
		return s.savePayments(ctx, payments)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Invoice created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("number", inv.Number),
		zap.String("company_id", companyID.String()),
		zap.Int("payments", len(inv.PaymentIDs)),
		zap.String("total", inv.TotalAmount.String()))

	pdf, err := s.render(ctx, c, company, inv)
	if err != nil {
		s.logger.Warn("Invoice PDF not rendered, it will be rendered on download",
			zap.String("invoice_id", inv.ID.String()),
			zap.Error(err))
	} else {
		s.notifyAdmins(ctx, c, inv, pdf)
	}

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// MarkPaid settles the invoice and every payment on it
func (s *InvoiceService) MarkPaid(ctx context.Context, campaignID, invoiceID uuid.UUID, input MarkPaidInput) (*InvoiceResponse, error) {
	paid := s.now()
	if input.PaidDate != nil {
		paid = *input.PaidDate
	}

	var inv *invoice.Invoice
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.repos.Invoices.FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.CampaignID != campaignID {
			return shared.ErrNotFound
		}
		found, err := s.repos.Payments.FindByInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		payments := make([]*payment.Payment, len(found))
		for i := range found {
			payments[i] = &found[i]
		}
		if err := inv.MarkPaid(paid, payments); err != nil {
			return err
		}
		if err := s.repos.Invoices.Save(ctx, inv); err != nil {
			return err
		}
		return s.savePayments(ctx, payments)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Invoice paid",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("number", inv.Number))
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// ListForAdmin lists the invoices of the company the user coordinates
func (s *InvoiceService) ListForAdmin(ctx context.Context, campaignID, userID uuid.UUID) ([]InvoiceResponse, error) {
	admin, err := s.companyAdmin(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.repos.Invoices.FindByCompany(ctx, campaignID, admin.CompanyID)
	if err != nil {
		return nil, err
	}
	out := make([]InvoiceResponse, len(items))
	for i := range items {
		out[i] = ToInvoiceResponse(&items[i])
	}
	return out, nil
}

// List lists all invoices of the campaign
func (s *InvoiceService) List(ctx context.Context, campaignID uuid.UUID, filter shared.Filter) (shared.Paginated[InvoiceResponse], error) {
	items, total, err := s.repos.Invoices.FindAll(ctx, campaignID, filter)
	if err != nil {
		return shared.Paginated[InvoiceResponse]{}, err
	}
	out := make([]InvoiceResponse, len(items))
	for i := range items {
		out[i] = ToInvoiceResponse(&items[i])
	}
	return shared.NewPaginated(out, total, filter), nil
}

// PDF returns the invoice document. Staff may download any invoice of the
// campaign, company admins only their company's.
func (s *InvoiceService) PDF(ctx context.Context, campaignID, userID uuid.UUID, staff bool, invoiceID uuid.UUID) (*Document, error) {
	inv, err := s.repos.Invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.CampaignID != campaignID {
		return nil, shared.ErrNotFound
	}
	if !staff {
		admin, err := s.companyAdmin(ctx, campaignID, userID)
		if err != nil {
			return nil, err
		}
		if admin.CompanyID != inv.CompanyID {
			return nil, shared.ErrNotFound
		}
	}

	filename := fmt.Sprintf("faktura-%s.pdf", inv.Number)
	if inv.PDFKey != "" {
		data, err := s.storage.Get(ctx, inv.PDFKey)
		if err == nil {
			return &Document{Filename: filename, Content: data}, nil
		}
		s.logger.Warn("Stored invoice PDF unavailable, rendering again",
			zap.String("key", inv.PDFKey),
			zap.Error(err))
	}

	c, err := s.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	company, err := s.repos.Companies.FindByID(ctx, inv.CompanyID)
	if err != nil {
		return nil, err
	}
	data, err := s.render(ctx, c, company, inv)
	if err != nil {
		return nil, err
	}
	return &Document{Filename: filename, Content: data}, nil
}

// render prints the invoice, stores the file and records its key
func (s *InvoiceService) render(ctx context.Context, c *campaign.Campaign, company *organization.Company, inv *invoice.Invoice) ([]byte, error) {
	payments, err := s.repos.Payments.FindByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	doc := s.document(c, company, inv, payments)
	data, err := s.printer.InvoicePDF(ctx, doc)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("invoices/%s/%s.pdf", c.Slug, inv.Number)
	if err := s.storage.Put(ctx, key, data, "application/pdf"); err != nil {
		return nil, err
	}
	inv.AttachPDF(key)
	if err := s.repos.Invoices.Save(ctx, inv); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *InvoiceService) document(c *campaign.Campaign, company *organization.Company, inv *invoice.Invoice, payments []payment.Payment) *printing.InvoiceDocument {
	lines := inv.Lines(payments, c.BenefitialAdmissionFee)
	printed := make([]printing.InvoiceLine, len(lines))
	for i, l := range lines {
		printed[i] = printing.InvoiceLine{
			Description: "Startovné " + c.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Total:       l.Total,
		}
	}
	return &printing.InvoiceDocument{
		Campaign:     c.Name,
		Number:       inv.Number,
		ExposureDate: inv.ExposureDate,
		TaxableDate:  inv.TaxableDate,
		DueDate:      inv.ExposureDate.AddDate(0, 0, s.dueDays),
		PaidDate:     inv.PaidDate,
		OrderNumber:  inv.OrderNumber,
		Supplier:     s.supplier,
		Customer: printing.Party{
			Name:   company.Name,
			Street: company.Address.StreetLine(),
			City:   company.Address.City(),
			Zip:    company.Address.FormattedPSC(),
			ICO:    company.ICO,
			DIC:    company.DIC,
		},
		Lines:   printed,
		VATRate: invoice.VATRate,
		Base:    inv.AmountWithoutVAT(),
		VAT:     inv.VAT(),
		Total:   inv.TotalAmount,
	}
}

func (s *InvoiceService) notifyAdmins(ctx context.Context, c *campaign.Campaign, inv *invoice.Invoice, pdf []byte) {
	admins, err := s.repos.CompanyAdmins.FindByCompany(ctx, c.ID, inv.CompanyID)
	if err != nil {
		s.logger.Warn("Cannot load company admins", zap.Error(err))
		return
	}
	composer := s.postman.Composer(c.Name)
	for _, a := range admins {
		if a.Approved != organization.ApprovalApproved {
			continue
		}
		user, err := s.repos.Users.FindByID(ctx, a.UserID)
		if err != nil {
			s.logger.Warn("Cannot load company admin", zap.String("user_id", a.UserID.String()), zap.Error(err))
			continue
		}
		msg, err := composer.InvoiceSent(email.Address{Name: user.FullName(), Email: user.Email}, inv.Number, pdf)
		s.postman.Deliver(ctx, msg, err)
	}
}

func (s *InvoiceService) savePayments(ctx context.Context, payments []*payment.Payment) error {
	for _, p := range payments {
		if err := s.repos.Payments.Save(ctx, p); err != nil {
			return err
		}
		if err := s.events.Publish(ctx, p.GetDomainEvents()...); err != nil {
			return err
		}
		p.ClearDomainEvents()
	}
	return nil
}

func (s *InvoiceService) companyAdmin(ctx context.Context, campaignID, userID uuid.UUID) (*organization.CompanyAdmin, error) {
	admin, err := s.repos.CompanyAdmins.FindByUser(ctx, campaignID, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.ErrForbidden.Code, "You are not a company coordinator")
	}
	if err != nil {
		return nil, err
	}
	if !admin.CanManagePayments() {
		return nil, shared.NewDomainError(shared.ErrForbidden.Code, "You may not manage company invoices")
	}
	return admin, nil
}
