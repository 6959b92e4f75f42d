package persistence

import (
	"context"
	"database/sql"

	"github.com/dpnk/backend/internal/domain/invoice"
	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements invoice.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by ID together with its payment IDs
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	var model models.InvoiceModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	invoices, err := r.withPayments(ctx, []models.InvoiceModel{model})
	if err != nil {
		return nil, err
	}
	return &invoices[0], nil
}

// FindByCompany lists the invoices of a company, newest first
func (r *GormInvoiceRepository) FindByCompany(ctx context.Context, campaignID, companyID uuid.UUID) ([]invoice.Invoice, error) {
	var rows []models.InvoiceModel
	if err := conn(ctx, r.db).
		Scopes(CampaignScope(campaignID)).
		Where("company_id = ?", companyID).
		Order("sequence_number DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withPayments(ctx, rows)
}

// FindAll lists the invoices of a campaign with the total count
func (r *GormInvoiceRepository) FindAll(ctx context.Context, campaignID uuid.UUID, filter shared.Filter) ([]invoice.Invoice, int64, error) {
	query := conn(ctx, r.db).Model(&models.InvoiceModel{}).Scopes(CampaignScope(campaignID))
	if filter.Search != "" {
		query = query.Where("number LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InvoiceModel
	orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "sequence_number")
	if err := query.Scopes(Paginate(filter, orderBy)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	invoices, err := r.withPayments(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// LastSequenceNumber returns the highest sequence number of the campaign.
// The campaign row is locked so concurrent issuers are serialized.
func (r *GormInvoiceRepository) LastSequenceNumber(ctx context.Context, campaignID uuid.UUID) (*int64, error) {
	db := conn(ctx, r.db)
	var locked models.CampaignModel
	if err := db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&locked, "id = ?", campaignID).Error; err != nil {
		return nil, notFound(err)
	}

	var last sql.NullInt64
	if err := db.Model(&models.InvoiceModel{}).
		Scopes(CampaignScope(campaignID)).
		Select("MAX(sequence_number)").
		Row().Scan(&last); err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Int64, nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *invoice.Invoice) error {
	return conn(ctx, r.db).Save(models.InvoiceModelFromDomain(inv)).Error
}

type invoicePaymentRow struct {
	ID        uuid.UUID
	InvoiceID uuid.UUID
}

func (r *GormInvoiceRepository) withPayments(ctx context.Context, rows []models.InvoiceModel) ([]invoice.Invoice, error) {
	invoices := make([]invoice.Invoice, 0, len(rows))
	if len(rows) == 0 {
		return invoices, nil
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].ID)
	}

	var links []invoicePaymentRow
	if err := conn(ctx, r.db).
		Model(&models.TransactionModel{}).
		Select("id, invoice_id").
		Where("kind = ? AND invoice_id IN ?", payment.KindPayment, ids).
		Order("created_at ASC").
		Scan(&links).Error; err != nil {
		return nil, err
	}
	byInvoice := make(map[uuid.UUID][]uuid.UUID, len(rows))
	for _, link := range links {
		byInvoice[link.InvoiceID] = append(byInvoice[link.InvoiceID], link.ID)
	}

	for i := range rows {
		inv := rows[i].ToDomain()
		inv.PaymentIDs = byInvoice[inv.ID]
		invoices = append(invoices, *inv)
	}
	return invoices, nil
}
