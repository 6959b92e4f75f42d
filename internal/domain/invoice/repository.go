package invoice

import (
	"context"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceRepository defines persistence operations for invoices
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByCompany(ctx context.Context, campaignID, companyID uuid.UUID) ([]Invoice, error)
	FindAll(ctx context.Context, campaignID uuid.UUID, filter shared.Filter) ([]Invoice, int64, error)

	// LastSequenceNumber returns nil when the campaign has no invoice yet.
	// It must be called inside the transaction that saves the new invoice.
	LastSequenceNumber(ctx context.Context, campaignID uuid.UUID) (*int64, error)
	Save(ctx context.Context, invoice *Invoice) error
}
