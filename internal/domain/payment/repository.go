package payment

import (
	"context"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter narrows payment listings
type Filter struct {
	shared.Filter
	UserAttendanceID *uuid.UUID
	CompanyID        *uuid.UUID
	PayType          PayType
	Statuses         []Status
}

// PaymentRepository defines persistence operations for payments
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindBySessionID(ctx context.Context, sessionID string) (*Payment, error)

	// FindBySessionIDForUpdate locks the payment row until the transaction ends
	FindBySessionIDForUpdate(ctx context.Context, sessionID string) (*Payment, error)
	FindByAttendance(ctx context.Context, userAttendanceID uuid.UUID) ([]Payment, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Payment, error)
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error)
	FindAll(ctx context.Context, campaignID uuid.UUID, filter Filter) ([]Payment, int64, error)
	Save(ctx context.Context, payment *Payment) error
}

// CommonTransactionRepository defines persistence operations for manual records
type CommonTransactionRepository interface {
	FindByAttendance(ctx context.Context, userAttendanceID uuid.UUID) ([]CommonTransaction, error)
	Save(ctx context.Context, t *CommonTransaction) error
}
