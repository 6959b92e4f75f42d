package delivery

import (
	"context"

	"github.com/google/uuid"
)

// PackageRepository defines persistence operations for packages
type PackageRepository interface {
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]PackageTransaction, error)
	FindByAttendance(ctx context.Context, userAttendanceID uuid.UUID) ([]PackageTransaction, error)
	FindByTrackingNumber(ctx context.Context, campaignID uuid.UUID, trackingNumber int64) (*PackageTransaction, error)

	// LastTrackingNumber returns nil when no package exists in the campaign
	LastTrackingNumber(ctx context.Context, campaignID uuid.UUID) (*int64, error)
	SaveBatch(ctx context.Context, packages []*PackageTransaction) error
	Save(ctx context.Context, pkg *PackageTransaction) error
}

// BatchRepository defines persistence operations for delivery batches
type BatchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	FindByCampaign(ctx context.Context, campaignID uuid.UUID) ([]Batch, error)

	// FindCandidates lists paid attendances with a shippable t-shirt size and
	// an approved team, which have no package yet
	FindCandidates(ctx context.Context, campaignID uuid.UUID) ([]Candidate, error)
	Save(ctx context.Context, batch *Batch) error
}
