package competition

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DirtyEntry is a competitor whose results must be recomputed
type DirtyEntry struct {
	CampaignID uuid.UUID
	Ref        CompetitorRef
	MarkedAt   time.Time
}

// DirtyQueue collects competitors whose results are stale. Marking the same
// competitor twice keeps a single entry.
type DirtyQueue interface {
	Mark(ctx context.Context, campaignID uuid.UUID, refs ...CompetitorRef) error

	// Pop removes and returns up to limit of the oldest entries
	Pop(ctx context.Context, limit int) ([]DirtyEntry, error)
}
