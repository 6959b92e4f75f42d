package competition

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ResultsCache keeps serialized result pages of a competition. A miss returns
// (nil, false, nil).
type ResultsCache interface {
	Get(ctx context.Context, competitionID uuid.UUID, key string) ([]byte, bool, error)
	Set(ctx context.Context, competitionID uuid.UUID, key string, data []byte, ttl time.Duration) error

	// Invalidate drops every cached page of the competition
	Invalidate(ctx context.Context, competitionID uuid.UUID) error
}
