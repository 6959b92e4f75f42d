package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys of work that was already done, such as
// delivered events or handled payment notifications
type IdempotencyStore interface {
	// MarkProcessed returns true if the key was newly marked and false if
	// it was already present
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if the key is present
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Forget removes the key so the work can be retried
	Forget(ctx context.Context, key string) error

	Close() error
}
