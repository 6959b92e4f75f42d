package campaign

import (
	"fmt"

	"github.com/dpnk/backend/internal/domain/shared"
)

// NextSequence returns the number following last inside [first, limit].
// last is nil when nothing was allocated yet.
func NextSequence(first, limit int64, last *int64) (int64, error) {
	next := first
	if last != nil && *last >= first {
		next = *last + 1
	}
	if next > limit {
		return 0, shared.ErrSequenceExhausted
	}
	return next, nil
}

func formatSequence(year int, sequence int64) string {
	return fmt.Sprintf("%d%04d", year, sequence)
}
