package shared

import "context"

// Transactor runs fn atomically. Repositories used with the context passed
// to fn take part in the same transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Page sizes accepted by list endpoints
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter selects one page of a listing. OrderBy is checked against a per
// table allow-list by the repositories; unknown columns fall back to the
// listing's default order.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter is the first page, newest first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: DefaultPageSize, OrderBy: "created_at", OrderDir: "desc"}
}

// Offset returns the number of rows before the page
func (f Filter) Offset() int {
	if f.Page <= 1 || f.PageSize <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Paginated is one page of a listing together with the listing's size
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated wraps the items fetched for filter. Items are never nil so
// an empty page encodes as [].
func NewPaginated[T any](items []T, total int64, filter Filter) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	size := filter.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	page := max(filter.Page, 1)
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: PageCount(total, size),
	}
}

// PageCount returns how many pages of size hold total rows
func PageCount(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
