package reporting

import (
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/dpnk/backend/internal/infrastructure/export"
	"github.com/shopspring/decimal"
)

// File is a generated report
type File struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ModeStatistics counts trips of one commute mode
type ModeStatistics struct {
	CommuteMode trip.CommuteMode `json:"commute_mode"`
	Trips       int64            `json:"trips"`
	Distance    decimal.Decimal  `json:"distance"`
}

// Statistics is the campaign overview of the admin dashboard
type Statistics struct {
	Registered    int64            `json:"registered"`
	Paid          int64            `json:"paid"`
	Teams         int64            `json:"teams"`
	TotalDistance decimal.Decimal  `json:"total_distance"`
	TripCount     int64            `json:"trip_count"`
	ByMode        []ModeStatistics `json:"by_mode"`
}

// ImportResult reports the outcome of a company import
type ImportResult struct {
	TotalRows    int               `json:"total_rows"`
	ImportedRows int               `json:"imported_rows"`
	UpdatedRows  int               `json:"updated_rows"`
	ErrorRows    int               `json:"error_rows"`
	Errors       []export.RowError `json:"errors,omitempty"`
	IsTruncated  bool              `json:"is_truncated,omitempty"`
	TotalErrors  int               `json:"total_errors,omitempty"`
}
