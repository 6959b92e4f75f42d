package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	for in, want := range map[string]string{
		"asc":         "ASC",
		" Asc ":       "ASC",
		"DESC":        "DESC",
		"":            "DESC",
		"ASC; DROP":   "DESC",
		"ascending":   "DESC",
		"ASC NULLS 1": "DESC",
	} {
		assert.Equal(t, want, ValidateSortOrder(in), "input %q", in)
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		allowed SortFields
		def     string
		want    string
	}{
		{"team member count", "member_count", TeamSortFields, "name", "member_count"},
		{"attendance frequency", " frequency ", AttendanceSortFields, "created_at", "frequency"},
		{"invoice number", "sequence_number", InvoiceSortFields, "created_at", "sequence_number"},
		{"base column everywhere", "updated_at", PaymentSortFields, "created_at", "updated_at"},
		{"column of another table", "member_count", CompanySortFields, "name", "name"},
		{"empty", "", InvoiceSortFields, "sequence_number", "sequence_number"},
		{"case matters", "NAME", TeamSortFields, "created_at", "created_at"},
		{"injection", "name; DROP TABLE teams", TeamSortFields, "name", "name"},
		{"expression", "amount desc", PaymentSortFields, "created_at", "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortField(tt.field, tt.allowed, tt.def))
		})
	}
}

func TestSortFields_IncludeBaseColumns(t *testing.T) {
	for _, fields := range []SortFields{CompanySortFields, TeamSortFields, AttendanceSortFields, PaymentSortFields, InvoiceSortFields} {
		for _, base := range []string{"id", "created_at", "updated_at"} {
			assert.True(t, fields[base], base)
		}
	}
	assert.False(t, TeamSortFields["ico"])
}
