package persistence

import "strings"

// SortFields whitelists the columns a list endpoint may order by
type SortFields map[string]bool

// sortFields returns the base columns every table has plus columns
func sortFields(columns ...string) SortFields {
	fields := SortFields{"id": true, "created_at": true, "updated_at": true}
	for _, c := range columns {
		fields[c] = true
	}
	return fields
}

var (
	CompanySortFields    = sortFields("name", "ico", "active")
	TeamSortFields       = sortFields("name", "member_count")
	AttendanceSortFields = sortFields("payment_status", "trip_length_total", "frequency", "get_rides_count")
	PaymentSortFields    = sortFields("realized", "amount", "status", "pay_type")
	InvoiceSortFields    = sortFields("sequence_number", "exposure_date", "paid_date", "total_amount")
)

// ValidateSortOrder normalizes orderDir to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when allowed lists it, otherwise
// defaultField. Column names end up in raw ORDER BY clauses.
func ValidateSortField(sortField string, allowed SortFields, defaultField string) string {
	if field := strings.TrimSpace(sortField); allowed[field] {
		return field
	}
	return defaultField
}
