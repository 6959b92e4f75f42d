// Package export writes tabular reports as CSV or XLSX and reads CSV and
// XLSX uploads for bulk imports.
package export

import (
	"errors"
	"io"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Format is an output format of a report
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for unknown formats
var ErrUnsupportedFormat = errors.New("export: unsupported format")

// ParseFormat parses a format name, defaulting to CSV
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", ErrUnsupportedFormat
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// Table is a report with a header row
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// NewTable creates an empty table
func NewTable(name string, headers ...string) *Table {
	return &Table{Name: name, Headers: headers}
}

// Append adds a row, padding or cutting it to the header width
func (t *Table) Append(values ...string) {
	row := make([]string, len(t.Headers))
	copy(row, values)
	t.Rows = append(t.Rows, row)
}

// SortBy orders the rows by the column using Czech collation (Č after C,
// Ch after H)
func (t *Table) SortBy(column int) {
	if column < 0 || column >= len(t.Headers) {
		return
	}
	c := collate.New(language.Czech, collate.IgnoreCase)
	slices.SortStableFunc(t.Rows, func(a, b []string) int {
		return c.CompareString(a[column], b[column])
	})
}

// Write writes the table in format f
func (t *Table) Write(w io.Writer, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	}
	return ErrUnsupportedFormat
}
