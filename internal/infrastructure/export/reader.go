package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Errors returned by the readers
var (
	ErrEmptyFile       = errors.New("import: file is empty")
	ErrInvalidEncoding = errors.New("import: file is not UTF-8")
	ErrMissingHeader   = errors.New("import: file has no header row")
	ErrFileTooLarge    = errors.New("import: file exceeds maximum allowed size")
)

// MaxImportSize is the largest accepted upload
const MaxImportSize = 5 << 20

// Row is a data row keyed by header name
type Row struct {
	Line int
	Data map[string]string
}

// Get returns the value of the column
func (r *Row) Get(column string) string {
	return r.Data[column]
}

// IsEmpty reports whether every value is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadCSV reads a UTF-8 CSV upload. A byte order mark is skipped and the
// delimiter is detected from the header line (comma or semicolon).
func ReadCSV(r io.Reader) ([]string, []*Row, error) {
	br := bufio.NewReader(io.LimitReader(r, MaxImportSize+1))
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, utf8BOM) {
		_, _ = br.Discard(3)
	}

	data, err := io.ReadAll(br)
	if err != nil {
		return nil, nil, fmt.Errorf("import: failed to read file: %w", err)
	}
	if len(data) > MaxImportSize {
		return nil, nil, ErrFileTooLarge
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, ErrEmptyFile
	}
	if !utf8.Valid(data) {
		return nil, nil, ErrInvalidEncoding
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = detectDelimiter(data)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("import: malformed csv: %w", err)
	}
	return toRows(records)
}

// ReadXLSX reads the first sheet of a workbook upload
func ReadXLSX(r io.Reader) ([]string, []*Row, error) {
	f, err := excelize.OpenReader(io.LimitReader(r, MaxImportSize))
	if err != nil {
		return nil, nil, fmt.Errorf("import: invalid workbook: %w", err)
	}
	defer f.Close()

	records, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("import: failed to read sheet: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, ErrEmptyFile
	}
	return toRows(records)
}

// Read dispatches on format
func Read(r io.Reader, f Format) ([]string, []*Row, error) {
	switch f {
	case FormatCSV:
		return ReadCSV(r)
	case FormatXLSX:
		return ReadXLSX(r)
	}
	return nil, nil, ErrUnsupportedFormat
}

func toRows(records [][]string) ([]string, []*Row, error) {
	if len(records) == 0 {
		return nil, nil, ErrMissingHeader
	}
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	if strings.Join(headers, "") == "" {
		return nil, nil, ErrMissingHeader
	}

	rows := make([]*Row, 0, len(records)-1)
	for i, record := range records[1:] {
		row := &Row{Line: i + 2, Data: make(map[string]string, len(headers))}
		for j, h := range headers {
			if j < len(record) {
				row.Data[h] = strings.TrimSpace(record[j])
			} else {
				row.Data[h] = ""
			}
		}
		if !row.IsEmpty() {
			rows = append(rows, row)
		}
	}
	return headers, rows, nil
}

func detectDelimiter(data []byte) rune {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}
