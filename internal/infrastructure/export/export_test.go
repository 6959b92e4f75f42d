package export

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{" xlsx ", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, ".xlsx", FormatXLSX.Extension())
	assert.Contains(t, FormatCSV.ContentType(), "text/csv")
}

func TestTable_AppendAndSort(t *testing.T) {
	table := NewTable("Města", "město", "počet")
	table.Append("Dačice", "1")
	table.Append("Čáslav", "2", "extra")
	table.Append("Cvikov")
	table.Append("brno", "4")
	table.SortBy(0)
	table.SortBy(5)

	var cities []string
	for _, row := range table.Rows {
		require.Len(t, row, 2)
		cities = append(cities, row[0])
	}
	assert.Equal(t, []string{"brno", "Cvikov", "Čáslav", "Dačice"}, cities)
}

func TestWriteCSV(t *testing.T) {
	table := NewTable("t", "jméno", "tým")
	table.Append("Jana", "Kola, a.s.")

	var buf bytes.Buffer
	require.NoError(t, table.Write(&buf, FormatCSV))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
	assert.Equal(t, "jméno,tým\nJana,\"Kola, a.s.\"\n", string(buf.Bytes()[3:]))
}

func TestWriteXLSX_RoundTrip(t *testing.T) {
	table := NewTable("Účastníci kampaně Do práce na kole 2026", "jméno", "vzdálenost")
	table.Append("Jana", "120,5")
	table.Append("Petr", "88")

	var buf bytes.Buffer
	require.NoError(t, table.Write(&buf, FormatXLSX))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "Účastníci kampaně Do práce na k", f.GetSheetName(0))

	headers, rows, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"jméno", "vzdálenost"}, headers)
	require.Len(t, rows, 2)
	assert.Equal(t, "120,5", rows[0].Get("vzdálenost"))
	assert.Equal(t, 3, rows[1].Line)
}

func TestTable_WriteUnsupported(t *testing.T) {
	assert.ErrorIs(t, NewTable("t", "a").Write(&bytes.Buffer{}, "pdf"), ErrUnsupportedFormat)
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantErr  error
		wantRows int
	}{
		{"comma", "Name,ICO\nFirma,12345679\n", nil, 1},
		{"semicolon with bom", "\xEF\xBB\xBFname;ico\nFirma, s.r.o.;12345679\n;\nJiná;\n", nil, 2},
		{"empty", "  \n", ErrEmptyFile, 0},
		{"invalid encoding", "name\n\xff\xfe\n", ErrInvalidEncoding, 0},
		{"blank header", ",\nFirma,1\n", ErrMissingHeader, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers, rows, err := ReadCSV(strings.NewReader(tt.data))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"name", "ico"}, headers)
			assert.Len(t, rows, tt.wantRows)
			assert.Equal(t, "12345679", rows[0].Get("ico"))
		})
	}
}

func TestReadCSV_SemicolonKeepsCommas(t *testing.T) {
	_, rows, err := Read(strings.NewReader("name;ico\nFirma, s.r.o.;1\n"), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "Firma, s.r.o.", rows[0].Get("name"))
}

func TestValidator(t *testing.T) {
	v := &Validator{
		Rules: []Rule{
			{Column: "name", Required: true, MaxLength: 10, Unique: true},
			{Column: "ico", Pattern: regexp.MustCompile(`^\d{8}$`)},
			{Column: "dic", Check: func(s string) error {
				if !strings.HasPrefix(s, "CZ") {
					return errors.New("must start with CZ")
				}
				return nil
			}},
		},
	}
	headers := []string{"name", "ico", "dic"}
	rows := []*Row{
		{Line: 2, Data: map[string]string{"name": "Firma", "ico": "12345679", "dic": "CZ12345679"}},
		{Line: 3, Data: map[string]string{"name": "", "ico": "1"}},
		{Line: 4, Data: map[string]string{"name": "firma"}},
		{Line: 5, Data: map[string]string{"name": "Velmi dlouhý název"}},
		{Line: 6, Data: map[string]string{"name": "Jiná", "dic": "SK1"}},
	}

	res := v.Validate(headers, rows)

	require.Len(t, res.Valid, 1)
	assert.Equal(t, 2, res.Valid[0].Line)
	codes := make(map[int][]string)
	for _, e := range res.Errors {
		codes[e.Line] = append(codes[e.Line], e.Code)
	}
	assert.Equal(t, []string{CodeRequired, CodeInvalidFormat}, codes[3])
	assert.Equal(t, []string{CodeDuplicate}, codes[4])
	assert.Equal(t, []string{CodeTooLong}, codes[5])
	assert.Equal(t, []string{CodeRejectedByRule}, codes[6])
	assert.False(t, res.Truncated)
}

func TestValidator_MissingColumnAndTruncation(t *testing.T) {
	v := &Validator{Rules: []Rule{{Column: "name", Required: true}}, MaxErrors: 1}

	res := v.Validate([]string{"ico"}, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, CodeMissingColumn, res.Errors[0].Code)
	assert.Contains(t, res.Errors[0].Error(), `column "name"`)

	res = v.Validate([]string{"name"}, []*Row{
		{Line: 2, Data: map[string]string{"name": ""}},
		{Line: 3, Data: map[string]string{"name": ""}},
	})
	assert.Len(t, res.Errors, 1)
	assert.True(t, res.Truncated)
}
