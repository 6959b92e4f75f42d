package printing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		precision int
		want      string
	}{
		{"small", decimal.RequireFromString("12.5"), 2, "12,50"},
		{"thousands", decimal.RequireFromString("1234.5"), 2, "1 234,50"},
		{"millions", 1234567, 0, "1 234 567"},
		{"negative", "-4500.25", 2, "-4 500,25"},
		{"rounding", 0.125, 2, "0,13"},
		{"invalid string", "abc", 1, "0,0"},
		{"nil pointer", (*decimal.Decimal)(nil), 2, "0,00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDecimal(tt.value, tt.precision))
		})
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "1 234,50 Kč", formatMoney(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "0,00 Kč", formatMoney(nil))
}

func TestFormatDate(t *testing.T) {
	day := time.Date(2026, 5, 3, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "3. 5. 2026", formatDate(day))
	assert.Equal(t, "3. 5. 2026", formatDate(&day))
	assert.Empty(t, formatDate((*time.Time)(nil)))
	assert.Empty(t, formatDate(time.Time{}))
	assert.Empty(t, formatDate("2026-05-03"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Praha", truncate("Praha", 10))
	assert.Equal(t, "Česk…", truncate("České Budějovice", 5))
	assert.Equal(t, "Č", truncate("České", 1))
}

func TestTemplateHelpers(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, seq(3))
	assert.Empty(t, seq(-1))
	assert.True(t, add(1, "2.5").Equal(decimal.RequireFromString("3.5")))
	assert.True(t, mul(3, decimal.NewFromInt(4)).Equal(decimal.NewFromInt(12)))
	assert.Equal(t, "-", defaultFunc("-", ""))
	assert.Equal(t, "-", defaultFunc("-", nil))
	assert.Equal(t, "Tým", defaultFunc("-", "Tým"))
	assert.Equal(t, "Brno Jih", titleCase("brno jih"))

	m, err := dict("a", 1, "b", "x")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": "x"}, m)
	_, err = dict("a")
	assert.Error(t, err)
	_, err = dict(1, 2)
	assert.Error(t, err)

	assert.Equal(t, "a &lt;b&gt;<br>c", string(nl2br("a <b>\nc")))
}

func TestTemplateEngine_RenderString(t *testing.T) {
	engine := NewTemplateEngine()

	out, err := engine.RenderString("t", `{{formatMoney .}}`, 99)
	require.NoError(t, err)
	assert.Equal(t, "99,00 Kč", out)

	_, err = engine.RenderString("t", "", nil)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	_, err = engine.RenderString("t", "{{.Missing", nil)
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}

func TestTemplateEngine_WithFuncs(t *testing.T) {
	engine := NewTemplateEngine(WithFuncs(map[string]any{
		"upper": func(string) string { return "X" },
	}))

	out, err := engine.RenderString("t", `{{upper "a"}}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "X", out)
}

func TestTemplateEngine_UnknownTemplate(t *testing.T) {
	_, err := NewTemplateEngine().Render("missing.html", nil)

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeUnknownTemplate, renderErr.Code)
}

func TestTemplateEngine_Invoice(t *testing.T) {
	paid := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	doc := sampleInvoice()
	doc.PaidDate = &paid

	out, err := NewTemplateEngine().Render(TemplateInvoice, doc)
	require.NoError(t, err)

	assert.Contains(t, out, "Faktura – daňový doklad č. 20260007")
	assert.Contains(t, out, "Auto*Mat, z.s.")
	assert.Contains(t, out, "IČO: 12345679")
	assert.Contains(t, out, "Startovné (Do práce na kole 2026)")
	assert.Contains(t, out, "1 200,00 Kč")
	assert.Contains(t, out, "DPH 21 %")
	assert.Contains(t, out, "208,26 Kč")
	assert.Contains(t, out, "Uhrazeno dne 10. 6. 2026")
	assert.Contains(t, out, "Číslo objednávky:")
}

func TestTemplateEngine_InvoiceUnpaid(t *testing.T) {
	doc := sampleInvoice()
	doc.OrderNumber = ""

	out, err := NewTemplateEngine().Render(TemplateInvoice, doc)
	require.NoError(t, err)

	assert.NotContains(t, out, "Uhrazeno")
	assert.NotContains(t, out, "Číslo objednávky")
}

func TestTemplateEngine_CustomerSheets(t *testing.T) {
	out, err := NewTemplateEngine().Render(TemplateCustomerSheets, sampleSheets())
	require.NoError(t, err)

	assert.Equal(t, 2, countOccurrences(out, `<div class="sheet">`))
	assert.Contains(t, out, "krabice 1")
	assert.Contains(t, out, "krabice 2")
	assert.Contains(t, out, "balíčků: 2")
	assert.Contains(t, out, "000000101")
	assert.Contains(t, out, "<td>-</td>")
	assert.Contains(t, out, "Jana Nováková")
}

func sampleInvoice() *InvoiceDocument {
	total := decimal.NewFromInt(1200)
	vat := decimal.RequireFromString("208.26")
	return &InvoiceDocument{
		Campaign:     "Do práce na kole 2026",
		Number:       "20260007",
		ExposureDate: time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC),
		TaxableDate:  time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC),
		DueDate:      time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC),
		OrderNumber:  "OBJ-11",
		Supplier:     Party{Name: "Auto*Mat, z.s.", Street: "Bořivojova 108", City: "Praha", Zip: "130 00", ICO: "22670319"},
		Customer:     Party{Name: "Firma s.r.o.", Street: "Dlouhá 1", City: "Brno", Zip: "602 00", ICO: "12345679", DIC: "CZ12345679"},
		Lines: []InvoiceLine{
			{Description: "Startovné", Quantity: 4, UnitPrice: decimal.NewFromInt(300), Total: total},
		},
		VATRate: decimal.NewFromInt(21),
		Base:    total.Sub(vat),
		VAT:     vat,
		Total:   total,
	}
}

func sampleSheets() *CustomerSheets {
	return &CustomerSheets{
		Campaign: "Do práce na kole 2026",
		BatchID:  "b-1",
		Created:  time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Boxes: []SheetBox{
			{
				Number:         1,
				Company:        "Firma s.r.o.",
				Street:         "Dlouhá 1",
				City:           "Brno",
				Zip:            "602 00",
				AddresseeName:  "Jana Nováková",
				AddresseePhone: "+420 777 000 111",
				Packages: []SheetPackage{
					{TrackingCode: "000000101", Name: "Petr Malý", TShirt: "M", Team: "Kola"},
					{TrackingCode: "000000102", Name: "Eva Velká", TShirt: "S"},
				},
			},
			{
				Number:   2,
				Company:  "Jiná a.s.",
				Packages: []SheetPackage{{TrackingCode: "000000103", Name: "Jan Dvořák", TShirt: "L", Team: "Pěšáci"}},
			},
		},
	}
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
