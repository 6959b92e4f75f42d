package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"maps"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

// Document template names
const (
	TemplateInvoice        = "invoice.html"
	TemplateCustomerSheets = "customer_sheets.html"
)

// TemplateEngine renders the embedded document templates with Czech
// number and date formatting helpers
type TemplateEngine struct {
	funcMap   template.FuncMap
	templates *template.Template
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithFuncs adds or replaces template functions
func WithFuncs(funcs template.FuncMap) TemplateEngineOption {
	return func(e *TemplateEngine) { maps.Copy(e.funcMap, funcs) }
}

// NewTemplateEngine parses the embedded templates. It panics when they do
// not parse, which only a broken build can cause.
func NewTemplateEngine(opts ...TemplateEngineOption) *TemplateEngine {
	e := &TemplateEngine{}
	e.funcMap = template.FuncMap{
		"formatMoney":   formatMoney,
		"formatDecimal": formatDecimal,
		"formatDate":    formatDate,
		"title":         titleCase,
		"upper":         strings.ToUpper,
		"join":          strings.Join,
		"truncate":      truncate,
		"add":           add,
		"mul":           mul,
		"seq":           seq,
		"dict":          dict,
		"default":       defaultFunc,
		"nl2br":         nl2br,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.templates = template.Must(template.New("documents").Funcs(e.funcMap).ParseFS(templateFS, "templates/*.html"))
	return e
}

// Render executes the named template with data
func (e *TemplateEngine) Render(name string, data any) (string, error) {
	tmpl := e.templates.Lookup(name)
	if tmpl == nil {
		return "", NewRenderError(ErrCodeUnknownTemplate, "unknown template: "+name, nil)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template", err)
	}
	return buf.String(), nil
}

// RenderString parses and executes an ad hoc template
func (e *TemplateEngine) RenderString(name, content string, data any) (string, error) {
	if content == "" {
		return "", NewRenderError(ErrCodeInvalidHTML, "template content is empty", nil)
	}
	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(content)
	if err != nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "failed to parse template", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template", err)
	}
	return buf.String(), nil
}

// formatMoney formats an amount the Czech way
// Example: 1234.5 -> "1 234,50 Kč"
func formatMoney(v any) string {
	return formatDecimal(v, 2) + " Kč"
}

// formatDecimal groups thousands with spaces and uses a decimal comma
func formatDecimal(v any, precision int) string {
	d := toDecimal(v)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	intPart, fracPart, _ := strings.Cut(d.StringFixed(int32(precision)), ".")
	var result strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result.WriteRune(' ')
		}
		result.WriteRune(c)
	}
	if fracPart != "" {
		return sign + result.String() + "," + fracPart
	}
	return sign + result.String()
}

// formatDate formats as "2. 1. 2026"
func formatDate(v any) string {
	var t time.Time
	switch val := v.(type) {
	case time.Time:
		t = val
	case *time.Time:
		if val != nil {
			t = *val
		}
	}
	if t.IsZero() {
		return ""
	}
	return t.Format("2. 1. 2006")
}

func titleCase(s string) string {
	return cases.Title(language.Czech).String(s)
}

// truncate truncates to max runes, appending an ellipsis
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

func add(a, b any) decimal.Decimal {
	return toDecimal(a).Add(toDecimal(b))
}

func mul(a, b any) decimal.Decimal {
	return toDecimal(a).Mul(toDecimal(b))
}

// seq returns 1..n
func seq(n int) []int {
	result := make([]int, 0, max(n, 0))
	for i := 1; i <= n; i++ {
		result = append(result, i)
	}
	return result
}

func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict expects key value pairs")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

func defaultFunc(def, val any) any {
	if s, ok := val.(string); ok && s == "" {
		return def
	}
	if val == nil {
		return def
	}
	return val
}

func nl2br(s string) template.HTML {
	return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
}

func toDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case decimal.Decimal:
		return val
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero
		}
		return *val
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
