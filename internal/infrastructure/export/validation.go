package export

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// Row error codes
const (
	CodeRequired       = "REQUIRED"
	CodeTooLong        = "TOO_LONG"
	CodeInvalidFormat  = "INVALID_FORMAT"
	CodeDuplicate      = "DUPLICATE_IN_FILE"
	CodeMissingColumn  = "MISSING_COLUMN"
	CodeRejectedByRule = "INVALID_VALUE"
)

// RowError describes a problem in one cell of an upload
type RowError struct {
	Line    int    `json:"line"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("line %d, column %q: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Rule validates one column
type Rule struct {
	Column    string
	Required  bool
	MaxLength int
	Pattern   *regexp.Regexp
	Unique    bool
	Check     func(value string) error
}

// Validator checks rows against column rules and collects at most
// MaxErrors errors
type Validator struct {
	Rules     []Rule
	MaxErrors int
}

// Result is the outcome of a validation
type Result struct {
	Valid     []*Row
	Errors    []RowError
	Truncated bool
}

// Validate checks the headers and every row
func (v *Validator) Validate(headers []string, rows []*Row) *Result {
	res := &Result{}
	for _, rule := range v.Rules {
		if rule.Required && !slices.Contains(headers, rule.Column) {
			res.add(v.MaxErrors, RowError{Line: 1, Column: rule.Column, Code: CodeMissingColumn, Message: "column is missing"})
		}
	}
	if len(res.Errors) > 0 {
		return res
	}

	seen := make(map[string]map[string]int)
	for _, row := range rows {
		ok := true
		for _, rule := range v.Rules {
			if err := v.check(rule, row, seen); err != nil {
				res.add(v.MaxErrors, *err)
				ok = false
			}
		}
		if ok {
			res.Valid = append(res.Valid, row)
		}
	}
	return res
}

func (v *Validator) check(rule Rule, row *Row, seen map[string]map[string]int) *RowError {
	value := row.Get(rule.Column)
	fail := func(code, msg string) *RowError {
		return &RowError{Line: row.Line, Column: rule.Column, Code: code, Message: msg, Value: value}
	}
	if value == "" {
		if rule.Required {
			return fail(CodeRequired, "value is required")
		}
		return nil
	}
	if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
		return fail(CodeTooLong, fmt.Sprintf("value is longer than %d characters", rule.MaxLength))
	}
	if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
		return fail(CodeInvalidFormat, "value has an invalid format")
	}
	if rule.Check != nil {
		if err := rule.Check(value); err != nil {
			return fail(CodeRejectedByRule, err.Error())
		}
	}
	if rule.Unique {
		key := strings.ToLower(value)
		if seen[rule.Column] == nil {
			seen[rule.Column] = make(map[string]int)
		}
		if first, dup := seen[rule.Column][key]; dup {
			return fail(CodeDuplicate, fmt.Sprintf("duplicates line %d", first))
		}
		seen[rule.Column][key] = row.Line
	}
	return nil
}

func (r *Result) add(maxErrors int, e RowError) {
	if maxErrors > 0 && len(r.Errors) >= maxErrors {
		r.Truncated = true
		return
	}
	r.Errors = append(r.Errors, e)
}
