// Package delivery writes the carrier order files of delivery batches.
package delivery

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrNoRecords is returned when a file would have no lines
	ErrNoRecords = errors.New("delivery: no records to write")
	// ErrFieldOverflow is returned for a number wider than its field.
	// Numbers are never cut, the carrier would read a different value.
	ErrFieldOverflow = errors.New("delivery: number does not fit its field")
)

// Sender identifies the shipper in the carrier file
type Sender struct {
	Code          string
	ServiceCode   string
	DefaultWeight int
}

// Record is one package in the AVFULL order file
type Record struct {
	TrackingNumber string
	Name           string
	Street         string
	City           string
	Zip            string
	Phone          string
	Email          string
	// WeightGrams falls back to the sender default when zero
	WeightGrams  int
	PackageCount int
	Reference    string
}

type align int

const (
	alignLeft align = iota
	alignRight
)

type field struct {
	name  string
	width int
	align align
	value func(s Sender, r Record) string
}

// avfullLayout is the fixed-width record layout agreed with the carrier
var avfullLayout = []field{
	{"sender", 10, alignLeft, func(s Sender, _ Record) string { return s.Code }},
	{"tracking", 9, alignRight, func(_ Sender, r Record) string { return r.TrackingNumber }},
	{"name", 40, alignLeft, func(_ Sender, r Record) string { return r.Name }},
	{"street", 40, alignLeft, func(_ Sender, r Record) string { return r.Street }},
	{"city", 30, alignLeft, func(_ Sender, r Record) string { return r.City }},
	{"zip", 6, alignLeft, func(_ Sender, r Record) string { return strings.ReplaceAll(r.Zip, " ", "") }},
	{"phone", 15, alignLeft, func(_ Sender, r Record) string { return strings.ReplaceAll(r.Phone, " ", "") }},
	{"email", 50, alignLeft, func(_ Sender, r Record) string { return r.Email }},
	{"weight", 6, alignRight, func(s Sender, r Record) string {
		if r.WeightGrams > 0 {
			return strconv.Itoa(r.WeightGrams)
		}
		return strconv.Itoa(s.DefaultWeight)
	}},
	{"count", 3, alignRight, func(_ Sender, r Record) string { return strconv.Itoa(max(r.PackageCount, 1)) }},
	{"service", 5, alignLeft, func(s Sender, _ Record) string { return s.ServiceCode }},
	{"reference", 20, alignLeft, func(_ Sender, r Record) string { return r.Reference }},
}

// LineWidth is the length of a record line without the line break
var LineWidth = func() int {
	n := 0
	for _, f := range avfullLayout {
		n += f.width
	}
	return n
}()

// AVFullWriter writes TNT AVFULL order files
type AVFullWriter struct {
	sender Sender
}

// NewAVFullWriter creates a writer for sender
func NewAVFullWriter(sender Sender) *AVFullWriter {
	return &AVFullWriter{sender: sender}
}

// Line formats one record. Text longer than its field is cut.
func (w *AVFullWriter) Line(r Record) (string, error) {
	var b strings.Builder
	b.Grow(LineWidth)
	for _, f := range avfullLayout {
		v := Transliterate(f.value(w.sender, r))
		if f.align == alignRight && len(v) > f.width {
			return "", fmt.Errorf("%w: %s %s has more than %d digits", ErrFieldOverflow, f.name, v, f.width)
		}
		b.WriteString(pad(v, f.width, f.align))
	}
	return b.String(), nil
}

// Write writes one CRLF terminated line per record
func (w *AVFullWriter) Write(out io.Writer, records []Record) error {
	if len(records) == 0 {
		return ErrNoRecords
	}
	bw := bufio.NewWriter(out)
	for i, r := range records {
		line, err := w.Line(r)
		if err != nil {
			return fmt.Errorf("delivery: record %d: %w", i+1, err)
		}
		if _, err := bw.WriteString(line + "\r\n"); err != nil {
			return fmt.Errorf("delivery: failed to write record %d: %w", i+1, err)
		}
	}
	return bw.Flush()
}

// Transliterate strips diacritics and replaces the remaining non-ASCII
// characters with '?'
func Transliterate(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\r' || r == '\n' || r == '\t':
			return ' '
		case r > unicode.MaxASCII:
			return '?'
		}
		return r
	}, out)
}

// pad fits an ASCII value to width. Numbers are right aligned with zeros
// and must already fit.
func pad(s string, width int, a align) string {
	if len(s) > width {
		return s[:width]
	}
	if a == alignRight {
		return strings.Repeat("0", width-len(s)) + s
	}
	return s + strings.Repeat(" ", width-len(s))
}
