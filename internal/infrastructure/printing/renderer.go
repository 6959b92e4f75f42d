package printing

import (
	"context"
	"errors"
	"time"
)

// PaperSize names an ISO 216 sheet
type PaperSize string

const (
	PaperSizeA4 PaperSize = "A4"
	PaperSizeA5 PaperSize = "A5"
	PaperSizeA6 PaperSize = "A6"
)

// sheets holds portrait width and height in millimeters
var sheets = map[PaperSize][2]int{
	PaperSizeA4: {210, 297},
	PaperSizeA5: {148, 210},
	PaperSizeA6: {105, 148},
}

func (p PaperSize) IsValid() bool {
	_, ok := sheets[p]
	return ok
}

// Dimensions returns the portrait size in millimeters; unknown sizes are A4
func (p PaperSize) Dimensions() (width, height int) {
	s, ok := sheets[p]
	if !ok {
		s = sheets[PaperSizeA4]
	}
	return s[0], s[1]
}

// Margins in millimeters
type Margins struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

// UniformMargins uses mm on every side
func UniformMargins(mm int) Margins {
	return Margins{Top: mm, Right: mm, Bottom: mm, Left: mm}
}

// DefaultMargins suit invoices and other letter-like documents
var DefaultMargins = UniformMargins(15)

// RenderRequest is one HTML document to print
type RenderRequest struct {
	HTML      string
	PaperSize PaperSize
	Landscape bool
	Margins   Margins
	// Title becomes the PDF title
	Title string
	// FooterHTML is repeated on every page
	FooterHTML string
	// Timeout overrides the renderer default when positive
	Timeout time.Duration
}

type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// PDFRenderer turns HTML into PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeUnknownTemplate  = "UNKNOWN_TEMPLATE"
)

// RenderError is returned by renderers and the template engine. Two render
// errors match with errors.Is when their codes are equal.
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}

func (e *RenderError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *RenderError) Unwrap() error { return e.Cause }

func (e *RenderError) Is(target error) bool {
	var other *RenderError
	return errors.As(target, &other) && other.Code == e.Code
}

// IsTimeout reports whether err is a render timeout
func IsTimeout(err error) bool {
	var re *RenderError
	return errors.As(err, &re) && re.Code == ErrCodeRenderTimeout
}
