package printing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRenderer struct {
	requests []*RenderRequest
	err      error
}

func (f *fakeRenderer) Render(_ context.Context, req *RenderRequest) (*RenderResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &RenderResult{PDFData: []byte("%PDF-" + req.Title), PageCount: 1}, nil
}

func (f *fakeRenderer) Close() error { return nil }

func TestDocumentPrinter_InvoicePDF(t *testing.T) {
	renderer := &fakeRenderer{}
	printer := NewDocumentPrinter(NewTemplateEngine(), renderer, zap.NewNop())

	pdf, err := printer.InvoicePDF(context.Background(), sampleInvoice())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-Faktura 20260007", string(pdf))

	require.Len(t, renderer.requests, 1)
	req := renderer.requests[0]
	assert.Equal(t, PaperSizeA4, req.PaperSize)
	assert.Equal(t, DefaultMargins, req.Margins)
	assert.NotEmpty(t, req.FooterHTML)
	assert.Contains(t, req.HTML, "20260007")
}

func TestDocumentPrinter_CustomerSheetsPDF(t *testing.T) {
	renderer := &fakeRenderer{}
	printer := NewDocumentPrinter(NewTemplateEngine(), renderer, zap.NewNop())

	pdf, err := printer.CustomerSheetsPDF(context.Background(), sampleSheets())
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)

	require.Len(t, renderer.requests, 1)
	assert.Contains(t, renderer.requests[0].HTML, "Jan Dvořák")
	assert.Empty(t, renderer.requests[0].FooterHTML)
}

func TestDocumentPrinter_RenderFailure(t *testing.T) {
	renderErr := NewRenderError(ErrCodeRenderTimeout, "timed out", nil)
	printer := NewDocumentPrinter(NewTemplateEngine(), &fakeRenderer{err: renderErr}, zap.NewNop())

	_, err := printer.InvoicePDF(context.Background(), sampleInvoice())
	assert.True(t, errors.Is(err, renderErr))
}
