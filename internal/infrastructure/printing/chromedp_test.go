package printing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name string
		req  *RenderRequest
		code string
	}{
		{"nil request", nil, ErrCodeInvalidHTML},
		{"empty html", &RenderRequest{HTML: "  ", PaperSize: PaperSizeA4}, ErrCodeInvalidHTML},
		{"bad paper", &RenderRequest{HTML: "<p>x</p>", PaperSize: "Letter"}, ErrCodeInvalidPaperSize},
		{"valid", &RenderRequest{HTML: "<p>x</p>", PaperSize: PaperSizeA5}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRequest(tt.req)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			var renderErr *RenderError
			require.ErrorAs(t, err, &renderErr)
			assert.Equal(t, tt.code, renderErr.Code)
		})
	}
}

func TestBuildPrintParams(t *testing.T) {
	params := buildPrintParams(&RenderRequest{
		PaperSize: PaperSizeA4,
		Margins:   Margins{Top: 25, Right: 10, Bottom: 5, Left: 10},
		Landscape: true,
	})
	assert.InDelta(t, 8.27, params.paperWidth, 0.01)
	assert.InDelta(t, 11.69, params.paperHeight, 0.01)
	assert.InDelta(t, 0.984, params.marginTop, 0.001)
	assert.InDelta(t, 0.197, params.marginBottom, 0.001)
	assert.True(t, params.landscape)

	withFooter := buildPrintParams(&RenderRequest{
		PaperSize:  PaperSizeA6,
		Margins:    Margins{Bottom: 5},
		FooterHTML: pageNumberFooter,
	})
	assert.InDelta(t, mmToInches(10), withFooter.marginBottom, 0.0001)
	assert.InDelta(t, mmToInches(105), withFooter.paperWidth, 0.0001)
	assert.Equal(t, pageNumberFooter, withFooter.footerTemplate)
}

func TestCompleteHTML(t *testing.T) {
	full := "<!DOCTYPE html><html><body>x</body></html>"
	assert.Equal(t, full, completeHTML(&RenderRequest{HTML: full}))

	out := completeHTML(&RenderRequest{HTML: "<p>x</p>", Title: "A & B"})
	assert.Contains(t, out, `<meta charset="UTF-8">`)
	assert.Contains(t, out, "<title>A &amp; B</title>")
	assert.Contains(t, out, "<body><p>x</p></body>")
}

func TestEstimatePageCount(t *testing.T) {
	assert.Equal(t, 1, estimatePageCount(nil))
	pdf := []byte("<< /Type /Pages /Count 2 >> << /Type /Page >> << /Type /Page >>")
	assert.Equal(t, 2, estimatePageCount(pdf))
}

func TestPaperSize(t *testing.T) {
	assert.True(t, PaperSizeA4.IsValid())
	assert.False(t, PaperSize("B5").IsValid())

	w, h := PaperSizeA5.Dimensions()
	assert.Equal(t, 148, w)
	assert.Equal(t, 210, h)

	w, h = PaperSize("Letter").Dimensions()
	assert.Equal(t, 210, w)
	assert.Equal(t, 297, h)
}

func TestRenderError_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("invoice 2026-0042: %w", NewRenderError(ErrCodeRenderTimeout, "no free renderer", context.DeadlineExceeded))

	assert.ErrorIs(t, err, &RenderError{Code: ErrCodeRenderTimeout})
	assert.NotErrorIs(t, err, &RenderError{Code: ErrCodeRenderFailed})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, IsTimeout(err))
	assert.False(t, IsTimeout(NewRenderError(ErrCodeInvalidHTML, "empty", nil)))
	assert.Equal(t, "no free renderer: context deadline exceeded", errors.Unwrap(err).Error())
}

func TestChromedpRenderer_RejectsInvalidRequest(t *testing.T) {
	r, err := NewChromedpRenderer(nil)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Render(context.Background(), &RenderRequest{PaperSize: PaperSizeA4})
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}
