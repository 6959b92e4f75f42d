package handler

import (
	"context"
	"net/http"
	"testing"

	appdelivery "github.com/dpnk/backend/internal/application/delivery"
	"github.com/dpnk/backend/internal/application/invoice"
	"github.com/dpnk/backend/internal/infrastructure/delivery"
	"github.com/dpnk/backend/internal/infrastructure/email"
	"github.com/dpnk/backend/internal/infrastructure/printing"
	"github.com/dpnk/backend/internal/infrastructure/storage"
	"github.com/dpnk/backend/internal/interfaces/http/dto"
	"github.com/dpnk/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pdfRenderer struct{}

func (pdfRenderer) Render(_ context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	return &printing.RenderResult{PDFData: []byte("%PDF-" + req.Title), PageCount: 1}, nil
}

func (pdfRenderer) Close() error { return nil }

type sheetsPrinter struct{}

func (sheetsPrinter) CustomerSheetsPDF(context.Context, *printing.CustomerSheets) ([]byte, error) {
	return []byte("%PDF-sheets"), nil
}

func newInvoiceHandler(t *testing.T, env *testEnv) *InvoiceHandler {
	t.Helper()
	s := env.f.Store
	files, err := storage.NewLocalStorage(t.TempDir(), "https://files.dpnk.example.org")
	require.NoError(t, err)
	return NewInvoiceHandler(invoice.NewInvoiceService(invoice.Repositories{
		Campaigns:     s.Campaigns(),
		Companies:     s.Companies(),
		CompanyAdmins: s.CompanyAdmins(),
		Users:         s.Users(),
		Invoices:      s.Invoices(),
		Payments:      s.Payments(),
	},
		printing.NewDocumentPrinter(printing.NewTemplateEngine(), pdfRenderer{}, zap.NewNop()),
		files,
		printing.Party{Name: "Auto*Mat, z.s.", ICO: "22670319"},
		14,
		s, s.Publisher,
		email.NewPostman(&testutil.RecordingSender{}, "https://dpnk.example.org", zap.NewNop()),
		zap.NewNop(),
	))
}

func newDeliveryHandler(t *testing.T, env *testEnv) *DeliveryHandler {
	t.Helper()
	s := env.f.Store
	files, err := storage.NewLocalStorage(t.TempDir(), "https://files.dpnk.example.org")
	require.NoError(t, err)
	return NewDeliveryHandler(appdelivery.NewDeliveryService(appdelivery.Repositories{
		Campaigns:    s.Campaigns(),
		TShirtSizes:  s.TShirtSizes(),
		Attendances:  s.Attendances(),
		Users:        s.Users(),
		Teams:        s.Teams(),
		Companies:    s.Companies(),
		Subsidiaries: s.Subsidiaries(),
		Packages:     s.Packages(),
		Batches:      s.Batches(),
	},
		sheetsPrinter{},
		delivery.NewAVFullWriter(delivery.Sender{Code: "AUTOMAT", ServiceCode: "15N", DefaultWeight: 300}),
		files,
		s,
		zap.NewNop(),
	))
}

func TestInvoiceHandler_List(t *testing.T) {
	env := newTestEnv(t)
	h := newInvoiceHandler(t, env)

	w := env.serve(t, h.List, request{target: "/admin/invoices", user: adminID, staff: true})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeResponse(t, w)
	assert.Equal(t, []interface{}{}, resp.Data)
	require.NotNil(t, resp.Meta)
	assert.Zero(t, resp.Meta.Total)
}

func TestInvoiceHandler_CompanyInvoicesRequireCoordinator(t *testing.T) {
	env := newTestEnv(t)
	h := newInvoiceHandler(t, env)
	user, _ := env.f.AddUser(t, "jan@example.org")

	w := env.serve(t, h.ListCompanyInvoices, request{target: "/company-admin/invoices", user: user.ID})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))
}

func TestInvoiceHandler_PDF(t *testing.T) {
	env := newTestEnv(t)
	h := newInvoiceHandler(t, env)

	tests := []struct {
		name   string
		id     string
		status int
		code   string
	}{
		{"invalid id", "faktura-1", http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"unknown invoice", uuid.NewString(), http.StatusNotFound, dto.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.serve(t, h.PDF, request{
				route:  "/invoices/:id/pdf",
				target: "/invoices/" + tt.id + "/pdf",
				user:   adminID,
				staff:  true,
			})

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestDeliveryHandler_Batches(t *testing.T) {
	env := newTestEnv(t)
	h := newDeliveryHandler(t, env)

	t.Run("no batches yet", func(t *testing.T) {
		w := env.serve(t, h.ListBatches, request{target: "/admin/delivery/batches", user: adminID, staff: true})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, dataAs[[]appdelivery.BatchResponse](t, w))
	})

	t.Run("unknown batch", func(t *testing.T) {
		w := env.serve(t, h.GetBatch, request{
			route:  "/admin/delivery/batches/:id",
			target: "/admin/delivery/batches/" + uuid.NewString(),
			user:   adminID,
			staff:  true,
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("customer sheets of an unknown batch", func(t *testing.T) {
		w := env.serve(t, h.CustomerSheets, request{
			route:  "/admin/delivery/batches/:id/customer-sheets",
			target: "/admin/delivery/batches/" + uuid.NewString() + "/customer-sheets",
			user:   adminID,
			staff:  true,
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid batch id", func(t *testing.T) {
		w := env.serve(t, h.OrderFile, request{
			route:  "/admin/delivery/batches/:id/order-file",
			target: "/admin/delivery/batches/xyz/order-file",
			user:   adminID,
			staff:  true,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, errorCode(t, w))
	})
}
