package invoice

import (
	"context"
	"testing"

	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/infrastructure/email"
	"github.com/dpnk/backend/internal/infrastructure/printing"
	"github.com/dpnk/backend/internal/infrastructure/storage"
	"github.com/dpnk/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRenderer struct {
	calls int
}

func (r *countingRenderer) Render(_ context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	r.calls++
	return &printing.RenderResult{PDFData: []byte("%PDF-" + req.Title), PageCount: 1}, nil
}

func (r *countingRenderer) Close() error { return nil }

type invoiceEnv struct {
	f        *testutil.Fixture
	svc      *InvoiceService
	renderer *countingRenderer
	sender   *testutil.RecordingSender
	files    *storage.LocalStorage
	admin    *identity.User
	team     *organization.Team
}

func newInvoiceEnv(t *testing.T) *invoiceEnv {
	t.Helper()
	ctx := context.Background()
	f := testutil.NewFixture(t)
	files, err := storage.NewLocalStorage(t.TempDir(), "https://dpnk.example.org/files")
	require.NoError(t, err)
	renderer := &countingRenderer{}
	sender := &testutil.RecordingSender{}

	svc := NewInvoiceService(Repositories{
		Campaigns:     f.Store.Campaigns(),
		Companies:     f.Store.Companies(),
		CompanyAdmins: f.Store.CompanyAdmins(),
		Users:         f.Store.Users(),
		Invoices:      f.Store.Invoices(),
		Payments:      f.Store.Payments(),
	},
		printing.NewDocumentPrinter(printing.NewTemplateEngine(), renderer, zap.NewNop()),
		files,
		printing.Party{Name: "Auto*Mat, z.s.", ICO: "22670319"},
		14,
		f.Store, f.Store.Publisher,
		email.NewPostman(sender, "https://dpnk.test", zap.NewNop()),
		zap.NewNop(),
	)
	svc.now = testutil.Now

	team := f.AddTeam(t, "Pedálníci")
	adminUser, _ := f.AddMember(t, team, "koordinator@example.com", true)
	admin := organization.NewCompanyAdmin(f.Campaign.ID, adminUser.ID, f.Company.ID)
	require.NoError(t, admin.Decide(organization.ApprovalApproved))
	require.NoError(t, f.Store.CompanyAdmins().Save(ctx, admin))

	return &invoiceEnv{f: f, svc: svc, renderer: renderer, sender: sender, files: files, admin: adminUser, team: team}
}

// accepted creates a company payment accepted by the coordinator
func (e *invoiceEnv) accepted(t *testing.T, addr string) *payment.Payment {
	t.Helper()
	_, ua := e.f.AddMember(t, e.team, addr, true)
	p, err := payment.NewCompanyPayment(e.f.Campaign.ID, ua.ID, decimal.NewFromInt(200), uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, p.AcceptByCompany(e.admin.ID))
	p.ClearDomainEvents()
	require.NoError(t, e.f.Store.Payments().Save(context.Background(), p))
	return p
}

func TestInvoiceService_CreateForAdmin(t *testing.T) {
	ctx := context.Background()
	e := newInvoiceEnv(t)
	first := e.accepted(t, "jan@example.com")
	second := e.accepted(t, "eva@example.com")

	inv, err := e.svc.CreateForAdmin(ctx, e.f.Campaign.ID, e.admin.ID, CreateInvoiceInput{OrderNumber: "OBJ-7"})
	require.NoError(t, err)
	assert.Equal(t, "20260001", inv.Number)
	assert.Equal(t, "2026-05-10", inv.ExposureDate)
	assert.Equal(t, 2, inv.PaymentCount)
	assert.True(t, decimal.NewFromInt(400).Equal(inv.TotalAmount))
	assert.Equal(t, "69.42", inv.VAT.StringFixed(2))
	assert.True(t, inv.HasPDF)

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		p, err := e.f.Store.Payments().FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, payment.StatusInvoiceMade, p.Status)
		assert.Equal(t, &inv.ID, p.InvoiceID)
	}
	assert.Len(t, e.f.Store.Publisher.Events(), 2)

	messages := e.sender.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "koordinator@example.com", messages[0].To[0].Email)
	require.Len(t, messages[0].Attachments, 1)
	assert.Equal(t, "faktura-20260001.pdf", messages[0].Attachments[0].Filename)

	t.Run("nothing left to invoice", func(t *testing.T) {
		_, err := e.svc.CreateForAdmin(ctx, e.f.Campaign.ID, e.admin.ID, CreateInvoiceInput{})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("next sequence number", func(t *testing.T) {
		e.accepted(t, "petr@example.com")
		inv, err := e.svc.CreateForAdmin(ctx, e.f.Campaign.ID, e.admin.ID, CreateInvoiceInput{})
		require.NoError(t, err)
		assert.Equal(t, "20260002", inv.Number)
	})

	t.Run("sequence exhausted", func(t *testing.T) {
		e.f.Campaign.InvoiceSequenceLast = 2
		require.NoError(t, e.f.Store.Campaigns().Save(ctx, e.f.Campaign))
		e.accepted(t, "karel@example.com")
		_, err := e.svc.CreateForAdmin(ctx, e.f.Campaign.ID, e.admin.ID, CreateInvoiceInput{})
		assert.ErrorIs(t, err, shared.ErrSequenceExhausted)
	})

	t.Run("numbering restarts at a raised first number", func(t *testing.T) {
		e.f.Campaign.InvoiceSequenceFirst = 100
		e.f.Campaign.InvoiceSequenceLast = 999
		require.NoError(t, e.f.Store.Campaigns().Save(ctx, e.f.Campaign))
		inv, err := e.svc.CreateForAdmin(ctx, e.f.Campaign.ID, e.admin.ID, CreateInvoiceInput{})
		require.NoError(t, err)
		assert.Equal(t, "20260100", inv.Number)
	})

	t.Run("not a coordinator", func(t *testing.T) {
		user, _ := e.f.AddUser(t, "nekdo@example.com")
		_, err := e.svc.CreateForAdmin(ctx, e.f.Campaign.ID, user.ID, CreateInvoiceInput{})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestInvoiceService_BenefitialFee(t *testing.T) {
	ctx := context.Background()
	e := newInvoiceEnv(t)
	e.f.Campaign.BenefitialAdmissionFee = decimal.NewFromInt(500)
	require.NoError(t, e.f.Store.Campaigns().Save(ctx, e.f.Campaign))
	e.accepted(t, "jan@example.com")
	e.accepted(t, "eva@example.com")

	inv, err := e.svc.CreateInvoice(ctx, e.f.Campaign.ID, e.f.Company.ID, CreateInvoiceInput{CompanyPaysBenefitialFee: true})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(inv.TotalAmount))
	assert.True(t, inv.CompanyPaysBenefitialFee)
}

func TestInvoiceService_MarkPaid(t *testing.T) {
	ctx := context.Background()
	e := newInvoiceEnv(t)
	p := e.accepted(t, "jan@example.com")
	inv, err := e.svc.CreateForAdmin(ctx, e.f.Campaign.ID, e.admin.ID, CreateInvoiceInput{})
	require.NoError(t, err)
	e.f.Store.Publisher.Reset()

	paid := testutil.Date(20)
	resp, err := e.svc.MarkPaid(ctx, e.f.Campaign.ID, inv.ID, MarkPaidInput{PaidDate: &paid})
	require.NoError(t, err)
	require.NotNil(t, resp.PaidDate)
	assert.Equal(t, "2026-05-20", *resp.PaidDate)

	stored, err := e.f.Store.Payments().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusInvoicePaid, stored.Status)
	assert.Equal(t, []string{payment.EventTypePaymentStatusChanged}, e.f.Store.Publisher.EventTypes())

	_, err = e.svc.MarkPaid(ctx, e.f.Campaign.ID, inv.ID, MarkPaidInput{})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = e.svc.MarkPaid(ctx, uuid.New(), inv.ID, MarkPaidInput{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInvoiceService_PDF(t *testing.T) {
	ctx := context.Background()
	e := newInvoiceEnv(t)
	e.accepted(t, "jan@example.com")
	inv, err := e.svc.CreateForAdmin(ctx, e.f.Campaign.ID, e.admin.ID, CreateInvoiceInput{})
	require.NoError(t, err)
	require.Equal(t, 1, e.renderer.calls)

	doc, err := e.svc.PDF(ctx, e.f.Campaign.ID, e.admin.ID, false, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "faktura-20260001.pdf", doc.Filename)
	assert.Equal(t, "%PDF-Faktura 20260001", string(doc.Content))
	assert.Equal(t, 1, e.renderer.calls)

	t.Run("missing file is rendered again", func(t *testing.T) {
		require.NoError(t, e.files.Delete(ctx, "invoices/dpnk2026/20260001.pdf"))
		doc, err := e.svc.PDF(ctx, e.f.Campaign.ID, uuid.New(), true, inv.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, doc.Content)
		assert.Equal(t, 2, e.renderer.calls)
	})

	t.Run("other users", func(t *testing.T) {
		user, _ := e.f.AddUser(t, "nekdo@example.com")
		_, err := e.svc.PDF(ctx, e.f.Campaign.ID, user.ID, false, inv.ID)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestInvoiceService_List(t *testing.T) {
	ctx := context.Background()
	e := newInvoiceEnv(t)
	e.accepted(t, "jan@example.com")
	_, err := e.svc.CreateForAdmin(ctx, e.f.Campaign.ID, e.admin.ID, CreateInvoiceInput{})
	require.NoError(t, err)

	mine, err := e.svc.ListForAdmin(ctx, e.f.Campaign.ID, e.admin.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "20260001", mine[0].Number)

	all, err := e.svc.List(ctx, e.f.Campaign.ID, shared.Filter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), all.Total)
}
