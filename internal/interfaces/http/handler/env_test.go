package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appcampaign "github.com/dpnk/backend/internal/application/campaign"
	"github.com/dpnk/backend/internal/application/identity"
	"github.com/dpnk/backend/internal/application/organization"
	apppayment "github.com/dpnk/backend/internal/application/payment"
	"github.com/dpnk/backend/internal/application/reporting"
	"github.com/dpnk/backend/internal/application/results"
	apptrip "github.com/dpnk/backend/internal/application/trip"
	"github.com/dpnk/backend/internal/infrastructure/auth"
	"github.com/dpnk/backend/internal/infrastructure/cache"
	"github.com/dpnk/backend/internal/infrastructure/config"
	"github.com/dpnk/backend/internal/infrastructure/email"
	"github.com/dpnk/backend/internal/infrastructure/payment"
	"github.com/dpnk/backend/internal/infrastructure/storage"
	"github.com/dpnk/backend/internal/interfaces/http/middleware"
	"github.com/dpnk/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPosID = "145227"

// testEnv wires the handlers to real services over the in-memory store
type testEnv struct {
	f   *testutil.Fixture
	jwt *auth.JWTService

	auth        *AuthHandler
	account     *AccountHandler
	campaign    *CampaignHandler
	org         *OrganizationHandler
	team        *TeamHandler
	trip        *TripHandler
	competition *CompetitionHandler
	payment     *PaymentHandler
	report      *reporting.ReportService
	results     *results.ResultsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	f := testutil.NewFixture(t)
	s := f.Store
	log := zap.NewNop()
	postman := email.NewPostman(&testutil.RecordingSender{}, "https://dpnk.example.org", log)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "handler-test-secret-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "dpnk-test",
		MaxRefreshCount:        5,
	})
	authService := identity.NewAuthService(s.Users(), jwtService, nil, identity.DefaultAuthServiceConfig(), log)
	accountService := identity.NewAccountService(identity.AccountRepositories{
		Users:       s.Users(),
		Attendances: s.Attendances(),
		Campaigns:   s.Campaigns(),
		TShirtSizes: s.TShirtSizes(),
		Coupons:     s.Coupons(),
	}, s, s.Publisher, jwtService, postman, log)

	gateway, err := payment.NewPayUAdapter(&payment.PayUConfig{
		PosID:      testPosID,
		PosAuthKey: "auth-key",
		Key1:       "key-one",
		Key2:       "key-two",
	}, log)
	require.NoError(t, err)
	paymentService := apppayment.NewPaymentService(apppayment.Repositories{
		Campaigns:     s.Campaigns(),
		Attendances:   s.Attendances(),
		Users:         s.Users(),
		Teams:         s.Teams(),
		Subsidiaries:  s.Subsidiaries(),
		CompanyAdmins: s.CompanyAdmins(),
		Payments:      s.Payments(),
		Common:        s.CommonTransactions(),
		Coupons:       s.Coupons(),
		Vouchers:      s.Vouchers(),
	}, gateway, cache.NewInMemoryIdempotencyStore(), s, s.Publisher, postman, log)

	files, err := storage.NewLocalStorage(t.TempDir(), "https://files.dpnk.example.org")
	require.NoError(t, err)

	resultsCache := cache.NewInMemoryResultsCache(time.Minute, log)
	t.Cleanup(func() { _ = resultsCache.Close() })
	resultRepos := results.Repositories{
		Campaigns:    s.Campaigns(),
		Competitions: s.Competitions(),
		Results:      s.Results(),
		Questions:    s.Questions(),
		Answers:      s.Answers(),
		Attendances:  s.Attendances(),
		Teams:        s.Teams(),
		Companies:    s.Companies(),
		Subsidiaries: s.Subsidiaries(),
		Users:        s.Users(),
		Trips:        s.Trips(),
	}
	recalc := results.NewRecalculator(resultRepos, resultsCache, log)
	resultsService := results.NewResultsService(resultRepos, resultsCache, recalc, s, s.Publisher, log)

	reportService := reporting.NewReportService(reporting.Repositories{
		Campaigns:    s.Campaigns(),
		Cities:       s.Cities(),
		TShirtSizes:  s.TShirtSizes(),
		Attendances:  s.Attendances(),
		Users:        s.Users(),
		Teams:        s.Teams(),
		Companies:    s.Companies(),
		Subsidiaries: s.Subsidiaries(),
		Trips:        s.Trips(),
	}, resultsService, s, log)

	return &testEnv{
		f:        f,
		jwt:      jwtService,
		auth:     NewAuthHandler(authService, accountService),
		account:  NewAccountHandler(accountService, paymentService),
		campaign: NewCampaignHandler(appcampaign.NewCampaignService(s.Campaigns(), s.TShirtSizes(), s.Cities(), log)),
		org:      NewOrganizationHandler(organization.NewCompanyService(s.Companies(), s.Subsidiaries(), s.CompanyAdmins(), s.Cities(), log)),
		team: NewTeamHandler(organization.NewTeamService(organization.TeamRepositories{
			Campaigns:    s.Campaigns(),
			Cities:       s.Cities(),
			Subsidiaries: s.Subsidiaries(),
			Teams:        s.Teams(),
			Attendances:  s.Attendances(),
			Users:        s.Users(),
		}, s, s.Publisher, postman, log)),
		trip:        NewTripHandler(apptrip.NewTripService(s.Campaigns(), s.Attendances(), s.Trips(), s, s.Publisher, files, log)),
		competition: NewCompetitionHandler(resultsService),
		payment:     NewPaymentHandler(paymentService),
		report:      reportService,
		results:     resultsService,
	}
}

// request describes one call against a single mounted handler
type request struct {
	method string
	route  string
	target string
	body   any
	// contentType overrides the JSON default for raw bodies
	contentType string
	user        uuid.UUID
	staff       bool
	noCampaign  bool
}

// serve mounts h on route and performs req, setting the campaign and user
// the campaign and JWT middlewares would resolve
func (e *testEnv) serve(t *testing.T, h gin.HandlerFunc, req request) *httptest.ResponseRecorder {
	t.Helper()

	method := req.method
	if method == "" {
		method = http.MethodGet
	}
	route := req.route
	if route == "" {
		route, _, _ = strings.Cut(req.target, "?")
	}

	var body io.Reader
	contentType := req.contentType
	switch b := req.body.(type) {
	case nil:
	case io.Reader:
		body = b
	case string:
		body = bytes.NewBufferString(b)
		if contentType == "" {
			contentType = "application/json"
		}
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	router := gin.New()
	router.Handle(method, route, func(c *gin.Context) {
		c.Set(middleware.RequestIDKey, "test-request")
		if !req.noCampaign {
			c.Set(middleware.CampaignKey, e.f.Campaign)
		}
		if req.user != uuid.Nil {
			c.Set(middleware.JWTUserIDKey, req.user.String())
			c.Set(middleware.JWTStaffKey, req.staff)
		}
		c.Next()
	}, h)

	httpReq := httptest.NewRequest(method, req.target, body)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httpReq)
	return w
}

// errorCode returns the error code of a failed response
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, w)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

// dataAs decodes the data of a successful response into T
func dataAs[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success, w.Body.String())
	return resp.Data
}
