package handler

import (
	"net/http"
	"net/url"
	"testing"

	apppayment "github.com/dpnk/backend/internal/application/payment"
	"github.com/dpnk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentHandler_Notify(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		form   url.Values
		status int
		code   string
	}{
		{
			name:   "missing signature",
			form:   url.Values{"pos_id": {testPosID}, "session_id": {"1-abc"}, "ts": {"1715000000"}},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeValidation,
		},
		{
			name:   "foreign point of sale",
			form:   url.Values{"pos_id": {"999"}, "session_id": {"1-abc"}, "ts": {"1715000000"}, "sig": {"00"}},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeInvalidSignature,
		},
		{
			name:   "forged signature",
			form:   url.Values{"pos_id": {testPosID}, "session_id": {"1-abc"}, "ts": {"1715000000"}, "sig": {"d41d8cd98f00b204e9800998ecf8427e"}},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeInvalidSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.serve(t, env.payment.Notify, request{
				method:      http.MethodPost,
				target:      "/payments/payu/notify",
				body:        tt.form.Encode(),
				contentType: "application/x-www-form-urlencoded",
				noCampaign:  true,
			})

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestPaymentHandler_PaymentReturn(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.f.AddUser(t, "platce@example.org")

	t.Run("unknown status", func(t *testing.T) {
		w := env.serve(t, env.payment.PaymentReturn, request{
			route:  "/payments/return/:status",
			target: "/payments/return/maybe?session_id=1-abc",
			user:   user.ID,
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w))
	})

	t.Run("session required", func(t *testing.T) {
		w := env.serve(t, env.payment.PaymentReturn, request{
			route:  "/payments/return/:status",
			target: "/payments/return/success",
			user:   user.ID,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))
	})
}

func TestPaymentHandler_MyPayments(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.f.AddUser(t, "platce@example.org")

	w := env.serve(t, env.payment.MyPayments, request{target: "/payments", user: user.ID})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	overview := dataAs[apppayment.PaymentsOverview](t, w)
	assert.Empty(t, overview.Payments)
	assert.True(t, overview.Fee.IsPositive())
}

func TestPaymentHandler_ApplyCouponValidation(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.f.AddUser(t, "platce@example.org")

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing code", gin.H{}},
		{"short code", gin.H{"code": "AB-123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.serve(t, env.payment.ApplyCoupon, request{
				method: http.MethodPost,
				target: "/coupons/apply",
				body:   tt.body,
				user:   user.ID,
			})

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))
		})
	}

	t.Run("campaign required", func(t *testing.T) {
		w := env.serve(t, env.payment.ApplyCoupon, request{
			method:     http.MethodPost,
			target:     "/coupons/apply",
			body:       gin.H{"code": "ABCDEFGHI"},
			user:       uuid.New(),
			noCampaign: true,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeCampaignRequired, errorCode(t, w))
	})
}
