package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPayU(t *testing.T, gatewayURL string) *PayUAdapter {
	t.Helper()
	a, err := NewPayUAdapter(&PayUConfig{
		GatewayURL: gatewayURL,
		PosID:      "12345",
		PosAuthKey: "authkey",
		Key1:       "key1",
		Key2:       "key2",
		NodeID:     1,
	}, zap.NewNop())
	require.NoError(t, err)
	a.now = func() time.Time { return time.UnixMilli(1714800000000) }
	return a
}

func TestPayUConfig_Validate(t *testing.T) {
	valid := PayUConfig{PosID: "1", PosAuthKey: "a", Key1: "k1", Key2: "k2"}
	tests := []struct {
		name   string
		mutate func(c *PayUConfig)
		want   error
	}{
		{name: "valid", mutate: func(*PayUConfig) {}},
		{name: "missing pos id", mutate: func(c *PayUConfig) { c.PosID = "" }, want: ErrPayUMissingPosID},
		{name: "missing auth key", mutate: func(c *PayUConfig) { c.PosAuthKey = "" }, want: ErrPayUMissingPosAuthKey},
		{name: "missing key2", mutate: func(c *PayUConfig) { c.Key2 = "" }, want: ErrPayUMissingKeys},
		{name: "node out of range", mutate: func(c *PayUConfig) { c.NodeID = 2048 }, want: ErrPayUInvalidNodeID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPayU_NewSessionID(t *testing.T) {
	a := newTestPayU(t, "")
	first, second := a.NewSessionID(), a.NewSessionID()
	assert.NotEqual(t, first, second)
	assert.Regexp(t, `^\d+$`, first)
}

func TestPayU_PaymentForm(t *testing.T) {
	a := newTestPayU(t, "")
	p, err := payment.NewPayment(uuid.New(), uuid.New(), decimal.RequireFromString("350.50"), payment.PayTypeCard, "ua-1", "1000")
	require.NoError(t, err)

	form, err := a.PaymentForm(p, payment.Payer{
		FirstName: "Jan",
		LastName:  "Novák",
		Email:     "jan@example.cz",
		Language:  "cs",
		ClientIP:  "10.0.0.1",
	}, "Startovné DPNK")
	require.NoError(t, err)

	assert.Equal(t, "https://secure.payu.com/paygw/UTF/NewPayment", form.Action)
	assert.Equal(t, "35050", form.Fields["amount"])
	assert.Equal(t, "1714800000000", form.Fields["ts"])
	assert.Equal(t, "c", form.Fields["pay_type"])

	want := sign("12345", "c", "1000", "authkey", "35050", "Startovné DPNK", "ua-1",
		"Jan", "Novák", "jan@example.cz", "cs", "10.0.0.1", "1714800000000", "key1")
	assert.Equal(t, want, form.Fields["sig"])
}

func TestPayU_PaymentForm_MissingSession(t *testing.T) {
	a := newTestPayU(t, "")
	_, err := a.PaymentForm(&payment.Payment{}, payment.Payer{}, "x")
	assert.Error(t, err)
}

func TestPayU_VerifyNotification(t *testing.T) {
	a := newTestPayU(t, "")
	good := sign("12345", "1000", "1714800000000", "key2")

	tests := []struct {
		name    string
		n       payment.Notification
		wantErr bool
	}{
		{name: "valid", n: payment.Notification{PosID: "12345", SessionID: "1000", Timestamp: "1714800000000", Signature: good}},
		{name: "uppercase signature", n: payment.Notification{PosID: "12345", SessionID: "1000", Timestamp: "1714800000000", Signature: strings.ToUpper(good)}},
		{name: "wrong signature", n: payment.Notification{PosID: "12345", SessionID: "1000", Timestamp: "1714800000000", Signature: sign("x")}, wantErr: true},
		{name: "signed with key1", n: payment.Notification{PosID: "12345", SessionID: "1000", Timestamp: "1714800000000", Signature: sign("12345", "1000", "1714800000000", "key1")}, wantErr: true},
		{name: "foreign pos", n: payment.Notification{PosID: "999", SessionID: "1000", Timestamp: "1714800000000", Signature: sign("999", "1000", "1714800000000", "key2")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.VerifyNotification(tt.n)
			if tt.wantErr {
				assert.ErrorIs(t, err, payment.ErrInvalidSignature)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func statusBody(sessionID, status, amount, key2 string) string {
	sig := sign("12345", sessionID, "ua-1", status, amount, "Startovné", "1714800000001", key2)
	return "status: OK\n" +
		"trans_id: 777\n" +
		"trans_pos_id: 12345\n" +
		"trans_session_id: " + sessionID + "\n" +
		"trans_order_id: ua-1\n" +
		"trans_amount: " + amount + "\n" +
		"trans_status: " + status + "\n" +
		"trans_pay_type: kb\n" +
		"trans_desc: Startovné\n" +
		"trans_ts: 1714800000001\n" +
		"trans_sig: " + sig + "\n"
}

func TestPayU_FetchStatus(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		code    int
		want    *payment.GatewayReport
		wantErr error
	}{
		{
			name: "done",
			body: statusBody("1000", "99", "35050", "key2"),
			code: http.StatusOK,
			want: &payment.GatewayReport{Status: payment.StatusDone, TransID: "777", PayType: payment.PayTypeKB, Amount: 35050},
		},
		{
			name:    "bad response signature",
			body:    statusBody("1000", "99", "35050", "wrong"),
			code:    http.StatusOK,
			wantErr: payment.ErrInvalidSignature,
		},
		{
			name:    "answer for another session",
			body:    statusBody("2000", "99", "35050", "key2"),
			code:    http.StatusOK,
			wantErr: payment.ErrInvalidSignature,
		},
		{
			name:    "gateway error",
			body:    "status: ERROR\nerror: 103\n",
			code:    http.StatusOK,
			wantErr: payment.ErrGatewayRejected,
		},
		{
			name:    "server error",
			body:    "",
			code:    http.StatusBadGateway,
			wantErr: payment.ErrGatewayUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/UTF/Payment/get/txt", r.URL.Path)
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "1000", r.PostForm.Get("session_id"))
				assert.Equal(t, sign("12345", "1000", "1714800000000", "key1"), r.PostForm.Get("sig"))
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			a := newTestPayU(t, server.URL)
			got, err := a.FetchStatus(context.Background(), "1000")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTxtResponse(t *testing.T) {
	values := parseTxtResponse([]byte("status: OK\r\ntrans_desc: a: b\nbroken line\n"))
	assert.Equal(t, "OK", values["status"])
	assert.Equal(t, "a: b", values["trans_desc"])
	assert.Len(t, values, 2)
}
