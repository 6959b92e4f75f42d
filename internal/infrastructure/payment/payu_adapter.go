package payment

import (
	"bufio"
	"bytes"
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dpnk/backend/internal/domain/payment"
	"go.uber.org/zap"
)

const (
	payuNewPaymentPath = "/UTF/NewPayment"
	payuGetStatusPath  = "/UTF/Payment/get/txt"
)

// PayUAdapter implements payment.Gateway for the PayU classic API. Requests
// and answers are signed with MD5 over the concatenated field values and
// one of the two POS keys.
type PayUAdapter struct {
	config     *PayUConfig
	httpClient *http.Client
	node       *snowflake.Node
	logger     *zap.Logger
	now        func() time.Time
}

// NewPayUAdapter creates a new PayU adapter
func NewPayUAdapter(config *PayUConfig, logger *zap.Logger) (*PayUAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	node, err := snowflake.NewNode(config.NodeID)
	if err != nil {
		return nil, fmt.Errorf("payu: failed to create id node: %w", err)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PayUAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		node:       node,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// NewSessionID returns a numeric, time ordered session id
func (a *PayUAdapter) NewSessionID() string {
	return a.node.Generate().String()
}

// PaymentForm builds the signed NewPayment form
func (a *PayUAdapter) PaymentForm(p *payment.Payment, payer payment.Payer, description string) (*payment.Form, error) {
	if p.SessionID == "" {
		return nil, fmt.Errorf("payu: payment has no session id")
	}

	ts := a.timestamp()
	amount := strconv.FormatInt(p.AmountInHalers(), 10)
	payType := string(p.PayType)
	if !p.PayType.IsOnline() {
		payType = ""
	}

	fields := map[string]string{
		"pos_id":       a.config.PosID,
		"pay_type":     payType,
		"session_id":   p.SessionID,
		"pos_auth_key": a.config.PosAuthKey,
		"amount":       amount,
		"desc":         description,
		"order_id":     p.OrderID,
		"first_name":   payer.FirstName,
		"last_name":    payer.LastName,
		"email":        payer.Email,
		"language":     payer.Language,
		"client_ip":    payer.ClientIP,
		"ts":           ts,
	}
	fields["sig"] = sign(
		a.config.PosID, payType, p.SessionID, a.config.PosAuthKey, amount, description, p.OrderID,
		payer.FirstName, payer.LastName, payer.Email, payer.Language, payer.ClientIP, ts, a.config.Key1,
	)

	return &payment.Form{
		Action: a.config.gatewayURL() + payuNewPaymentPath,
		Fields: fields,
	}, nil
}

// VerifyNotification checks md5(pos_id + session_id + ts + key2)
func (a *PayUAdapter) VerifyNotification(n payment.Notification) error {
	if n.PosID != a.config.PosID {
		return fmt.Errorf("%w: unexpected pos id %q", payment.ErrInvalidSignature, n.PosID)
	}
	expected := sign(n.PosID, n.SessionID, n.Timestamp, a.config.Key2)
	if !equalSig(expected, n.Signature) {
		return payment.ErrInvalidSignature
	}
	return nil
}

// FetchStatus calls Payment/get/txt and verifies the signed answer
func (a *PayUAdapter) FetchStatus(ctx context.Context, sessionID string) (*payment.GatewayReport, error) {
	ts := a.timestamp()
	form := url.Values{
		"pos_id":     {a.config.PosID},
		"session_id": {sessionID},
		"ts":         {ts},
		"sig":        {sign(a.config.PosID, sessionID, ts, a.config.Key1)},
	}

	body, err := a.doRequest(ctx, payuGetStatusPath, form)
	if err != nil {
		return nil, err
	}
	values := parseTxtResponse(body)

	if values["status"] != "OK" {
		a.logger.Warn("PayU status query failed",
			zap.String("session_id", sessionID),
			zap.String("error", values["error"]),
		)
		return nil, fmt.Errorf("%w: error %s", payment.ErrGatewayRejected, values["error"])
	}

	expected := sign(
		values["trans_pos_id"], values["trans_session_id"], values["trans_order_id"],
		values["trans_status"], values["trans_amount"], values["trans_desc"], values["trans_ts"],
		a.config.Key2,
	)
	if !equalSig(expected, values["trans_sig"]) {
		return nil, fmt.Errorf("%w: status response", payment.ErrInvalidSignature)
	}
	if values["trans_session_id"] != sessionID {
		return nil, fmt.Errorf("%w: response for session %s", payment.ErrInvalidSignature, values["trans_session_id"])
	}

	status, err := strconv.Atoi(values["trans_status"])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid trans_status %q", payment.ErrGatewayRejected, values["trans_status"])
	}
	amount, err := strconv.ParseInt(values["trans_amount"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid trans_amount %q", payment.ErrGatewayRejected, values["trans_amount"])
	}

	return &payment.GatewayReport{
		Status:  payment.Status(status),
		TransID: values["trans_id"],
		PayType: payment.PayType(values["trans_pay_type"]),
		Amount:  amount,
	}, nil
}

func (a *PayUAdapter) doRequest(ctx context.Context, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.gatewayURL()+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("payu: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("payu: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", payment.ErrGatewayUnavailable, resp.StatusCode)
	}
	return body, nil
}

func (a *PayUAdapter) timestamp() string {
	return strconv.FormatInt(a.now().UnixMilli(), 10)
}

// parseTxtResponse reads the "key: value" lines of a txt answer
func parseTxtResponse(body []byte) map[string]string {
	values := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return values
}

// sign returns the hex MD5 of the concatenated parts
func sign(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(sum[:])
}

func equalSig(expected, got string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(got))) == 1
}

var _ payment.Gateway = (*PayUAdapter)(nil)
