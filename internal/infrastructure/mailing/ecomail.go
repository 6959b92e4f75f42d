package mailing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ListClient keeps mailing list subscriptions in sync
type ListClient interface {
	// Subscribe adds or updates the subscriber and returns its list id
	Subscribe(ctx context.Context, listID string, s Subscriber) (string, error)
	// Unsubscribe removes the address from the list
	Unsubscribe(ctx context.Context, listID, email string) error
}

// EcomailClient implements ListClient for the Ecomail REST API
type EcomailClient struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewEcomailClient creates a new Ecomail client
func NewEcomailClient(config *Config, logger *zap.Logger) (*EcomailClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EcomailClient{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Subscribe adds the subscriber to the list, updating an existing one
func (c *EcomailClient) Subscribe(ctx context.Context, listID string, s Subscriber) (string, error) {
	if listID == "" {
		return "", ErrMissingListID
	}
	if strings.TrimSpace(s.Email) == "" {
		return "", ErrMissingEmail
	}

	body, err := c.do(ctx, http.MethodPost, "/lists/"+listID+"/subscribe", subscribeRequest{
		SubscriberData: subscriberData{
			Email:        s.Email,
			Name:         s.FirstName,
			Surname:      s.LastName,
			CustomFields: s.Fields,
		},
		UpdateExisting: true,
		Resubscribe:    false,
	})
	if err != nil {
		return "", err
	}

	var resp subscribeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("mailing: failed to decode subscribe response: %w", err)
	}
	c.logger.Debug("subscriber synced",
		zap.String("list_id", listID),
		zap.String("subscriber_id", resp.ID.String()),
	)
	return resp.ID.String(), nil
}

// Unsubscribe removes the address from the list
func (c *EcomailClient) Unsubscribe(ctx context.Context, listID, email string) error {
	if listID == "" {
		return ErrMissingListID
	}
	if strings.TrimSpace(email) == "" {
		return ErrMissingEmail
	}
	_, err := c.do(ctx, http.MethodDelete, "/lists/"+listID+"/unsubscribe", unsubscribeRequest{Email: email})
	return err
}

func (c *EcomailClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("mailing: failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.config.apiURL(), "/")+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("mailing: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("key", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("mailing: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		c.logger.Warn("mailing list request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, fmt.Errorf("%w: HTTP %d", ErrListUnavailable, resp.StatusCode)
	}
	return body, nil
}

// NopClient accepts every request without calling anything. It is used
// when mailing is disabled.
type NopClient struct{}

// Subscribe returns no subscriber id
func (NopClient) Subscribe(context.Context, string, Subscriber) (string, error) { return "", nil }

// Unsubscribe does nothing
func (NopClient) Unsubscribe(context.Context, string, string) error { return nil }

var (
	_ ListClient = (*EcomailClient)(nil)
	_ ListClient = NopClient{}
)
