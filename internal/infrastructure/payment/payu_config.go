package payment

import (
	"errors"
	"time"
)

const defaultPayUGatewayURL = "https://secure.payu.com/paygw"

// PayUConfig contains configuration for the PayU classic API
type PayUConfig struct {
	// GatewayURL is the paygw base URL without the encoding segment
	GatewayURL string
	// PosID is the point of sale id
	PosID string
	// PosAuthKey authorizes the redirect form
	PosAuthKey string
	// Key1 signs outgoing requests
	Key1 string
	// Key2 verifies notifications and status responses
	Key2 string
	// Timeout limits status queries
	Timeout time.Duration
	// NodeID is the snowflake node used for session ids (0-1023)
	NodeID int64
}

// Errors for configuration validation
var (
	ErrPayUMissingPosID      = errors.New("payu: missing pos id")
	ErrPayUMissingPosAuthKey = errors.New("payu: missing pos auth key")
	ErrPayUMissingKeys       = errors.New("payu: missing signature keys")
	ErrPayUInvalidNodeID     = errors.New("payu: node id must be between 0 and 1023")
)

// Validate validates the configuration
func (c *PayUConfig) Validate() error {
	if c.PosID == "" {
		return ErrPayUMissingPosID
	}
	if c.PosAuthKey == "" {
		return ErrPayUMissingPosAuthKey
	}
	if c.Key1 == "" || c.Key2 == "" {
		return ErrPayUMissingKeys
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		return ErrPayUInvalidNodeID
	}
	return nil
}

func (c *PayUConfig) gatewayURL() string {
	if c.GatewayURL == "" {
		return defaultPayUGatewayURL
	}
	return c.GatewayURL
}
