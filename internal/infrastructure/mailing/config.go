package mailing

import (
	"errors"
	"time"
)

const defaultEcomailAPIURL = "https://api2.ecomailapp.cz"

// Config contains the Ecomail API settings
type Config struct {
	// APIURL is the API base URL
	APIURL string
	// APIKey is sent in the "key" header
	APIKey  string
	Timeout time.Duration
}

// Errors for configuration validation
var (
	ErrMissingAPIKey   = errors.New("mailing: missing api key")
	ErrMissingListID   = errors.New("mailing: missing list id")
	ErrMissingEmail    = errors.New("mailing: subscriber has no email")
	ErrListUnavailable = errors.New("mailing: list api unavailable")
)

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func (c *Config) apiURL() string {
	if c.APIURL == "" {
		return defaultEcomailAPIURL
	}
	return c.APIURL
}
