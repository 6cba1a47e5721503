package payment

import (
	"errors"
	"time"
)

// BankPayoutConfig contains configuration for the bank transfer payout API
type BankPayoutConfig struct {
	// BaseURL is the payout API base URL
	BaseURL string
	// APIKey authenticates requests
	APIKey string
	// SigningSecret signs request bodies with HMAC-SHA256
	SigningSecret string
	// Timeout bounds a single payout call
	Timeout time.Duration
	// IsSandbox indicates whether to use the sandbox environment
	IsSandbox bool
}

// Errors for configuration validation
var (
	ErrPayoutMissingBaseURL = errors.New("payout: missing base URL")
	ErrPayoutMissingAPIKey  = errors.New("payout: missing API key")
	ErrPayoutMissingSecret  = errors.New("payout: missing signing secret")
)

// Validate validates the configuration
func (c *BankPayoutConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrPayoutMissingBaseURL
	}
	if c.APIKey == "" {
		return ErrPayoutMissingAPIKey
	}
	if c.SigningSecret == "" {
		return ErrPayoutMissingSecret
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}
