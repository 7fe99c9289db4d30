// Package email provides email provider interface.
package email

import (
	"context"
	"fmt"
)

type Provider interface {
	SendEmail(ctx context.Context, email *Email) error
	ValidateAPIKey(ctx context.Context) error
}

type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Config struct {
	APIKey string
	From   string
}

// NewProvider returns a Resend-backed provider when an API key is
// configured and a no-op provider otherwise, so order confirmation
// mail stays optional.
func NewProvider(config Config) (Provider, error) {
	if config.APIKey == "" {
		return NoopProvider{}, nil
	}
	if config.From == "" {
		return nil, fmt.Errorf("EMAIL_FROM is required when RESEND_API_KEY is set")
	}
	return NewResendProvider(config.APIKey, config.From), nil
}

// NoopProvider discards all mail.
type NoopProvider struct{}

func (NoopProvider) SendEmail(context.Context, *Email) error { return nil }
func (NoopProvider) ValidateAPIKey(context.Context) error    { return nil }
