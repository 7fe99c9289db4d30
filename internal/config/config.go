package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	// AuthTokenSecret signs and verifies the HS256 bearer tokens that
	// identify storefront users on checkout and retry requests.
	AuthTokenSecret string `env:"AUTH_TOKEN_SECRET,required" validate:"required,min=32"`

	// StorefrontConfigPath points at the YAML file describing shipping
	// and payment methods.
	StorefrontConfigPath string `env:"STOREFRONT_CONFIG_PATH" envDefault:"storefront.yaml" validate:"required"`

	BaseURL          string `env:"BASE_URL,required" validate:"required,url"`
	PaymentResultURL string `env:"PAYMENT_RESULT_URL,required" validate:"required,url"`

	GatewayEndpoint string `env:"GATEWAY_ENDPOINT,required" validate:"required,url"`
	GatewaySecret   string `env:"GATEWAY_SECRET,required" validate:"required"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	EmailFrom    string `env:"EMAIL_FROM" validate:"omitempty,email"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	// LogFile, when set, receives a JSON copy of every record in
	// addition to the console output.
	LogFile string `env:"LOG_FILE"`
	Port      string     `env:"PORT" envDefault:"8080"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	hasStripeKey := strings.TrimSpace(c.StripeSecretKey) != ""
	hasStripeWebhookSecret := strings.TrimSpace(c.StripeWebhookSecret) != ""
	if hasStripeKey != hasStripeWebhookSecret {
		return fmt.Errorf("STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET must be set together")
	}

	hasResendKey := strings.TrimSpace(c.ResendAPIKey) != ""
	hasEmailFrom := strings.TrimSpace(c.EmailFrom) != ""
	if hasResendKey != hasEmailFrom {
		return fmt.Errorf("RESEND_API_KEY and EMAIL_FROM must be set together")
	}

	for name, raw := range map[string]string{"BASE_URL": c.BaseURL, "PAYMENT_RESULT_URL": c.PaymentResultURL} {
		parsed, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || parsed.Hostname() == "" {
			return fmt.Errorf("%s must be a valid absolute URL", name)
		}
		if !isLocalHost(parsed.Hostname()) && !strings.EqualFold(parsed.Scheme, "https") {
			return fmt.Errorf("%s must use https outside local development", name)
		}
	}

	return nil
}

func isLocalHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
