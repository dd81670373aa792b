package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/cellarwise/cellarwise-backend/pkg/config"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	// ErrNotConfigured is returned when the deployment has no Stripe key.
	ErrNotConfigured    = errors.New("stripe is not configured")
	errSecretRequired   = errors.New("stripe webhook secret is required")
	errPricesRequired   = errors.New("at least one stripe price id is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// Client carries the configured Stripe key, env, webhook secret and the
// premium price catalogue.
type Client struct {
	api           *stripe.Client
	environment   string
	signingSecret string
	prices        map[enums.BillingInterval]string
}

// NewClient initializes Stripe once with the configured secrets and env.
// ErrNotConfigured is returned when no API key is set so callers can boot
// without billing.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrNotConfigured
	}

	signingSecret := strings.TrimSpace(cfg.Secret)
	if signingSecret == "" {
		return nil, errSecretRequired
	}

	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	prices := map[enums.BillingInterval]string{}
	if id := strings.TrimSpace(cfg.MonthlyPriceID); id != "" {
		prices[enums.BillingIntervalMonthly] = id
	}
	if id := strings.TrimSpace(cfg.YearlyPriceID); id != "" {
		prices[enums.BillingIntervalYearly] = id
	}
	if len(prices) == 0 {
		return nil, errPricesRequired
	}

	api := stripe.NewClient(apiKey)
	stripe.Key = apiKey

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}

	return &Client{
		api:           api,
		environment:   env,
		signingSecret: signingSecret,
		prices:        prices,
	}, nil
}

// PriceID returns the configured price for interval.
func (c *Client) PriceID(interval enums.BillingInterval) (string, bool) {
	if c == nil {
		return "", false
	}
	id, ok := c.prices[interval]
	return id, ok
}

// IntervalForPrice maps a price id back to its billing interval.
func (c *Client) IntervalForPrice(priceID string) (enums.BillingInterval, bool) {
	if c == nil {
		return "", false
	}
	for interval, id := range c.prices {
		if id == priceID {
			return interval, true
		}
	}
	return "", false
}

// API returns the underlying Stripe API client.
func (c *Client) API() *stripe.Client {
	if c == nil {
		return nil
	}
	return c.api
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
