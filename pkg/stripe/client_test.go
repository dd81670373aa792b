package stripe

import (
	"context"
	"errors"
	"testing"

	"github.com/cellarwise/cellarwise-backend/pkg/config"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
)

func validConfig() config.StripeConfig {
	return config.StripeConfig{
		APIKey:         "sk_test_123",
		Secret:         "whsec_123",
		Env:            "test",
		MonthlyPriceID: "price_month",
		YearlyPriceID:  "price_year",
	}
}

func TestNewClientNotConfigured(t *testing.T) {
	cfg := validConfig()
	cfg.APIKey = " "
	if _, err := NewClient(context.Background(), cfg, nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestNewClientRejectsMismatchedKey(t *testing.T) {
	cfg := validConfig()
	cfg.Env = "live"
	if _, err := NewClient(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected live env to reject a test key")
	}
}

func TestNewClientRequiresSecretAndPrices(t *testing.T) {
	cfg := validConfig()
	cfg.Secret = ""
	if _, err := NewClient(context.Background(), cfg, nil); !errors.Is(err, errSecretRequired) {
		t.Fatalf("expected secret error, got %v", err)
	}

	cfg = validConfig()
	cfg.MonthlyPriceID, cfg.YearlyPriceID = "", ""
	if _, err := NewClient(context.Background(), cfg, nil); !errors.Is(err, errPricesRequired) {
		t.Fatalf("expected prices error, got %v", err)
	}
}

func TestPriceCatalogue(t *testing.T) {
	client, err := NewClient(context.Background(), validConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Environment() != "test" || client.SigningSecret() != "whsec_123" {
		t.Fatalf("unexpected client metadata %s %s", client.Environment(), client.SigningSecret())
	}
	if id, ok := client.PriceID(enums.BillingIntervalYearly); !ok || id != "price_year" {
		t.Fatalf("unexpected yearly price %q %v", id, ok)
	}
	if interval, ok := client.IntervalForPrice("price_month"); !ok || interval != enums.BillingIntervalMonthly {
		t.Fatalf("unexpected interval %q %v", interval, ok)
	}
	if _, ok := client.IntervalForPrice("price_other"); ok {
		t.Fatal("unknown price should not map")
	}
}
