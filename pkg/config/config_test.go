package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Pricing.DoubleCents != 70000 || cfg.Pricing.SingleCents != 120000 {
		t.Errorf("unexpected default rates: %+v", cfg.Pricing)
	}
	if cfg.Pricing.DepositCents != 29900 {
		t.Errorf("DepositCents = %d, want 29900", cfg.Pricing.DepositCents)
	}
	if cfg.Pricing.MinStayNights != 3 || cfg.Pricing.MaxStayNights != 4 {
		t.Errorf("unexpected stay policy: %+v", cfg.Pricing)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RATE_DOUBLE_CENTS", "80000")
	t.Setenv("STAY_MAX_NIGHTS", "0")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("SMTP_PORT", "not-a-number")

	cfg := Load()

	if cfg.Pricing.DoubleCents != 80000 {
		t.Errorf("DoubleCents = %d, want 80000", cfg.Pricing.DoubleCents)
	}
	if cfg.Pricing.MaxStayNights != 0 {
		t.Errorf("MaxStayNights = %d, want 0", cfg.Pricing.MaxStayNights)
	}
	if cfg.Redis.RateWindow != 30*time.Second {
		t.Errorf("RateWindow = %v", cfg.Redis.RateWindow)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Email.SMTPPort != 1025 {
		t.Errorf("invalid int should fall back, got %d", cfg.Email.SMTPPort)
	}
}

func TestStripeEnabled(t *testing.T) {
	if (StripeConfig{}).Enabled() {
		t.Error("empty secret key should disable stripe")
	}
	if !(StripeConfig{SecretKey: "sk_test_x"}).Enabled() {
		t.Error("secret key should enable stripe")
	}
}

func TestPricingConfig_Policy(t *testing.T) {
	p := PricingConfig{SingleCents: 100, DoubleCents: 50, DepositCents: 10, MinStayNights: 4}.Policy()

	if p.Rates.Rate("single") != 100 || p.Rates.Rate("unknown") != 50 {
		t.Errorf("unexpected rates: %+v", p.Rates)
	}
	if p.Stay.Allows(3) || !p.Stay.Allows(9) {
		t.Errorf("min 4 with no max should allow 9 nights but not 3: %+v", p.Stay)
	}
}

func TestCatalogConfig_Location(t *testing.T) {
	loc, err := Load().Catalog.Location()
	if err != nil {
		t.Fatalf("default timezone: %v", err)
	}
	if loc.String() != "Europe/Paris" {
		t.Errorf("Location = %s, want Europe/Paris", loc)
	}

	if loc, _ := (CatalogConfig{}).Location(); loc != time.Local {
		t.Errorf("empty timezone should use the local zone, got %s", loc)
	}
	if _, err := (CatalogConfig{Timezone: "Mars/Olympus"}).Location(); err == nil {
		t.Error("unknown timezone should fail")
	}
}
