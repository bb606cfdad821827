package config

import (
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production") // skip .env lookup
	t.Setenv("DATABASE_DSN", "tumaini:secret@tcp(localhost:3306)/tumaini?parseTime=True")
	t.Setenv("JWT_ACCESS_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
}

func TestLoad(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("MPESA_CONSUMER_KEY", "ck")
	t.Setenv("MPESA_CONSUMER_SECRET", "cs")
	t.Setenv("MPESA_SHORT_CODE", "174379")
	t.Setenv("MPESA_PASSKEY", "pk")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Mpesa.ShortCode != "174379" {
		t.Errorf("ShortCode = %q, want 174379", cfg.Mpesa.ShortCode)
	}
	if !cfg.Mpesa.Configured() {
		t.Error("Mpesa.Configured() = false, want true")
	}
	if cfg.PayPal.Configured() {
		t.Error("PayPal.Configured() = true, want false")
	}
	if cfg.Payment.PaymentExpiry != 30*time.Minute {
		t.Errorf("PaymentExpiry = %v, want 30m", cfg.Payment.PaymentExpiry)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATABASE_DSN", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for missing DATABASE_DSN")
	}
	if !strings.Contains(err.Error(), "DATABASE_DSN") {
		t.Errorf("error %q does not name DATABASE_DSN", err)
	}
}

// A partially configured provider must fail fast with the missing variable
// named, before any network call could be attempted.
func TestLoadIncompleteMpesa(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MPESA_CONSUMER_KEY", "ck")
	t.Setenv("MPESA_CONSUMER_SECRET", "cs")
	t.Setenv("MPESA_SHORT_CODE", "174379")
	// MPESA_PASSKEY deliberately unset

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for incomplete M-Pesa configuration")
	}
	if !strings.Contains(err.Error(), "MPESA_PASSKEY") {
		t.Errorf("error %q does not name MPESA_PASSKEY", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database: DatabaseConfig{DSN: "dsn"},
			JWT:      JWTConfig{AccessSecret: "a", RefreshSecret: "r"},
			Mpesa:    MpesaConfig{Environment: "sandbox"},
			PayPal:   PayPalConfig{Mode: "sandbox"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid minimal", func(c *Config) {}, ""},
		{"missing jwt access secret", func(c *Config) { c.JWT.AccessSecret = "" }, "JWT_ACCESS_SECRET"},
		{"missing jwt refresh secret", func(c *Config) { c.JWT.RefreshSecret = "" }, "JWT_REFRESH_SECRET"},
		{"bad mpesa environment", func(c *Config) { c.Mpesa.Environment = "staging" }, "MPESA_ENVIRONMENT"},
		{"bad paypal mode", func(c *Config) { c.PayPal.Mode = "test" }, "PAYPAL_MODE"},
		{"incomplete paypal", func(c *Config) { c.PayPal.ClientID = "id" }, "PAYPAL_CLIENT_SECRET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestProviderBaseURLs(t *testing.T) {
	m := MpesaConfig{Environment: "sandbox"}
	if m.BaseURL() != "https://sandbox.safaricom.co.ke" {
		t.Errorf("sandbox BaseURL = %q", m.BaseURL())
	}
	m.Environment = "production"
	if m.BaseURL() != "https://api.safaricom.co.ke" {
		t.Errorf("production BaseURL = %q", m.BaseURL())
	}

	p := PayPalConfig{Mode: "sandbox"}
	if p.BaseURL() != "https://api-m.sandbox.paypal.com" {
		t.Errorf("sandbox BaseURL = %q", p.BaseURL())
	}
	p.Mode = "live"
	if p.BaseURL() != "https://api-m.paypal.com" {
		t.Errorf("live BaseURL = %q", p.BaseURL())
	}
}
