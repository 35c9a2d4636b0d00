package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, _, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("default port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Generation.MinYear != 1900 {
		t.Errorf("default min_year = %d, want 1900", cfg.Generation.MinYear)
	}
	if cfg.Generation.ImageMaxRetries != 2 {
		t.Errorf("default image_max_retries = %d, want 2", cfg.Generation.ImageMaxRetries)
	}
	if cfg.Models.Text.Name == "" || cfg.Models.Image.Name == "" {
		t.Error("model names should default to non-empty values")
	}
	if cfg.Payment.TextPrice != 80 || cfg.Payment.ImagePrice != 500 {
		t.Errorf("default prices = %d/%d, want 80/500", cfg.Payment.TextPrice, cfg.Payment.ImagePrice)
	}
	if cfg.Payment.Currency != "jpy" {
		t.Errorf("default currency = %q, want jpy", cfg.Payment.Currency)
	}
	if cfg.PDF.PageSize != "A3" {
		t.Errorf("default page_size = %q, want A3", cfg.PDF.PageSize)
	}
	if cfg.Server.ShutdownTimeout() != 30*time.Second {
		t.Errorf("default shutdown timeout = %v, want 30s", cfg.Server.ShutdownTimeout())
	}
}

func TestLoadFile(t *testing.T) {
	content := `
[server]
port = "9090"

[generation]
min_year = 1950
image_max_retries = 3

[models.text]
name = "gemini-test"
temperature = 0.5

[payment]
test_mode = true
text_price = 100
`
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Generation.MinYear != 1950 {
		t.Errorf("min_year = %d, want 1950", cfg.Generation.MinYear)
	}
	if cfg.Models.Text.Name != "gemini-test" {
		t.Errorf("text model = %q, want gemini-test", cfg.Models.Text.Name)
	}
	if cfg.Models.Text.Temperature != 0.5 {
		t.Errorf("temperature = %g, want 0.5", cfg.Models.Text.Temperature)
	}
	if !cfg.Payment.TestMode {
		t.Error("test_mode should be true")
	}
	if cfg.Payment.TextPrice != 100 {
		t.Errorf("text_price = %d, want 100", cfg.Payment.TextPrice)
	}
	// Unset sections still get defaults.
	if cfg.Payment.ImagePrice != 500 {
		t.Errorf("image_price = %d, want default 500", cfg.Payment.ImagePrice)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "min_year too old",
			mutate:  func(c *Config) { c.Generation.MinYear = 1500 },
			wantMsg: "min_year",
		},
		{
			name:    "min_year in the future",
			mutate:  func(c *Config) { c.Generation.MinYear = time.Now().Year() + 1 },
			wantMsg: "min_year",
		},
		{
			name:    "negative retry budget",
			mutate:  func(c *Config) { c.Generation.ImageMaxRetries = -1 },
			wantMsg: "image_max_retries",
		},
		{
			name:    "excessive retry budget",
			mutate:  func(c *Config) { c.Generation.ImageMaxRetries = 99 },
			wantMsg: "image_max_retries",
		},
		{
			name:    "bad currency",
			mutate:  func(c *Config) { c.Payment.Currency = "yen!" },
			wantMsg: "currency",
		},
		{
			name:    "zero price",
			mutate:  func(c *Config) { c.Payment.TextPrice = -80 },
			wantMsg: "prices",
		},
		{
			name:    "unknown page size",
			mutate:  func(c *Config) { c.PDF.PageSize = "Letter" },
			wantMsg: "page_size",
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.Models.Text.Temperature = 3.0 },
			wantMsg: "temperature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			applyDefaults(&cfg)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestValidateSecrets(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)
	cfg.Payment.TestMode = true

	if err := cfg.ValidateSecrets(&Secrets{GeminiAPIKey: "k"}); err != nil {
		t.Errorf("test mode without stripe key should pass: %v", err)
	}
	if err := cfg.ValidateSecrets(&Secrets{}); err == nil {
		t.Error("missing gemini key should fail")
	}

	cfg.Payment.TestMode = false
	if err := cfg.ValidateSecrets(&Secrets{GeminiAPIKey: "k"}); err == nil {
		t.Error("live mode without stripe key should fail")
	}
	if err := cfg.ValidateSecrets(&Secrets{GeminiAPIKey: "k", StripeSecretKey: "sk"}); err != nil {
		t.Errorf("full secrets should pass: %v", err)
	}
}
