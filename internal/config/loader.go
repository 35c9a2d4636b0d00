package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Load reads the configuration file and environment secrets. An empty path
// yields a default configuration, so the server can start without a file.
func Load(configPath string) (*Config, *Secrets, error) {
	var cfg Config

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	secrets := LoadSecrets()

	return &cfg, secrets, nil
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = 30
	}

	if cfg.Generation.MinYear == 0 {
		cfg.Generation.MinYear = 1900
	}
	if cfg.Generation.ImageMaxRetries == 0 {
		cfg.Generation.ImageMaxRetries = 2
	}
	if cfg.Generation.RetryDelayMillis == 0 {
		cfg.Generation.RetryDelayMillis = 750
	}

	applyModelDefaults(&cfg.Models.Text, "gemini-2.0-flash", 0.8, 8192, 60)
	applyModelDefaults(&cfg.Models.Image, "gemini-2.5-flash-image-preview", 0.7, 4096, 30)

	if cfg.Payment.Currency == "" {
		cfg.Payment.Currency = "jpy"
	}
	if cfg.Payment.TextPrice == 0 {
		cfg.Payment.TextPrice = 80
	}
	if cfg.Payment.ImagePrice == 0 {
		cfg.Payment.ImagePrice = 500
	}

	if cfg.PDF.PageSize == "" {
		cfg.PDF.PageSize = "A3"
	}
}

func applyModelDefaults(m *ModelConfig, name string, temperature float64, maxTokens, ratePerMinute int) {
	if m.Name == "" {
		m.Name = name
	}
	if m.Temperature == 0 {
		m.Temperature = temperature
	}
	if m.TopP == 0 {
		m.TopP = 0.95
	}
	if m.MaxOutputTokens == 0 {
		m.MaxOutputTokens = maxTokens
	}
	if m.RateLimitPerMinute == 0 {
		m.RateLimitPerMinute = ratePerMinute
	}
}

// LoadSecrets reads credentials from environment variables. GOOGLE_AI_API_KEY
// is accepted as a fallback name for the Gemini key.
func LoadSecrets() *Secrets {
	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		geminiKey = os.Getenv("GOOGLE_AI_API_KEY")
	}
	return &Secrets{
		GeminiAPIKey:    geminiKey,
		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
	}
}
