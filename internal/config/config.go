package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Generation GenerationConfig `toml:"generation"`
	Models     ModelsConfig     `toml:"models"`
	Payment    PaymentConfig    `toml:"payment"`
	PDF        PDFConfig        `toml:"pdf"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port                   string `toml:"port"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
}

// ShutdownTimeout returns the graceful shutdown grace period.
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// GenerationConfig holds pipeline settings.
type GenerationConfig struct {
	MinYear           int  `toml:"min_year"`            // earliest selectable year (inclusive)
	ImageMaxRetries   int  `toml:"image_max_retries"`   // extra retry rounds after the initial image attempt
	RetryDelayMillis  int  `toml:"retry_delay_millis"`  // fixed delay between image retry rounds
	PlaceholderImages bool `toml:"placeholder_images"`  // serve placeholder images instead of calling the image API
}

// RetryDelay returns the pause between image retry rounds.
func (g GenerationConfig) RetryDelay() time.Duration {
	return time.Duration(g.RetryDelayMillis) * time.Millisecond
}

// ModelsConfig bundles the two model endpoints the pipeline drives.
type ModelsConfig struct {
	Text  ModelConfig `toml:"text"`
	Image ModelConfig `toml:"image"`
}

// ModelConfig represents configuration for a single Gemini model.
type ModelConfig struct {
	Name               string  `toml:"name"`
	Temperature        float64 `toml:"temperature"`
	TopP               float64 `toml:"top_p"`
	MaxOutputTokens    int     `toml:"max_output_tokens"`
	RateLimitPerMinute int     `toml:"rate_limit_per_minute"`
}

// PaymentConfig holds the two stage prices and the payment mode.
type PaymentConfig struct {
	TestMode   bool   `toml:"test_mode"` // bypass Stripe and issue demo confirmation tokens
	Currency   string `toml:"currency"`
	TextPrice  int64  `toml:"text_price"`
	ImagePrice int64  `toml:"image_price"`
}

// PDFConfig holds document rendering settings.
type PDFConfig struct {
	PageSize string `toml:"page_size"`
	FontPath string `toml:"font_path"` // optional UTF-8 TTF for CJK output
}

// Secrets holds credentials loaded from environment variables, never from
// the config file.
type Secrets struct {
	GeminiAPIKey    string
	StripeSecretKey string
}

const (
	// EarliestSupportedYear bounds min_year; nothing older can be sourced.
	EarliestSupportedYear = 1800
	// MaxImageRetries bounds the retry budget to keep a stage invocation
	// from spinning on a dead provider.
	MaxImageRetries = 10
)

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port must not be empty")
	}
	if c.Server.ShutdownTimeoutSeconds < 1 {
		return fmt.Errorf("server.shutdown_timeout_seconds must be at least 1 (got %d)", c.Server.ShutdownTimeoutSeconds)
	}

	currentYear := time.Now().Year()
	if c.Generation.MinYear < EarliestSupportedYear || c.Generation.MinYear > currentYear {
		return fmt.Errorf("generation.min_year must be between %d and %d (got %d)",
			EarliestSupportedYear, currentYear, c.Generation.MinYear)
	}
	if c.Generation.ImageMaxRetries < 0 || c.Generation.ImageMaxRetries > MaxImageRetries {
		return fmt.Errorf("generation.image_max_retries must be between 0 and %d (got %d)",
			MaxImageRetries, c.Generation.ImageMaxRetries)
	}
	if c.Generation.RetryDelayMillis < 0 {
		return fmt.Errorf("generation.retry_delay_millis must not be negative (got %d)", c.Generation.RetryDelayMillis)
	}

	for _, m := range []struct {
		name string
		cfg  ModelConfig
	}{{"models.text", c.Models.Text}, {"models.image", c.Models.Image}} {
		if m.cfg.Name == "" {
			return fmt.Errorf("%s.name must not be empty", m.name)
		}
		if m.cfg.Temperature < 0 || m.cfg.Temperature > 2 {
			return fmt.Errorf("%s.temperature must be between 0 and 2 (got %g)", m.name, m.cfg.Temperature)
		}
		if m.cfg.RateLimitPerMinute < 1 {
			return fmt.Errorf("%s.rate_limit_per_minute must be at least 1 (got %d)", m.name, m.cfg.RateLimitPerMinute)
		}
	}

	if len(c.Payment.Currency) != 3 {
		return fmt.Errorf("payment.currency must be a 3-letter ISO code (got %q)", c.Payment.Currency)
	}
	if c.Payment.TextPrice <= 0 || c.Payment.ImagePrice <= 0 {
		return fmt.Errorf("payment prices must be positive (text=%d, image=%d)",
			c.Payment.TextPrice, c.Payment.ImagePrice)
	}

	switch c.PDF.PageSize {
	case "A3", "A4", "A2":
	default:
		return fmt.Errorf("pdf.page_size must be one of A2, A3, A4 (got %q)", c.PDF.PageSize)
	}

	return nil
}

// ValidateSecrets checks that the credentials required by the configured
// mode are present.
func (c *Config) ValidateSecrets(secrets *Secrets) error {
	if secrets.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}
	if !c.Payment.TestMode && secrets.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is not set and payment.test_mode is false")
	}
	return nil
}
