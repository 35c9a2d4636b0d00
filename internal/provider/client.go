package provider

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/retropress/retropress/internal/config"
)

// Client wraps the Gemini SDK client shared by the text and image providers.
// It owns the rate limiter pool so concurrent image fan-out stays within the
// model quota.
type Client struct {
	genai    *genai.Client
	limiters *RateLimiterPool
	logger   *slog.Logger
}

// NewClient creates a Gemini-backed provider client.
func NewClient(ctx context.Context, apiKey string, logger *slog.Logger) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{
		genai:    gc,
		limiters: NewRateLimiterPool(),
		logger:   logger,
	}, nil
}

// GenerateText runs a single text completion and returns the raw model
// output. JSON response mode is requested so the content layer can parse
// structured bundles without prose contamination.
func (c *Client) GenerateText(ctx context.Context, modelCfg config.ModelConfig, prompt string) (string, error) {
	if err := c.limiters.Wait(ctx, modelCfg.Name, modelCfg.RateLimitPerMinute); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	resp, err := c.genai.Models.GenerateContent(ctx, modelCfg.Name, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(modelCfg.Temperature)),
		TopP:             genai.Ptr(float32(modelCfg.TopP)),
		MaxOutputTokens:  int32(modelCfg.MaxOutputTokens),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", &Error{Provider: "gemini-text", Model: modelCfg.Name, Err: err}
	}

	text := resp.Text()
	if text == "" {
		return "", &Error{Provider: "gemini-text", Model: modelCfg.Name,
			Err: fmt.Errorf("model returned no text candidates")}
	}

	c.logger.Debug("Text generation complete", "model", modelCfg.Name, "length", len(text))
	return text, nil
}

// GenerateImage runs a single image generation call and returns the image
// bytes with their MIME type.
func (c *Client) GenerateImage(ctx context.Context, modelCfg config.ModelConfig, prompt string) (string, []byte, error) {
	if err := c.limiters.Wait(ctx, modelCfg.Name, modelCfg.RateLimitPerMinute); err != nil {
		return "", nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	resp, err := c.genai.Models.GenerateContent(ctx, modelCfg.Name, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:        genai.Ptr(float32(modelCfg.Temperature)),
		TopP:               genai.Ptr(float32(modelCfg.TopP)),
		MaxOutputTokens:    int32(modelCfg.MaxOutputTokens),
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return "", nil, &Error{Provider: "gemini-image", Model: modelCfg.Name, Err: err}
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return mime, part.InlineData.Data, nil
			}
		}
	}

	return "", nil, &Error{Provider: "gemini-image", Model: modelCfg.Name,
		Err: fmt.Errorf("model response contained no image data")}
}

// Error wraps a provider failure with enough context for logs.
type Error struct {
	Provider string
	Model    string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Provider, e.Model, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
