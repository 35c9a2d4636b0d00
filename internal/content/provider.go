package content

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/retropress/retropress/internal/config"
	"github.com/retropress/retropress/internal/util"
	"github.com/retropress/retropress/pkg/models"
)

// textClient is the slice of the provider client the content layer needs.
type textClient interface {
	GenerateText(ctx context.Context, modelCfg config.ModelConfig, prompt string) (string, error)
}

// Provider generates a full article bundle for a target date. It makes a
// single model call per request; upstream failures surface immediately and
// are never retried here.
type Provider struct {
	client   textClient
	modelCfg config.ModelConfig
	logger   *slog.Logger
}

// New creates a content provider.
func New(client textClient, modelCfg config.ModelConfig, logger *slog.Logger) *Provider {
	return &Provider{
		client:   client,
		modelCfg: modelCfg,
		logger:   logger.With("component", "content"),
	}
}

// Generate produces the article bundle for one newspaper.
func (p *Provider) Generate(
	ctx context.Context,
	date time.Time,
	style models.Style,
	personalization *models.Personalization,
) (*models.ArticleBundle, error) {
	prompt, err := buildPrompt(date, style, personalization)
	if err != nil {
		return nil, fmt.Errorf("failed to build content prompt: %w", err)
	}

	p.logger.Info("Requesting article bundle",
		"date", date.Format("2006-01-02"),
		"style", style,
		"model", p.modelCfg.Name)

	raw, err := p.client.GenerateText(ctx, p.modelCfg, prompt)
	if err != nil {
		return nil, &ProviderError{Reason: "text generation failed", Err: err}
	}

	bundle, err := parseBundle(raw, date, personalization)
	if err != nil {
		p.logger.Error("Failed to parse article bundle",
			"error", err,
			"response", util.TruncateString(raw, 200))
		return nil, &ProviderError{Reason: "malformed model response", Err: err}
	}

	p.logger.Info("Article bundle generated",
		"masthead", bundle.Masthead,
		"main_headline", util.TruncateString(bundle.Main.Headline, 40),
		"sub_articles", len(bundle.SubArticles))

	return bundle, nil
}

// ProviderError reports a failed or malformed upstream response. It is
// surfaced to the user verbatim; the pipeline never retries it.
type ProviderError struct {
	Reason string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("content provider: %s: %v", e.Reason, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
