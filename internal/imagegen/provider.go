package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/retropress/retropress/internal/config"
	"github.com/retropress/retropress/internal/util"
	"github.com/retropress/retropress/pkg/models"
)

// imageClient is the slice of the provider client the image layer needs.
type imageClient interface {
	GenerateImage(ctx context.Context, modelCfg config.ModelConfig, prompt string) (string, []byte, error)
}

// Provider generates one vintage-style image per call. A failure is
// reported as an absent slot, never as an error, so the batch fan-out can
// treat every call uniformly.
type Provider struct {
	client      imageClient
	modelCfg    config.ModelConfig
	placeholder bool
	logger      *slog.Logger
}

// New creates an image provider. With placeholder enabled the upstream
// image API is never called; a deterministic placeholder URI is returned
// instead (the image API is unavailable on free-tier keys).
func New(client imageClient, modelCfg config.ModelConfig, placeholder bool, logger *slog.Logger) *Provider {
	return &Provider{
		client:      client,
		modelCfg:    modelCfg,
		placeholder: placeholder,
		logger:      logger.With("component", "imagegen"),
	}
}

// Generate returns a data URI for the prompt, or ok=false when the slot
// could not be filled.
func (p *Provider) Generate(ctx context.Context, prompt string, style models.Style) (string, bool) {
	if p.placeholder {
		return placeholderURI(prompt), true
	}

	styled := prompt + ", " + styleSuffix(style)

	mime, data, err := p.client.GenerateImage(ctx, p.modelCfg, styled)
	if err != nil {
		p.logger.Warn("Image generation failed",
			"error", err,
			"prompt", util.TruncateString(prompt, 60))
		return "", false
	}

	uri := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
	p.logger.Debug("Image generated",
		"mime", mime,
		"bytes", len(data),
		"prompt", util.TruncateString(prompt, 60))
	return uri, true
}

// placeholderURI builds a sepia newsprint placeholder for offline runs.
func placeholderURI(prompt string) string {
	text := url.QueryEscape(util.TruncateString(prompt, 30))
	return "https://placehold.co/512x384/d4c4a8/3d3d3d/png?text=" + text + "&font=serif"
}
