package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/retropress/retropress/internal/config"
	"github.com/retropress/retropress/internal/content"
	"github.com/retropress/retropress/internal/imagegen"
	"github.com/retropress/retropress/internal/metrics"
	"github.com/retropress/retropress/internal/orchestrator"
	"github.com/retropress/retropress/internal/payment"
	"github.com/retropress/retropress/internal/provider"
	"github.com/retropress/retropress/internal/render"
	"github.com/retropress/retropress/internal/server"
	"github.com/retropress/retropress/pkg/models"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath  string
	envFile     string
	verbose     bool
	dateArg     string
	styleArg    string
	outputPath  string
	placeholder bool
	demoPayment bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "retropress",
		Short: "RetroPress - AI vintage newspaper generator",
		Long: `RetroPress generates a newspaper front page for any historical date:
AI-written articles in a period editorial voice, era-styled imagery for
every article, and a print-ready PDF.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to environment file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API that drives the generation pipeline:
text stage, image stage, and PDF download, plus pricing and health endpoints.`,
		RunE: runServe,
	}

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one newspaper from the command line",
		Long: `Run the full pipeline once for a given date and write the PDF
to a local file. Intended for operators; payments run in demo mode
unless --live-payment is set.`,
		RunE: runGenerate,
	}

	generateCmd.Flags().StringVar(&dateArg, "date", "", "Target date (YYYY-MM-DD)")
	generateCmd.Flags().StringVar(&styleArg, "style", "showa", "Editorial style: showa, heisei or reiwa")
	generateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output PDF path (defaults to retropress-<date>.pdf)")
	generateCmd.Flags().BoolVar(&placeholder, "placeholder-images", false, "Use placeholder images instead of the image model")
	generateCmd.Flags().BoolVar(&demoPayment, "demo-payment", true, "Use demo payments instead of Stripe")
	_ = generateCmd.MarkFlagRequired("date")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, *config.Secrets, *slog.Logger, error) {
	if envFile != "" {
		if err := loadEnvFile(envFile); err != nil {
			if !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "Warning: failed to load env file: %v\n", err)
			}
		} else if verbose {
			fmt.Fprintf(os.Stderr, "Loaded env file: %s\n", envFile)
		}
	}

	// The default config path is optional; a named one must exist.
	path := configPath
	if path == "config.toml" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = ""
		}
	}
	cfg, secrets, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	return cfg, secrets, logger, nil
}

func buildOrchestrator(ctx context.Context, cfg *config.Config, secrets *config.Secrets, logger *slog.Logger) (*orchestrator.Orchestrator, *payment.Gate, error) {
	if err := cfg.ValidateSecrets(secrets); err != nil {
		return nil, nil, err
	}

	client, err := provider.NewClient(ctx, secrets.GeminiAPIKey, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create model client: %w", err)
	}

	contentProvider := content.New(client, cfg.Models.Text, logger)
	imageProvider := imagegen.New(client, cfg.Models.Image, cfg.Generation.PlaceholderImages, logger)
	gate := payment.New(cfg.Payment, secrets.StripeSecretKey, logger)
	renderer := render.New(cfg.PDF, logger)
	collector := metrics.NewCollector(logger)

	orch := orchestrator.New(cfg, contentProvider, imageProvider, gate, renderer, collector, logger)
	return orch, gate, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, secrets, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, gate, err := buildOrchestrator(ctx, cfg, secrets, logger)
	if err != nil {
		return err
	}

	logger.Info("RetroPress starting",
		"version", Version,
		"config", configPath,
		"port", cfg.Server.Port,
		"test_mode", cfg.Payment.TestMode)

	srv := server.New(cfg.Server, orch, gate, logger)
	return srv.Run(ctx)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, secrets, logger, err := setup()
	if err != nil {
		return err
	}

	// Operator runs default to demo payments and honor the placeholder flag.
	if demoPayment {
		cfg.Payment.TestMode = true
	}
	if placeholder {
		cfg.Generation.PlaceholderImages = true
	}

	date, err := time.Parse("2006-01-02", dateArg)
	if err != nil {
		return fmt.Errorf("invalid --date %q, use YYYY-MM-DD", dateArg)
	}
	style, err := models.ParseStyle(styleArg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, _, err := buildOrchestrator(ctx, cfg, secrets, logger)
	if err != nil {
		return err
	}

	bar := progressbar.Default(3, "Generating")

	if _, err := orch.StartTextStage(ctx, orchestrator.TextRequest{Date: date, Style: style}); err != nil {
		return fmt.Errorf("text stage failed: %w", err)
	}
	_ = bar.Add(1)

	if _, err := orch.StartImageStage(ctx); err != nil {
		return fmt.Errorf("image stage failed: %w", err)
	}
	_ = bar.Add(1)

	doc, _, err := orch.RenderDocument(ctx)
	if err != nil {
		return fmt.Errorf("document stage failed: %w", err)
	}
	_ = bar.Add(1)

	path := outputPath
	if path == "" {
		bundle, _ := orch.Bundle()
		path = render.Filename(bundle)
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	logger.Info("Newspaper generated", "date", dateArg, "style", style, "output", path)
	return nil
}

// loadEnvFile loads KEY=VALUE pairs from a file into the environment.
func loadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}

	return nil
}
