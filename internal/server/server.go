package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/retropress/retropress/internal/config"
	"github.com/retropress/retropress/internal/orchestrator"
	"github.com/retropress/retropress/internal/payment"
)

// PricingSource lists the purchasable stages for the pricing endpoint.
type PricingSource interface {
	Tiers() []payment.TierInfo
}

// Server exposes the generation pipeline over HTTP.
type Server struct {
	cfg     config.ServerConfig
	orch    *orchestrator.Orchestrator
	pricing PricingSource
	logger  *slog.Logger
}

func New(cfg config.ServerConfig, orch *orchestrator.Orchestrator, pricing PricingSource, logger *slog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		orch:    orch,
		pricing: pricing,
		logger:  logger.With("component", "server"),
	}
}

// Run starts the HTTP server and blocks until the context is cancelled,
// a shutdown signal arrives or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + s.cfg.Port,
		Handler: s.Router(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
	case <-shutdown:
	}

	s.logger.Info("Starting graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Graceful shutdown failed, forcing close", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			return fmt.Errorf("could not stop server: shutdown error: %v, close error: %v", err, closeErr)
		}
		return fmt.Errorf("could not stop server gracefully: %w", err)
	}

	s.logger.Info("Server stopped cleanly")
	return nil
}
