package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/cyber-assessment/internal/api"
	"github.com/terra-clan/cyber-assessment/internal/assessment"
	"github.com/terra-clan/cyber-assessment/internal/cleanup"
	"github.com/terra-clan/cyber-assessment/internal/config"
	"github.com/terra-clan/cyber-assessment/internal/delivery"
	"github.com/terra-clan/cyber-assessment/internal/health"
	"github.com/terra-clan/cyber-assessment/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Sessions.Store {
	case config.StoreRedis:
		return storage.NewRedisStore(ctx, cfg.Redis)
	default:
		return storage.NewMemoryStore(), nil
	}
}

// readinessRegistry collects the dependencies /ready checks. SMTP is left
// out when no host is configured so an unconfigured mailer does not hold
// the service at 503.
func readinessRegistry(smtp config.SMTPConfig, sessions, transport health.Checker) *health.Registry {
	registry := health.NewRegistry()
	registry.Register("sessions", sessions)
	if smtp.Host == "" {
		slog.Warn("SMTP_HOST not set, assessment reports cannot be delivered and readiness skips smtp")
		return registry
	}
	registry.Register("smtp", transport)
	return registry
}

func runServe(cmd *cobra.Command) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("starting cyber-assessment",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"session_store", cfg.Sessions.Store,
	)

	bank, err := loadBank(cmd, cfg)
	if err != nil {
		return fmt.Errorf("failed to load question bank: %w", err)
	}
	slog.Info("question bank loaded", "questions", bank.Count(), "max_score", bank.MaxScore())

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	store, err := openStore(initCtx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	transport := delivery.NewSMTPTransport(cfg.SMTP, cfg.Delivery.Timeout)
	registry := readinessRegistry(cfg.SMTP, store, transport)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service := delivery.NewService(transport)
	dispatcher := delivery.NewDispatcher(ctx, service)
	manager := assessment.NewManager(bank, store, dispatcher, cfg.Sessions.TTL)

	// Start cleanup worker
	cleaner := cleanup.NewCleaner(manager, cfg.Cleanup.Interval)
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, bank, manager, service, registry)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Delivery.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("HTTP server error: %w", err)
	}

	slog.Info("shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Let reports already handed off finish before stopping workers
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		slog.Error("in-flight deliveries did not settle", "error", err)
	}
	cancel()

	slog.Info("cyber-assessment stopped")
	return nil
}
