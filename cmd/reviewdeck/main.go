package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	anthropicadapter "github.com/reviewdeck/reviewdeck/internal/adapter/driven/anthropic"
	githubadapter "github.com/reviewdeck/reviewdeck/internal/adapter/driven/github"
	sqliteadapter "github.com/reviewdeck/reviewdeck/internal/adapter/driven/sqlite"
	httphandler "github.com/reviewdeck/reviewdeck/internal/adapter/driving/http"
	"github.com/reviewdeck/reviewdeck/internal/application"
	"github.com/reviewdeck/reviewdeck/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"model", cfg.AnthropicModel,
		"provider_timeout", cfg.ProviderTimeout,
		"bulk_workers", cfg.BulkWorkers,
	)
	if !cfg.HasProviderCredentials() {
		slog.Warn("no anthropic API key configured, review triggering will fail until REVIEWDECK_ANTHROPIC_API_KEY is set")
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire driven adapters.
	subjectStore := sqliteadapter.NewSubjectRepo(db)
	reviewStore := sqliteadapter.NewReviewRepo(db)
	codeHost := githubadapter.NewClient(cfg.GitHubToken)
	analyzer := anthropicadapter.NewProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel)

	// 6. Wire application services.
	orchestrator := application.NewReviewOrchestrator(
		subjectStore,
		reviewStore,
		codeHost,
		analyzer,
		cfg.ProviderTimeout,
		cfg.FallbackScore,
	)
	fixSvc := application.NewFixService(reviewStore)
	bulkApplier := application.NewBulkFixApplier(reviewStore, cfg.BulkWorkers)

	// 7. Create HTTP handler and register API routes.
	apiHandler := httphandler.NewHandler(
		subjectStore,
		reviewStore,
		codeHost,
		orchestrator,
		fixSvc,
		bulkApplier,
		slog.Default(),
	)
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("reviewdeck started", "listen_addr", cfg.ListenAddr)

	// 8. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 9. Graceful shutdown with 10s timeout to drain in-flight reviews.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
