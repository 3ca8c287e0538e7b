package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"revpulse/internal/billing"
	"revpulse/internal/cache"
	"revpulse/internal/cli"
	"revpulse/internal/credentials"
	apphttp "revpulse/internal/http"
	"revpulse/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("revpulse")
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// AMQP is optional: without a broker the engine simply keeps its
	// failure events to the logs.
	publisher := cli.InitPublisher(logger, cfg)
	if publisher != nil {
		defer publisher.Close()
	}

	liveCache := cache.NewTTLCache[billing.LiveTotal](cfg.CacheMaxEntries, cfg.CacheWindow)
	cacheManager := cache.NewManager()
	cacheManager.Register(liveCache)
	cacheManager.StartCleanup(5 * time.Minute)
	defer cacheManager.Stop()

	reconciler := services.NewReconciler(
		repo,
		credentials.NewResolver(repo, cfg.BillingAPIKey),
		billing.NewCachedFetcher(billing.NewClient(cfg.BillingBaseURL), liveCache),
		publisher,
		cfg.DefaultMRRCents,
	)

	srv := apphttp.NewServer(":"+cfg.Port, reconciler, repo, cfg.DefaultOperatorID)

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting revpulse server",
		"port", cfg.Port,
		"cache_window", cfg.CacheWindow.String(),
		"billing_base_url", cfg.BillingBaseURL,
		"amqp_enabled", publisher != nil)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("Server stopped gracefully")
}
