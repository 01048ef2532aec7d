package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"zandaka/internal/cli"
	"zandaka/internal/config"
	apphttp "zandaka/internal/http"
	applog "zandaka/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger.Logger, (*config.Config).Validate)

	ctx := context.Background()
	be := cli.InitBackend(ctx, logger.Logger, cfg)

	srv := apphttp.NewServer(":"+cfg.Port, be.Ledger, be.Projection, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustProxy:         cfg.TrustProxy,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
	})

	shutdownCtx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting zandaka server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", be.Publishing)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
