package main

import (
	"context"
	"errors"
	"os"
	"time"

	"zandaka/internal/amqp"
	"zandaka/internal/cli"
	"zandaka/internal/config"
	applog "zandaka/internal/log"
	"zandaka/internal/services"
	"zandaka/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting zandaka-worker")

	cfg := cli.LoadAndValidateConfig(logger.Logger, (*config.Config).ValidateWorker)

	// The worker only reads the ledger; it consumes notifications instead
	// of publishing them.
	readCfg := *cfg
	readCfg.AMQPURL = ""
	be := cli.InitBackend(context.Background(), logger.Logger, &readCfg)
	defer be.Cleanup()

	var states services.StateLoader = be.Ledger
	if r, ok := be.Store.(worker.Reloader); ok {
		states = worker.FreshStates(be.Ledger, r)
	}
	reports := services.NewProjectionService(states, be.Calendar)

	summaries, holidays := cli.InitExportTarget(context.Background(), logger.Logger, cfg)
	w := worker.NewProjectionWorker(reports, summaries, holidays)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(context.Context) {
		logger.Info("Shutting down worker...")
	})

	if err := w.StartupExport(ctx); err != nil {
		// Not fatal: the next change or tick retries.
		logger.Error("Failed startup export", "error", err)
	}

	go w.PeriodicExport(ctx, cfg.ExportInterval)

	go func() {
		if err := amqpClient.ConsumeLedgerChanged(ctx, w.HandleLedgerChanged); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("Worker running",
		"backend", cfg.DataBackend,
		"sheets_enabled", cfg.SheetsEnabled(),
		"export_interval", cfg.ExportInterval.String())
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
