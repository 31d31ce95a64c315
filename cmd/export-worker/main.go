package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budgethelper/internal/amqp"
	"budgethelper/internal/cli"
	"budgethelper/internal/log"
	"budgethelper/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	logger.Info("Starting export worker", "export_dir", cfg.ExportDir)

	if !cfg.QueueEnabled() {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	db := cli.OpenStore(context.Background(), logger, cfg.SQLiteDBPath)
	defer db.Close()

	// The worker only renders; it never publishes.
	svc, err := cli.BuildServices(cfg, db, nil, logger)
	if err != nil {
		logger.Error("Failed to build services", log.FieldError, err)
		os.Exit(1)
	}
	svc.Caches.StartCleanup(10 * time.Minute)
	defer svc.Caches.Stop()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(svc.Exports, cfg.ExportDir, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if err := exportWorker.CleanupStaleFiles(ctx); err != nil {
		logger.Warn("Failed to clean up stale export files", log.FieldError, err)
	}

	go func() {
		err := amqpClient.ConsumeReportExports(ctx, exportWorker.HandleReportExport)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	logger.Info("Export worker started")
	cli.WaitForShutdown(ctx, done)
	logger.Info("Export worker stopped")
}
