package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgethelper/internal/amqp"
	"budgethelper/internal/cli"
	apphttp "budgethelper/internal/http"
	"budgethelper/internal/log"
	"budgethelper/internal/ports"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger.Info("Starting budget server", "port", cfg.Port)

	db := cli.OpenStore(context.Background(), logger, cfg.SQLiteDBPath)
	defer db.Close()

	// Exports render inline unless a broker is configured.
	var publisher ports.ExportPublisher
	var amqpClient *amqp.Client
	if cfg.QueueEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		amqpClient = client
		publisher = client
		defer amqpClient.Close()
		logger.Info("Report exports will be queued", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled, report exports render inline")
	}

	svc, err := cli.BuildServices(cfg, db, publisher, logger)
	if err != nil {
		logger.Error("Failed to build services", log.FieldError, err)
		os.Exit(1)
	}
	svc.Caches.StartCleanup(10 * time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Users:             svc.Users,
		Categories:        svc.Categories,
		Transactions:      svc.Transactions,
		Aggregator:        svc.Aggregator,
		Reports:           svc.Reports,
		Exports:           svc.Exports,
		Rates:             svc.Rates,
		Store:             db,
		Caches:            svc.Caches,
		RequestsPerMinute: cfg.HTTPRateLimit,
	}, logger)
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	go func() {
		// Warm the rate cache.
		svc.Rates.Rates(ctx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
