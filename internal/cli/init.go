// Package cli provides the bootstrap shared by cmd/budget and
// cmd/export-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgethelper/internal/cache"
	"budgethelper/internal/config"
	"budgethelper/internal/currency"
	"budgethelper/internal/export"
	"budgethelper/internal/log"
	"budgethelper/internal/ports"
	"budgethelper/internal/services"
	"budgethelper/internal/storage"
)

// SetupLogger initializes structured logging at the given level and installs
// it as the slog default.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore opens and migrates the SQLite database.
// Returns the store or exits the process on failure.
func OpenStore(ctx context.Context, logger *log.Logger, dbPath string) *storage.DB {
	db, err := storage.Open(ctx, dbPath, logger)
	if err != nil {
		logger.Error("Failed to open SQLite database", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return db
}

// NewRateProvider builds the cached provider over the configured sources,
// primary first.
func NewRateProvider(cfg *config.Config, logger *log.Logger) *currency.Provider {
	var sources []currency.Source
	if cfg.RatesPrimaryURL != "" {
		sources = append(sources, currency.NewNBUSource(cfg.RatesPrimaryURL, cfg.RatesHTTPTimeout))
	}
	if cfg.RatesSecondaryURL != "" {
		sources = append(sources, currency.NewExchangeRateAPISource(cfg.RatesSecondaryURL, cfg.RatesHTTPTimeout))
	}
	return currency.NewProvider(currency.ProviderConfig{
		TTL:         cfg.RatesCacheTTL,
		MinInterval: cfg.RatesSourceMinInterval,
	}, logger, sources...)
}

// Services is the wired application layer.
type Services struct {
	Rates        *currency.Provider
	Converter    *currency.Converter
	Users        *services.UserService
	Categories   *services.CategoryService
	Transactions *services.TransactionService
	Aggregator   *services.Aggregator
	Reports      *services.ReportBuilder
	Exports      *services.ExportService
	Caches       *cache.Manager
}

// BuildServices wires every service over db. publisher may be nil.
func BuildServices(cfg *config.Config, db *storage.DB, publisher ports.ExportPublisher, logger *log.Logger) (*Services, error) {
	rates := NewRateProvider(cfg, logger)
	converter := currency.NewConverter(rates)

	users := services.NewUserService(db.Users(), cfg.UserCacheSize, cfg.UserCacheTTL, logger)
	categories := services.NewCategoryService(db.Categories(), logger)
	transactions := services.NewTransactionService(db.Transactions(), categories, users, logger)
	aggregator := services.NewAggregator(db.Transactions(), db.Categories(), converter, users, logger)
	reports := services.NewReportBuilder(aggregator, db.Transactions(), converter, users, logger)

	exporter, err := export.NewExporter(converter)
	if err != nil {
		return nil, err
	}

	caches := cache.NewManager(logger)
	caches.Register(users.Cache())

	return &Services{
		Rates:        rates,
		Converter:    converter,
		Users:        users,
		Categories:   categories,
		Transactions: transactions,
		Aggregator:   aggregator,
		Reports:      reports,
		Exports:      services.NewExportService(reports, exporter, publisher, logger),
		Caches:       caches,
	}, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
