// Package cli holds the start-up steps shared by cmd/budget,
// cmd/budget-worker and cmd/budgetctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/storage"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default. Invalid values fall back to info/text;
// config validation reports them separately.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	lc := log.DefaultConfig()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		lc.Level = level
	}
	if cfg.LogFormat == "json" {
		lc.Format = "json"
	}
	lc.Component = component

	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadConfig reads the environment and runs validate, returning the config
// or the aggregated validation error.
func LoadConfig(validate func(*config.Config) error) (*config.Config, error) {
	cfg := config.Load()
	if validate != nil {
		if err := validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// MustLoadConfig is LoadConfig for binaries: it exits on failure.
func MustLoadConfig(validate func(*config.Config) error) *config.Config {
	cfg, err := LoadConfig(validate)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// OpenStorage opens the configured database and applies pending migrations.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *log.Logger) (*storage.Repository, error) {
	driver := storage.DriverSQLite
	if cfg.DatabaseDriver == "postgres" {
		driver = storage.DriverPostgres
	}
	repo, err := storage.Open(ctx, storage.Options{
		Driver:       driver,
		SQLitePath:   cfg.SQLiteDBPath,
		DatabaseURL:  cfg.DatabaseURL,
		MaxOpenConns: cfg.MaxOpenConns,
	}, logger.WithComponent(log.ComponentStorage).Logger)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.DatabaseDriver, err)
	}
	return repo, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Shutdown runs cleanup with a deadline, logging if it is exceeded.
func Shutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := cleanup(ctx); err != nil {
		logger.Error("Shutdown failed", log.FieldError, err)
		return
	}
	if ctx.Err() != nil {
		logger.Warn("Shutdown timeout reached")
		return
	}
	logger.Info("Shutdown complete")
}
