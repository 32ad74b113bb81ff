package cli

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"budget/internal/config"
	"budget/internal/log"
)

func TestLoadConfigRunsValidation(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	if _, err := LoadConfig((*config.Config).Validate); err == nil {
		t.Fatal("expected validation error for LOG_LEVEL=loud")
	}

	wantErr := errors.New("nope")
	if _, err := LoadConfig(func(*config.Config) error { return wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("LoadConfig() error = %v, want %v", err, wantErr)
	}

	cfg, err := LoadConfig(nil)
	if err != nil || cfg == nil {
		t.Fatalf("LoadConfig(nil) = %v, %v", cfg, err)
	}
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, log.ComponentWorker)
	if logger.Component() != log.ComponentWorker {
		t.Errorf("component = %q", logger.Component())
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level not enabled")
	}

	logger = SetupLogger(&config.Config{LogLevel: "bogus"}, log.ComponentCLI)
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("invalid level should fall back to info")
	}
}

func TestOpenStorageSQLite(t *testing.T) {
	cfg := &config.Config{
		DatabaseDriver: "sqlite",
		SQLiteDBPath:   filepath.Join(t.TempDir(), "nested", "budget.db"),
		MaxOpenConns:   2,
	}
	repo, err := OpenStorage(context.Background(), cfg, log.Discard())
	if err != nil {
		t.Fatalf("OpenStorage: %v", err)
	}
	defer repo.Close()

	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestShutdownRunsCleanup(t *testing.T) {
	called := false
	Shutdown(log.Discard(), time.Second, func(ctx context.Context) error {
		called = true
		return nil
	})
	if !called {
		t.Fatal("cleanup not called")
	}
}
