package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"budget/internal/amqp"
	"budget/internal/auth"
	"budget/internal/cache"
	"budget/internal/cli"
	"budget/internal/config"
	apphttp "budget/internal/http"
	"budget/internal/log"
	"budget/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig((*config.Config).ValidateServer)
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	repo, err := cli.OpenStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open storage", log.FieldError, err)
		os.Exit(1)
	}
	defer repo.Close()

	revoker, closeRevoker := newRevoker(ctx, cfg, logger)
	defer closeRevoker()

	sessions, err := auth.NewSessionManager(auth.SessionConfig{
		Secret:       []byte(cfg.SessionSecret),
		TTL:          cfg.SessionTTL,
		SecureCookie: cfg.SessionCookieSecure,
	}, revoker)
	if err != nil {
		logger.Error("Failed to initialize sessions", log.FieldError, err)
		os.Exit(1)
	}

	var events services.Publisher
	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			logger.WithComponent(log.ComponentAMQP).Logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		events = client
		logger.Info("Ledger events enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Ledger events disabled - no AMQP_URL provided")
	}

	slogger := logger.Logger
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Accounts:       services.NewAccounts(repo, slogger),
		Ledger:         services.NewLedger(repo, events, slogger),
		Savings:        services.NewSavings(repo),
		Reports:        services.NewReports(repo),
		Sessions:       sessions,
		Logger:         logger,
		Ready:          repo.Ping,
		LoginRateLimit: cfg.LoginRateLimit,
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting budget server", "port", cfg.Port, "driver", cfg.DatabaseDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	}

	cli.Shutdown(logger, 30*time.Second, srv.Shutdown)
}

// newRevoker uses Redis when REDIS_ADDR is set and an in-process expiring
// cache otherwise.
func newRevoker(ctx context.Context, cfg *config.Config, logger *log.Logger) (auth.Revoker, func()) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("Failed to connect to Redis", log.FieldError, err, "addr", cfg.RedisAddr)
			os.Exit(1)
		}
		logger.Info("Session revocations stored in Redis", "addr", cfg.RedisAddr)
		return auth.NewRedisRevoker(client), func() { _ = client.Close() }
	}

	revoked := cache.NewExpiringCache[struct{}]()
	janitor := cache.NewJanitor(logger.WithComponent(log.ComponentCache).Logger, revoked)
	go janitor.Run(ctx, 5*time.Minute)
	logger.Info("Session revocations stored in memory")
	return auth.NewMemoryRevoker(revoked), func() {}
}
