package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budget/internal/amqp"
	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/sheets"
	gsheet "budget/internal/sheets/google"
	"budget/internal/sheets/memory"
	"budget/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting budget-worker")

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	repo, err := cli.OpenStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open storage", log.FieldError, err)
		os.Exit(1)
	}
	defer repo.Close()

	var mirror sheets.LedgerMirror
	if cfg.MirrorEnabled() {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger.WithComponent(log.ComponentSheets).Logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		mirror = client
	} else {
		logger.Info("Google Sheets disabled - mirroring to memory only")
		mirror = memory.New()
	}

	mw := worker.NewMirrorWorker(repo, mirror, logger.Logger)

	// Catch up on anything missed while the worker was down.
	if err := mw.ResyncAll(ctx); err != nil {
		logger.Error("Startup resync finished with errors", log.FieldError, err)
	}

	scheduler, err := mw.Schedule(ctx, cfg.SyncSchedule)
	if err != nil {
		logger.Error("Failed to schedule resync", log.FieldError, err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			logger.WithComponent(log.ComponentAMQP).Logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()

		g.Go(func() error {
			return client.Consume(gctx, mw.HandleLedgerChanged)
		})
	} else {
		logger.Info("Skipping AMQP message consumption - no AMQP_URL provided")
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
	}

	cli.Shutdown(logger, 30*time.Second, func(ctx context.Context) error {
		select {
		case <-scheduler.Stop().Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}
