// Package worker keeps each user's spreadsheet mirror in step with the ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/sheets"
)

// DefaultSchedule re-mirrors every active user when SYNC_SCHEDULE is unset.
const DefaultSchedule = "@every 15m"

// LedgerSource is the read side the worker needs from storage.
type LedgerSource interface {
	ExportTransactions(ctx context.Context, userID int64) iter.Seq2[core.ExportRow, error]
	ListActiveUserIDs(ctx context.Context) ([]int64, error)
}

type MirrorWorker struct {
	source LedgerSource
	mirror sheets.LedgerMirror
	logger *slog.Logger
}

func NewMirrorWorker(source LedgerSource, mirror sheets.LedgerMirror, logger *slog.Logger) *MirrorWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorWorker{source: source, mirror: mirror, logger: logger}
}

// HandleLedgerChanged rewrites the tab of the user named in the message. It
// matches amqp.Handler so it can be passed straight to Consume.
func (w *MirrorWorker) HandleLedgerChanged(ctx context.Context, msg amqp.LedgerChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger change",
		"user_id", msg.UserID,
		"reason", msg.Reason,
		"entity_id", msg.EntityID)

	return w.MirrorUser(ctx, msg.UserID)
}

// MirrorUser replaces the user's tab with the current export rows.
func (w *MirrorWorker) MirrorUser(ctx context.Context, userID int64) error {
	rows := make([][]string, 0)
	for row, err := range w.source.ExportTransactions(ctx, userID) {
		if err != nil {
			return fmt.Errorf("export ledger of user %d: %w", userID, err)
		}
		rows = append(rows, row.Record())
	}

	if err := w.mirror.ReplaceRows(ctx, sheets.TabName(userID), core.ExportHeader, rows); err != nil {
		return fmt.Errorf("mirror ledger of user %d: %w", userID, err)
	}
	return nil
}

// ResyncAll mirrors every active user. A failure for one user does not stop
// the others; the joined error is returned at the end.
func (w *MirrorWorker) ResyncAll(ctx context.Context) error {
	ids, err := w.source.ListActiveUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active users: %w", err)
	}

	start := time.Now()
	var errs []error
	synced := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := w.MirrorUser(ctx, id); err != nil {
			w.logger.ErrorContext(ctx, "Failed to mirror user", "user_id", id, "error", err)
			errs = append(errs, err)
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Resync completed",
		"total", len(ids),
		"synced", synced,
		"errors", len(errs),
		"duration", time.Since(start).String())

	return errors.Join(errs...)
}

// Schedule registers ResyncAll on a cron spec and starts the scheduler. The
// caller stops it; each run uses ctx so shutdown cancels an in-flight resync.
func (w *MirrorWorker) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	if spec == "" {
		spec = DefaultSchedule
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() {
		if err := w.ResyncAll(ctx); err != nil {
			w.logger.WarnContext(ctx, "Scheduled resync finished with errors", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", spec, err)
	}

	c.Start()
	w.logger.InfoContext(ctx, "Resync scheduled", "schedule", spec)
	return c, nil
}
