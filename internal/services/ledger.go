package services

import (
	"context"
	"iter"
	"log/slog"
	"strings"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/storage"
)

// Ledger manages a user's categories and transactions.
type Ledger struct {
	store  LedgerStore
	events Publisher
	logger *slog.Logger
}

// NewLedger wires the ledger. events may be nil when no broker is configured.
func NewLedger(store LedgerStore, events Publisher, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{store: store, events: events, logger: logger}
}

func (s *Ledger) Categories(ctx context.Context, userID int64) ([]core.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

func (s *Ledger) CreateCategory(ctx context.Context, userID int64, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if err := core.ValidateCategoryName(name); err != nil {
		return core.Category{}, err
	}
	c, err := s.store.CreateCategory(ctx, userID, name)
	if err != nil {
		return core.Category{}, err
	}
	s.publish(ctx, userID, amqp.ReasonCategoryCreated, c.ID)
	return c, nil
}

func (s *Ledger) DeleteCategory(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteCategory(ctx, userID, id); err != nil {
		return err
	}
	s.publish(ctx, userID, amqp.ReasonCategoryDeleted, id)
	return nil
}

// Transactions lists the user's ledger, newest first. An empty typ lists
// both income and expenses.
func (s *Ledger) Transactions(ctx context.Context, userID int64, typ core.TransactionType) ([]core.Transaction, error) {
	if typ != "" && !typ.Valid() {
		return nil, core.ErrInvalidType
	}
	return s.store.ListTransactions(ctx, userID, storage.TransactionFilter{Type: typ})
}

func (s *Ledger) Transaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

func (s *Ledger) CreateTransaction(ctx context.Context, userID int64, in core.TransactionInput) (core.Transaction, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t, err := s.store.CreateTransaction(ctx, userID, in)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, userID, amqp.ReasonTransactionCreated, t.ID)
	return t, nil
}

func (s *Ledger) UpdateTransaction(ctx context.Context, userID, id int64, in core.TransactionInput) (core.Transaction, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t, err := s.store.UpdateTransaction(ctx, userID, id, in)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, userID, amqp.ReasonTransactionUpdated, id)
	return t, nil
}

func (s *Ledger) DeleteTransaction(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.publish(ctx, userID, amqp.ReasonTransactionDeleted, id)
	return nil
}

// Export streams every transaction of the user once, in ledger order.
func (s *Ledger) Export(ctx context.Context, userID int64) iter.Seq2[core.ExportRow, error] {
	return s.store.ExportTransactions(ctx, userID)
}

// publish is best effort: the mutation already committed, so a broker failure
// is logged and the periodic resync repairs the mirror.
func (s *Ledger) publish(ctx context.Context, userID int64, reason string, entityID int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerChanged(ctx, amqp.NewLedgerChangedMessage(userID, reason, entityID)); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger change",
			"user_id", userID,
			"reason", reason,
			"error", err)
	}
}
