package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"

	"budget/internal/core"
)

// ErrExportConsumed is yielded when an export sequence is ranged over twice.
var ErrExportConsumed = errors.New("export sequence already consumed")

// ledgerOrder is the default listing order: newest date first, then newest
// insertion. id breaks ties between rows created in the same instant.
const ledgerOrder = ` ORDER BY t.date DESC, t.created_at DESC, t.id DESC`

const transactionSelect = `
	SELECT t.id, t.user_id, t.category_id, COALESCE(c.name, ''), t.title,
	       t.amount_cents, t.transaction_type, t.date, t.created_at
	FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id`

// TransactionFilter narrows ListTransactions. Zero values mean no filter.
type TransactionFilter struct {
	Type  core.TransactionType
	Limit int
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		categoryID sql.NullInt64
		txType     string
	)
	err := row.Scan(&t.ID, &t.UserID, &categoryID, &t.CategoryName, &t.Title,
		&t.Amount.Cents, &txType, &t.Date, &t.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	if categoryID.Valid {
		id := categoryID.Int64
		t.CategoryID = &id
	}
	t.Type = core.TransactionType(txType)
	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, error) {
	query := transactionSelect + ` WHERE t.user_id = ?`
	args := []any{userID}
	if f.Type != "" {
		query += ` AND t.transaction_type = ?`
		args = append(args, string(f.Type))
	}
	query += ledgerOrder
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(transactionSelect+` WHERE t.id = ? AND t.user_id = ?`), id, userID)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, translate(err))
	}
	return t, nil
}

// checkCategory rejects a category the user does not own. The error is a
// validation failure on the form field rather than a not-found on the
// transaction itself.
func (r *Repository) checkCategory(ctx context.Context, q querier, userID int64, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	if _, err := getCategory(ctx, r, q, userID, *categoryID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Invalid("category", "select a valid choice")
		}
		return err
	}
	return nil
}

func (r *Repository) CreateTransaction(ctx context.Context, userID int64, in core.TransactionInput) (core.Transaction, error) {
	var id int64
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.checkCategory(ctx, tx, userID, in.CategoryID); err != nil {
			return err
		}
		err := tx.QueryRowContext(ctx, r.rebind(`
			INSERT INTO transactions (user_id, category_id, title, amount_cents, transaction_type, date, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id`),
			userID, nullableID(in.CategoryID), in.Title, in.Amount.Cents, string(in.Type), in.Date, r.now(),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", translate(err))
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	r.logger.InfoContext(ctx, "Transaction created",
		"user_id", userID,
		"id", id,
		"type", string(in.Type),
		"amount_cents", in.Amount.Cents)

	return r.GetTransaction(ctx, userID, id)
}

// UpdateTransaction overwrites every editable field; created_at is untouched.
func (r *Repository) UpdateTransaction(ctx context.Context, userID, id int64, in core.TransactionInput) (core.Transaction, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.checkCategory(ctx, tx, userID, in.CategoryID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, r.rebind(`
			UPDATE transactions
			SET category_id = ?, title = ?, amount_cents = ?, transaction_type = ?, date = ?
			WHERE id = ? AND user_id = ?`),
			nullableID(in.CategoryID), in.Title, in.Amount.Cents, string(in.Type), in.Date, id, userID)
		if err != nil {
			return fmt.Errorf("update transaction %d: %w", id, translate(err))
		}
		return affected(res)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	r.logger.InfoContext(ctx, "Transaction updated", "user_id", userID, "id", id)
	return r.GetTransaction(ctx, userID, id)
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM transactions WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if err := affected(res); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Transaction deleted", "user_id", userID, "id", id)
	return nil
}

// ExportTransactions returns a lazy, single-use sequence over every
// transaction of the user in ledger order. The query runs when iteration
// starts; ranging a second time yields ErrExportConsumed.
func (r *Repository) ExportTransactions(ctx context.Context, userID int64) iter.Seq2[core.ExportRow, error] {
	var used atomic.Bool
	return func(yield func(core.ExportRow, error) bool) {
		if !used.CompareAndSwap(false, true) {
			yield(core.ExportRow{}, ErrExportConsumed)
			return
		}

		rows, err := r.db.QueryContext(ctx, r.rebind(transactionSelect+` WHERE t.user_id = ?`+ledgerOrder), userID)
		if err != nil {
			yield(core.ExportRow{}, fmt.Errorf("export transactions: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTransaction(rows)
			if err != nil {
				yield(core.ExportRow{}, fmt.Errorf("scan transaction: %w", err))
				return
			}
			row := core.ExportRow{
				Date:     t.Date,
				Title:    t.Title,
				Category: t.CategoryName,
				Type:     t.Type,
				Amount:   t.Amount,
			}
			if !yield(row, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(core.ExportRow{}, fmt.Errorf("iterate export: %w", err))
		}
	}
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
