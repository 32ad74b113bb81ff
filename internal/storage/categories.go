package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"budget/internal/core"
)

// ListCategories returns the user's categories in insertion order.
func (r *Repository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT id, user_id, name FROM categories WHERE user_id = ? ORDER BY id`), userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]core.Category, 0)
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (r *Repository) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	return getCategory(ctx, r, r.db, userID, id)
}

func getCategory(ctx context.Context, r *Repository, q querier, userID, id int64) (core.Category, error) {
	var c core.Category
	err := q.QueryRowContext(ctx, r.rebind(
		`SELECT id, user_id, name FROM categories WHERE id = ? AND user_id = ?`), id, userID).
		Scan(&c.ID, &c.UserID, &c.Name)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, translate(err))
	}
	return c, nil
}

// CreateCategory fails with core.ErrAlreadyExists when the user already has a
// category with that name; the composite unique key enforces it.
func (r *Repository) CreateCategory(ctx context.Context, userID int64, name string) (core.Category, error) {
	c := core.Category{UserID: userID, Name: strings.TrimSpace(name)}
	err := r.db.QueryRowContext(ctx, r.rebind(
		`INSERT INTO categories (user_id, name) VALUES (?, ?) RETURNING id`), userID, c.Name).Scan(&c.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", translate(err))
	}

	r.logger.InfoContext(ctx, "Category created", "user_id", userID, "id", c.ID, "name", c.Name)
	return c, nil
}

// DeleteCategory removes the category. Transactions pointing at it keep
// existing with a null category through ON DELETE SET NULL.
func (r *Repository) DeleteCategory(ctx context.Context, userID, id int64) error {
	var cleared int64
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := getCategory(ctx, r, tx, userID, id); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, r.rebind(
			`SELECT COUNT(*) FROM transactions WHERE category_id = ? AND user_id = ?`), id, userID).Scan(&cleared); err != nil {
			return fmt.Errorf("count category transactions: %w", err)
		}
		res, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM categories WHERE id = ? AND user_id = ?`), id, userID)
		if err != nil {
			return fmt.Errorf("delete category %d: %w", id, err)
		}
		return affected(res)
	})
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Category deleted", "user_id", userID, "id", id, "uncategorized", cleared)
	return nil
}
