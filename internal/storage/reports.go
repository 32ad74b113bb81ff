package storage

import (
	"context"
	"fmt"

	"budget/internal/core"
)

// Totals sums the user's amounts per transaction type. Missing types sum to 0.
func (r *Repository) Totals(ctx context.Context, userID int64) (income, expense core.Money, err error) {
	err = r.db.QueryRowContext(ctx, r.rebind(`
		SELECT
			CAST(COALESCE(SUM(CASE WHEN transaction_type = 'INCOME' THEN amount_cents ELSE 0 END), 0) AS BIGINT),
			CAST(COALESCE(SUM(CASE WHEN transaction_type = 'EXPENSE' THEN amount_cents ELSE 0 END), 0) AS BIGINT)
		FROM transactions
		WHERE user_id = ?`), userID).Scan(&income.Cents, &expense.Cents)
	if err != nil {
		return core.Money{}, core.Money{}, fmt.Errorf("sum transactions: %w", err)
	}
	return income, expense, nil
}

// ExpenseTotalsByCategory groups EXPENSE rows by category name. Rows without a
// category form one bucket with an empty name.
func (r *Repository) ExpenseTotalsByCategory(ctx context.Context, userID int64) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`
		SELECT COALESCE(c.name, ''), CAST(SUM(t.amount_cents) AS BIGINT)
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND t.transaction_type = 'EXPENSE'
		GROUP BY COALESCE(c.name, '')
		ORDER BY COALESCE(c.name, '')`), userID)
	if err != nil {
		return nil, fmt.Errorf("expense totals by category: %w", err)
	}
	defer rows.Close()

	out := make([]core.CategoryTotal, 0)
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Name, &ct.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category totals: %w", err)
	}
	return out, nil
}
