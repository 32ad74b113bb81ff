package storage

import (
	"context"
	"database/sql"
	"fmt"

	"budget/internal/core"
)

const goalColumns = `id, user_id, name, target_cents, current_cents, deadline`

func scanGoal(row rowScanner) (core.SavingGoal, error) {
	var g core.SavingGoal
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.Target.Cents, &g.Current.Cents, &g.Deadline)
	return g, err
}

func (r *Repository) ListGoals(ctx context.Context, userID int64) ([]core.SavingGoal, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT `+goalColumns+` FROM saving_goals WHERE user_id = ? ORDER BY id`), userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.SavingGoal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

func (r *Repository) GetGoal(ctx context.Context, userID, id int64) (core.SavingGoal, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(
		`SELECT `+goalColumns+` FROM saving_goals WHERE id = ? AND user_id = ?`), id, userID)
	g, err := scanGoal(row)
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("get goal %d: %w", id, translate(err))
	}
	return g, nil
}

func (r *Repository) CreateGoal(ctx context.Context, userID int64, in core.GoalInput) (core.SavingGoal, error) {
	g := core.SavingGoal{
		UserID:   userID,
		Name:     in.Name,
		Target:   in.Target,
		Current:  in.Current,
		Deadline: in.Deadline,
	}
	err := r.db.QueryRowContext(ctx, r.rebind(`
		INSERT INTO saving_goals (user_id, name, target_cents, current_cents, deadline)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		userID, in.Name, in.Target.Cents, in.Current.Cents, in.Deadline,
	).Scan(&g.ID)
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("create goal: %w", translate(err))
	}

	r.logger.InfoContext(ctx, "Saving goal created", "user_id", userID, "id", g.ID)
	return g, nil
}

// UpdateGoal overwrites every field of the goal.
func (r *Repository) UpdateGoal(ctx context.Context, userID, id int64, in core.GoalInput) (core.SavingGoal, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(`
		UPDATE saving_goals SET name = ?, target_cents = ?, current_cents = ?, deadline = ?
		WHERE id = ? AND user_id = ?`),
		in.Name, in.Target.Cents, in.Current.Cents, in.Deadline, id, userID)
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("update goal %d: %w", id, translate(err))
	}
	if err := affected(res); err != nil {
		return core.SavingGoal{}, err
	}

	r.logger.InfoContext(ctx, "Saving goal updated", "user_id", userID, "id", id)
	return r.GetGoal(ctx, userID, id)
}

// AdjustGoal applies an add/subtract to current_cents as one locked
// read-modify-write. On any error the stored amount is unchanged.
func (r *Repository) AdjustGoal(ctx context.Context, userID, id int64, amount core.Money, dir core.AdjustDirection) (core.SavingGoal, error) {
	var g core.SavingGoal
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, r.rebind(
			`SELECT `+goalColumns+` FROM saving_goals WHERE id = ? AND user_id = ?`+r.forUpdate()), id, userID)
		var err error
		g, err = scanGoal(row)
		if err != nil {
			return fmt.Errorf("get goal %d: %w", id, translate(err))
		}

		next, err := core.ApplyAdjustment(g.Current, amount, dir)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, r.rebind(
			`UPDATE saving_goals SET current_cents = ? WHERE id = ? AND user_id = ?`), next.Cents, id, userID); err != nil {
			return fmt.Errorf("adjust goal %d: %w", id, err)
		}
		g.Current = next
		return nil
	})
	if err != nil {
		return core.SavingGoal{}, err
	}

	r.logger.InfoContext(ctx, "Saving goal adjusted",
		"user_id", userID,
		"id", id,
		"direction", string(dir),
		"amount_cents", amount.Cents,
		"current_cents", g.Current.Cents)

	return g, nil
}

func (r *Repository) DeleteGoal(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM saving_goals WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete goal %d: %w", id, err)
	}
	if err := affected(res); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Saving goal deleted", "user_id", userID, "id", id)
	return nil
}
