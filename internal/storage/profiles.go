package storage

import (
	"context"
	"fmt"

	"budget/internal/core"
)

// EnsureProfile returns the user's profile, creating the default one if the
// account was made without it.
func (r *Repository) EnsureProfile(ctx context.Context, userID int64) (core.Profile, error) {
	_, err := r.db.ExecContext(ctx, r.rebind(`
		INSERT INTO user_profiles (user_id, currency) VALUES (?, ?)
		ON CONFLICT (user_id) DO NOTHING`), userID, string(core.DefaultCurrency))
	if err != nil {
		return core.Profile{}, fmt.Errorf("ensure profile for user %d: %w", userID, translate(err))
	}

	p := core.Profile{UserID: userID}
	var currency string
	err = r.db.QueryRowContext(ctx, r.rebind(
		`SELECT currency FROM user_profiles WHERE user_id = ?`), userID).Scan(&currency)
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile for user %d: %w", userID, translate(err))
	}
	p.Currency = core.Currency(currency)
	return p, nil
}

// SetCurrency upserts the profile with the new currency.
func (r *Repository) SetCurrency(ctx context.Context, userID int64, c core.Currency) (core.Profile, error) {
	_, err := r.db.ExecContext(ctx, r.rebind(`
		INSERT INTO user_profiles (user_id, currency) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET currency = excluded.currency`), userID, string(c))
	if err != nil {
		return core.Profile{}, fmt.Errorf("set currency for user %d: %w", userID, translate(err))
	}

	r.logger.InfoContext(ctx, "Currency updated", "user_id", userID, "currency", string(c))
	return core.Profile{UserID: userID, Currency: c}, nil
}
