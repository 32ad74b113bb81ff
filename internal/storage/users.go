package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"budget/internal/core"
)

// NewAccount is everything created together when an account is opened.
type NewAccount struct {
	User       core.User
	Currency   core.Currency
	Categories []string
}

const userColumns = `id, username, email, password_hash, is_active, is_staff, is_superuser, date_joined, last_login`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (core.User, error) {
	var (
		u         core.User
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.DateJoined, &lastLogin)
	if err != nil {
		return core.User{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return u, nil
}

// CreateAccount inserts the user, its profile and its starting categories in
// one transaction. A taken username yields core.ErrAlreadyExists.
func (r *Repository) CreateAccount(ctx context.Context, acc NewAccount) (core.User, error) {
	u := acc.User
	if u.DateJoined.IsZero() {
		u.DateJoined = r.now()
	}
	currency := acc.Currency
	if currency == "" {
		currency = core.DefaultCurrency
	}

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, r.rebind(`
			INSERT INTO users (username, email, password_hash, is_active, is_staff, is_superuser, date_joined)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id`),
			u.Username, u.Email, u.PasswordHash, u.IsActive, u.IsStaff, u.IsSuperuser, u.DateJoined,
		).Scan(&u.ID)
		if err != nil {
			return fmt.Errorf("insert user: %w", translate(err))
		}

		if _, err := tx.ExecContext(ctx, r.rebind(
			`INSERT INTO user_profiles (user_id, currency) VALUES (?, ?)`), u.ID, string(currency)); err != nil {
			return fmt.Errorf("insert profile: %w", translate(err))
		}

		for _, name := range acc.Categories {
			if _, err := tx.ExecContext(ctx, r.rebind(
				`INSERT INTO categories (user_id, name) VALUES (?, ?)`), u.ID, name); err != nil {
				return fmt.Errorf("insert category %q: %w", name, translate(err))
			}
		}
		return nil
	})
	if err != nil {
		return core.User{}, err
	}

	r.logger.InfoContext(ctx, "Account created",
		"user_id", u.ID,
		"username", u.Username,
		"categories", len(acc.Categories))

	return u, nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (core.User, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, translate(err))
	}
	return u, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+userColumns+` FROM users WHERE username = ?`), username)
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, fmt.Errorf("get user by username: %w", translate(err))
	}
	return u, nil
}

// ListUsers returns every account ordered by id.
func (r *Repository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]core.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// ListActiveUserIDs is used by the ledger mirror to refresh every account.
func (r *Repository) ListActiveUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`SELECT id FROM users WHERE is_active = ? ORDER BY id`), true)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) UpdateUser(ctx context.Context, id int64, upd core.UserUpdate) (core.User, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE users SET username = ?, email = ?, is_active = ? WHERE id = ?`),
		upd.Username, upd.Email, upd.IsActive, id)
	if err != nil {
		return core.User{}, fmt.Errorf("update user %d: %w", id, translate(err))
	}
	if err := affected(res); err != nil {
		return core.User{}, fmt.Errorf("update user %d: %w", id, err)
	}

	r.logger.InfoContext(ctx, "User updated", "user_id", id, "is_active", upd.IsActive)
	return r.GetUser(ctx, id)
}

// DeleteUser removes the account; profile, categories, transactions and goals
// go with it through ON DELETE CASCADE.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}

	r.logger.InfoContext(ctx, "User deleted", "user_id", id)
	return nil
}

func (r *Repository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`UPDATE users SET last_login = ? WHERE id = ?`), at.UTC(), id)
	if err != nil {
		return fmt.Errorf("touch last login %d: %w", id, err)
	}
	return affected(res)
}
