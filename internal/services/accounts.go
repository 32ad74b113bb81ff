package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"budget/internal/auth"
	"budget/internal/core"
	"budget/internal/storage"
)

// ErrSelfDelete is returned when an administrator targets their own account.
var ErrSelfDelete = fmt.Errorf("%w: you cannot delete your own account", core.ErrPermissionDenied)

type Accounts struct {
	store  AccountStore
	logger *slog.Logger
	now    func() time.Time
}

func NewAccounts(store AccountStore, logger *slog.Logger) *Accounts {
	if logger == nil {
		logger = slog.Default()
	}
	return &Accounts{store: store, logger: logger, now: time.Now}
}

// Register creates an active account with its profile and the default
// categories. The caller is responsible for starting the session.
func (s *Accounts) Register(ctx context.Context, reg core.Registration) (core.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := reg.Validate(); err != nil {
		return core.User{}, err
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return core.User{}, err
	}

	u, err := s.store.CreateAccount(ctx, storage.NewAccount{
		User: core.User{
			Username:     reg.Username,
			Email:        reg.Email,
			PasswordHash: hash,
			IsActive:     true,
		},
		Currency:   core.DefaultCurrency,
		Categories: core.DefaultCategories,
	})
	if errors.Is(err, core.ErrAlreadyExists) {
		return core.User{}, core.Invalid("username", "a user with that username already exists")
	}
	if err != nil {
		return core.User{}, fmt.Errorf("register: %w", err)
	}
	return u, nil
}

// Authenticate never tells apart an unknown user, a wrong password and a
// disabled account.
func (s *Accounts) Authenticate(ctx context.Context, username, password string) (core.User, error) {
	u, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, core.ErrNotFound) {
		auth.BurnPasswordCheck(password)
		return core.User{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("authenticate: %w", err)
	}

	ok, err := auth.CheckPassword(u.PasswordHash, password)
	if err != nil {
		s.logger.ErrorContext(ctx, "Stored password hash is unusable", "user_id", u.ID, "error", err)
		return core.User{}, core.ErrInvalidCredentials
	}
	if !ok || !u.IsActive {
		return core.User{}, core.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.store.TouchLastLogin(ctx, u.ID, now); err != nil {
		s.logger.WarnContext(ctx, "Failed to record last login", "user_id", u.ID, "error", err)
	} else {
		u.LastLogin = &now
	}
	return u, nil
}

func (s *Accounts) User(ctx context.Context, id int64) (core.User, error) {
	return s.store.GetUser(ctx, id)
}

// Profile returns the user's profile, backfilling it if missing.
func (s *Accounts) Profile(ctx context.Context, userID int64) (core.Profile, error) {
	return s.store.EnsureProfile(ctx, userID)
}

// SetCurrency accepts only the enumerated codes; anything else leaves the
// stored preference untouched.
func (s *Accounts) SetCurrency(ctx context.Context, userID int64, code string) (core.Profile, error) {
	c, err := core.ParseCurrency(code)
	if err != nil {
		return core.Profile{}, err
	}
	return s.store.SetCurrency(ctx, userID, c)
}

func (s *Accounts) ListUsers(ctx context.Context, actor core.User) ([]core.User, error) {
	if err := core.RequireSuperuser(actor); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx)
}

func (s *Accounts) GetUser(ctx context.Context, actor core.User, id int64) (core.User, error) {
	if err := core.RequireSuperuser(actor); err != nil {
		return core.User{}, err
	}
	return s.store.GetUser(ctx, id)
}

func (s *Accounts) UpdateUser(ctx context.Context, actor core.User, id int64, upd core.UserUpdate) (core.User, error) {
	if err := core.RequireSuperuser(actor); err != nil {
		return core.User{}, err
	}
	upd.Username = strings.TrimSpace(upd.Username)
	upd.Email = strings.TrimSpace(upd.Email)
	if err := upd.Validate(); err != nil {
		return core.User{}, err
	}

	u, err := s.store.UpdateUser(ctx, id, upd)
	if errors.Is(err, core.ErrAlreadyExists) {
		return core.User{}, core.Invalid("username", "a user with that username already exists")
	}
	if err != nil {
		return core.User{}, err
	}

	s.logger.InfoContext(ctx, "Account edited by administrator", "actor_id", actor.ID, "user_id", id)
	return u, nil
}

func (s *Accounts) DeleteUser(ctx context.Context, actor core.User, id int64) error {
	if err := core.RequireSuperuser(actor); err != nil {
		return err
	}
	if id == actor.ID {
		return ErrSelfDelete
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Account deleted by administrator", "actor_id", actor.ID, "user_id", id)
	return nil
}

// CreateSuperuser is the command-line path for bootstrapping an
// administrator. It creates the profile explicitly but seeds no categories.
func (s *Accounts) CreateSuperuser(ctx context.Context, username, email, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := core.ValidateUsername(username); err != nil {
		return core.User{}, err
	}
	if err := core.ValidateEmail(email); err != nil {
		return core.User{}, err
	}
	if err := core.ValidatePassword(password); err != nil {
		return core.User{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, err
	}

	u, err := s.store.CreateAccount(ctx, storage.NewAccount{
		User: core.User{
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			IsActive:     true,
			IsStaff:      true,
			IsSuperuser:  true,
		},
		Currency: core.DefaultCurrency,
	})
	if err != nil {
		return core.User{}, fmt.Errorf("create superuser: %w", err)
	}
	return u, nil
}
