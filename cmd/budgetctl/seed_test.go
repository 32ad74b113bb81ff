package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/storage"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	repo, err := storage.Open(context.Background(), storage.Options{
		Driver:     storage.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "budget.db"),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return newApp(repo, log.Discard())
}

func TestSeedCreatesUsableAccounts(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

	res, err := seed(ctx, a, seedOptions{Users: 2, Count: 10, Goals: 1, Password: "demo-pass-123", Seed: 42}, now)
	require.NoError(t, err)
	require.Len(t, res.Users, 2)
	assert.Equal(t, 20, res.Transactions)
	assert.Equal(t, 2, res.Goals)

	for _, u := range res.Users {
		_, err := a.accounts.Authenticate(ctx, u.Username, "demo-pass-123")
		require.NoError(t, err, "seeded user %s cannot log in", u.Username)

		txs, err := a.ledger.Transactions(ctx, u.ID, "")
		require.NoError(t, err)
		require.Len(t, txs, 10)
		for _, tx := range txs {
			assert.True(t, tx.Amount.IsPositive())
			assert.False(t, tx.Date.After(now), "transaction dated in the future")
			assert.False(t, tx.Date.Before(now.AddDate(0, 0, -91)))
		}

		goals, err := a.savings.Goals(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, goals, 1)
		assert.LessOrEqual(t, goals[0].Current.Cents, goals[0].Target.Cents)
	}
}

func TestSeedExistingUser(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	u, err := a.accounts.Register(ctx, core.Registration{
		Username: "carol", Password: "carol-pass-1", ConfirmPassword: "carol-pass-1",
	})
	require.NoError(t, err)

	res, err := seed(ctx, a, seedOptions{Username: "carol", Users: 5, Count: 3, Seed: 1}, time.Now())
	require.NoError(t, err)
	require.Len(t, res.Users, 1, "--username must not register new accounts")
	assert.Equal(t, u.ID, res.Users[0].ID)

	_, err = seed(ctx, a, seedOptions{Username: "nobody", Count: 1}, time.Now())
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestFakeTransactionIsValid(t *testing.T) {
	categories := []core.Category{{ID: 1, Name: "Food"}, {ID: 2, Name: "Rent"}}
	now := time.Now()
	faker := gofakeit.New(7)
	for i := 0; i < 50; i++ {
		in := fakeTransaction(faker, categories, now)
		require.NoError(t, in.Validate())
		require.NoError(t, fakeGoal(faker, now).Validate())
	}
}
