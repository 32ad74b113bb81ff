// Package services holds the budget use cases. Each service validates input,
// applies the capability guards, and delegates persistence to a store that
// scopes every row by owner.
package services

import (
	"context"
	"iter"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/storage"
)

type AccountStore interface {
	CreateAccount(ctx context.Context, acc storage.NewAccount) (core.User, error)
	GetUser(ctx context.Context, id int64) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	ListUsers(ctx context.Context) ([]core.User, error)
	UpdateUser(ctx context.Context, id int64, upd core.UserUpdate) (core.User, error)
	DeleteUser(ctx context.Context, id int64) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	EnsureProfile(ctx context.Context, userID int64) (core.Profile, error)
	SetCurrency(ctx context.Context, userID int64, c core.Currency) (core.Profile, error)
}

type LedgerStore interface {
	ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
	CreateCategory(ctx context.Context, userID int64, name string) (core.Category, error)
	DeleteCategory(ctx context.Context, userID, id int64) error

	ListTransactions(ctx context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
	CreateTransaction(ctx context.Context, userID int64, in core.TransactionInput) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id int64, in core.TransactionInput) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id int64) error
	ExportTransactions(ctx context.Context, userID int64) iter.Seq2[core.ExportRow, error]
}

type GoalStore interface {
	ListGoals(ctx context.Context, userID int64) ([]core.SavingGoal, error)
	GetGoal(ctx context.Context, userID, id int64) (core.SavingGoal, error)
	CreateGoal(ctx context.Context, userID int64, in core.GoalInput) (core.SavingGoal, error)
	UpdateGoal(ctx context.Context, userID, id int64, in core.GoalInput) (core.SavingGoal, error)
	AdjustGoal(ctx context.Context, userID, id int64, amount core.Money, dir core.AdjustDirection) (core.SavingGoal, error)
	DeleteGoal(ctx context.Context, userID, id int64) error
}

type ReportStore interface {
	Totals(ctx context.Context, userID int64) (income, expense core.Money, err error)
	ExpenseTotalsByCategory(ctx context.Context, userID int64) ([]core.CategoryTotal, error)
	ListTransactions(ctx context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error)
	EnsureProfile(ctx context.Context, userID int64) (core.Profile, error)
}

// Publisher announces ledger changes to the mirror worker.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, msg amqp.LedgerChangedMessage) error
}
