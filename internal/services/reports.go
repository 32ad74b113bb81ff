package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"budget/internal/core"
	"budget/internal/storage"
)

// RecentLimit is how many transactions the dashboard shows.
const RecentLimit = 5

// Reports computes read-only views over the ledger. Nothing is cached; each
// call reads the current state.
type Reports struct {
	store ReportStore
}

func NewReports(store ReportStore) *Reports {
	return &Reports{store: store}
}

func (s *Reports) Summary(ctx context.Context, userID int64) (core.Summary, error) {
	income, expense, err := s.store.Totals(ctx, userID)
	if err != nil {
		return core.Summary{}, err
	}
	return core.NewSummary(income, expense), nil
}

// ExpenseByCategory returns chart-ready totals with null categories labelled
// Uncategorized, sorted by label.
func (s *Reports) ExpenseByCategory(ctx context.Context, userID int64) (core.ExpenseChart, error) {
	totals, err := s.store.ExpenseTotalsByCategory(ctx, userID)
	if err != nil {
		return core.ExpenseChart{}, err
	}
	return core.NewExpenseChart(totals), nil
}

// Dashboard gathers the summary, the most recent transactions, the expense
// chart and the display currency concurrently.
func (s *Reports) Dashboard(ctx context.Context, userID int64) (core.Dashboard, error) {
	var d core.Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		summary, err := s.Summary(gctx, userID)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		d.Summary = summary
		return nil
	})
	g.Go(func() error {
		recent, err := s.store.ListTransactions(gctx, userID, storage.TransactionFilter{Limit: RecentLimit})
		if err != nil {
			return fmt.Errorf("recent transactions: %w", err)
		}
		d.Recent = recent
		return nil
	})
	g.Go(func() error {
		chart, err := s.ExpenseByCategory(gctx, userID)
		if err != nil {
			return fmt.Errorf("expense chart: %w", err)
		}
		d.Chart = chart
		return nil
	})
	g.Go(func() error {
		profile, err := s.store.EnsureProfile(gctx, userID)
		if err != nil {
			return fmt.Errorf("profile: %w", err)
		}
		d.Currency = profile.Currency
		return nil
	})

	if err := g.Wait(); err != nil {
		return core.Dashboard{}, err
	}
	return d, nil
}
