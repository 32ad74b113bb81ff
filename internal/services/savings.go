package services

import (
	"context"
	"strings"

	"budget/internal/core"
)

type Savings struct {
	store GoalStore
}

func NewSavings(store GoalStore) *Savings {
	return &Savings{store: store}
}

func (s *Savings) Goals(ctx context.Context, userID int64) ([]core.SavingGoal, error) {
	return s.store.ListGoals(ctx, userID)
}

func (s *Savings) Goal(ctx context.Context, userID, id int64) (core.SavingGoal, error) {
	return s.store.GetGoal(ctx, userID, id)
}

func (s *Savings) CreateGoal(ctx context.Context, userID int64, in core.GoalInput) (core.SavingGoal, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return core.SavingGoal{}, err
	}
	return s.store.CreateGoal(ctx, userID, in)
}

// UpdateGoal overwrites every field, current amount included.
func (s *Savings) UpdateGoal(ctx context.Context, userID, id int64, in core.GoalInput) (core.SavingGoal, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return core.SavingGoal{}, err
	}
	return s.store.UpdateGoal(ctx, userID, id, in)
}

// AdjustAmount parses the raw form values and applies them atomically. Any
// failure leaves the goal as it was.
func (s *Savings) AdjustAmount(ctx context.Context, userID, id int64, rawAmount, rawDirection string) (core.SavingGoal, error) {
	amount, err := core.ParseMoney(rawAmount)
	if err != nil {
		return core.SavingGoal{}, err
	}
	if !amount.IsPositive() {
		return core.SavingGoal{}, core.ErrInvalidAmount
	}
	dir, err := core.ParseAdjustDirection(rawDirection)
	if err != nil {
		return core.SavingGoal{}, err
	}
	return s.store.AdjustGoal(ctx, userID, id, amount, dir)
}

func (s *Savings) DeleteGoal(ctx context.Context, userID, id int64) error {
	return s.store.DeleteGoal(ctx, userID, id)
}
