package core

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	AdjustAdd      AdjustDirection = "add"
	AdjustSubtract AdjustDirection = "subtract"
)

type (
	AdjustDirection string

	SavingGoal struct {
		ID       int64  `json:"id"`
		UserID   int64  `json:"-"`
		Name     string `json:"name"`
		Target   Money  `json:"target_amount"`
		Current  Money  `json:"current_amount"`
		Deadline Date   `json:"deadline"`
	}

	GoalInput struct {
		Name     string
		Target   Money
		Current  Money
		Deadline Date
	}
)

func ParseAdjustDirection(s string) (AdjustDirection, error) {
	switch d := AdjustDirection(strings.ToLower(strings.TrimSpace(s))); d {
	case AdjustAdd, AdjustSubtract:
		return d, nil
	default:
		return "", ErrInvalidDirection
	}
}

func (in GoalInput) Validate() error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Invalid("name", "this field is required")
	}
	if utf8.RuneCountInString(name) > MaxGoalNameLen {
		return Invalid("name", "ensure this value has at most 100 characters")
	}
	if err := in.Target.Validate(); err != nil {
		return relabel(err, "target_amount")
	}
	if err := in.Current.Validate(); err != nil {
		return relabel(err, "current_amount")
	}
	return nil
}

// ProgressPercentage is current/target*100 capped at 100. A non-positive
// target yields 0 rather than an error.
func (g SavingGoal) ProgressPercentage() decimal.Decimal {
	if g.Target.Cents <= 0 {
		return decimal.Zero
	}
	p := g.Current.Decimal().Div(g.Target.Decimal()).Mul(hundred)
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// ApplyAdjustment returns the new current amount. The amount must be strictly
// positive; adding is unbounded, subtracting never goes below zero.
func ApplyAdjustment(current, amount Money, dir AdjustDirection) (Money, error) {
	if !amount.IsPositive() {
		return current, ErrInvalidAmount
	}
	switch dir {
	case AdjustAdd:
		next := current.Add(amount)
		if err := next.Validate(); err != nil {
			return current, err
		}
		return next, nil
	case AdjustSubtract:
		next := current.Sub(amount)
		if next.IsNegative() {
			next = Money{}
		}
		return next, nil
	default:
		return current, ErrInvalidDirection
	}
}
