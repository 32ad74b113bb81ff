package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"

	"budget/internal/core"
)

type seedOptions struct {
	// Username fills an existing account instead of registering new ones.
	Username string
	Users    int
	Count    int
	Goals    int
	Password string
	Seed     int64
}

type seedResult struct {
	Users        []core.User
	Transactions int
	Goals        int
}

func seedCmd() *cobra.Command {
	opts := seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo ledgers",
		Long: `Generate fake transactions and savings goals. With --username the existing
account is filled; otherwise --users new accounts are registered first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := seed(cmd.Context(), a, opts, time.Now())
			if err != nil {
				return err
			}
			for _, u := range res.Users {
				fmt.Fprintln(cmd.OutOrStdout(), u.Username)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d transactions, %d goals.\n",
				len(res.Users), res.Transactions, res.Goals)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Username, "username", "", "existing user to fill")
	cmd.Flags().IntVar(&opts.Users, "users", 3, "accounts to register when --username is not set")
	cmd.Flags().IntVar(&opts.Count, "count", 40, "transactions per user")
	cmd.Flags().IntVar(&opts.Goals, "goals", 2, "savings goals per user")
	cmd.Flags().StringVar(&opts.Password, "password", "demo-pass-123", "password for registered accounts")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed; 0 picks one")
	return cmd
}

// seed spreads transactions over the 90 days before now. New accounts go
// through normal registration so they get a profile and default categories.
func seed(ctx context.Context, a *app, opts seedOptions, now time.Time) (seedResult, error) {
	faker := gofakeit.New(opts.Seed)
	var res seedResult

	users, err := seedTargets(ctx, a, faker, opts)
	if err != nil {
		return res, err
	}
	res.Users = users

	for _, u := range users {
		categories, err := a.ledger.Categories(ctx, u.ID)
		if err != nil {
			return res, err
		}

		for j := 0; j < opts.Count; j++ {
			if _, err := a.ledger.CreateTransaction(ctx, u.ID, fakeTransaction(faker, categories, now)); err != nil {
				return res, fmt.Errorf("seed transaction for %s: %w", u.Username, err)
			}
			res.Transactions++
		}

		for j := 0; j < opts.Goals; j++ {
			if _, err := a.savings.CreateGoal(ctx, u.ID, fakeGoal(faker, now)); err != nil {
				return res, fmt.Errorf("seed goal for %s: %w", u.Username, err)
			}
			res.Goals++
		}
	}

	a.logger.InfoContext(ctx, "Database seeded",
		"users", len(res.Users), "transactions", res.Transactions, "goals", res.Goals)
	return res, nil
}

func seedTargets(ctx context.Context, a *app, faker *gofakeit.Faker, opts seedOptions) ([]core.User, error) {
	if opts.Username != "" {
		u, err := a.repo.GetUserByUsername(ctx, opts.Username)
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", opts.Username, err)
		}
		return []core.User{u}, nil
	}

	users := make([]core.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		username := fmt.Sprintf("%s%d%d", strings.ToLower(faker.FirstName()), faker.Number(10, 99), i)
		u, err := a.accounts.Register(ctx, core.Registration{
			Username:        username,
			Email:           faker.Email(),
			Password:        opts.Password,
			ConfirmPassword: opts.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", username, err)
		}
		users = append(users, u)
	}
	return users, nil
}

func fakeTransaction(faker *gofakeit.Faker, categories []core.Category, now time.Time) core.TransactionInput {
	in := core.TransactionInput{
		Title: faker.BuzzWord(),
		Type:  core.Expense,
		Date:  core.DateOf(faker.DateRange(now.AddDate(0, 0, -90), now)),
	}
	if faker.Number(1, 5) == 1 {
		in.Type = core.Income
		in.Amount = core.NewMoney(int64(faker.Number(500, 3000)), 0)
	} else {
		in.Amount = core.NewMoney(int64(faker.Number(1, 199)), int64(faker.Number(0, 99)))
	}
	// Roughly one in six stays uncategorized.
	if len(categories) > 0 && faker.Number(1, 6) != 1 {
		c := categories[faker.Number(0, len(categories)-1)]
		in.CategoryID = &c.ID
	}
	return in
}

func fakeGoal(faker *gofakeit.Faker, now time.Time) core.GoalInput {
	target := core.NewMoney(int64(faker.Number(500, 5000)), 0)
	return core.GoalInput{
		Name:     faker.Noun() + " fund",
		Target:   target,
		Current:  core.Money{Cents: target.Cents * int64(faker.Number(0, 100)) / 100},
		Deadline: core.DateOf(faker.DateRange(now, now.AddDate(1, 0, 0))),
	}
}
