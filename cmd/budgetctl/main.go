// Command budgetctl runs administrative tasks against the budget database.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/storage"
)

func main() {
	cli.LoadEnvFile()

	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Administer the budget tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrateCmd(), createSuperuserCmd(), seedCmd(), exportCmd())

	logger := log.New(log.DefaultConfig())
	ctx, cancel := cli.SignalContext(logger)
	err := root.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is what every subcommand needs: migrated storage and the services on
// top of it.
type app struct {
	repo     *storage.Repository
	logger   *log.Logger
	accounts *services.Accounts
	ledger   *services.Ledger
	savings  *services.Savings
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := cli.LoadConfig((*config.Config).Validate)
	if err != nil {
		return nil, err
	}
	logger := cli.SetupLogger(cfg, log.ComponentCLI)

	repo, err := cli.OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return newApp(repo, logger), nil
}

func newApp(repo *storage.Repository, logger *log.Logger) *app {
	return &app{
		repo:     repo,
		logger:   logger,
		accounts: services.NewAccounts(repo, logger.Logger),
		ledger:   services.NewLedger(repo, nil, logger.Logger),
		savings:  services.NewSavings(repo),
	}
}

func (a *app) Close() error {
	return a.repo.Close()
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date.")
			return nil
		},
	}
}
