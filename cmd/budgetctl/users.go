package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func createSuperuserCmd() *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an administrator account",
		Long: `Create an active superuser. The password is taken from --password,
then BUDGET_SUPERUSER_PASSWORD, then the first line of standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("BUDGET_SUPERUSER_PASSWORD")
			}
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no password given")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.accounts.CreateSuperuser(cmd.Context(), username, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created (id %d).\n", u.Username, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prefer the environment or stdin)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
