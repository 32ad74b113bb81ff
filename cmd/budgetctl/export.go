package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"budget/internal/export"
)

func exportCmd() *cobra.Command {
	var (
		username string
		format   string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export one user's ledger as CSV or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.repo.GetUserByUsername(cmd.Context(), username)
			if err != nil {
				return fmt.Errorf("user %q: %w", username, err)
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				file, err := os.Create(out)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}

			n, err := export.Write(w, f, a.ledger.Export(cmd.Context(), u.ID))
			if err != nil {
				return err
			}
			if out != "" && out != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d transactions to %s.\n", n, out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "user whose ledger to export")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default standard output)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
