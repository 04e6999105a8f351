package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"restkit/internal/ledger"
)

type tokenFlags struct {
	subject int64
	purpose string
	format  string
}

func newTokensCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Inspect or revoke a subject's tokens",
	}
	cmd.AddCommand(newTokensListCommand(app), newTokensRevokeCommand(app))
	return cmd
}

func (f *tokenFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.subject, "subject", 0, "subject (user) id")
	cmd.Flags().StringVar(&f.purpose, "purpose", ledger.PurposeForgotPassword.String(), "token purpose")
	_ = cmd.MarkFlagRequired("subject")
}

func newTokensListCommand(app *App) *cobra.Command {
	var f tokenFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a subject's tokens for a purpose",
		Example: `  ledgerctl tokens list --subject 42
  ledgerctl tokens list --subject 42 --purpose change_email --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			purpose, err := ledger.ParsePurpose(f.purpose)
			if err != nil {
				return err
			}
			return app.withDB(cmd.Context(), func(db *sql.DB) error {
				tokens, err := app.ledger(db).ListBySubject(cmd.Context(), f.subject, purpose)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				switch f.format {
				case "json":
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(tokens)
				case "table":
					if len(tokens) == 0 {
						fmt.Fprintln(out, "No tokens found")
						return nil
					}
					tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNAME\tEXPIRES_AT\tCREATED_AT")
					for _, t := range tokens {
						fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, t.Name, t.ExpiresAt.Format(time.RFC3339), t.CreatedAt.Format(time.RFC3339))
					}
					return tw.Flush()
				default:
					return fmt.Errorf("unknown format %q", f.format)
				}
			})
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&f.format, "format", "table", "output format: table or json")
	return cmd
}

func newTokensRevokeCommand(app *App) *cobra.Command {
	var f tokenFlags
	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Delete all of a subject's tokens for a purpose",
		RunE: func(cmd *cobra.Command, args []string) error {
			purpose, err := ledger.ParsePurpose(f.purpose)
			if err != nil {
				return err
			}
			return app.withDB(cmd.Context(), func(db *sql.DB) error {
				n, err := app.ledger(db).InvalidateAll(cmd.Context(), f.subject, purpose)
				if errors.Is(err, ledger.ErrNoTokens) {
					fmt.Fprintln(cmd.OutOrStdout(), "no tokens to revoke")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "revoked %d token(s)\n", n)
				return nil
			})
		},
	}
	f.bind(cmd)
	return cmd
}
