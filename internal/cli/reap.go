package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
)

func newReapCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reap",
		Short: "Delete every expired token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withDB(cmd.Context(), func(db *sql.DB) error {
				n, err := app.ledger(db).ReapExpired(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "reaped %d expired token(s)\n", n)
				return nil
			})
		},
	}
}
