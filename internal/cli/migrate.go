package cli

import (
	"database/sql"

	"github.com/spf13/cobra"

	"restkit/internal/db/migrations"
)

func newMigrateCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withDB(cmd.Context(), func(db *sql.DB) error {
				return migrations.RunMigrations(cmd.Context(), db, app.Log)
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withDB(cmd.Context(), func(db *sql.DB) error {
				return migrations.Rollback(cmd.Context(), db, app.Log)
			})
		},
	})
	return cmd
}
