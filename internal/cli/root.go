// internal/cli/root.go
package cli

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"restkit/internal/ledger"
)

// App holds what every subcommand needs. Open is called lazily so that
// --help never touches the database.
type App struct {
	Open func(ctx context.Context) (*sql.DB, error)
	Log  *slog.Logger
	TTL  time.Duration
}

func (a *App) ledger(db *sql.DB) *ledger.Ledger {
	opts := []ledger.Option{}
	if a.TTL > 0 {
		opts = append(opts, ledger.WithTTL(a.TTL))
	}
	return ledger.New(db, a.Log, opts...)
}

func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the restkit database and token ledger",
		Long: `ledgerctl runs maintenance tasks against the restkit database.

Available commands:
  migrate    Apply or roll back schema migrations
  reap       Delete expired recovery tokens
  tokens     Inspect or revoke a subject's tokens`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newMigrateCommand(app),
		newReapCommand(app),
		newTokensCommand(app),
	)
	return root
}

// withDB opens the database for the duration of fn.
func (a *App) withDB(ctx context.Context, fn func(db *sql.DB) error) error {
	db, err := a.Open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}
