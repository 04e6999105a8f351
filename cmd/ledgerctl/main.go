// cmd/ledgerctl/main.go
package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/joho/godotenv"

	"restkit/internal/cli"
	"restkit/internal/config"
	"restkit/internal/db"
	"restkit/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	log := logger.Setup(cfg.Environment)

	app := &cli.App{
		Log: log,
		TTL: cfg.Ledger.TokenTTL,
		Open: func(ctx context.Context) (*sql.DB, error) {
			database, err := db.New(ctx, cfg.DatabaseURL, log)
			if err != nil {
				return nil, err
			}
			return database.DB, nil
		},
	}

	if err := cli.NewRootCommand(app).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
