package db

import (
	"context"
	"log/slog"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAndReplaceDBName(t *testing.T) {
	name, err := extractDBName("postgres://u:p@localhost:5432/restkit?sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, "restkit", name)

	root, err := replaceDBName("postgres://u:p@localhost:5432/restkit?sslmode=disable", "postgres")
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost:5432/postgres?sslmode=disable", root)

	name, err = extractDBName("host=localhost dbname=restkit user=u")
	require.NoError(t, err)
	assert.Equal(t, "restkit", name)

	root, err = replaceDBName("host=localhost dbname=restkit user=u", "postgres")
	require.NoError(t, err)
	assert.Equal(t, "host=localhost dbname=postgres user=u", root)

	_, err = extractDBName("host=localhost")
	assert.Error(t, err)
}

func TestEnsureDatabaseCreatesMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT 1 FROM pg_database WHERE datname = \$1`).
		WithArgs("restkit").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectExec(`CREATE DATABASE "restkit"`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, ensureDatabase(context.Background(), db, "restkit", slog.New(slog.DiscardHandler)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureDatabaseSkipsExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT 1 FROM pg_database`).
		WithArgs("restkit").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	require.NoError(t, ensureDatabase(context.Background(), db, "restkit", slog.New(slog.DiscardHandler)))
	require.NoError(t, mock.ExpectationsWereMet())
}
