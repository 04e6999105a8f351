package cli

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, db *sql.DB, args ...string) (string, error) {
	t.Helper()
	app := &App{
		Log:  slog.New(slog.DiscardHandler),
		Open: func(context.Context) (*sql.DB, error) { return db, nil },
	}
	cmd := NewRootCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func TestReapPrintsCount(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM personal_access_token WHERE expires_at < \$1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectClose()

	out, err := runCommand(t, db, "reap")
	require.NoError(t, err)
	assert.Contains(t, out, "reaped 3 expired token(s)")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokensListTable(t *testing.T) {
	db, mock := newMock(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM personal_access_token\s+WHERE tokenable_id = \$1 AND tokenable_type = \$2`).
		WithArgs(int64(42), "forgot_password").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tokenable_type", "tokenable_id", "name", "abilities", "last_used_at", "expires_at", "created_at"}).
			AddRow(int64(7), "forgot_password", int64(42), nil, "{}", nil, created.Add(time.Hour), created))
	mock.ExpectClose()

	out, err := runCommand(t, db, "tokens", "list", "--subject", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "EXPIRES_AT")
	assert.Contains(t, out, "2026-03-01T13:00:00Z")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokensListRejectsUnknownPurpose(t *testing.T) {
	db, mock := newMock(t)

	_, err := runCommand(t, db, "tokens", "list", "--subject", "42", "--purpose", "nope")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokensRevokeNothingToDelete(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM personal_access_token WHERE tokenable_id = \$1 AND tokenable_type = \$2`).
		WithArgs(int64(42), "change_email").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	out, err := runCommand(t, db, "tokens", "revoke", "--subject", "42", "--purpose", "change_email")
	require.NoError(t, err)
	assert.Contains(t, out, "no tokens to revoke")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenFailureIsReturned(t *testing.T) {
	app := &App{
		Log:  slog.New(slog.DiscardHandler),
		Open: func(context.Context) (*sql.DB, error) { return nil, errors.New("connection refused") },
	}
	cmd := NewRootCommand(app)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"reap"})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
