package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"restkit/internal/ledger"
	"restkit/internal/middleware"
	"restkit/internal/services"
)

var (
	testLog   = slog.New(slog.DiscardHandler)
	userCols  = []string{"id", "name", "email", "phone", "password_hash", "token", "status", "provider", "created_at", "updated_at"}
	tokenCols = []string{"id", "tokenable_type", "tokenable_id", "name", "secret", "token", "abilities", "last_used_at", "expires_at", "created_at"}
)

type noopSender struct{ sent int }

func (n *noopSender) Send(context.Context, string, string, string, string) error {
	n.sent++
	return nil
}

func newAccounts(db *sql.DB, sender services.EmailSender) (*services.AccountService, *ledger.Ledger) {
	l := ledger.New(db, testLog)
	mailer := services.NewMailer(sender, services.EmbeddedTemplates{}, "Acme", "https://app.test", testLog)
	svc := services.NewAccountService(db, l, mailer, services.AccountConfig{
		JWTSecret: "dev", JWTTTL: time.Hour, CodeLength: 5, TokenTTL: time.Hour,
	}, testLog)
	return svc, l
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func withUser(r *http.Request, id int64) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.CtxUserID, id))
}

func assertJSON(t *testing.T, h http.Header) {
	t.Helper()
	if ct := h.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected json content-type got %q", ct)
	}
}

func tokenRow(purpose, name string, subjectID int64, expiresAt time.Time) *sqlmock.Rows {
	var n any
	if name != "" {
		n = name
	}
	return sqlmock.NewRows(tokenCols).
		AddRow(int64(1), purpose, subjectID, n, "s3cr3t", "AB12C", "{}", nil, expiresAt, time.Now().UTC())
}
