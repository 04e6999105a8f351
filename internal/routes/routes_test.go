package routes

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"restkit/internal/config"
	"restkit/internal/services"
)

type healthResp struct {
	Status string `json:"status"`
	DB     struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	} `json:"db"`
}

func TestRootReturnsJSON(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	r := SetupRoutes(db, testConfig(), Deps{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %q", ct)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["message"] == "" {
		t.Fatalf("expected message, got %v", body)
	}
}

func TestHealthDBOK(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectPing()

	r := SetupRoutes(db, testConfig(), Deps{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp healthResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.DB.Status != "ok" {
		t.Fatalf("expected db ok, got %+v", resp)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHealthDBDown(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectPing().WillReturnError(sql.ErrConnDone)

	r := SetupRoutes(db, testConfig(), Deps{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d (%s)", w.Code, w.Body.String())
	}
	var resp healthResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.DB.Status != "down" {
		t.Fatalf("expected db down, got %+v", resp)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           "dev",
		JWTExpiresInSeconds: 3600,
		AppName:             "restkit",
		CORSAllowedOrigins:  []string{"http://localhost:3000"},
		Ledger:              config.Ledger{TokenTTL: time.Hour, CodeLength: 5},
	}
}

func TestFooDeleteNeedsDeleteScope(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	tok, err := services.SignAccessToken("dev", 42, "a@b.com", services.DefaultScopes, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	r := SetupRoutes(db, testConfig(), Deps{})
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/foo/delete/1", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestCustomerMeRequiresJWT(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	r := SetupRoutes(db, testConfig(), Deps{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/customer/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func bearer(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := services.SignAccessToken("dev", userID, "a@b.com", services.DefaultScopes, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + tok
}

var tokenColumns = []string{"id", "tokenable_type", "tokenable_id", "name", "secret", "token", "abilities", "last_used_at", "expires_at", "created_at"}

func TestVerifyCodeRequiresJWT(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	r := SetupRoutes(db, testConfig(), Deps{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/token/code/verify/AB12C", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (%s)", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestVerifyCodeOfAnotherSubjectLeaksNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM personal_access_token WHERE token = \$1`).
		WithArgs("AB12C").
		WillReturnRows(sqlmock.NewRows(tokenColumns).
			AddRow(int64(1), "change_email", int64(42), "victim@example.com", "9b2f0c1e-unguessable", "AB12C", "{}", nil, time.Now().Add(time.Hour).UTC(), time.Now().UTC()))

	r := SetupRoutes(db, testConfig(), Deps{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/token/code/verify/AB12C", nil)
	req.Header.Set("Authorization", bearer(t, 7))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%s)", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if strings.Contains(body, "unguessable") || strings.Contains(body, "victim@example.com") {
		t.Fatalf("token details leaked: %s", body)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["error"] != "invalid_code" {
		t.Fatalf("expected invalid_code, got %v", resp)
	}
}

func TestVerifyCodeIPLimitWithoutRedis(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cfg := testConfig()
	cfg.Redis.VerifyMaxAttempts = 2
	cfg.Redis.VerifyAttemptWindow = time.Minute
	r := SetupRoutes(db, cfg, Deps{})
	auth := bearer(t, 7)

	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`FROM personal_access_token WHERE token = \$1`).
			WillReturnRows(sqlmock.NewRows(tokenColumns))
		req := httptest.NewRequest(http.MethodGet, "/api/v1/token/code/verify/GUESS", nil)
		req.Header.Set("Authorization", auth)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("attempt %d: expected 404, got %d", i, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/token/code/verify/GUESS", nil)
	req.Header.Set("Authorization", auth)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
