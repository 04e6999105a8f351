package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"
)

func TestForgotPasswordUnknownEmailStillOK(t *testing.T) {
	db, mock := newMock(t)
	sender := &noopSender{}
	svc, _ := newAccounts(db, sender)
	h := NewCustomerHandler(svc, testLog, true)

	mock.ExpectQuery(`FROM users WHERE LOWER\(email\)`).
		WithArgs("ghost@b.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	b, _ := json.Marshal(map[string]any{"email": "ghost@b.com"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/customer/forgot-password/mail", bytes.NewReader(b))
	w := httptest.NewRecorder()
	h.ForgotPasswordMail(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["message"] != forgotPasswordMessage || resp["code"] != nil {
		t.Fatalf("unexpected body %v", resp)
	}
	if sender.sent != 0 {
		t.Fatalf("expected no email, got %d", sender.sent)
	}
}

func TestForgotPasswordReturnsCodeWhenEnabled(t *testing.T) {
	db, mock := newMock(t)
	sender := &noopSender{}
	svc, _ := newAccounts(db, sender)
	h := NewCustomerHandler(svc, testLog, true)

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM users WHERE LOWER\(email\)`).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(42), "A", "a@b.com", nil, "hash", "tok", true, "local", now, now))
	mock.ExpectQuery(`INSERT INTO personal_access_token`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))

	b, _ := json.Marshal(map[string]any{"email": "a@b.com"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/customer/forgot-password/mail", bytes.NewReader(b))
	w := httptest.NewRecorder()
	h.ForgotPasswordMail(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", w.Code, w.Body.String())
	}
	assertJSON(t, w.Header())
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if code, _ := resp["code"].(string); len(code) != 5 {
		t.Fatalf("expected 5 char code got %v", resp)
	}
	if sender.sent != 1 {
		t.Fatalf("expected one email, got %d", sender.sent)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdatePasswordExpiredCode(t *testing.T) {
	db, mock := newMock(t)
	svc, _ := newAccounts(db, &noopSender{})
	h := NewCustomerHandler(svc, testLog, false)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("AB12C").
		WillReturnRows(tokenRow("forgot_password", "", 42, time.Now().Add(-time.Minute)))
	mock.ExpectRollback()

	b, _ := json.Marshal(map[string]any{
		"code": "AB12C", "secret": "s3cr3t", "old_password": "oldpass1", "new_password": "newpass12",
	})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/customer/update-password", bytes.NewReader(b))
	w := httptest.NewRecorder()
	h.UpdatePassword(w, req)

	if w.Code != http.StatusGone {
		t.Fatalf("expected 410 got %d (%s)", w.Code, w.Body.String())
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "expired_code" {
		t.Fatalf("unexpected body %v", resp)
	}
}

func TestUpdatePasswordSuccess(t *testing.T) {
	db, mock := newMock(t)
	svc, _ := newAccounts(db, &noopSender{})
	h := NewCustomerHandler(svc, testLog, false)

	hash, _ := bcrypt.GenerateFromPassword([]byte("oldpass1"), bcrypt.MinCost)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("AB12C").
		WillReturnRows(tokenRow("forgot_password", "", 42, now.Add(time.Hour)))
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(42), "A", "a@b.com", nil, string(hash), "tok", true, "local", now, now))
	mock.ExpectExec(`UPDATE users SET password_hash`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM personal_access_token`).WithArgs(int64(42), "forgot_password").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	b, _ := json.Marshal(map[string]any{
		"code": "AB12C", "secret": "s3cr3t", "old_password": "oldpass1", "new_password": "newpass12",
	})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/customer/update-password", bytes.NewReader(b))
	w := httptest.NewRecorder()
	h.UpdatePassword(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdatePasswordValidation(t *testing.T) {
	db, _ := newMock(t)
	svc, _ := newAccounts(db, &noopSender{})
	h := NewCustomerHandler(svc, testLog, false)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/customer/update-password", bytes.NewReader([]byte(`{"code":"AB12C"}`)))
	w := httptest.NewRecorder()
	h.UpdatePassword(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	svc, _ := newAccounts(db, &noopSender{})
	h := NewCustomerHandler(svc, testLog, false)

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM users WHERE LOWER\(email\)`).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(42), "A", "a@b.com", nil, "hash", "tok", true, "local", now, now))

	b, _ := json.Marshal(map[string]any{"name": "A", "email": "a@b.com", "phone": "5551234567", "password": "password1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/customer/register", bytes.NewReader(b))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d (%s)", w.Code, w.Body.String())
	}
}

func TestMeRequiresUser(t *testing.T) {
	db, mock := newMock(t)
	svc, _ := newAccounts(db, &noopSender{})
	h := NewCustomerHandler(svc, testLog, false)

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(42), "A", "a@b.com", "555", "hash", "tok", true, "local", now, now))

	w := httptest.NewRecorder()
	h.Me(w, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/customer/me", nil), 42))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", w.Code, w.Body.String())
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if _, leaked := body["password_hash"]; leaked {
		t.Fatalf("password hash leaked: %v", body)
	}

	w = httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/api/v1/customer/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}
}
