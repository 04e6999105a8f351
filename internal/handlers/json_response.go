package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"restkit/internal/ledger"
	"restkit/internal/services"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func writeJSONMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, map[string]any{"message": message})
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	writeJSON(w, r, status, map[string]any{"error": code, "message": message})
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 response itself and reports whether the caller may go on.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return false
	}
	if err := v.Struct(dst); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return false
	}
	return true
}

func requestLogger(log *slog.Logger, r *http.Request, op string) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", chimw.GetReqID(r.Context())),
	)
}

// writeServiceError maps ledger and account errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, ledger.ErrTokenNotFound):
		writeJSONError(w, r, http.StatusNotFound, "invalid_code", ledger.ErrTokenNotFound.Error())
	case errors.Is(err, ledger.ErrTokenExpired):
		writeJSONError(w, r, http.StatusGone, "expired_code", ledger.ErrTokenExpired.Error())
	case errors.Is(err, ledger.ErrSecretMismatch):
		writeJSONError(w, r, http.StatusForbidden, "secret_mismatch", "Secret does not match the code")
	case errors.Is(err, ledger.ErrInvalidPurpose):
		writeJSONError(w, r, http.StatusBadRequest, "invalid_purpose", err.Error())
	case errors.Is(err, services.ErrUserExists):
		writeJSONError(w, r, http.StatusConflict, "user_exists", "User already exists")
	case errors.Is(err, services.ErrEmailInUse):
		writeJSONError(w, r, http.StatusConflict, "email_in_use", "Email already in use")
	case errors.Is(err, services.ErrUserNotFound):
		writeJSONError(w, r, http.StatusNotFound, "user_not_found", "User not found")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeJSONError(w, r, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
	case errors.Is(err, services.ErrUserInactive):
		writeJSONError(w, r, http.StatusForbidden, "user_inactive", "User is inactive")
	case errors.Is(err, services.ErrInvalidPassword):
		writeJSONError(w, r, http.StatusBadRequest, "invalid_password", "Current password is incorrect")
	case errors.Is(err, services.ErrEmailMismatch):
		writeJSONError(w, r, http.StatusBadRequest, "email_mismatch", services.ErrEmailMismatch.Error())
	default:
		log.Error("request failed", slog.String("error", err.Error()))
		writeJSONError(w, r, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
