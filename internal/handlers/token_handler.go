package handlers

import (
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"restkit/internal/ledger"
	"restkit/internal/middleware"
	"restkit/internal/models"
	"restkit/internal/services"
)

type TokenHandler struct {
	ledger  *ledger.Ledger
	limiter services.AttemptLimiter
	log     *slog.Logger
}

func NewTokenHandler(l *ledger.Ledger, limiter services.AttemptLimiter, log *slog.Logger) *TokenHandler {
	if limiter == nil {
		limiter = services.NoopAttemptLimiter{}
	}
	return &TokenHandler{ledger: l, limiter: limiter, log: log}
}

// @Tags Token
// @Summary Verify a code
// @Description Returns the caller's token for a code received by email. The secret is
// @Description included for forgot_password tokens only; change_email links carry their own.
// @Security BearerAuth
// @Produce json
// @Param code path string true "Code"
// @Success 200 {object} models.VerifiedTokenResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 410 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Router /api/v1/token/code/verify/{code} [get]
func (h *TokenHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.TokenHandler.VerifyCode")
	ctx := r.Context()
	key := clientKey(r)

	callerID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	blocked, err := h.limiter.Blocked(ctx, key)
	if err != nil {
		log.Warn("attempt limiter unavailable", slog.String("error", err.Error()))
	}
	if blocked {
		writeJSONError(w, r, http.StatusTooManyRequests, "too_many_attempts", "Too many invalid codes, try again later")
		return
	}

	tok, err := h.ledger.VerifyByCode(ctx, chi.URLParam(r, "code"))
	if err == nil && tok.SubjectID != callerID {
		// Another subject's code reads the same as an unknown one.
		err = ledger.ErrTokenNotFound
	}
	if err != nil {
		if errors.Is(err, ledger.ErrTokenNotFound) {
			if _, ferr := h.limiter.Fail(ctx, key); ferr != nil {
				log.Warn("failed to record attempt", slog.String("error", ferr.Error()))
			}
		}
		writeServiceError(w, r, log, err)
		return
	}
	_ = h.limiter.Reset(ctx, key)

	resp := models.VerifiedTokenResponse{
		ID:          tok.ID,
		SubjectType: tok.SubjectType,
		SubjectID:   tok.SubjectID,
		Name:        tok.Name,
		ExpiresAt:   tok.ExpiresAt,
	}
	if tok.SubjectType == ledger.PurposeForgotPassword.String() {
		resp.Secret = tok.Secret
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// @Tags Token
// @Summary List my tokens for a purpose
// @Security BearerAuth
// @Produce json
// @Param purpose query string true "forgot_password or change_email"
// @Success 200 {array} models.PersonalAccessToken
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/token/subject [get]
func (h *TokenHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.TokenHandler.ListMine")

	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	purpose, err := ledger.ParsePurpose(r.URL.Query().Get("purpose"))
	if err != nil {
		writeServiceError(w, r, log, err)
		return
	}

	tokens, err := h.ledger.ListBySubject(r.Context(), id, purpose)
	if err != nil {
		writeServiceError(w, r, log, err)
		return
	}
	if tokens == nil {
		tokens = []models.PersonalAccessToken{}
	}
	writeJSON(w, r, http.StatusOK, tokens)
}

// @Tags Token
// @Summary Invalidate my tokens for a purpose
// @Security BearerAuth
// @Produce json
// @Param purpose query string true "forgot_password or change_email"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/token/subject [delete]
func (h *TokenHandler) InvalidateMine(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.TokenHandler.InvalidateMine")

	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	purpose, err := ledger.ParsePurpose(r.URL.Query().Get("purpose"))
	if err != nil {
		writeServiceError(w, r, log, err)
		return
	}

	n, err := h.ledger.InvalidateAll(r.Context(), id, purpose)
	if errors.Is(err, ledger.ErrNoTokens) {
		writeJSON(w, r, http.StatusOK, map[string]any{"message": "No tokens to invalidate", "count": 0})
		return
	}
	if err != nil {
		writeServiceError(w, r, log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"message": "Tokens invalidated", "count": n})
}

// clientKey relies on middleware.RealIP having rewritten RemoteAddr.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

