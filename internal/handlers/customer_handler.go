package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"restkit/internal/middleware"
	"restkit/internal/models"
	"restkit/internal/services"
)

const forgotPasswordMessage = "If the email is registered, a recovery code has been sent."

type CustomerHandler struct {
	accounts *services.AccountService
	v        *validator.Validate
	log      *slog.Logger
	// returnCodes echoes issued codes and secrets. Development only.
	returnCodes bool
}

func NewCustomerHandler(accounts *services.AccountService, log *slog.Logger, returnCodes bool) *CustomerHandler {
	return &CustomerHandler{
		accounts:    accounts,
		v:           validator.New(),
		log:         log,
		returnCodes: returnCodes,
	}
}

// @Tags Customer
// @Summary Current customer
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/customer/me [get]
func (h *CustomerHandler) Me(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.CustomerHandler.Me")

	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	u, err := h.accounts.Find(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, u)
}

// @Tags Customer
// @Summary Register customer
// @Accept json
// @Produce json
// @Param body body models.RegisterRequest true "Customer"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/customer/register [post]
func (h *CustomerHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.CustomerHandler.Register")

	var req models.RegisterRequest
	if !decodeAndValidate(w, r, h.v, &req) {
		return
	}

	u, err := h.accounts.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, log, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, u)
}

// @Tags Customer
// @Summary Login
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/customer/login [post]
func (h *CustomerHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.CustomerHandler.Login")

	var req models.LoginRequest
	if !decodeAndValidate(w, r, h.v, &req) {
		return
	}

	resp, err := h.accounts.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// @Tags Customer
// @Summary Update profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.UpdateUserRequest true "Profile"
// @Success 200 {object} models.User
// @Router /api/v1/customer/update [put]
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.CustomerHandler.Update")

	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var req models.UpdateUserRequest
	if !decodeAndValidate(w, r, h.v, &req) {
		return
	}

	u, err := h.accounts.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, r, log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, u)
}

// @Tags Customer
// @Summary Send password recovery code
// @Accept json
// @Produce json
// @Param body body models.ForgotPasswordRequest true "Email"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/customer/forgot-password/mail [post]
func (h *CustomerHandler) ForgotPasswordMail(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.CustomerHandler.ForgotPasswordMail")

	var req models.ForgotPasswordRequest
	if !decodeAndValidate(w, r, h.v, &req) {
		return
	}

	// Same answer whether or not the email exists.
	resp := map[string]any{"message": forgotPasswordMessage}

	issued, err := h.accounts.SendForgotPasswordCode(r.Context(), req.Email)
	switch {
	case err == nil:
		if h.returnCodes {
			resp["code"] = issued.Code
			resp["secret"] = issued.Secret
			resp["expires_at"] = issued.ExpiresAt
		}
	case errors.Is(err, services.ErrUserNotFound):
		log.Debug("recovery requested for unknown email")
	default:
		log.Error("failed to send recovery code", slog.String("error", err.Error()))
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// @Tags Customer
// @Summary Update password with a recovery code
// @Accept json
// @Produce json
// @Param body body models.UpdatePasswordRequest true "Code, secret and passwords"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 410 {object} map[string]interface{}
// @Router /api/v1/customer/update-password [patch]
func (h *CustomerHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.CustomerHandler.UpdatePassword")

	var req models.UpdatePasswordRequest
	if !decodeAndValidate(w, r, h.v, &req) {
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), &req); err != nil {
		writeServiceError(w, r, log, err)
		return
	}
	writeJSONMessage(w, r, http.StatusOK, "Password updated")
}

// @Tags Customer
// @Summary Send email change code to the new address
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.ChangeEmailCodeRequest true "New email"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/customer/change-email/mail [post]
func (h *CustomerHandler) ChangeEmailMail(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.CustomerHandler.ChangeEmailMail")

	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var req models.ChangeEmailCodeRequest
	if !decodeAndValidate(w, r, h.v, &req) {
		return
	}

	issued, err := h.accounts.SendChangeEmailCode(r.Context(), id, req.NewEmail)
	if err != nil {
		writeServiceError(w, r, log, err)
		return
	}

	resp := map[string]any{"message": "Confirmation code sent to " + req.NewEmail}
	if h.returnCodes {
		resp["code"] = issued.Code
		resp["secret"] = issued.Secret
		resp["expires_at"] = issued.ExpiresAt
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// @Tags Customer
// @Summary Change email with a confirmation code
// @Accept json
// @Produce json
// @Param body body models.ChangeEmailRequest true "Code, secret and new email"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 410 {object} map[string]interface{}
// @Router /api/v1/customer/change-email [patch]
func (h *CustomerHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.CustomerHandler.ChangeEmail")

	var req models.ChangeEmailRequest
	if !decodeAndValidate(w, r, h.v, &req) {
		return
	}

	if err := h.accounts.ChangeEmail(r.Context(), &req); err != nil {
		writeServiceError(w, r, log, err)
		return
	}
	writeJSONMessage(w, r, http.StatusOK, "Email updated")
}

// @Tags Customer
// @Summary Find customer by user token
// @Produce json
// @Param token path string true "User token"
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/customer/token/{token} [get]
func (h *CustomerHandler) FindByToken(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.CustomerHandler.FindByToken")

	u, err := h.accounts.FindByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeServiceError(w, r, log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, u)
}

// @Tags Customer
// @Summary Toggle active status
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/customer/toggle-status [patch]
func (h *CustomerHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.CustomerHandler.ToggleStatus")

	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	status, err := h.accounts.ToggleStatus(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"status": status})
}
