package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"restkit/internal/config"
	"restkit/internal/handlers"
	"restkit/internal/middleware"
)

func RegisterCustomerRoutes(router chi.Router, cfg *config.Config, deps Deps) {
	h := handlers.NewCustomerHandler(deps.Accounts, deps.Log, cfg.AuthReturnResetToken)
	auth := middleware.JWTAuth(cfg.JWTSecret)
	// Code mails cost an SMTP round trip each.
	mailLimit := httprate.LimitByIP(5, time.Minute)

	router.Route("/customer", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(mailLimit).Post("/forgot-password/mail", h.ForgotPasswordMail)
		r.Patch("/update-password", h.UpdatePassword)
		r.Patch("/change-email", h.ChangeEmail)
		r.Get("/token/{token}", h.FindByToken)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Get("/me", h.Me)
			r.Put("/update", h.Update)
			r.With(mailLimit).Post("/change-email/mail", h.ChangeEmailMail)
			r.Patch("/toggle-status", h.ToggleStatus)
		})
	})
}
