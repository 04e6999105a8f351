package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"restkit/internal/config"
	"restkit/internal/handlers"
	"restkit/internal/middleware"
	"restkit/internal/services"
)

func RegisterTokenRoutes(router chi.Router, cfg *config.Config, deps Deps) {
	h := handlers.NewTokenHandler(deps.Ledger, deps.Limiter, deps.Log)

	router.Route("/token", func(r chi.Router) {
		r.Use(middleware.JWTAuth(cfg.JWTSecret))

		r.With(verifyLimit(cfg, deps.Limiter)).Get("/code/verify/{code}", h.VerifyCode)
		r.Get("/subject", h.ListMine)
		r.Delete("/subject", h.InvalidateMine)
	})
}

// verifyLimit caps verify calls per IP when no Redis failure counter is wired.
func verifyLimit(cfg *config.Config, limiter services.AttemptLimiter) func(http.Handler) http.Handler {
	if _, noop := limiter.(services.NoopAttemptLimiter); !noop {
		return func(next http.Handler) http.Handler { return next }
	}
	attempts, window := cfg.Redis.VerifyMaxAttempts, cfg.Redis.VerifyAttemptWindow
	if attempts <= 0 {
		attempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return httprate.LimitByIP(attempts, window)
}
