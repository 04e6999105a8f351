// internal/routes/routes.go
package routes

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"restkit/internal/config"
	"restkit/internal/handlers"
	"restkit/internal/ledger"
	"restkit/internal/services"
)

const requestTimeout = 5 * time.Second

// Deps carries the long-lived collaborators built in cmd/api. Nil fields get
// development defaults.
type Deps struct {
	Log      *slog.Logger
	Ledger   *ledger.Ledger
	Accounts *services.AccountService
	Limiter  services.AttemptLimiter
}

func (d *Deps) withDefaults(db *sql.DB, cfg *config.Config) {
	if d.Log == nil {
		d.Log = slog.New(slog.DiscardHandler)
	}
	if d.Ledger == nil {
		d.Ledger = ledger.New(db, d.Log, ledger.WithTTL(cfg.Ledger.TokenTTL))
	}
	if d.Accounts == nil {
		mailer := services.NewMailer(&services.LogSender{From: cfg.SMTP.From, Log: d.Log}, services.EmbeddedTemplates{}, cfg.AppName, cfg.SPAApplicationURL, d.Log)
		d.Accounts = services.NewAccountService(db, d.Ledger, mailer, services.AccountConfig{
			JWTSecret:  cfg.JWTSecret,
			JWTTTL:     time.Duration(cfg.JWTExpiresInSeconds) * time.Second,
			CodeLength: cfg.Ledger.CodeLength,
			TokenTTL:   cfg.Ledger.TokenTTL,
		}, d.Log)
	}
	if d.Limiter == nil {
		d.Limiter = services.NoopAttemptLimiter{}
	}
}

func SetupRoutes(db *sql.DB, cfg *config.Config, deps Deps) *chi.Mux {
	deps.withDefaults(db, cfg)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := handlers.NewHealthHandler(db, cfg.AppName)
	r.Get("/", health.Root)
	r.Get("/health", health.Health)

	RegisterSwaggerRoutes(r)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		RegisterCustomerRoutes(r, cfg, deps)
		RegisterTokenRoutes(r, cfg, deps)
		RegisterFooRoutes(r, db, cfg, deps)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","message":"Route not found"}`))
	})

	return r
}
