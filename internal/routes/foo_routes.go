package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"restkit/internal/config"
	"restkit/internal/handlers"
	"restkit/internal/middleware"
	"restkit/internal/repository"
)

func RegisterFooRoutes(router chi.Router, db *sql.DB, cfg *config.Config, deps Deps) {
	h := handlers.NewFooHandler(repository.NewFooRepository(db), deps.Log)

	router.Route("/foo", func(r chi.Router) {
		r.Use(middleware.JWTAuth(cfg.JWTSecret))

		r.With(middleware.RequireScope("read:foo")).Get("/", h.List)
		r.With(middleware.RequireScope("read:foo")).Get("/find/{id}", h.Find)
		r.With(middleware.RequireScope("write:foo")).Post("/register", h.Create)
		r.With(middleware.RequireScope("update:foo")).Put("/update/{id}", h.Update)
		r.With(middleware.RequireScope("update:foo")).Patch("/toggle-status/{id}", h.ToggleStatus)
		r.With(middleware.RequireScope("delete:foo")).Delete("/delete/{id}", h.Delete)
	})
}
