package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

type HealthHandler struct {
	db      *sql.DB
	appName string
}

func NewHealthHandler(db *sql.DB, appName string) *HealthHandler {
	return &HealthHandler{db: db, appName: appName}
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSONMessage(w, r, http.StatusOK, h.appName+" API is running")
}

// @Tags System
// @Summary Health check
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]any{
			"status": "degraded",
			"db":     map[string]any{"status": "down", "error": err.Error()},
		})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status": "ok",
		"db":     map[string]any{"status": "ok"},
	})
}
