package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"restkit/internal/interfaces"
	"restkit/internal/models"
	"restkit/internal/repository"
)

type FooHandler struct {
	repo      interfaces.FooRepository
	validator *validator.Validate
	log       *slog.Logger
}

func NewFooHandler(repo interfaces.FooRepository, log *slog.Logger) *FooHandler {
	return &FooHandler{
		repo:      repo,
		validator: validator.New(),
		log:       log,
	}
}

func fooID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "Foo ID must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *FooHandler) notFoundOr(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeJSONError(w, r, http.StatusNotFound, "foo_not_found", "Foo not found")
		return
	}
	log.Error("foo request failed", slog.String("error", err.Error()))
	writeJSONError(w, r, http.StatusInternalServerError, "internal_error", "Internal server error")
}

// @Tags Foo
// @Summary List foo
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/foo/ [get]
func (h *FooHandler) List(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.FooHandler.List")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	foos, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		h.notFoundOr(w, r, log, err)
		return
	}
	total, err := h.repo.Count(r.Context())
	if err != nil {
		h.notFoundOr(w, r, log, err)
		return
	}
	if foos == nil {
		foos = []models.Foo{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"data": foos, "total": total})
}

// @Tags Foo
// @Summary Find foo
// @Security BearerAuth
// @Produce json
// @Param id path int true "Foo ID"
// @Success 200 {object} models.Foo
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/foo/find/{id} [get]
func (h *FooHandler) Find(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.FooHandler.Find")

	id, ok := fooID(w, r)
	if !ok {
		return
	}
	foo, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.notFoundOr(w, r, log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, foo)
}

// @Tags Foo
// @Summary Create foo
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.CreateFooRequest true "Foo"
// @Success 201 {object} models.Foo
// @Router /api/v1/foo/register [post]
func (h *FooHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.FooHandler.Create")

	var req models.CreateFooRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	foo := &models.Foo{
		Name:        req.Name,
		Description: req.Description,
		Value:       *req.Value,
		Status:      true,
	}
	if err := h.repo.Create(r.Context(), foo); err != nil {
		h.notFoundOr(w, r, log, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, foo)
}

// @Tags Foo
// @Summary Update foo
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Foo ID"
// @Param body body models.UpdateFooRequest true "Foo"
// @Success 200 {object} models.Foo
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/foo/update/{id} [put]
func (h *FooHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.FooHandler.Update")

	id, ok := fooID(w, r)
	if !ok {
		return
	}

	var req models.UpdateFooRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	if err := h.repo.Update(r.Context(), id, &req); err != nil {
		h.notFoundOr(w, r, log, err)
		return
	}

	foo, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.notFoundOr(w, r, log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, foo)
}

// @Tags Foo
// @Summary Toggle foo status
// @Security BearerAuth
// @Produce json
// @Param id path int true "Foo ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/foo/toggle-status/{id} [patch]
func (h *FooHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.FooHandler.ToggleStatus")

	id, ok := fooID(w, r)
	if !ok {
		return
	}
	status, err := h.repo.ToggleStatus(r.Context(), id)
	if err != nil {
		h.notFoundOr(w, r, log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"id": id, "status": status})
}

// @Tags Foo
// @Summary Delete foo
// @Security BearerAuth
// @Produce json
// @Param id path int true "Foo ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/foo/delete/{id} [delete]
func (h *FooHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.FooHandler.Delete")

	id, ok := fooID(w, r)
	if !ok {
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.notFoundOr(w, r, log, err)
		return
	}
	writeJSONMessage(w, r, http.StatusOK, "Foo deleted")
}
