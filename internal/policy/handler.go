package policy

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/docstack/docstack/internal/platform/httpx"
)

// Handler exposes the policy administration JSON API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    Guard
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard Guard) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		guard:    guard,
		validate: validator.New(),
	}
}

// MountRoutes registers policy routes. Administration is admin-only;
// the evaluator's admin bypass makes any finer-grained policy on the
// policy store itself redundant.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.guard.RequireAdmin())
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.remove)
	r.Put("/{id}/actions", h.replaceActions)
	r.Put("/{id}/priority", h.setPriority)
	r.Post("/{id}/activate", h.activate)
	r.Post("/{id}/deactivate", h.deactivate)
}

type createRequest struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description"`
	SubjectKind  string   `json:"subject_kind" validate:"required,oneof=user role"`
	SubjectID    string   `json:"subject_id" validate:"required"`
	ResourceKind string   `json:"resource_kind" validate:"required,oneof=document user"`
	ResourceID   string   `json:"resource_id"`
	Actions      []string `json:"actions" validate:"required,min=1,dive,oneof=read write delete manage"`
	Priority     int      `json:"priority" validate:"required,min=1,max=1000"`
}

type actionsRequest struct {
	Actions []string `json:"actions" validate:"required,min=1,dive,oneof=read write delete manage"`
}

type priorityRequest struct {
	Priority int `json:"priority" validate:"required,min=1,max=1000"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rec, err := h.service.Create(r.Context(), CreateInput{
		Name:         req.Name,
		Description:  req.Description,
		SubjectKind:  SubjectKind(req.SubjectKind),
		SubjectID:    req.SubjectID,
		ResourceKind: ResourceKind(req.ResourceKind),
		ResourceID:   req.ResourceID,
		Actions:      parseActions(req.Actions),
		Priority:     req.Priority,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec.Fields())
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]RecordFields, len(records))
	for i, rec := range records {
		out[i] = rec.Fields()
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec.Fields())
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) replaceActions(w http.ResponseWriter, r *http.Request) {
	var req actionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rec, err := h.service.ReplaceActions(r.Context(), chi.URLParam(r, "id"), parseActions(req.Actions))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec.Fields())
}

func (h *Handler) setPriority(w http.ResponseWriter, r *http.Request) {
	var req priorityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rec, err := h.service.SetPriority(r.Context(), chi.URLParam(r, "id"), req.Priority)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec.Fields())
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Activate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec.Fields())
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Deactivate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec.Fields())
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "policy does not exist")
	case errors.Is(err, ErrDuplicateName):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "a policy with that name already exists")
	case IsValidation(err):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("policy handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func parseActions(raw []string) []Action {
	out := make([]Action, len(raw))
	for i, a := range raw {
		out[i] = Action(a)
	}
	return out
}
