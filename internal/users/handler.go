package users

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/docstack/docstack/internal/platform/httpx"
	"github.com/docstack/docstack/internal/policy"
)

// Handler manages user administration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   policy.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard policy.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(policy.ActionRead, policy.ResourceUser))
		r.Get("/", h.list)
	})
	r.Get("/{id}", h.get)
	r.Post("/{id}/activate", h.setActive(true))
	r.Post("/{id}/deactivate", h.setActive(false))
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toResponse(u User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]userResponse, len(list))
	for i, u := range list {
		out[i] = toResponse(u)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actor, ok := h.guard.CurrentActor(r)
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	resource, err := h.service.ResourceSnapshot(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	// A user may always read their own record; anyone else needs a
	// read grant on user records.
	if !policy.IsOwner(actor, resource) {
		if err := h.guard.AuthorizeActor(r.Context(), actor, resource, policy.ActionRead); err != nil {
			h.respondAuthError(w, err)
			return
		}
	}
	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(u))
}

func (h *Handler) setActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		actor, ok := h.guard.CurrentActor(r)
		if !ok {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
			return
		}
		resource, err := h.service.ResourceSnapshot(r.Context(), id)
		if err != nil {
			h.respondError(w, err)
			return
		}
		if err := h.guard.AuthorizeActor(r.Context(), actor, resource, policy.ActionManage); err != nil {
			h.respondAuthError(w, err)
			return
		}
		if active {
			err = h.service.Activate(r.Context(), id)
		} else {
			err = h.service.Deactivate(r.Context(), id)
		}
		if err != nil {
			h.respondError(w, err)
			return
		}
		u, err := h.service.Get(r.Context(), id)
		if err != nil {
			h.respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, toResponse(u))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "user does not exist")
		return
	}
	h.logger.Error("users handler", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

func (h *Handler) respondAuthError(w http.ResponseWriter, err error) {
	if policy.IsPrecondition(err) || errors.Is(err, policy.ErrDenied) {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	h.logger.Error("users authorize", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
