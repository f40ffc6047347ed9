package documents

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/docstack/docstack/internal/platform/httpx"
	"github.com/docstack/docstack/internal/policy"
)

// Handler manages document endpoints. Every route resolves the
// session actor and a resource snapshot, then asks the guard; a
// precondition failure and a missing grant both come back as 403.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    policy.Guard
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard policy.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validate: validator.New()}
}

// MountRoutes registers document routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listOwned)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Get("/{id}/permissions", h.permissions)
}

type documentRequest struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body"`
}

type documentResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toResponse(d Document) documentResponse {
	return documentResponse{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		Title:     d.Title,
		Body:      d.Body,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.guard.CurrentActor(r)
	if !ok || !actor.IsActive {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	var req documentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	doc, err := h.service.Create(r.Context(), actor.ID, req.Title, req.Body)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(doc))
}

func (h *Handler) listOwned(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.guard.CurrentActor(r)
	if !ok || !actor.IsActive {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	docs, err := h.service.ListOwned(r.Context(), actor.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]documentResponse, len(docs))
	for i, d := range docs {
		out[i] = toResponse(d)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.authorized(w, r, policy.ActionRead)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(doc))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.authorized(w, r, policy.ActionWrite)
	if !ok {
		return
	}
	var req documentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.Update(r.Context(), doc.ID, req.Title, req.Body)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.authorized(w, r, policy.ActionDelete)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), doc.ID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// permissions reports the actions the current actor holds on the
// document, computed from the applicable set in one pass.
func (h *Handler) permissions(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.guard.CurrentActor(r)
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	resource, err := h.service.ResourceSnapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	actions, err := h.guard.ActionsFor(r.Context(), actor, resource)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"document_id": resource.ID,
		"is_owner":    policy.IsOwner(actor, resource),
		"actions":     actions,
	})
}

// authorized resolves the document behind {id} and checks action
// against the guard, writing the failure response itself when the
// check does not pass.
func (h *Handler) authorized(w http.ResponseWriter, r *http.Request, action policy.Action) (Document, bool) {
	actor, ok := h.guard.CurrentActor(r)
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return Document{}, false
	}
	id := chi.URLParam(r, "id")
	doc, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return Document{}, false
	}
	resource := policy.Resource{ID: doc.ID, OwnerID: doc.OwnerID, Kind: policy.ResourceDocument, IsDeleted: doc.IsDeleted()}
	if err := h.guard.AuthorizeActor(r.Context(), actor, resource, action); err != nil {
		if policy.IsPrecondition(err) || errors.Is(err, policy.ErrDenied) {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
			return Document{}, false
		}
		h.logger.Error("authorize document", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return Document{}, false
	}
	return doc, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "document does not exist")
	case errors.Is(err, ErrTitleRequired):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("documents handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
