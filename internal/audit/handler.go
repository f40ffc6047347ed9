package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/docstack/docstack/internal/platform/httpx"
	"github.com/docstack/docstack/internal/policy"
)

// Handler exposes the decision timeline to administrators.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   policy.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard policy.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.guard.RequireAdmin())
	r.Get("/", h.timeline)
}

type entryResponse struct {
	ID           int64     `json:"id"`
	ActorID      string    `json:"actor_id"`
	ResourceKind string    `json:"resource_kind"`
	ResourceID   string    `json:"resource_id"`
	Action       string    `json:"action"`
	Outcome      string    `json:"outcome"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := TimelineFilters{
		ActorID: q.Get("actor_id"),
		Outcome: q.Get("outcome"),
	}
	if v := q.Get("page"); v != "" {
		filters.Page, _ = strconv.Atoi(v)
	}
	if v := q.Get("page_size"); v != "" {
		filters.PageSize, _ = strconv.Atoi(v)
	}
	if v := q.Get("from"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			filters.From = ts
		}
	}
	if v := q.Get("to"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			filters.To = ts
		}
	}
	page, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	entries := make([]entryResponse, len(page.Entries))
	for i, e := range page.Entries {
		entries[i] = entryResponse{
			ID:           e.ID,
			ActorID:      e.ActorID,
			ResourceKind: e.ResourceKind,
			ResourceID:   e.ResourceID,
			Action:       e.Action,
			Outcome:      e.Outcome,
			OccurredAt:   e.OccurredAt,
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries":  entries,
		"has_next": page.HasNext,
	})
}
