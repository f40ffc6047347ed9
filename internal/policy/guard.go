package policy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/docstack/docstack/internal/shared"
)

// ErrDenied is returned by the guard when preconditions pass but no
// applicable record grants the action.
var ErrDenied = errors.New("policy: denied")

// ActorSource resolves an actor snapshot from whatever backs user
// accounts.
type ActorSource interface {
	ActorSnapshot(ctx context.Context, id string) (Actor, error)
}

// DecisionRecorder receives the outcome of each evaluation, for
// metrics.
type DecisionRecorder interface {
	RecordDecision(action Action, outcome string)
}

// DecisionEvent describes one evaluated decision for the audit trail.
type DecisionEvent struct {
	ActorID      string
	ResourceKind ResourceKind
	ResourceID   string
	Action       Action
	Outcome      string
}

// Auditor persists decision events. Failures are logged, never
// surfaced: auditing must not change the decision.
type Auditor interface {
	RecordDecision(ctx context.Context, event DecisionEvent) error
}

// Decision outcomes as recorded by metrics and audit.
const (
	OutcomeAllow               = "allow"
	OutcomeDeny                = "deny"
	OutcomeActorInactive       = "actor_inactive"
	OutcomeResourceUnavailable = "resource_unavailable"
)

// Guard binds the pure evaluator to the application: it loads actor
// snapshots and candidate sets, evaluates, and reports outcomes to
// metrics and the audit trail. Metrics and Audit are optional.
type Guard struct {
	Policies *Service
	Actors   ActorSource
	Logger   *slog.Logger
	Metrics  DecisionRecorder
	Audit    Auditor
}

// Authorize checks whether the actor behind actorID may perform
// action on resource. It returns nil when allowed; ErrActorInactive,
// ErrResourceUnavailable, or ErrDenied otherwise. All three map to an
// access-denied response at the HTTP edge.
func (g Guard) Authorize(ctx context.Context, actorID string, resource Resource, action Action) error {
	actor, err := g.Actors.ActorSnapshot(ctx, actorID)
	if err != nil {
		return err
	}
	return g.AuthorizeActor(ctx, actor, resource, action)
}

// AuthorizeActor is Authorize for callers that already hold a
// snapshot.
func (g Guard) AuthorizeActor(ctx context.Context, actor Actor, resource Resource, action Action) error {
	candidates, err := g.candidates(ctx, actor, resource)
	if err != nil {
		return err
	}
	allowed, evalErr := Evaluate(actor, resource, action, candidates)
	outcome := OutcomeAllow
	switch {
	case errors.Is(evalErr, ErrActorInactive):
		outcome = OutcomeActorInactive
	case errors.Is(evalErr, ErrResourceUnavailable):
		outcome = OutcomeResourceUnavailable
	case !allowed:
		outcome = OutcomeDeny
	}
	g.report(ctx, actor, resource, action, outcome)
	if evalErr != nil {
		return evalErr
	}
	if !allowed {
		return ErrDenied
	}
	return nil
}

// ActionsFor returns the granted action set for the actor on the
// resource, loading candidates the same way Authorize does.
func (g Guard) ActionsFor(ctx context.Context, actor Actor, resource Resource) ([]Action, error) {
	candidates, err := g.candidates(ctx, actor, resource)
	if err != nil {
		return nil, err
	}
	return GrantedActions(actor, resource, candidates), nil
}

func (g Guard) candidates(ctx context.Context, actor Actor, resource Resource) ([]Record, error) {
	// Admins and failed preconditions never inspect records; skip the
	// load for those paths.
	if !actor.IsActive || resource.IsDeleted || actor.IsAdmin() {
		return nil, nil
	}
	return g.Policies.CandidatesFor(ctx, resource.Kind, resource.ID)
}

func (g Guard) report(ctx context.Context, actor Actor, resource Resource, action Action, outcome string) {
	if g.Metrics != nil {
		g.Metrics.RecordDecision(action, outcome)
	}
	if g.Audit != nil {
		event := DecisionEvent{
			ActorID:      actor.ID,
			ResourceKind: resource.Kind,
			ResourceID:   resource.ID,
			Action:       action,
			Outcome:      outcome,
		}
		if err := g.Audit.RecordDecision(ctx, event); err != nil && g.Logger != nil {
			g.Logger.Warn("record decision", slog.Any("error", err))
		}
	}
}

// CurrentActor resolves the actor snapshot for the session bound to
// the request.
func (g Guard) CurrentActor(r *http.Request) (Actor, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return Actor{}, false
	}
	id := strings.TrimSpace(sess.User())
	if id == "" {
		return Actor{}, false
	}
	actor, err := g.Actors.ActorSnapshot(r.Context(), id)
	if err != nil {
		if g.Logger != nil {
			g.Logger.Error("load actor snapshot", slog.Any("error", err))
		}
		return Actor{}, false
	}
	return actor, true
}

// Require guards a route group with a kind-global check: the request
// proceeds only when the session actor may perform action on
// resources of the given kind at large.
func (g Guard) Require(action Action, kind ResourceKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := g.CurrentActor(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if err := g.AuthorizeActor(r.Context(), actor, Resource{Kind: kind}, action); err != nil {
				if IsPrecondition(err) || errors.Is(err, ErrDenied) {
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
				if g.Logger != nil {
					g.Logger.Error("authorize", slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin guards a route group for administrators only.
func (g Guard) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := g.CurrentActor(r)
			if !ok || !actor.IsActive || !actor.IsAdmin() {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
