// Package audit records every evaluated access decision in an
// append-only trail and exposes it for review.
package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docstack/docstack/internal/policy"
)

// Entry is one row of the decision trail.
type Entry struct {
	ID           int64
	ActorID      string
	ResourceKind string
	ResourceID   string
	Action       string
	Outcome      string
	OccurredAt   time.Time
}

// Logger writes decision events into decision_audit. It satisfies
// policy.Auditor.
type Logger struct {
	pool *pgxpool.Pool
}

// NewLogger returns a new Logger.
func NewLogger(pool *pgxpool.Pool) *Logger {
	return &Logger{pool: pool}
}

// RecordDecision persists one decision event.
func (l *Logger) RecordDecision(ctx context.Context, event policy.DecisionEvent) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO decision_audit (actor_id, resource_kind, resource_id, action, outcome, occurred_at) VALUES ($1,$2,$3,$4,$5,NOW())`,
		event.ActorID, string(event.ResourceKind), event.ResourceID, string(event.Action), event.Outcome)
	return err
}
