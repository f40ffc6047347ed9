package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed access to decision_audit.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListWindow returns a slice of the trail, newest first.
func (r *Repository) ListWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, error) {
	query := `SELECT id, actor_id, resource_kind, resource_id, action, outcome, occurred_at FROM decision_audit WHERE 1=1`
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if filters.ActorID != "" {
		query += ` AND actor_id=` + arg(filters.ActorID)
	}
	if filters.Outcome != "" {
		query += ` AND outcome=` + arg(filters.Outcome)
	}
	if !filters.From.IsZero() {
		query += ` AND occurred_at >= ` + arg(filters.From)
	}
	if !filters.To.IsZero() {
		query += ` AND occurred_at <= ` + arg(filters.To)
	}
	query += ` ORDER BY occurred_at DESC, id DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ResourceKind, &e.ResourceID, &e.Action, &e.Outcome, &e.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteBefore drops entries older than the cutoff.
func (r *Repository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM decision_audit WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
