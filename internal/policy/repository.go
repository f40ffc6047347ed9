package policy

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for policy
// records. Rows are rebuilt through NewRecord, so anything read back
// has passed the same validation as anything written.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const recordColumns = `id, name, description, subject_kind, subject_id, resource_kind, resource_id, actions, is_active, priority, created_at, updated_at`

// Create inserts a new policy record.
func (r *Repository) Create(ctx context.Context, rec Record) error {
	f := rec.Fields()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO policies (`+recordColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		f.ID, f.Name, f.Description, string(f.SubjectKind), f.SubjectID, string(f.ResourceKind),
		nullable(f.ResourceID), actionStrings(f.Actions), f.IsActive, f.Priority, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_policies_name" {
			return ErrDuplicateName
		}
		return err
	}
	return nil
}

// Update persists a transformed record over the stored one.
func (r *Repository) Update(ctx context.Context, rec Record) error {
	f := rec.Fields()
	tag, err := r.pool.Exec(ctx,
		`UPDATE policies SET name=$2, description=$3, actions=$4, is_active=$5, priority=$6, updated_at=$7 WHERE id=$1`,
		f.ID, f.Name, f.Description, actionStrings(f.Actions), f.IsActive, f.Priority, f.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get fetches a record by ID.
func (r *Repository) Get(ctx context.Context, id string) (Record, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM policies WHERE id=$1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// Delete removes a record by ID. Returns ErrNotFound if nothing was
// deleted.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM policies WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every record ordered by precedence then ID.
func (r *Repository) List(ctx context.Context) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+recordColumns+` FROM policies ORDER BY priority, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

// ListForResource returns the candidate set for one resource: records
// scoped to that instance plus global records of the same kind. The
// evaluator re-filters by subject and active flag.
func (r *Repository) ListForResource(ctx context.Context, kind ResourceKind, resourceID string) ([]Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM policies WHERE resource_kind=$1 AND (resource_id IS NULL OR resource_id=$2) ORDER BY priority, id`,
		string(kind), resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		f          RecordFields
		kind       string
		resKind    string
		resourceID *string
		actions    []string
		createdAt  time.Time
		updatedAt  time.Time
	)
	if err := row.Scan(&f.ID, &f.Name, &f.Description, &kind, &f.SubjectID, &resKind,
		&resourceID, &actions, &f.IsActive, &f.Priority, &createdAt, &updatedAt); err != nil {
		return Record{}, err
	}
	subjectKind, err := ParseSubjectKind(kind)
	if err != nil {
		return Record{}, err
	}
	resourceKind, err := ParseResourceKind(resKind)
	if err != nil {
		return Record{}, err
	}
	f.SubjectKind = subjectKind
	f.ResourceKind = resourceKind
	if resourceID != nil {
		f.ResourceID = *resourceID
	}
	f.Actions = make([]Action, 0, len(actions))
	for _, a := range actions {
		parsed, err := ParseAction(a)
		if err != nil {
			return Record{}, err
		}
		f.Actions = append(f.Actions, parsed)
	}
	f.CreatedAt = createdAt
	f.UpdatedAt = updatedAt
	return NewRecord(f)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func actionStrings(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}
