package documents

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested document does not exist.
var ErrNotFound = errors.New("documents: not found")

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const documentColumns = `id, owner_id, title, body, deleted_at, created_at, updated_at`

// Create inserts a new document.
func (r *Repository) Create(ctx context.Context, doc Document) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		doc.ID, doc.OwnerID, doc.Title, doc.Body, doc.DeletedAt, doc.CreatedAt, doc.UpdatedAt)
	return err
}

// Get fetches one document by ID, soft-deleted ones included; the
// caller decides what a deleted document means.
func (r *Repository) Get(ctx context.Context, id string) (Document, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id=$1`, id)
	var d Document
	if err := row.Scan(&d.ID, &d.OwnerID, &d.Title, &d.Body, &d.DeletedAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return d, nil
}

// ListByOwner returns the live documents owned by one user.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE owner_id=$1 AND deleted_at IS NULL ORDER BY updated_at DESC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Title, &d.Body, &d.DeletedAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces title and body on a live document.
func (r *Repository) Update(ctx context.Context, id, title, body string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE documents SET title=$2, body=$3, updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`,
		id, title, body)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks a document deleted.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE documents SET deleted_at=NOW(), updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
