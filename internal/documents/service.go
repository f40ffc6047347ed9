package documents

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docstack/docstack/internal/policy"
)

// ErrTitleRequired is returned when a document is created or updated
// without a title.
var ErrTitleRequired = errors.New("documents: title required")

// RepositoryPort defines data access methods for documents.
type RepositoryPort interface {
	Create(ctx context.Context, doc Document) error
	Get(ctx context.Context, id string) (Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Document, error)
	Update(ctx context.Context, id, title, body string) error
	SoftDelete(ctx context.Context, id string) error
}

// PolicySeeder creates the owner grant when a document is born. The
// evaluator itself never grants by ownership, so the grant has to
// exist as a record.
type PolicySeeder interface {
	Create(ctx context.Context, in policy.CreateInput) (policy.Record, error)
}

// Service handles document business logic.
type Service struct {
	repo     RepositoryPort
	policies PolicySeeder
}

// NewService builds Service instance. policies may be nil, in which
// case no owner grant is seeded.
func NewService(repo RepositoryPort, policies PolicySeeder) *Service {
	return &Service{repo: repo, policies: policies}
}

// Create stores a new document owned by ownerID and seeds a
// highest-precedence policy granting the owner every action on it.
func (s *Service) Create(ctx context.Context, ownerID, title, body string) (Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Document{}, ErrTitleRequired
	}
	now := time.Now().UTC()
	doc := Document{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}
	if s.policies != nil {
		_, err := s.policies.Create(ctx, policy.CreateInput{
			Name:         "owner of document " + doc.ID,
			Description:  "seeded owner grant",
			SubjectKind:  policy.SubjectUser,
			SubjectID:    ownerID,
			ResourceKind: policy.ResourceDocument,
			ResourceID:   doc.ID,
			Actions:      policy.Actions(),
			Priority:     policy.MinPriority,
		})
		if err != nil {
			return Document{}, err
		}
	}
	return doc, nil
}

// Get returns one document.
func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	return s.repo.Get(ctx, id)
}

// ListOwned returns the live documents owned by one user.
func (s *Service) ListOwned(ctx context.Context, ownerID string) ([]Document, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Update replaces title and body.
func (s *Service) Update(ctx context.Context, id, title, body string) (Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Document{}, ErrTitleRequired
	}
	if err := s.repo.Update(ctx, id, title, body); err != nil {
		return Document{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete soft-deletes the document. Policies scoped to it are left in
// place; the evaluator's resource precondition makes them inert.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.SoftDelete(ctx, id)
}

// ResourceSnapshot produces the evaluator's view of a document.
func (s *Service) ResourceSnapshot(ctx context.Context, id string) (policy.Resource, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return policy.Resource{}, err
	}
	return policy.Resource{
		ID:        doc.ID,
		OwnerID:   doc.OwnerID,
		Kind:      policy.ResourceDocument,
		IsDeleted: doc.IsDeleted(),
	}, nil
}
