package policy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// RepositoryPort defines data access methods for policy records.
type RepositoryPort interface {
	Create(ctx context.Context, rec Record) error
	Update(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Record, error)
	ListForResource(ctx context.Context, kind ResourceKind, resourceID string) ([]Record, error)
}

// Service orchestrates policy administration and candidate loading.
// All validation goes through NewRecord and the Record
// transformations; the service never assembles an unchecked record.
type Service struct {
	repo  RepositoryPort
	cache *CandidateCache
	group singleflight.Group
}

// NewService builds a Service instance. cache may be nil.
func NewService(repo RepositoryPort, cache *CandidateCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// CreateInput carries the fields an administrator supplies for a new
// record.
type CreateInput struct {
	Name         string
	Description  string
	SubjectKind  SubjectKind
	SubjectID    string
	ResourceKind ResourceKind
	ResourceID   string
	Actions      []Action
	Priority     int
}

// Create validates and persists a new active record.
func (s *Service) Create(ctx context.Context, in CreateInput) (Record, error) {
	now := time.Now().UTC()
	rec, err := NewRecord(RecordFields{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Description:  in.Description,
		SubjectKind:  in.SubjectKind,
		SubjectID:    in.SubjectID,
		ResourceKind: in.ResourceKind,
		ResourceID:   in.ResourceID,
		Actions:      in.Actions,
		IsActive:     true,
		Priority:     in.Priority,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Record{}, err
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return Record{}, err
	}
	s.invalidate(ctx, rec)
	return rec, nil
}

// Get fetches one record.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	return s.repo.Get(ctx, id)
}

// List returns every record ordered by precedence.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.repo.List(ctx)
}

// Delete removes a record and drops affected cache entries.
func (s *Service) Delete(ctx context.Context, id string) error {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, rec)
	return nil
}

// ReplaceActions swaps the action set on a stored record.
func (s *Service) ReplaceActions(ctx context.Context, id string, actions []Action) (Record, error) {
	return s.transform(ctx, id, func(rec Record) (Record, error) {
		return rec.WithActions(actions)
	})
}

// SetPriority changes the precedence number on a stored record.
func (s *Service) SetPriority(ctx context.Context, id string, priority int) (Record, error) {
	return s.transform(ctx, id, func(rec Record) (Record, error) {
		return rec.WithPriority(priority)
	})
}

// Activate enables a stored record.
func (s *Service) Activate(ctx context.Context, id string) (Record, error) {
	return s.transform(ctx, id, func(rec Record) (Record, error) {
		return rec.Activate(), nil
	})
}

// Deactivate disables a stored record without deleting it.
func (s *Service) Deactivate(ctx context.Context, id string) (Record, error) {
	return s.transform(ctx, id, func(rec Record) (Record, error) {
		return rec.Deactivate(), nil
	})
}

func (s *Service) transform(ctx context.Context, id string, fn func(Record) (Record, error)) (Record, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	next, err := fn(rec)
	if err != nil {
		return Record{}, err
	}
	if err := s.repo.Update(ctx, next); err != nil {
		return Record{}, err
	}
	s.invalidate(ctx, next)
	return next, nil
}

// CandidatesFor loads the candidate set for one resource, via the
// cache when possible. Concurrent loads for the same resource are
// collapsed to a single repository query.
func (s *Service) CandidatesFor(ctx context.Context, kind ResourceKind, resourceID string) ([]Record, error) {
	if records, ok, err := s.cache.Get(ctx, kind, resourceID); err == nil && ok {
		return records, nil
	}
	value, err, _ := s.group.Do(candidateKey(kind, resourceID), func() (any, error) {
		records, err := s.repo.ListForResource(ctx, kind, resourceID)
		if err != nil {
			return nil, err
		}
		_ = s.cache.Set(ctx, kind, resourceID, records)
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	records, _ := value.([]Record)
	return records, nil
}

func (s *Service) invalidate(ctx context.Context, rec Record) {
	if rec.IsGlobal() {
		_ = s.cache.InvalidateKind(ctx, rec.ResourceKind())
		return
	}
	_ = s.cache.Invalidate(ctx, rec.ResourceKind(), rec.ResourceID())
}
