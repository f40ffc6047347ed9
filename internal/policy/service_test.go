package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	records map[string]Record

	createErr error
	listCalls int
}

func newStubRepo() *stubRepo {
	return &stubRepo{records: make(map[string]Record)}
}

func (s *stubRepo) Create(ctx context.Context, rec Record) error {
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.records {
		if existing.Name() == rec.Name() {
			return ErrDuplicateName
		}
	}
	s.records[rec.ID()] = rec
	return nil
}

func (s *stubRepo) Update(ctx context.Context, rec Record) error {
	if _, ok := s.records[rec.ID()]; !ok {
		return ErrNotFound
	}
	s.records[rec.ID()] = rec
	return nil
}

func (s *stubRepo) Get(ctx context.Context, id string) (Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *stubRepo) Delete(ctx context.Context, id string) error {
	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *stubRepo) List(ctx context.Context) ([]Record, error) {
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out, nil
}

func (s *stubRepo) ListForResource(ctx context.Context, kind ResourceKind, resourceID string) ([]Record, error) {
	s.listCalls++
	var out []Record
	for _, rec := range s.records {
		if rec.ResourceKind() == kind && (rec.IsGlobal() || rec.ResourceID() == resourceID) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func validCreateInput() CreateInput {
	return CreateInput{
		Name:         "doc readers",
		Description:  "read d1",
		SubjectKind:  SubjectUser,
		SubjectID:    "u1",
		ResourceKind: ResourceDocument,
		ResourceID:   "d1",
		Actions:      []Action{ActionRead},
		Priority:     100,
	}
}

func TestServiceCreateAssignsIDAndActivates(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)

	rec, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID())
	assert.True(t, rec.IsActive())
	assert.False(t, rec.CreatedAt().IsZero())

	stored, err := repo.Get(context.Background(), rec.ID())
	require.NoError(t, err)
	assert.Equal(t, rec.Fields(), stored.Fields())
}

func TestServiceCreateRejectsInvalidInput(t *testing.T) {
	svc := NewService(newStubRepo(), nil)

	in := validCreateInput()
	in.Actions = nil
	_, err := svc.Create(context.Background(), in)
	assert.True(t, IsValidation(err))

	in = validCreateInput()
	in.Priority = 0
	_, err = svc.Create(context.Background(), in)
	assert.True(t, IsValidation(err))
}

func TestServiceCreateDuplicateName(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)
	_, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), validCreateInput())
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestServiceReplaceActions(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)
	rec, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	next, err := svc.ReplaceActions(context.Background(), rec.ID(), []Action{ActionRead, ActionManage})
	require.NoError(t, err)
	assert.Equal(t, []Action{ActionRead, ActionManage}, next.Actions())

	stored, err := repo.Get(context.Background(), rec.ID())
	require.NoError(t, err)
	assert.True(t, stored.GrantsAction(ActionManage))

	_, err = svc.ReplaceActions(context.Background(), rec.ID(), nil)
	assert.True(t, IsValidation(err))
	_, err = svc.ReplaceActions(context.Background(), "missing", []Action{ActionRead})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceActivateDeactivate(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)
	rec, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	off, err := svc.Deactivate(context.Background(), rec.ID())
	require.NoError(t, err)
	assert.False(t, off.IsActive())

	on, err := svc.Activate(context.Background(), rec.ID())
	require.NoError(t, err)
	assert.True(t, on.IsActive())
}

func TestServiceDelete(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)
	rec, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), rec.ID()))
	assert.ErrorIs(t, svc.Delete(context.Background(), rec.ID()), ErrNotFound)
}

func TestServiceCandidatesForWithoutCache(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)
	rec, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	candidates, err := svc.CandidatesFor(context.Background(), ResourceDocument, "d1")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, rec.ID(), candidates[0].ID())

	candidates, err = svc.CandidatesFor(context.Background(), ResourceDocument, "d2")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
