package documents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstack/docstack/internal/policy"
)

type stubRepo struct {
	docs map[string]Document
}

func newStubRepo() *stubRepo {
	return &stubRepo{docs: make(map[string]Document)}
}

func (s *stubRepo) Create(ctx context.Context, doc Document) error {
	s.docs[doc.ID] = doc
	return nil
}

func (s *stubRepo) Get(ctx context.Context, id string) (Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (s *stubRepo) ListByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	var out []Document
	for _, doc := range s.docs {
		if doc.OwnerID == ownerID && !doc.IsDeleted() {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *stubRepo) Update(ctx context.Context, id, title, body string) error {
	doc, ok := s.docs[id]
	if !ok || doc.IsDeleted() {
		return ErrNotFound
	}
	doc.Title = title
	doc.Body = body
	doc.UpdatedAt = time.Now().UTC()
	s.docs[id] = doc
	return nil
}

func (s *stubRepo) SoftDelete(ctx context.Context, id string) error {
	doc, ok := s.docs[id]
	if !ok || doc.IsDeleted() {
		return ErrNotFound
	}
	now := time.Now().UTC()
	doc.DeletedAt = &now
	s.docs[id] = doc
	return nil
}

type stubSeeder struct {
	inputs []policy.CreateInput
}

func (s *stubSeeder) Create(ctx context.Context, in policy.CreateInput) (policy.Record, error) {
	s.inputs = append(s.inputs, in)
	return policy.Record{}, nil
}

func TestCreateSeedsOwnerGrant(t *testing.T) {
	repo := newStubRepo()
	seeder := &stubSeeder{}
	svc := NewService(repo, seeder)

	doc, err := svc.Create(context.Background(), "u1", "notes", "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "u1", doc.OwnerID)

	require.Len(t, seeder.inputs, 1)
	grant := seeder.inputs[0]
	assert.Equal(t, policy.SubjectUser, grant.SubjectKind)
	assert.Equal(t, "u1", grant.SubjectID)
	assert.Equal(t, policy.ResourceDocument, grant.ResourceKind)
	assert.Equal(t, doc.ID, grant.ResourceID)
	assert.Equal(t, policy.Actions(), grant.Actions)
	assert.Equal(t, policy.MinPriority, grant.Priority)
}

func TestCreateRequiresTitle(t *testing.T) {
	svc := NewService(newStubRepo(), nil)
	_, err := svc.Create(context.Background(), "u1", "   ", "")
	assert.ErrorIs(t, err, ErrTitleRequired)
}

func TestResourceSnapshotReflectsSoftDelete(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)
	doc, err := svc.Create(context.Background(), "u1", "notes", "")
	require.NoError(t, err)

	resource, err := svc.ResourceSnapshot(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.Resource{ID: doc.ID, OwnerID: "u1", Kind: policy.ResourceDocument}, resource)

	require.NoError(t, svc.Delete(context.Background(), doc.ID))
	resource, err = svc.ResourceSnapshot(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.True(t, resource.IsDeleted)
}

func TestDeleteLeavesPoliciesInert(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)
	doc, err := svc.Create(context.Background(), "u1", "notes", "")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), doc.ID))

	// A grant scoped to the deleted document still exists but the
	// resource precondition denies any check against it.
	resource, err := svc.ResourceSnapshot(context.Background(), doc.ID)
	require.NoError(t, err)
	actor := policy.Actor{ID: "u1", Role: "user", IsActive: true}
	_, evalErr := policy.Evaluate(actor, resource, policy.ActionRead, nil)
	assert.ErrorIs(t, evalErr, policy.ErrResourceUnavailable)
}

func TestUpdate(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)
	doc, err := svc.Create(context.Background(), "u1", "notes", "v1")
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), doc.ID, "notes v2", "v2")
	require.NoError(t, err)
	assert.Equal(t, "notes v2", updated.Title)

	_, err = svc.Update(context.Background(), doc.ID, "", "v3")
	assert.ErrorIs(t, err, ErrTitleRequired)
	_, err = svc.Update(context.Background(), "missing", "x", "")
	assert.ErrorIs(t, err, ErrNotFound)
}
