package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstack/docstack/internal/policy"
)

type stubRepo struct {
	users map[string]User
}

func newStubRepo(users ...User) *stubRepo {
	out := &stubRepo{users: make(map[string]User)}
	for _, u := range users {
		out.users[u.ID] = u
	}
	return out
}

func (s *stubRepo) GetUser(ctx context.Context, id string) (User, error) {
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *stubRepo) SetUserActive(ctx context.Context, id string, active bool) error {
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	s.users[id] = u
	return nil
}

func TestActorSnapshot(t *testing.T) {
	svc := NewService(newStubRepo(User{ID: "u1", Role: "editor", IsActive: true}))
	actor, err := svc.ActorSnapshot(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, policy.Actor{ID: "u1", Role: "editor", IsActive: true}, actor)

	_, err = svc.ActorSnapshot(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResourceSnapshotOwnsItself(t *testing.T) {
	svc := NewService(newStubRepo(User{ID: "u1", Role: "user", IsActive: false}))
	resource, err := svc.ResourceSnapshot(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, policy.Resource{ID: "u1", OwnerID: "u1", Kind: policy.ResourceUser}, resource)
	assert.False(t, resource.IsDeleted, "deactivation is an actor concern, not a resource one")
}

func TestActivateDeactivate(t *testing.T) {
	repo := newStubRepo(User{ID: "u1", IsActive: true})
	svc := NewService(repo)

	require.NoError(t, svc.Deactivate(context.Background(), "u1"))
	actor, err := svc.ActorSnapshot(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, actor.IsActive)

	require.NoError(t, svc.Activate(context.Background(), "u1"))
	actor, err = svc.ActorSnapshot(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, actor.IsActive)

	assert.ErrorIs(t, svc.Activate(context.Background(), "missing"), ErrNotFound)
}
