package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/docstack/docstack/internal/shared"
)

type stubRepo struct {
	users    map[string]*User
	sessions map[string]string
}

func newStubRepo(users ...*User) *stubRepo {
	out := &stubRepo{users: make(map[string]*User), sessions: make(map[string]string)}
	for _, u := range users {
		out.users[u.Email] = u
	}
	return out
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func hash(t *testing.T, password string) string {
	t.Helper()
	out, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(out)
}

func TestAuthenticate(t *testing.T) {
	repo := newStubRepo(&User{ID: "u1", Email: "a@b.c", Role: "user", PasswordHash: hash(t, "secret"), IsActive: true})
	svc := NewService(repo)

	user, err := svc.Authenticate(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = svc.Authenticate(context.Background(), "a@b.c", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, err = svc.Authenticate(context.Background(), "nobody@b.c", "secret")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	repo := newStubRepo(&User{ID: "u1", Email: "a@b.c", PasswordHash: hash(t, "secret"), IsActive: false})
	svc := NewService(repo)
	_, err := svc.Authenticate(context.Background(), "a@b.c", "secret")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSessionRegistry(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	require.NoError(t, svc.RegisterSession(context.Background(), "s1", "u1", time.Now().Add(time.Hour), "127.0.0.1", "test"))
	assert.Equal(t, "u1", repo.sessions["s1"])
	require.NoError(t, svc.RemoveSession(context.Background(), "s1"))
	assert.Empty(t, repo.sessions)
}
