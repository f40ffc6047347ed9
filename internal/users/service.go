package users

import (
	"context"

	"github.com/docstack/docstack/internal/policy"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	SetUserActive(ctx context.Context, id string, active bool) error
}

// Service handles account logic and produces the snapshots the policy
// evaluator consumes.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// Activate re-enables an account.
func (s *Service) Activate(ctx context.Context, id string) error {
	return s.repo.SetUserActive(ctx, id, true)
}

// Deactivate disables an account. The evaluator then fails its
// actor-inactive precondition for every check this user makes.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.repo.SetUserActive(ctx, id, false)
}

// ActorSnapshot produces the evaluator's view of the acting user.
func (s *Service) ActorSnapshot(ctx context.Context, id string) (policy.Actor, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return policy.Actor{}, err
	}
	return policy.Actor{ID: u.ID, Role: u.Role, IsActive: u.IsActive}, nil
}

// ResourceSnapshot produces the evaluator's view of a user record as
// the target of an action. A user record owns itself; deactivation is
// an actor concern, so the record is never reported deleted.
func (s *Service) ResourceSnapshot(ctx context.Context, id string) (policy.Resource, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return policy.Resource{}, err
	}
	return policy.Resource{ID: u.ID, OwnerID: u.ID, Kind: policy.ResourceUser}, nil
}
