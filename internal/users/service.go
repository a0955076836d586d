package users

import (
	"context"

	"github.com/sliceline/sliceline/internal/authz"
)

// Service wraps account business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new diner account.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	return s.repo.AddUser(ctx, NewUser{
		Name:     name,
		Email:    email,
		Password: password,
		Roles:    []RoleSpec{{Role: authz.RoleDiner}},
	})
}

// Authenticate validates email/password credentials and returns the account
// with its role grants.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	return s.repo.GetUser(ctx, email, password)
}

// Update changes the email and/or password of an account.
func (s *Service) Update(ctx context.Context, userID int64, email, password string) (User, error) {
	return s.repo.UpdateUser(ctx, userID, email, password)
}
