package franchise

import (
	"context"

	"github.com/sliceline/sliceline/internal/authz"
)

// Service wraps franchise business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the franchise listing shaped for the caller: platform admins
// get the fully resolved view, everyone else the public summary.
func (s *Service) List(ctx context.Context, grants []authz.RoleGrant) (any, error) {
	if authz.IsAdmin(grants) {
		return s.repo.ListDetailed(ctx)
	}
	return s.repo.ListSummaries(ctx)
}

// ForUser returns the franchises a user administers.
func (s *Service) ForUser(ctx context.Context, userID int64) ([]Franchise, error) {
	return s.repo.UserFranchises(ctx, userID)
}

// Get returns one franchise in full detail.
func (s *Service) Get(ctx context.Context, franchiseID int64) (Franchise, error) {
	return s.repo.GetDetail(ctx, franchiseID)
}

// Create inserts a new franchise with its admins.
func (s *Service) Create(ctx context.Context, nf NewFranchise) (Franchise, error) {
	return s.repo.Create(ctx, nf)
}

// Delete removes a franchise atomically with its stores and grants.
func (s *Service) Delete(ctx context.Context, franchiseID int64) error {
	return s.repo.Delete(ctx, franchiseID)
}

// CreateStore adds a store under a franchise.
func (s *Service) CreateStore(ctx context.Context, franchiseID int64, name string) (Store, error) {
	return s.repo.CreateStore(ctx, franchiseID, name)
}

// DeleteStore removes a store.
func (s *Service) DeleteStore(ctx context.Context, franchiseID, storeID int64) error {
	return s.repo.DeleteStore(ctx, franchiseID, storeID)
}
