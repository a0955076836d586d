package orders

import (
	"context"
	"time"
)

// Metrics receives order observability signals. A nil Metrics disables
// reporting; its unavailability never fails an operation.
type Metrics interface {
	FactoryLatency(d time.Duration)
	Sale(items int, revenue float64, ok bool)
}

// Service wraps menu and order business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Menu returns the full menu.
func (s *Service) Menu(ctx context.Context) ([]MenuItem, error) {
	return s.repo.Menu(ctx)
}

// AddMenuItem inserts a menu item and returns the updated full menu.
func (s *Service) AddMenuItem(ctx context.Context, item MenuItem) ([]MenuItem, error) {
	if _, err := s.repo.AddMenuItem(ctx, item); err != nil {
		return nil, err
	}
	return s.repo.Menu(ctx)
}

// History returns one page of the diner's orders.
func (s *Service) History(ctx context.Context, dinerID int64, page int) (OrderPage, error) {
	return s.repo.OrdersForDiner(ctx, dinerID, page)
}

// Place records a new order for the diner.
func (s *Service) Place(ctx context.Context, dinerID int64, order NewOrder) (Order, error) {
	return s.repo.AddDinerOrder(ctx, dinerID, order)
}
