package inventory

import "context"

// ReaderPort abstracts repository usage for service.
type ReaderPort interface {
	Warehouse(ctx context.Context) ([]WarehouseRow, error)
	StockFor(ctx context.Context, productID int64) (float64, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)
}

// Service exposes the derived warehouse view and the movement ledger.
type Service struct {
	repo ReaderPort
}

// NewService builds Service.
func NewService(repo ReaderPort) *Service {
	return &Service{repo: repo}
}

// GetWarehouse returns the per-product stock and valuation view.
func (s *Service) GetWarehouse(ctx context.Context) ([]WarehouseRow, error) {
	return s.repo.Warehouse(ctx)
}

// CurrentStock returns the signed stock sum for one product.
func (s *Service) CurrentStock(ctx context.Context, productID int64) (float64, error) {
	return s.repo.StockFor(ctx, productID)
}

// ListMovements returns ledger entries, newest first.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	return s.repo.ListMovements(ctx, filter)
}
