package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vendinha-erp/vendinha-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Create(ctx context.Context, input CreateInput) (Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	List(ctx context.Context, status, category string) ([]Product, error)
	Update(ctx context.Context, id int64, input UpdateInput) (Product, error)
	Delete(ctx context.Context, id int64) error
}

// Service coordinates catalog operations.
type Service struct {
	repo  RepositoryPort
	audit shared.AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit shared.AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create registers a product. New products start at zero unit cost; the
// first purchase receipt or batch completion sets the real cost.
func (s *Service) Create(ctx context.Context, actorID int64, input CreateInput) (Product, error) {
	if err := validateFields(input.Name, input.Category, input.PriceUnit, input.DepositValue); err != nil {
		return Product{}, err
	}
	product, err := s.repo.Create(ctx, input)
	if err != nil {
		return Product{}, err
	}
	s.record(ctx, actorID, "catalog.create", product.ID, map[string]any{"name": product.Name})
	return product, nil
}

// Get fetches one product.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

// List returns products matching the optional status and category filters.
func (s *Service) List(ctx context.Context, status, category string) ([]Product, error) {
	return s.repo.List(ctx, status, category)
}

// Update rewrites the mutable fields of a product.
func (s *Service) Update(ctx context.Context, actorID, id int64, input UpdateInput) (Product, error) {
	if err := validateFields(input.Name, input.Category, input.PriceUnit, input.DepositValue); err != nil {
		return Product{}, err
	}
	if input.Status != StatusActive && input.Status != StatusInactive {
		return Product{}, fmt.Errorf("%w: status must be ACTIVE or INACTIVE", ErrValidation)
	}
	product, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return Product{}, err
	}
	s.record(ctx, actorID, "catalog.update", id, map[string]any{"name": product.Name, "status": product.Status})
	return product, nil
}

// Delete removes a product with no order references. Its movements and
// returnable ledgers go with it.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "catalog.delete", id, nil)
	return nil
}

func validateFields(name, category string, price float64, deposit *float64) error {
	if name == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if category == "" {
		return fmt.Errorf("%w: category required", ErrValidation)
	}
	if price < 0 {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if deposit != nil && *deposit < 0 {
		return fmt.Errorf("%w: deposit value must be >= 0", ErrValidation)
	}
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "product",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
