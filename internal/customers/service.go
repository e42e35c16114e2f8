package customers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vendinha-erp/vendinha-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Create(ctx context.Context, input Input) (Customer, error)
	Get(ctx context.Context, id int64) (Customer, error)
	List(ctx context.Context, status string) ([]Customer, error)
	Update(ctx context.Context, id int64, input Input) (Customer, error)
	Delete(ctx context.Context, id int64) error
}

// Service coordinates customer registry operations.
type Service struct {
	repo  RepositoryPort
	audit shared.AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit shared.AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create registers a customer.
func (s *Service) Create(ctx context.Context, actorID int64, input Input) (Customer, error) {
	if input.Status == "" {
		input.Status = StatusActive
	}
	if err := validateInput(input); err != nil {
		return Customer{}, err
	}
	customer, err := s.repo.Create(ctx, input)
	if err != nil {
		return Customer{}, err
	}
	s.record(ctx, actorID, "customers.create", customer.ID, map[string]any{"name": customer.Name})
	return customer, nil
}

// Get fetches one customer.
func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	return s.repo.Get(ctx, id)
}

// List returns customers matching the optional status filter.
func (s *Service) List(ctx context.Context, status string) ([]Customer, error) {
	return s.repo.List(ctx, status)
}

// Update rewrites the writable fields of a customer.
func (s *Service) Update(ctx context.Context, actorID, id int64, input Input) (Customer, error) {
	if err := validateInput(input); err != nil {
		return Customer{}, err
	}
	customer, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return Customer{}, err
	}
	s.record(ctx, actorID, "customers.update", id, map[string]any{"name": customer.Name, "status": customer.Status})
	return customer, nil
}

// Delete removes a customer with no sale history.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "customers.delete", id, nil)
	return nil
}

func validateInput(input Input) error {
	if input.Name == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if input.Type != TypeIndividual && input.Type != TypeReseller {
		return fmt.Errorf("%w: type must be INDIVIDUAL or RESELLER", ErrValidation)
	}
	if input.Status != StatusActive && input.Status != StatusInactive {
		return fmt.Errorf("%w: status must be ACTIVE or INACTIVE", ErrValidation)
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
		Entity:   "customer",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
