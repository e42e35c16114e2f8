package production

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vendinha-erp/vendinha-erp/internal/inventory"
	"github.com/vendinha-erp/vendinha-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Batch, error)
	List(ctx context.Context, status string) ([]Batch, error)
}

// Service coordinates the production batch lifecycle.
type Service struct {
	repo        RepositoryPort
	audit       shared.AuditPort
	idempotency *shared.IdempotencyStore
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit shared.AuditPort, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem}
}

// Create opens a draft batch. The per-unit cost is fixed here, so a zero or
// negative produced quantity is rejected up front.
func (s *Service) Create(ctx context.Context, actorID int64, input CreateInput) (Batch, error) {
	if input.Description == "" {
		return Batch{}, fmt.Errorf("%w: description required", ErrValidation)
	}
	costPerUnit, err := inventory.BatchUnitCost(input.TotalCost, input.QuantityProduced)
	if err != nil {
		return Batch{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	batch := Batch{
		Description:      input.Description,
		BatchDate:        input.BatchDate,
		TotalCost:        input.TotalCost,
		QuantityProduced: input.QuantityProduced,
		CostPerUnit:      costPerUnit,
		Status:           StatusDraft,
		Ingredients:      input.Ingredients,
	}

	var created Batch
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = tx.InsertBatch(ctx, batch)
		return err
	})
	if err != nil {
		return Batch{}, err
	}

	s.record(ctx, actorID, "production.create", created.ID, map[string]any{"description": created.Description, "quantity": created.QuantityProduced})
	return created, nil
}

// Update replaces a draft batch's fields, refixing the per-unit cost. A
// batch that already posted stock keeps its history immutable.
func (s *Service) Update(ctx context.Context, actorID, id int64, input CreateInput) (Batch, error) {
	if input.Description == "" {
		return Batch{}, fmt.Errorf("%w: description required", ErrValidation)
	}
	costPerUnit, err := inventory.BatchUnitCost(input.TotalCost, input.QuantityProduced)
	if err != nil {
		return Batch{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var updated Batch
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		batch, err := tx.GetBatchForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if batch.Status != StatusDraft {
			return ErrAlreadyCompleted
		}
		batch.Description = input.Description
		batch.BatchDate = input.BatchDate
		batch.TotalCost = input.TotalCost
		batch.QuantityProduced = input.QuantityProduced
		batch.CostPerUnit = costPerUnit
		batch.Ingredients = input.Ingredients
		updated, err = tx.UpdateBatch(ctx, batch)
		return err
	})
	if err != nil {
		return Batch{}, err
	}

	s.record(ctx, actorID, "production.update", id, map[string]any{"quantity": updated.QuantityProduced})
	return updated, nil
}

// Complete posts the batch's output into stock for productID and recosts it.
// A completed batch rejects a second completion, so stock can never be
// posted twice.
func (s *Service) Complete(ctx context.Context, actorID, id, productID int64, idempotencyKey string) (Batch, error) {
	if productID <= 0 {
		return Batch{}, fmt.Errorf("%w: target product required", ErrValidation)
	}
	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "production"); err != nil {
			return Batch{}, err
		}
	}

	var completed Batch
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		batch, err := tx.GetBatchForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if batch.Status == StatusCompleted {
			return fmt.Errorf("%w: batch %d", ErrAlreadyCompleted, id)
		}

		stock, err := tx.ProductStock(ctx, productID)
		if err != nil {
			return err
		}
		cost, err := tx.ProductCost(ctx, productID)
		if err != nil {
			return err
		}
		newCost := inventory.Recost(stock, cost, batch.QuantityProduced, batch.CostPerUnit)

		err = tx.InsertMovement(ctx, inventory.Movement{
			ProductID: productID,
			Quantity:  batch.QuantityProduced,
			Reason:    inventory.ReasonProducao,
			RefType:   inventory.RefBatch,
			RefID:     inventory.BatchRef(id),
		})
		if err != nil {
			return err
		}
		if err := tx.SetProductCost(ctx, productID, newCost); err != nil {
			return err
		}
		if err := tx.SetCompleted(ctx, id, productID); err != nil {
			return err
		}

		batch.Status = StatusCompleted
		batch.ProductID = &productID
		completed = batch
		return nil
	})
	if err != nil {
		if idempotencyKey != "" && s.idempotency != nil {
			_ = s.idempotency.Delete(ctx, idempotencyKey)
		}
		return Batch{}, err
	}

	s.record(ctx, actorID, "production.complete", id, map[string]any{"product_id": productID, "quantity": completed.QuantityProduced})
	return completed, nil
}

// Delete removes a batch. Movements referencing the batch go first, so
// deleting a completed batch pulls its output back out of stock.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetBatchForUpdate(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteMovementsByRef(ctx, inventory.RefBatch, inventory.BatchRef(id)); err != nil {
			return err
		}
		return tx.DeleteBatch(ctx, id)
	})
	if err != nil {
		return err
	}

	s.record(ctx, actorID, "production.delete", id, nil)
	return nil
}

// Get fetches one batch.
func (s *Service) Get(ctx context.Context, id int64) (Batch, error) {
	return s.repo.Get(ctx, id)
}

// List returns batches, optionally by status.
func (s *Service) List(ctx context.Context, status string) ([]Batch, error) {
	return s.repo.List(ctx, status)
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "production_batch",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
