package purchasing

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
	Get(ctx context.Context, id int64) (PurchaseOrder, error)
	List(ctx context.Context, status string) ([]PurchaseOrder, error)
}

// Service coordinates the purchase order lifecycle.
type Service struct {
	repo        RepositoryPort
	audit       shared.AuditPort
	idempotency *shared.IdempotencyStore
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit shared.AuditPort, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem}
}

// Create opens a draft purchase. Drafts have no stock effect until received.
func (s *Service) Create(ctx context.Context, actorID int64, input CreateInput) (PurchaseOrder, error) {
	if input.SupplierName == "" {
		return PurchaseOrder{}, fmt.Errorf("%w: supplier required", ErrValidation)
	}
	if len(input.Items) == 0 {
		return PurchaseOrder{}, fmt.Errorf("%w: at least one item required", ErrValidation)
	}

	order := PurchaseOrder{
		SupplierName: input.SupplierName,
		OrderDate:    input.OrderDate,
		Status:       StatusDraft,
	}
	for i, item := range input.Items {
		if item.ProductID <= 0 || item.Quantity <= 0 {
			return PurchaseOrder{}, fmt.Errorf("%w: item %d needs a product and a positive quantity", ErrValidation, i+1)
		}
		if item.UnitCost < 0 {
			return PurchaseOrder{}, fmt.Errorf("%w: item %d unit cost must be >= 0", ErrValidation, i+1)
		}
		subtotal := item.Quantity * item.UnitCost
		order.Items = append(order.Items, PurchaseItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
			Subtotal:  subtotal,
			LineOrder: i,
		})
		order.TotalCost += subtotal
	}

	var created PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = tx.InsertOrder(ctx, order)
		return err
	})
	if err != nil {
		return PurchaseOrder{}, err
	}

	s.record(ctx, actorID, "purchasing.create", created.ID, map[string]any{"supplier": created.SupplierName, "total": created.TotalCost})
	return created, nil
}

// Receive posts one inbound movement per item and recosts each product, then
// marks the purchase RECEIVED. Items are folded in authored order so a
// product repeated across lines sees the cost left by the previous line.
func (s *Service) Receive(ctx context.Context, actorID, id int64, idempotencyKey string) (PurchaseOrder, error) {
	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "purchasing"); err != nil {
			return PurchaseOrder{}, err
		}
	}

	var received PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != StatusDraft {
			return fmt.Errorf("%w: purchase %d is %s", ErrInvalidState, id, order.Status)
		}

		for _, item := range order.Items {
			if err := postReceipt(ctx, tx, id, item); err != nil {
				return err
			}
		}

		if err := tx.SetStatus(ctx, id, StatusReceived); err != nil {
			return err
		}
		order.Status = StatusReceived
		received = order
		return nil
	})
	if err != nil {
		if idempotencyKey != "" && s.idempotency != nil {
			_ = s.idempotency.Delete(ctx, idempotencyKey)
		}
		return PurchaseOrder{}, err
	}

	s.record(ctx, actorID, "purchasing.receive", id, map[string]any{"items": len(received.Items)})
	return received, nil
}

func postReceipt(ctx context.Context, tx TxRepository, purchaseID int64, item PurchaseItem) error {
	stock, err := tx.ProductStock(ctx, item.ProductID)
	if err != nil {
		return err
	}
	cost, err := tx.ProductCost(ctx, item.ProductID)
	if err != nil {
		return err
	}

	newCost := inventory.Recost(stock, cost, item.Quantity, item.UnitCost)

	err = tx.InsertMovement(ctx, inventory.Movement{
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Reason:    inventory.ReasonCompra,
		RefType:   inventory.RefPurchase,
		RefID:     inventory.PurchaseRef(purchaseID),
	})
	if err != nil {
		return err
	}
	return tx.SetProductCost(ctx, item.ProductID, newCost)
}

// Reverse winds back part of a received purchase with outbound movements.
// Product cost is untouched. When every item is fully reversed the purchase
// flips to CANCELLED; otherwise it stays RECEIVED and further reversals are
// legal.
func (s *Service) Reverse(ctx context.Context, actorID, id int64, reversals []Reversal) (PurchaseOrder, error) {
	if len(reversals) == 0 {
		return PurchaseOrder{}, fmt.Errorf("%w: at least one reversal required", ErrValidation)
	}

	var updated PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != StatusReceived {
			return fmt.Errorf("%w: purchase %d is %s", ErrInvalidState, id, order.Status)
		}

		ordered := make(map[int64]float64)
		for _, item := range order.Items {
			ordered[item.ProductID] += item.Quantity
		}
		reversed, err := tx.ReversedQuantities(ctx, id)
		if err != nil {
			return err
		}

		for _, rev := range reversals {
			if rev.Quantity <= 0 {
				return fmt.Errorf("%w: reversal quantity must be > 0", ErrValidation)
			}
			available := ordered[rev.ProductID] - reversed[rev.ProductID]
			if rev.Quantity > available {
				return fmt.Errorf("%w: product %d has %.4f reversible", ErrExceedsReversible, rev.ProductID, available)
			}

			err := tx.InsertMovement(ctx, inventory.Movement{
				ProductID: rev.ProductID,
				Quantity:  -rev.Quantity,
				Reason:    inventory.ReasonEstorno,
				RefType:   inventory.RefPurchaseReversal,
				RefID:     inventory.PurchaseReversalRef(id),
			})
			if err != nil {
				return err
			}
			reversed[rev.ProductID] += rev.Quantity
		}

		fullyReversed := true
		for productID, qty := range ordered {
			if reversed[productID] < qty {
				fullyReversed = false
				break
			}
		}
		if fullyReversed {
			if err := tx.SetStatus(ctx, id, StatusCancelled); err != nil {
				return err
			}
			order.Status = StatusCancelled
		}
		updated = order
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}

	s.record(ctx, actorID, "purchasing.reverse", id, map[string]any{"reversals": len(reversals), "status": updated.Status})
	return updated, nil
}

// CancelDraft hard-deletes a draft purchase and its items. Drafts never
// touched stock, so there is nothing to compensate.
func (s *Service) CancelDraft(ctx context.Context, actorID, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != StatusDraft {
			return fmt.Errorf("%w: purchase %d is %s", ErrInvalidState, id, order.Status)
		}
		return tx.DeleteOrder(ctx, id)
	})
	if err != nil {
		return err
	}

	s.record(ctx, actorID, "purchasing.cancel_draft", id, nil)
	return nil
}

// Get fetches one purchase with items.
func (s *Service) Get(ctx context.Context, id int64) (PurchaseOrder, error) {
	return s.repo.Get(ctx, id)
}

// List returns purchases, optionally by status.
func (s *Service) List(ctx context.Context, status string) ([]PurchaseOrder, error) {
	return s.repo.List(ctx, status)
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "purchase_order",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
