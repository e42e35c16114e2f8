package sales

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vendinha-erp/vendinha-erp/internal/inventory"
	"github.com/vendinha-erp/vendinha-erp/internal/returnables"
	"github.com/vendinha-erp/vendinha-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (SaleOrder, error)
	List(ctx context.Context, filter ListFilter) ([]SaleOrder, error)
}

// Service coordinates sale fulfillment.
type Service struct {
	repo           RepositoryPort
	audit          shared.AuditPort
	defaultDeposit float64
}

// NewService builds Service. defaultDeposit is the per-unit deposit charged
// for returnable products without an explicit deposit value.
func NewService(repo RepositoryPort, audit shared.AuditPort, defaultDeposit float64) *Service {
	return &Service{repo: repo, audit: audit, defaultDeposit: defaultDeposit}
}

// Create fulfills a sale: validates the customer, every line's product and
// stock, prices the order, then persists the sale with its payment, posts
// one outbound movement per line and books deposits for returnable lines.
// All of it commits or none of it does.
func (s *Service) Create(ctx context.Context, actorID int64, input CreateInput) (SaleOrder, error) {
	if err := validateCreate(input); err != nil {
		return SaleOrder{}, err
	}

	var created SaleOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		exists, err := tx.CustomerExists(ctx, input.CustomerID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: customer %d", ErrCustomerNotFound, input.CustomerID)
		}

		sale := SaleOrder{
			CustomerID:    input.CustomerID,
			SaleDate:      time.Now(),
			DiscountPct:   input.DiscountPct,
			PaymentMethod: input.PaymentMethod,
			Status:        StatusFinalizada,
		}

		type depositLine struct {
			productID int64
			quantity  float64
			unit      float64
		}
		var depositLines []depositLine
		var subtotal, depositCharge float64

		for _, line := range input.Items {
			product, err := tx.GetProduct(ctx, line.ProductID)
			if err != nil {
				return err
			}
			stock, err := tx.ProductStock(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if stock < line.Quantity {
				return fmt.Errorf("%w: product %d has %.4f, requested %.4f", ErrInsufficientStock, line.ProductID, stock, line.Quantity)
			}

			chargeDeposit := line.ChargeDeposit && product.IsReturnable
			if chargeDeposit {
				unit := s.defaultDeposit
				if product.DepositValue != nil {
					unit = *product.DepositValue
				}
				depositCharge += line.Quantity * unit
				depositLines = append(depositLines, depositLine{productID: line.ProductID, quantity: line.Quantity, unit: unit})
			}

			lineSubtotal := line.Quantity * line.UnitPrice
			subtotal += lineSubtotal
			sale.Items = append(sale.Items, SaleItem{
				ProductID:      line.ProductID,
				Quantity:       line.Quantity,
				UnitPrice:      line.UnitPrice,
				Subtotal:       lineSubtotal,
				DepositCharged: chargeDeposit,
			})
		}

		totals := ComputeTotals(subtotal, input.DiscountPct, input.PaymentMethod, input.CardFee, depositCharge)
		sale.Total = totals.Subtotal
		sale.DiscountValue = totals.DiscountValue
		sale.CardFee = totals.CardFee
		sale.DepositCharged = totals.DepositCharge
		sale.FinalTotal = totals.FinalTotal
		sale.Payments = []Payment{{
			Method:        input.PaymentMethod,
			Amount:        totals.FinalTotal,
			Status:        "DONE",
			TransactionID: uuid.NewString(),
		}}

		if created, err = tx.InsertSale(ctx, sale); err != nil {
			return err
		}

		for _, item := range created.Items {
			err := tx.InsertMovement(ctx, inventory.Movement{
				ProductID: item.ProductID,
				Quantity:  -item.Quantity,
				Reason:    inventory.ReasonVenda,
				RefType:   inventory.RefSale,
				RefID:     inventory.SaleRef(created.ID),
			})
			if err != nil {
				return err
			}
		}

		var depositDelta float64
		for _, line := range depositLines {
			ledger, err := tx.GetLedger(ctx, input.CustomerID, line.productID)
			if errors.Is(err, returnables.ErrNoLedger) {
				ledger = returnables.Ledger{CustomerID: input.CustomerID, ProductID: line.productID}
			} else if err != nil {
				return err
			}

			next, delta, err := returnables.ApplySale(ledger, line.quantity, line.unit)
			if err != nil {
				return err
			}
			if _, err := tx.SaveLedger(ctx, next); err != nil {
				return err
			}
			depositDelta += delta
		}
		if depositDelta != 0 {
			if err := tx.AdjustCustomerDeposit(ctx, input.CustomerID, depositDelta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SaleOrder{}, err
	}

	s.record(ctx, actorID, "sales.create", created.ID, map[string]any{
		"customer_id": created.CustomerID,
		"final_total": created.FinalTotal,
	})
	return created, nil
}

// Cancel flips a finalized sale to CANCELADA. Stock and deposits stay put;
// Restock posts the compensating movements when the goods actually come back.
func (s *Service) Cancel(ctx context.Context, actorID, id int64) (SaleOrder, error) {
	var cancelled SaleOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sale.Status != StatusFinalizada {
			return fmt.Errorf("%w: sale %d is %s", ErrInvalidState, id, sale.Status)
		}
		if err := tx.SetStatus(ctx, id, StatusCancelada); err != nil {
			return err
		}
		sale.Status = StatusCancelada
		cancelled = sale
		return nil
	})
	if err != nil {
		return SaleOrder{}, err
	}

	s.record(ctx, actorID, "sales.cancel", id, nil)
	return cancelled, nil
}

// Restock posts one inbound movement per line of a cancelled sale, bringing
// the goods back into stock at the quantities sold. It refuses to run twice
// for the same sale.
func (s *Service) Restock(ctx context.Context, actorID, id int64) (SaleOrder, error) {
	var restocked SaleOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sale.Status != StatusCancelada {
			return fmt.Errorf("%w: sale %d is %s", ErrInvalidState, id, sale.Status)
		}

		existing, err := tx.CountMovements(ctx, inventory.RefCancelamento, inventory.SaleRef(id))
		if err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: sale %d", ErrAlreadyRestocked, id)
		}

		for _, item := range sale.Items {
			err := tx.InsertMovement(ctx, inventory.Movement{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Reason:    inventory.ReasonCancelamento,
				RefType:   inventory.RefCancelamento,
				RefID:     inventory.SaleRef(id),
			})
			if err != nil {
				return err
			}
		}
		restocked = sale
		return nil
	})
	if err != nil {
		return SaleOrder{}, err
	}

	s.record(ctx, actorID, "sales.restock", id, map[string]any{"items": len(restocked.Items)})
	return restocked, nil
}

// Get fetches one sale with items and payments.
func (s *Service) Get(ctx context.Context, id int64) (SaleOrder, error) {
	return s.repo.Get(ctx, id)
}

// List returns sales matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]SaleOrder, error) {
	return s.repo.List(ctx, filter)
}

func validateCreate(input CreateInput) error {
	if input.CustomerID <= 0 {
		return fmt.Errorf("%w: customer required", ErrValidation)
	}
	if len(input.Items) == 0 {
		return fmt.Errorf("%w: at least one item required", ErrValidation)
	}
	if input.DiscountPct < 0 || input.DiscountPct > 100 {
		return fmt.Errorf("%w: discount must be between 0 and 100", ErrValidation)
	}
	switch input.PaymentMethod {
	case PaymentCash, PaymentPix, PaymentCard, PaymentTab:
	default:
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, input.PaymentMethod)
	}
	for i, line := range input.Items {
		if line.ProductID <= 0 || line.Quantity <= 0 {
			return fmt.Errorf("%w: item %d needs a product and a positive quantity", ErrValidation, i+1)
		}
		if line.UnitPrice < 0 {
			return fmt.Errorf("%w: item %d unit price must be >= 0", ErrValidation, i+1)
		}
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
		Entity:   "sale_order",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
