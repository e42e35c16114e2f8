package returnables

import (
	"context"
	"fmt"

	"github.com/vendinha-erp/vendinha-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Outstanding(ctx context.Context, customerID int64) ([]OutstandingRow, error)
	LedgersFor(ctx context.Context, customerID int64) ([]Ledger, error)
}

// Service coordinates returnable deposit operations. Sales feed the ledger
// through their own transaction; this service owns the return path and the
// read views.
type Service struct {
	repo           RepositoryPort
	audit          shared.AuditPort
	defaultDeposit float64
}

// NewService builds Service. defaultDeposit is the per-unit deposit charged
// for products without an explicit deposit value.
func NewService(repo RepositoryPort, audit shared.AuditPort, defaultDeposit float64) *Service {
	return &Service{repo: repo, audit: audit, defaultDeposit: defaultDeposit}
}

// RecordReturn books quantity returned bottles for a customer/product pair.
// The ledger row and the customer's outstanding deposit change in the same
// transaction.
func (s *Service) RecordReturn(ctx context.Context, actorID, customerID, productID int64, quantity float64) (Ledger, error) {
	if quantity <= 0 {
		return Ledger{}, ErrInvalidQuantity
	}

	var updated Ledger
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ledger, err := tx.GetLedger(ctx, customerID, productID)
		if err != nil {
			return err
		}

		unitDeposit, err := s.unitDepositFor(ctx, tx, productID)
		if err != nil {
			return err
		}

		next, delta, err := ApplyReturn(ledger, quantity, unitDeposit)
		if err != nil {
			return err
		}

		if updated, err = tx.SaveLedger(ctx, next); err != nil {
			return err
		}
		return tx.AdjustCustomerDeposit(ctx, customerID, -delta)
	})
	if err != nil {
		return Ledger{}, err
	}

	s.record(ctx, actorID, customerID, productID, quantity)
	return updated, nil
}

// Outstanding lists pending ledger rows, optionally for one customer.
func (s *Service) Outstanding(ctx context.Context, customerID int64) ([]OutstandingRow, error) {
	return s.repo.Outstanding(ctx, customerID)
}

// LedgersFor returns every ledger row of one customer.
func (s *Service) LedgersFor(ctx context.Context, customerID int64) ([]Ledger, error) {
	return s.repo.LedgersFor(ctx, customerID)
}

func (s *Service) unitDepositFor(ctx context.Context, tx TxRepository, productID int64) (float64, error) {
	deposit, err := tx.ProductDepositValue(ctx, productID)
	if err != nil {
		return 0, err
	}
	if deposit == nil {
		return s.defaultDeposit, nil
	}
	return *deposit, nil
}

func (s *Service) record(ctx context.Context, actorID, customerID, productID int64, quantity float64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "returnables.return",
		Entity:   "returnable_ledger",
		EntityID: fmt.Sprintf("%d/%d", customerID, productID),
		Meta:     map[string]any{"quantity": quantity},
	})
}
