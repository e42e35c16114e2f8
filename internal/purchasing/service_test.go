package purchasing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vendinha-erp/vendinha-erp/internal/inventory"
)

type memoryRepo struct {
	orders    map[int64]PurchaseOrder
	costs     map[int64]float64
	movements []inventory.Movement
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orders: map[int64]PurchaseOrder{}, costs: map[int64]float64{}, nextID: 1}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (PurchaseOrder, error) {
	order, ok := r.orders[id]
	if !ok {
		return PurchaseOrder{}, ErrNotFound
	}
	return order, nil
}

func (r *memoryRepo) List(ctx context.Context, status string) ([]PurchaseOrder, error) {
	var out []PurchaseOrder
	for _, o := range r.orders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memoryRepo) InsertOrder(ctx context.Context, order PurchaseOrder) (PurchaseOrder, error) {
	order.ID = r.nextID
	r.nextID++
	for i := range order.Items {
		order.Items[i].ID = r.nextID
		r.nextID++
	}
	r.orders[order.ID] = order
	return order, nil
}

func (r *memoryRepo) GetOrderForUpdate(ctx context.Context, id int64) (PurchaseOrder, error) {
	return r.Get(ctx, id)
}

func (r *memoryRepo) SetStatus(ctx context.Context, id int64, status string) error {
	order, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	order.Status = status
	r.orders[id] = order
	return nil
}

func (r *memoryRepo) DeleteOrder(ctx context.Context, id int64) error {
	if _, ok := r.orders[id]; !ok {
		return ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *memoryRepo) ProductStock(ctx context.Context, productID int64) (float64, error) {
	var sum float64
	for _, m := range r.movements {
		if m.ProductID == productID {
			sum += m.Quantity
		}
	}
	return sum, nil
}

func (r *memoryRepo) ProductCost(ctx context.Context, productID int64) (float64, error) {
	return r.costs[productID], nil
}

func (r *memoryRepo) SetProductCost(ctx context.Context, productID int64, cost float64) error {
	r.costs[productID] = cost
	return nil
}

func (r *memoryRepo) InsertMovement(ctx context.Context, m inventory.Movement) error {
	r.movements = append(r.movements, m)
	return nil
}

func (r *memoryRepo) ReversedQuantities(ctx context.Context, purchaseID int64) (map[int64]float64, error) {
	ref := inventory.PurchaseReversalRef(purchaseID)
	reversed := map[int64]float64{}
	for _, m := range r.movements {
		if m.RefType == inventory.RefPurchaseReversal && m.RefID == ref {
			reversed[m.ProductID] += -m.Quantity
		}
	}
	return reversed, nil
}

func draftPurchase(t *testing.T, svc *Service, items ...ItemInput) PurchaseOrder {
	t.Helper()
	order, err := svc.Create(context.Background(), 0, CreateInput{
		SupplierName: "Distribuidora Silva",
		OrderDate:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Items:        items,
	})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, order.Status)
	return order
}

func TestCreateComputesSubtotalsAndTotal(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	order := draftPurchase(t, svc,
		ItemInput{ProductID: 1, Quantity: 10, UnitCost: 1.5},
		ItemInput{ProductID: 2, Quantity: 4, UnitCost: 2.0},
	)
	require.Equal(t, 15.0, order.Items[0].Subtotal)
	require.Equal(t, 8.0, order.Items[1].Subtotal)
	require.Equal(t, 23.0, order.TotalCost)
	require.Equal(t, 0, order.Items[0].LineOrder)
	require.Equal(t, 1, order.Items[1].LineOrder)
}

func TestCreateValidates(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	_, err := svc.Create(context.Background(), 0, CreateInput{SupplierName: "X"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), 0, CreateInput{
		SupplierName: "X",
		Items:        []ItemInput{{ProductID: 1, Quantity: -1, UnitCost: 1}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestReceivePostsMovementsAndRecosts(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	// Product 1 already holds 100 units at 1.00.
	repo.movements = append(repo.movements, inventory.Movement{ProductID: 1, Quantity: 100, RefType: inventory.RefPurchase, RefID: inventory.PurchaseRef(99)})
	repo.costs[1] = 1.0

	order := draftPurchase(t, svc, ItemInput{ProductID: 1, Quantity: 50, UnitCost: 2.5})

	received, err := svc.Receive(context.Background(), 0, order.ID, "")
	require.NoError(t, err)
	require.Equal(t, StatusReceived, received.Status)
	require.InDelta(t, 1.5, repo.costs[1], 1e-9)

	stock, err := repo.ProductStock(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 150.0, stock)

	last := repo.movements[len(repo.movements)-1]
	require.Equal(t, inventory.RefPurchase, last.RefType)
	require.Equal(t, inventory.PurchaseRef(order.ID), last.RefID)
	require.Equal(t, inventory.ReasonCompra, last.Reason)
}

func TestReceiveFoldsRepeatedProductSequentially(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	order := draftPurchase(t, svc,
		ItemInput{ProductID: 1, Quantity: 10, UnitCost: 1.0},
		ItemInput{ProductID: 1, Quantity: 10, UnitCost: 2.0},
	)

	_, err := svc.Receive(context.Background(), 0, order.ID, "")
	require.NoError(t, err)

	// Second line blends against the stock and cost the first line left.
	require.InDelta(t, 1.5, repo.costs[1], 1e-9)
	stock, _ := repo.ProductStock(context.Background(), 1)
	require.Equal(t, 20.0, stock)
}

func TestReceiveRejectsNonDraft(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	order := draftPurchase(t, svc, ItemInput{ProductID: 1, Quantity: 5, UnitCost: 1.0})

	_, err := svc.Receive(context.Background(), 0, order.ID, "")
	require.NoError(t, err)

	_, err = svc.Receive(context.Background(), 0, order.ID, "")
	require.ErrorIs(t, err, ErrInvalidState)

	before := len(repo.movements)
	_, _ = svc.Receive(context.Background(), 0, order.ID, "")
	require.Len(t, repo.movements, before)
}

func TestReverseBoundsAndAutoCancel(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	order := draftPurchase(t, svc, ItemInput{ProductID: 1, Quantity: 10, UnitCost: 1.0})

	_, err := svc.Reverse(context.Background(), 0, order.ID, []Reversal{{ProductID: 1, Quantity: 1}})
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Receive(context.Background(), 0, order.ID, "")
	require.NoError(t, err)

	_, err = svc.Reverse(context.Background(), 0, order.ID, []Reversal{{ProductID: 1, Quantity: 11}})
	require.ErrorIs(t, err, ErrExceedsReversible)

	updated, err := svc.Reverse(context.Background(), 0, order.ID, []Reversal{{ProductID: 1, Quantity: 4}})
	require.NoError(t, err)
	require.Equal(t, StatusReceived, updated.Status)

	stock, _ := repo.ProductStock(context.Background(), 1)
	require.Equal(t, 6.0, stock)

	// Cumulative reversals cannot exceed what remains.
	_, err = svc.Reverse(context.Background(), 0, order.ID, []Reversal{{ProductID: 1, Quantity: 7}})
	require.ErrorIs(t, err, ErrExceedsReversible)

	updated, err = svc.Reverse(context.Background(), 0, order.ID, []Reversal{{ProductID: 1, Quantity: 6}})
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, updated.Status)

	stock, _ = repo.ProductStock(context.Background(), 1)
	require.Zero(t, stock)

	// Reversal leaves cost alone.
	require.Equal(t, 1.0, repo.costs[1])
}

func TestCancelDraftOnlyDeletesDrafts(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	order := draftPurchase(t, svc, ItemInput{ProductID: 1, Quantity: 5, UnitCost: 1.0})

	require.NoError(t, svc.CancelDraft(context.Background(), 0, order.ID))
	_, err := svc.Get(context.Background(), order.ID)
	require.ErrorIs(t, err, ErrNotFound)

	order = draftPurchase(t, svc, ItemInput{ProductID: 1, Quantity: 5, UnitCost: 1.0})
	_, err = svc.Receive(context.Background(), 0, order.ID, "")
	require.NoError(t, err)
	require.ErrorIs(t, svc.CancelDraft(context.Background(), 0, order.ID), ErrInvalidState)
}
