package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vendinha-erp/vendinha-erp/internal/inventory"
	"github.com/vendinha-erp/vendinha-erp/internal/production"
	"github.com/vendinha-erp/vendinha-erp/internal/purchasing"
	"github.com/vendinha-erp/vendinha-erp/internal/returnables"
	"github.com/vendinha-erp/vendinha-erp/internal/sales"
)

// store is a single in-memory state shared by all module fakes so the
// costing flow can cross module boundaries the way one database would.
type store struct {
	costs     map[int64]float64
	products  map[int64]sales.Product
	customers map[int64]bool
	deposits  map[int64]float64
	ledgers   map[[2]int64]returnables.Ledger
	movements []inventory.Movement
	purchases map[int64]purchasing.PurchaseOrder
	batches   map[int64]production.Batch
	sales     map[int64]sales.SaleOrder
	nextID    int64
}

func newStore() *store {
	return &store{
		costs:     map[int64]float64{},
		products:  map[int64]sales.Product{},
		customers: map[int64]bool{},
		deposits:  map[int64]float64{},
		ledgers:   map[[2]int64]returnables.Ledger{},
		purchases: map[int64]purchasing.PurchaseOrder{},
		batches:   map[int64]production.Batch{},
		sales:     map[int64]sales.SaleOrder{},
		nextID:    1,
	}
}

func (s *store) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *store) stock(productID int64) float64 {
	var sum float64
	for _, m := range s.movements {
		if m.ProductID == productID {
			sum += m.Quantity
		}
	}
	return sum
}

type purchasingStore struct{ s *store }

func (r purchasingStore) WithTx(ctx context.Context, fn func(context.Context, purchasing.TxRepository) error) error {
	return fn(ctx, r)
}

func (r purchasingStore) Get(ctx context.Context, id int64) (purchasing.PurchaseOrder, error) {
	order, ok := r.s.purchases[id]
	if !ok {
		return purchasing.PurchaseOrder{}, purchasing.ErrNotFound
	}
	return order, nil
}

func (r purchasingStore) List(ctx context.Context, status string) ([]purchasing.PurchaseOrder, error) {
	var out []purchasing.PurchaseOrder
	for _, o := range r.s.purchases {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r purchasingStore) InsertOrder(ctx context.Context, order purchasing.PurchaseOrder) (purchasing.PurchaseOrder, error) {
	order.ID = r.s.id()
	for i := range order.Items {
		order.Items[i].ID = r.s.id()
	}
	r.s.purchases[order.ID] = order
	return order, nil
}

func (r purchasingStore) GetOrderForUpdate(ctx context.Context, id int64) (purchasing.PurchaseOrder, error) {
	return r.Get(ctx, id)
}

func (r purchasingStore) SetStatus(ctx context.Context, id int64, status string) error {
	order, ok := r.s.purchases[id]
	if !ok {
		return purchasing.ErrNotFound
	}
	order.Status = status
	r.s.purchases[id] = order
	return nil
}

func (r purchasingStore) DeleteOrder(ctx context.Context, id int64) error {
	delete(r.s.purchases, id)
	return nil
}

func (r purchasingStore) ProductStock(ctx context.Context, productID int64) (float64, error) {
	return r.s.stock(productID), nil
}

func (r purchasingStore) ProductCost(ctx context.Context, productID int64) (float64, error) {
	return r.s.costs[productID], nil
}

func (r purchasingStore) SetProductCost(ctx context.Context, productID int64, cost float64) error {
	r.s.costs[productID] = cost
	return nil
}

func (r purchasingStore) InsertMovement(ctx context.Context, m inventory.Movement) error {
	r.s.movements = append(r.s.movements, m)
	return nil
}

func (r purchasingStore) ReversedQuantities(ctx context.Context, purchaseID int64) (map[int64]float64, error) {
	ref := inventory.PurchaseReversalRef(purchaseID)
	reversed := map[int64]float64{}
	for _, m := range r.s.movements {
		if m.RefType == inventory.RefPurchaseReversal && m.RefID == ref {
			reversed[m.ProductID] += -m.Quantity
		}
	}
	return reversed, nil
}

type productionStore struct{ s *store }

func (r productionStore) WithTx(ctx context.Context, fn func(context.Context, production.TxRepository) error) error {
	return fn(ctx, r)
}

func (r productionStore) Get(ctx context.Context, id int64) (production.Batch, error) {
	batch, ok := r.s.batches[id]
	if !ok {
		return production.Batch{}, production.ErrNotFound
	}
	return batch, nil
}

func (r productionStore) List(ctx context.Context, status string) ([]production.Batch, error) {
	var out []production.Batch
	for _, b := range r.s.batches {
		if status == "" || b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r productionStore) InsertBatch(ctx context.Context, batch production.Batch) (production.Batch, error) {
	batch.ID = r.s.id()
	r.s.batches[batch.ID] = batch
	return batch, nil
}

func (r productionStore) UpdateBatch(ctx context.Context, batch production.Batch) (production.Batch, error) {
	r.s.batches[batch.ID] = batch
	return batch, nil
}

func (r productionStore) GetBatchForUpdate(ctx context.Context, id int64) (production.Batch, error) {
	return r.Get(ctx, id)
}

func (r productionStore) SetCompleted(ctx context.Context, id, productID int64) error {
	batch, ok := r.s.batches[id]
	if !ok {
		return production.ErrNotFound
	}
	batch.Status = production.StatusCompleted
	batch.ProductID = &productID
	r.s.batches[id] = batch
	return nil
}

func (r productionStore) DeleteBatch(ctx context.Context, id int64) error {
	delete(r.s.batches, id)
	return nil
}

func (r productionStore) DeleteMovementsByRef(ctx context.Context, refType inventory.RefType, refID string) error {
	kept := r.s.movements[:0]
	for _, m := range r.s.movements {
		if m.RefType == refType && m.RefID == refID {
			continue
		}
		kept = append(kept, m)
	}
	r.s.movements = kept
	return nil
}

func (r productionStore) ProductStock(ctx context.Context, productID int64) (float64, error) {
	return r.s.stock(productID), nil
}

func (r productionStore) ProductCost(ctx context.Context, productID int64) (float64, error) {
	return r.s.costs[productID], nil
}

func (r productionStore) SetProductCost(ctx context.Context, productID int64, cost float64) error {
	r.s.costs[productID] = cost
	return nil
}

func (r productionStore) InsertMovement(ctx context.Context, m inventory.Movement) error {
	r.s.movements = append(r.s.movements, m)
	return nil
}

type salesStore struct{ s *store }

func (r salesStore) WithTx(ctx context.Context, fn func(context.Context, sales.TxRepository) error) error {
	return fn(ctx, r)
}

func (r salesStore) Get(ctx context.Context, id int64) (sales.SaleOrder, error) {
	sale, ok := r.s.sales[id]
	if !ok {
		return sales.SaleOrder{}, sales.ErrNotFound
	}
	return sale, nil
}

func (r salesStore) List(ctx context.Context, filter sales.ListFilter) ([]sales.SaleOrder, error) {
	var out []sales.SaleOrder
	for _, s := range r.s.sales {
		out = append(out, s)
	}
	return out, nil
}

func (r salesStore) CustomerExists(ctx context.Context, id int64) (bool, error) {
	return r.s.customers[id], nil
}

func (r salesStore) GetProduct(ctx context.Context, id int64) (sales.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return sales.Product{}, sales.ErrProductNotFound
	}
	return p, nil
}

func (r salesStore) ProductStock(ctx context.Context, productID int64) (float64, error) {
	return r.s.stock(productID), nil
}

func (r salesStore) InsertSale(ctx context.Context, sale sales.SaleOrder) (sales.SaleOrder, error) {
	sale.ID = r.s.id()
	for i := range sale.Items {
		sale.Items[i].ID = r.s.id()
	}
	r.s.sales[sale.ID] = sale
	return sale, nil
}

func (r salesStore) GetSaleForUpdate(ctx context.Context, id int64) (sales.SaleOrder, error) {
	return r.Get(ctx, id)
}

func (r salesStore) SetStatus(ctx context.Context, id int64, status string) error {
	sale, ok := r.s.sales[id]
	if !ok {
		return sales.ErrNotFound
	}
	sale.Status = status
	r.s.sales[id] = sale
	return nil
}

func (r salesStore) InsertMovement(ctx context.Context, m inventory.Movement) error {
	r.s.movements = append(r.s.movements, m)
	return nil
}

func (r salesStore) CountMovements(ctx context.Context, refType inventory.RefType, refID string) (int, error) {
	var count int
	for _, m := range r.s.movements {
		if m.RefType == refType && m.RefID == refID {
			count++
		}
	}
	return count, nil
}

func (r salesStore) GetLedger(ctx context.Context, customerID, productID int64) (returnables.Ledger, error) {
	ledger, ok := r.s.ledgers[[2]int64{customerID, productID}]
	if !ok {
		return returnables.Ledger{}, returnables.ErrNoLedger
	}
	return ledger, nil
}

func (r salesStore) SaveLedger(ctx context.Context, ledger returnables.Ledger) (returnables.Ledger, error) {
	if ledger.ID == 0 {
		ledger.ID = r.s.id()
	}
	r.s.ledgers[[2]int64{ledger.CustomerID, ledger.ProductID}] = ledger
	return ledger, nil
}

func (r salesStore) AdjustCustomerDeposit(ctx context.Context, customerID int64, delta float64) error {
	r.s.deposits[customerID] += delta
	return nil
}

// TestCostingFlowAcrossModules walks one product through a purchase
// receipt, a production batch, a sale and a partial purchase reversal,
// checking the weighted-average cost and derived stock at each step.
func TestCostingFlowAcrossModules(t *testing.T) {
	ctx := context.Background()
	st := newStore()

	const productID int64 = 7
	st.costs[productID] = 1.00
	st.products[productID] = sales.Product{ID: productID}
	st.customers[1] = true

	purchasingSvc := purchasing.NewService(purchasingStore{st}, nil, nil)
	productionSvc := production.NewService(productionStore{st}, nil, nil)
	salesSvc := sales.NewService(salesStore{st}, nil, 5.0)

	order, err := purchasingSvc.Create(ctx, 0, purchasing.CreateInput{
		SupplierName: "Distribuidora Silva",
		OrderDate:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Items:        []purchasing.ItemInput{{ProductID: productID, Quantity: 10, UnitCost: 1.00}},
	})
	require.NoError(t, err)

	_, err = purchasingSvc.Receive(ctx, 0, order.ID, "")
	require.NoError(t, err)
	require.InDelta(t, 10.0, st.stock(productID), 1e-9)
	require.InDelta(t, 1.00, st.costs[productID], 1e-9)

	batch, err := productionSvc.Create(ctx, 0, production.CreateInput{
		Description:      "lote groselha",
		BatchDate:        time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
		TotalCost:        10.00,
		QuantityProduced: 5,
	})
	require.NoError(t, err)
	require.InDelta(t, 2.00, batch.CostPerUnit, 1e-9)

	_, err = productionSvc.Complete(ctx, 0, batch.ID, productID, "")
	require.NoError(t, err)
	require.InDelta(t, 15.0, st.stock(productID), 1e-9)
	require.InDelta(t, 20.0/15.0, st.costs[productID], 1e-9)

	_, err = salesSvc.Create(ctx, 0, sales.CreateInput{
		CustomerID:    1,
		PaymentMethod: sales.PaymentCash,
		Items:         []sales.ItemInput{{ProductID: productID, Quantity: 3, UnitPrice: 6.00}},
	})
	require.NoError(t, err)
	require.InDelta(t, 12.0, st.stock(productID), 1e-9)
	require.InDelta(t, 20.0/15.0, st.costs[productID], 1e-9)

	_, err = purchasingSvc.Reverse(ctx, 0, order.ID, []purchasing.Reversal{{ProductID: productID, Quantity: 2}})
	require.NoError(t, err)
	require.InDelta(t, 10.0, st.stock(productID), 1e-9)
	require.InDelta(t, 20.0/15.0, st.costs[productID], 1e-9)
}
