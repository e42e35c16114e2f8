package production

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vendinha-erp/vendinha-erp/internal/inventory"
)

type memoryRepo struct {
	batches   map[int64]Batch
	costs     map[int64]float64
	movements []inventory.Movement
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{batches: map[int64]Batch{}, costs: map[int64]float64{}, nextID: 1}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Batch, error) {
	batch, ok := r.batches[id]
	if !ok {
		return Batch{}, ErrNotFound
	}
	return batch, nil
}

func (r *memoryRepo) List(ctx context.Context, status string) ([]Batch, error) {
	var out []Batch
	for _, b := range r.batches {
		if status == "" || b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memoryRepo) InsertBatch(ctx context.Context, batch Batch) (Batch, error) {
	batch.ID = r.nextID
	r.nextID++
	r.batches[batch.ID] = batch
	return batch, nil
}

func (r *memoryRepo) UpdateBatch(ctx context.Context, batch Batch) (Batch, error) {
	if _, ok := r.batches[batch.ID]; !ok {
		return Batch{}, ErrNotFound
	}
	r.batches[batch.ID] = batch
	return batch, nil
}

func (r *memoryRepo) GetBatchForUpdate(ctx context.Context, id int64) (Batch, error) {
	return r.Get(ctx, id)
}

func (r *memoryRepo) SetCompleted(ctx context.Context, id, productID int64) error {
	batch, ok := r.batches[id]
	if !ok {
		return ErrNotFound
	}
	batch.Status = StatusCompleted
	batch.ProductID = &productID
	r.batches[id] = batch
	return nil
}

func (r *memoryRepo) DeleteBatch(ctx context.Context, id int64) error {
	if _, ok := r.batches[id]; !ok {
		return ErrNotFound
	}
	delete(r.batches, id)
	return nil
}

func (r *memoryRepo) DeleteMovementsByRef(ctx context.Context, refType inventory.RefType, refID string) error {
	kept := r.movements[:0]
	for _, m := range r.movements {
		if m.RefType == refType && m.RefID == refID {
			continue
		}
		kept = append(kept, m)
	}
	r.movements = kept
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

func draftBatch(t *testing.T, svc *Service, totalCost, qty float64) Batch {
	t.Helper()
	batch, err := svc.Create(context.Background(), 0, CreateInput{
		Description:      "Kombucha lote agosto",
		BatchDate:        time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		TotalCost:        totalCost,
		QuantityProduced: qty,
	})
	require.NoError(t, err)
	return batch
}

func TestCreateDerivesCostPerUnit(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	batch := draftBatch(t, svc, 30.0, 12)
	require.Equal(t, StatusDraft, batch.Status)
	require.InDelta(t, 2.5, batch.CostPerUnit, 1e-9)
}

func TestCreateGuardsZeroQuantity(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	_, err := svc.Create(context.Background(), 0, CreateInput{Description: "x", TotalCost: 10, QuantityProduced: 0})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateRefixesCostPerUnitWhileDraft(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	batch := draftBatch(t, svc, 30.0, 12)

	updated, err := svc.Update(context.Background(), 0, batch.ID, CreateInput{
		Description:      batch.Description,
		BatchDate:        batch.BatchDate,
		TotalCost:        40.0,
		QuantityProduced: 10,
	})
	require.NoError(t, err)
	require.InDelta(t, 4.0, updated.CostPerUnit, 1e-9)
}

func TestUpdateRejectsCompletedBatch(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	batch := draftBatch(t, svc, 10.0, 5)

	_, err := svc.Complete(context.Background(), 0, batch.ID, 7, "")
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), 0, batch.ID, CreateInput{
		Description:      batch.Description,
		BatchDate:        batch.BatchDate,
		TotalCost:        99.0,
		QuantityProduced: 3,
	})
	require.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestCompletePostsStockAndRecosts(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	// Product 7 holds 10 units at 1.00 before the batch lands.
	repo.movements = append(repo.movements, inventory.Movement{ProductID: 7, Quantity: 10})
	repo.costs[7] = 1.0

	batch := draftBatch(t, svc, 10.0, 5) // 2.00 per unit

	completed, err := svc.Complete(context.Background(), 0, batch.ID, 7, "")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, completed.Status)
	require.NotNil(t, completed.ProductID)
	require.EqualValues(t, 7, *completed.ProductID)

	stock, _ := repo.ProductStock(context.Background(), 7)
	require.Equal(t, 15.0, stock)
	require.InDelta(t, (10*1.0+5*2.0)/15, repo.costs[7], 1e-9)

	last := repo.movements[len(repo.movements)-1]
	require.Equal(t, inventory.RefBatch, last.RefType)
	require.Equal(t, inventory.BatchRef(batch.ID), last.RefID)
	require.Equal(t, inventory.ReasonProducao, last.Reason)
}

func TestCompleteTwiceDoesNotDoublePost(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	batch := draftBatch(t, svc, 10.0, 5)

	_, err := svc.Complete(context.Background(), 0, batch.ID, 7, "")
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), 0, batch.ID, 7, "")
	require.ErrorIs(t, err, ErrAlreadyCompleted)

	stock, _ := repo.ProductStock(context.Background(), 7)
	require.Equal(t, 5.0, stock)
}

func TestDeleteCompletedBatchRemovesItsMovements(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	batch := draftBatch(t, svc, 10.0, 5)

	_, err := svc.Complete(context.Background(), 0, batch.ID, 7, "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 0, batch.ID))

	stock, _ := repo.ProductStock(context.Background(), 7)
	require.Zero(t, stock)
	_, err = svc.Get(context.Background(), batch.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
