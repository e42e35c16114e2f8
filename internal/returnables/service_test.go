package returnables

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplySaleCreatesAndIncrements(t *testing.T) {
	ledger, delta, err := ApplySale(Ledger{CustomerID: 1, ProductID: 2}, 6, 5.0)
	require.NoError(t, err)
	require.Equal(t, 6.0, ledger.QuantityOut)
	require.Equal(t, 0.0, ledger.QuantityReturned)
	require.Equal(t, 6.0, ledger.QuantityPending)
	require.Equal(t, 30.0, ledger.DepositValueTotal)
	require.Equal(t, 30.0, delta)

	ledger, delta, err = ApplySale(ledger, 4, 5.0)
	require.NoError(t, err)
	require.Equal(t, 10.0, ledger.QuantityOut)
	require.Equal(t, 10.0, ledger.QuantityPending)
	require.Equal(t, 50.0, ledger.DepositValueTotal)
	require.Equal(t, 20.0, delta)
	require.Equal(t, ledger.QuantityOut, ledger.QuantityReturned+ledger.QuantityPending)
}

func TestApplySaleRejectsNonPositiveQuantity(t *testing.T) {
	_, _, err := ApplySale(Ledger{}, 0, 5.0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestApplyReturnRecomputesDepositTotal(t *testing.T) {
	ledger := Ledger{QuantityOut: 10, QuantityPending: 10, DepositValueTotal: 50}

	// Unit deposit rose from 5.00 to 6.00 between sale and return. The
	// total is recomputed from pending, not decremented.
	updated, delta, err := ApplyReturn(ledger, 4, 6.0)
	require.NoError(t, err)
	require.Equal(t, 4.0, updated.QuantityReturned)
	require.Equal(t, 6.0, updated.QuantityPending)
	require.Equal(t, 36.0, updated.DepositValueTotal)
	require.Equal(t, 24.0, delta)
	require.Equal(t, updated.QuantityOut, updated.QuantityReturned+updated.QuantityPending)
}

func TestApplyReturnBounds(t *testing.T) {
	ledger := Ledger{QuantityOut: 5, QuantityPending: 5}

	_, _, err := ApplyReturn(ledger, 6, 5.0)
	require.ErrorIs(t, err, ErrExceedsPending)

	_, _, err = ApplyReturn(ledger, -1, 5.0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

type fakeStore struct {
	ledgers  map[[2]int64]Ledger
	deposits map[int64]float64
	products map[int64]*float64
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ledgers:  map[[2]int64]Ledger{},
		deposits: map[int64]float64{},
		products: map[int64]*float64{},
		nextID:   1,
	}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, f)
}

func (f *fakeStore) GetLedger(ctx context.Context, customerID, productID int64) (Ledger, error) {
	ledger, ok := f.ledgers[[2]int64{customerID, productID}]
	if !ok {
		return Ledger{}, ErrNoLedger
	}
	return ledger, nil
}

func (f *fakeStore) SaveLedger(ctx context.Context, ledger Ledger) (Ledger, error) {
	if ledger.ID == 0 {
		ledger.ID = f.nextID
		f.nextID++
	}
	f.ledgers[[2]int64{ledger.CustomerID, ledger.ProductID}] = ledger
	return ledger, nil
}

func (f *fakeStore) AdjustCustomerDeposit(ctx context.Context, customerID int64, delta float64) error {
	f.deposits[customerID] += delta
	return nil
}

func (f *fakeStore) ProductDepositValue(ctx context.Context, productID int64) (*float64, error) {
	return f.products[productID], nil
}

func (f *fakeStore) Outstanding(ctx context.Context, customerID int64) ([]OutstandingRow, error) {
	var out []OutstandingRow
	for _, l := range f.ledgers {
		if l.QuantityPending <= 0 {
			continue
		}
		if customerID != 0 && l.CustomerID != customerID {
			continue
		}
		out = append(out, OutstandingRow{Ledger: l})
	}
	return out, nil
}

func (f *fakeStore) LedgersFor(ctx context.Context, customerID int64) ([]Ledger, error) {
	var out []Ledger
	for _, l := range f.ledgers {
		if l.CustomerID == customerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func TestRecordReturnKeepsCustomerDepositInLockStep(t *testing.T) {
	store := newFakeStore()
	store.ledgers[[2]int64{1, 2}] = Ledger{ID: 7, CustomerID: 1, ProductID: 2, QuantityOut: 10, QuantityPending: 10, DepositValueTotal: 50}
	store.deposits[1] = 50

	svc := NewService(store, nil, 5.0)

	ledger, err := svc.RecordReturn(context.Background(), 0, 1, 2, 4)
	require.NoError(t, err)
	require.Equal(t, 6.0, ledger.QuantityPending)
	require.Equal(t, 30.0, ledger.DepositValueTotal)
	require.Equal(t, 30.0, store.deposits[1])

	// Remaining bottles come back too, draining the pair to zero.
	ledger, err = svc.RecordReturn(context.Background(), 0, 1, 2, 6)
	require.NoError(t, err)
	require.Zero(t, ledger.QuantityPending)
	require.Zero(t, ledger.DepositValueTotal)
	require.Zero(t, store.deposits[1])
}

func TestRecordReturnUsesProductDepositOverDefault(t *testing.T) {
	store := newFakeStore()
	store.ledgers[[2]int64{1, 2}] = Ledger{CustomerID: 1, ProductID: 2, QuantityOut: 2, QuantityPending: 2, DepositValueTotal: 16}
	store.deposits[1] = 16
	unit := 8.0
	store.products[2] = &unit

	svc := NewService(store, nil, 5.0)

	ledger, err := svc.RecordReturn(context.Background(), 0, 1, 2, 1)
	require.NoError(t, err)
	require.Equal(t, 8.0, ledger.DepositValueTotal)
	require.Equal(t, 8.0, store.deposits[1])
}

func TestRecordReturnFailsWithoutLedger(t *testing.T) {
	svc := NewService(newFakeStore(), nil, 5.0)

	_, err := svc.RecordReturn(context.Background(), 0, 9, 9, 1)
	require.ErrorIs(t, err, ErrNoLedger)

	_, err = svc.RecordReturn(context.Background(), 0, 9, 9, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}
