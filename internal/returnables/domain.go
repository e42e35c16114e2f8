// Package returnables tracks bottles out with customers and the deposit money
// held against them. One ledger row exists per (customer, product) pair, and
// the customer's cached outstanding deposit moves in lock-step with every
// ledger mutation inside the same transaction.
package returnables

import "errors"

// Ledger is the running balance for one customer/product pair.
// QuantityOut = QuantityReturned + QuantityPending holds at all times, and
// DepositValueTotal = QuantityPending at the unit deposit in force when the
// row was last touched.
type Ledger struct {
	ID                int64   `json:"id"`
	CustomerID        int64   `json:"customer_id"`
	ProductID         int64   `json:"product_id"`
	QuantityOut       float64 `json:"quantity_out"`
	QuantityReturned  float64 `json:"quantity_returned"`
	QuantityPending   float64 `json:"quantity_pending"`
	DepositValueTotal float64 `json:"deposit_value_total"`
}

// OutstandingRow is a ledger row joined with display names, listed while
// bottles are still pending.
type OutstandingRow struct {
	Ledger
	CustomerName string `json:"customer_name"`
	ProductName  string `json:"product_name"`
}

var (
	// ErrNoLedger indicates no ledger row exists for the pair.
	ErrNoLedger = errors.New("returnables: no ledger for customer/product")
	// ErrExceedsPending indicates a return larger than the pending balance.
	ErrExceedsPending = errors.New("returnables: return exceeds pending quantity")
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("returnables: quantity must be > 0")
)

// ApplySale folds a deposit-bearing sale into the ledger and returns the
// updated row plus the delta to add to the customer's outstanding deposit.
// The zero-value Ledger represents a pair sold to for the first time.
func ApplySale(ledger Ledger, quantity, unitDeposit float64) (Ledger, float64, error) {
	if quantity <= 0 {
		return Ledger{}, 0, ErrInvalidQuantity
	}
	delta := quantity * unitDeposit
	ledger.QuantityOut += quantity
	ledger.QuantityPending += quantity
	ledger.DepositValueTotal += delta
	return ledger, delta, nil
}

// ApplyReturn folds a bottle return into the ledger and returns the updated
// row plus the delta to subtract from the customer's outstanding deposit.
// The deposit total is recomputed from the pending quantity rather than
// decremented, so a unit deposit change between sale and return cannot leave
// the row drifted.
func ApplyReturn(ledger Ledger, quantity, unitDeposit float64) (Ledger, float64, error) {
	if quantity <= 0 {
		return Ledger{}, 0, ErrInvalidQuantity
	}
	if quantity > ledger.QuantityPending {
		return Ledger{}, 0, ErrExceedsPending
	}
	ledger.QuantityReturned += quantity
	ledger.QuantityPending -= quantity
	ledger.DepositValueTotal = ledger.QuantityPending * unitDeposit
	return ledger, quantity * unitDeposit, nil
}
