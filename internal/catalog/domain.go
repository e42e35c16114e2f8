// Package catalog manages the product registry. Unit cost lives here but is
// mutated only by purchase receiving and batch completion.
package catalog

import (
	"errors"
	"time"
)

// Product statuses.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Product is a catalog entry. DepositValue is nil when the product uses the
// process-wide default deposit value.
type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	IsReturnable bool      `json:"is_returnable"`
	DepositValue *float64  `json:"deposit_value"`
	CostUnit     float64   `json:"cost_unit"`
	PriceUnit    float64   `json:"price_unit"`
	Description  string    `json:"description,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateInput carries a new catalog entry.
type CreateInput struct {
	Name         string
	Category     string
	IsReturnable bool
	DepositValue *float64
	PriceUnit    float64
	Description  string
}

// UpdateInput carries mutable product fields. Unit cost is deliberately
// absent; only stock receipts may change it.
type UpdateInput struct {
	Name         string
	Category     string
	IsReturnable bool
	DepositValue *float64
	PriceUnit    float64
	Description  string
	Status       string
}

var (
	// ErrNotFound indicates the product does not exist.
	ErrNotFound = errors.New("catalog: product not found")
	// ErrDuplicateName indicates a name collision.
	ErrDuplicateName = errors.New("catalog: product name already in use")
	// ErrHasDependencies blocks deletion of a product referenced by
	// purchase or sale items.
	ErrHasDependencies = errors.New("catalog: product referenced by orders")
	// ErrValidation indicates a malformed input.
	ErrValidation = errors.New("catalog: invalid input")
)
