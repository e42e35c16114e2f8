// Package purchasing owns the purchase order lifecycle. Receiving a purchase
// posts inbound movements and recosts each product; a received purchase can
// only be wound back through reversals, never deleted.
package purchasing

import (
	"errors"
	"time"
)

// Purchase order statuses.
const (
	StatusDraft     = "DRAFT"
	StatusReceived  = "RECEIVED"
	StatusCancelled = "CANCELLED"
)

// PurchaseOrder groups ordered items bought from one supplier.
type PurchaseOrder struct {
	ID           int64          `json:"id"`
	SupplierName string         `json:"supplier_name"`
	OrderDate    time.Time      `json:"order_date"`
	TotalCost    float64        `json:"total_cost"`
	Status       string         `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	Items        []PurchaseItem `json:"items,omitempty"`
}

// PurchaseItem is one ordered line. LineOrder fixes the authored sequence so
// same-product repeats recost deterministically.
type PurchaseItem struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	UnitCost  float64 `json:"unit_cost"`
	Subtotal  float64 `json:"subtotal"`
	LineOrder int     `json:"line_order"`
}

// ItemInput is one line of a new purchase.
type ItemInput struct {
	ProductID int64
	Quantity  float64
	UnitCost  float64
}

// CreateInput carries a new draft purchase.
type CreateInput struct {
	SupplierName string
	OrderDate    time.Time
	Items        []ItemInput
}

// Reversal requests winding back part of a received purchase.
type Reversal struct {
	ProductID int64
	Quantity  float64
}

var (
	// ErrNotFound indicates the purchase does not exist.
	ErrNotFound = errors.New("purchasing: purchase not found")
	// ErrInvalidState indicates the operation does not apply to the
	// purchase's current status.
	ErrInvalidState = errors.New("purchasing: invalid purchase state")
	// ErrExceedsReversible indicates a reversal beyond what remains
	// unreversed for a product.
	ErrExceedsReversible = errors.New("purchasing: reversal exceeds reversible quantity")
	// ErrValidation indicates a malformed input.
	ErrValidation = errors.New("purchasing: invalid input")
)
