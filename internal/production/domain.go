// Package production owns the production batch lifecycle. Completing a batch
// posts one inbound movement for the target product and recosts it.
package production

import (
	"errors"
	"time"
)

// Batch statuses. COMPLETED is terminal.
const (
	StatusDraft     = "DRAFT"
	StatusCompleted = "COMPLETED"
)

// Ingredient is an informational line of what went into a batch. It carries
// no stock effect.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Cost     float64 `json:"cost"`
}

// Batch is one production run. CostPerUnit is fixed at creation from
// TotalCost / QuantityProduced. ProductID is set on completion.
type Batch struct {
	ID               int64        `json:"id"`
	Description      string       `json:"description"`
	BatchDate        time.Time    `json:"batch_date"`
	TotalCost        float64      `json:"total_cost"`
	QuantityProduced float64      `json:"quantity_produced"`
	CostPerUnit      float64      `json:"cost_per_unit"`
	Status           string       `json:"status"`
	Ingredients      []Ingredient `json:"ingredients,omitempty"`
	ProductID        *int64       `json:"product_id,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
}

// CreateInput carries a new draft batch.
type CreateInput struct {
	Description      string
	BatchDate        time.Time
	TotalCost        float64
	QuantityProduced float64
	Ingredients      []Ingredient
}

var (
	// ErrNotFound indicates the batch does not exist.
	ErrNotFound = errors.New("production: batch not found")
	// ErrAlreadyCompleted guards against double-posting stock.
	ErrAlreadyCompleted = errors.New("production: batch already completed")
	// ErrValidation indicates a malformed input.
	ErrValidation = errors.New("production: invalid input")
)
