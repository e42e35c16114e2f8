// Package sales owns sale fulfillment. Creating a sale validates stock,
// posts outbound movements, charges deposits on returnable items and settles
// the payment, all in one transaction.
package sales

import (
	"errors"
	"time"
)

// Sale statuses.
const (
	StatusFinalizada = "FINALIZADA"
	StatusCancelada  = "CANCELADA"
)

// Payment methods.
const (
	PaymentCash = "DINHEIRO"
	PaymentPix  = "PIX"
	PaymentCard = "CARTAO"
	PaymentTab  = "FIADO"
)

// SaleOrder is one finalized sale with its lines and payment.
type SaleOrder struct {
	ID             int64      `json:"id"`
	CustomerID     int64      `json:"customer_id"`
	SaleDate       time.Time  `json:"sale_date"`
	Total          float64    `json:"total"`
	DiscountPct    float64    `json:"discount_pct"`
	DiscountValue  float64    `json:"discount_value"`
	CardFee        float64    `json:"card_fee"`
	DepositCharged float64    `json:"deposit_charged"`
	FinalTotal     float64    `json:"final_total"`
	PaymentMethod  string     `json:"payment_method"`
	Status         string     `json:"status"`
	Items          []SaleItem `json:"items,omitempty"`
	Payments       []Payment  `json:"payments,omitempty"`
}

// SaleItem is one sold line. DepositCharged records whether a returnable
// deposit was collected for this line.
type SaleItem struct {
	ID             int64   `json:"id"`
	ProductID      int64   `json:"product_id"`
	Quantity       float64 `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	Subtotal       float64 `json:"subtotal"`
	DepositCharged bool    `json:"deposit_charged"`
}

// Payment is one settlement record for a sale.
type Payment struct {
	ID            int64   `json:"id"`
	Method        string  `json:"method"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	TransactionID string  `json:"transaction_id,omitempty"`
}

// ItemInput is one requested line.
type ItemInput struct {
	ProductID     int64
	Quantity      float64
	UnitPrice     float64
	ChargeDeposit bool
}

// CreateInput carries a new sale request.
type CreateInput struct {
	CustomerID    int64
	Items         []ItemInput
	PaymentMethod string
	DiscountPct   float64
	CardFee       CardFee
}

var (
	// ErrNotFound indicates the sale does not exist.
	ErrNotFound = errors.New("sales: sale not found")
	// ErrCustomerNotFound indicates an unknown customer on the request.
	ErrCustomerNotFound = errors.New("sales: customer not found")
	// ErrProductNotFound indicates an unknown product on a line.
	ErrProductNotFound = errors.New("sales: product not found")
	// ErrInsufficientStock indicates a line asking for more than the
	// product's derived stock.
	ErrInsufficientStock = errors.New("sales: insufficient stock")
	// ErrInvalidState indicates the operation does not apply to the
	// sale's current status.
	ErrInvalidState = errors.New("sales: invalid sale state")
	// ErrAlreadyRestocked guards against double compensation of a
	// cancelled sale.
	ErrAlreadyRestocked = errors.New("sales: sale already restocked")
	// ErrValidation indicates a malformed input.
	ErrValidation = errors.New("sales: invalid input")
)
