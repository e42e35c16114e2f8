package inventory

import (
	"errors"
	"fmt"
	"time"
)

// RefType identifies the transaction that originated a movement.
type RefType string

const (
	// RefPurchase marks inbound stock from a received purchase.
	RefPurchase RefType = "PURCHASE"
	// RefPurchaseReversal marks outbound stock from a purchase reversal.
	RefPurchaseReversal RefType = "PURCHASE_REVERSAL"
	// RefBatch marks inbound stock from a completed production batch.
	RefBatch RefType = "BATCH"
	// RefSale marks outbound stock from a finalized sale.
	RefSale RefType = "SALE"
	// RefCancelamento marks restorative inbound stock posted after a sale
	// cancellation, always by an explicit compensating call.
	RefCancelamento RefType = "CANCELAMENTO"
)

// Movement reasons, kept in the vendor's own vocabulary.
const (
	ReasonCompra       = "COMPRA"
	ReasonEstorno      = "ESTORNO"
	ReasonProducao     = "PRODUÇÃO"
	ReasonVenda        = "VENDA"
	ReasonCancelamento = "CANCELAMENTO"
)

// Movement is one append-only stock change. Quantity is signed: inbound
// positive, outbound negative. Current stock is the plain sum of quantities.
type Movement struct {
	ID         int64
	ProductID  int64
	Quantity   float64
	Reason     string
	RefType    RefType
	RefID      string
	OccurredAt time.Time
}

// WarehouseRow is the derived per-product stock view.
type WarehouseRow struct {
	ProductID           int64   `json:"product_id"`
	ProductName         string  `json:"product_name"`
	Category            string  `json:"category"`
	Status              string  `json:"status"`
	CurrentStock        float64 `json:"current_stock"`
	CostUnit            float64 `json:"cost_unit"`
	TotalInventoryValue float64 `json:"total_inventory_value"`
}

// MovementFilter narrows movement listings.
type MovementFilter struct {
	ProductID int64
	RefType   RefType
	Limit     int
}

var (
	// ErrInvalidQuantity indicates a zero or wrongly signed quantity.
	ErrInvalidQuantity = errors.New("inventory: invalid quantity")
	// ErrInvalidUnitCost indicates a negative unit cost.
	ErrInvalidUnitCost = errors.New("inventory: unit cost must be >= 0")
)

// PurchaseRef builds the reference id for purchase receipt movements.
func PurchaseRef(purchaseID int64) string {
	return fmt.Sprintf("PURCHASE_%d", purchaseID)
}

// PurchaseReversalRef builds the reference id for purchase reversal movements.
func PurchaseReversalRef(purchaseID int64) string {
	return fmt.Sprintf("PURCHASE_%d_REVERSAL", purchaseID)
}

// BatchRef builds the reference id for batch completion movements.
func BatchRef(batchID int64) string {
	return fmt.Sprintf("BATCH_%d", batchID)
}

// SaleRef builds the reference id for sale movements.
func SaleRef(saleID int64) string {
	return fmt.Sprintf("%d", saleID)
}
