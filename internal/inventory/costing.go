package inventory

// Recost blends the cost of existing stock with an incoming lot and returns
// the new weighted-average unit cost. currentStock may arrive negative when
// the ledger has been over-sold; it is clamped to zero here so bad history
// cannot poison the new cost. The clamp applies to costing only; sale
// fulfillment must look at the true signed sum.
func Recost(currentStock, currentCost, incomingQty, incomingCost float64) float64 {
	if currentStock < 0 {
		currentStock = 0
	}
	if incomingQty <= 0 {
		return currentCost
	}
	if currentStock == 0 {
		return incomingCost
	}
	return (currentStock*currentCost + incomingQty*incomingCost) / (currentStock + incomingQty)
}

// BatchUnitCost derives the per-unit cost of a production batch.
func BatchUnitCost(totalCost, quantityProduced float64) (float64, error) {
	if quantityProduced <= 0 {
		return 0, ErrInvalidQuantity
	}
	if totalCost < 0 {
		return 0, ErrInvalidUnitCost
	}
	return totalCost / quantityProduced, nil
}
