package sales

// CardFeeType selects how a card fee is expressed.
type CardFeeType string

const (
	// CardFeePercent applies the rate as a percentage of the discounted
	// subtotal.
	CardFeePercent CardFeeType = "PERCENT"
	// CardFeeFixed applies the rate as a flat amount in BRL.
	CardFeeFixed CardFeeType = "FIXED"
)

// CardFee is the surcharge applied to card payments.
type CardFee struct {
	Type CardFeeType `json:"type"`
	Rate float64     `json:"rate"`
}

// Totals is the priced breakdown of a sale.
type Totals struct {
	Subtotal      float64 `json:"subtotal"`
	DiscountValue float64 `json:"discount_value"`
	CardFee       float64 `json:"card_fee"`
	DepositCharge float64 `json:"deposit_charge"`
	FinalTotal    float64 `json:"final_total"`
}

// ComputeTotals prices a sale. The card fee only applies to card payments
// and is computed over the discounted subtotal. The deposit charge is passed
// in already summed because it depends on per-product deposit values.
func ComputeTotals(subtotal, discountPct float64, paymentMethod string, fee CardFee, depositCharge float64) Totals {
	discountValue := subtotal * discountPct / 100
	afterDiscount := subtotal - discountValue

	var cardFee float64
	if paymentMethod == PaymentCard {
		switch fee.Type {
		case CardFeePercent:
			cardFee = afterDiscount * fee.Rate / 100
		case CardFeeFixed:
			cardFee = fee.Rate
		}
	}

	return Totals{
		Subtotal:      subtotal,
		DiscountValue: discountValue,
		CardFee:       cardFee,
		DepositCharge: depositCharge,
		FinalTotal:    afterDiscount + cardFee + depositCharge,
	}
}
