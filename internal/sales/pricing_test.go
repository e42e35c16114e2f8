package sales

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeTotalsDiscountOnly(t *testing.T) {
	totals := ComputeTotals(200, 10, PaymentCash, CardFee{}, 0)
	require.Equal(t, 200.0, totals.Subtotal)
	require.Equal(t, 20.0, totals.DiscountValue)
	require.Zero(t, totals.CardFee)
	require.Equal(t, 180.0, totals.FinalTotal)
}

func TestComputeTotalsCardFeePercentAppliesAfterDiscount(t *testing.T) {
	totals := ComputeTotals(200, 10, PaymentCard, CardFee{Type: CardFeePercent, Rate: 5}, 0)
	require.Equal(t, 9.0, totals.CardFee)
	require.Equal(t, 189.0, totals.FinalTotal)
}

func TestComputeTotalsCardFeeFixed(t *testing.T) {
	totals := ComputeTotals(100, 0, PaymentCard, CardFee{Type: CardFeeFixed, Rate: 2.5}, 0)
	require.Equal(t, 2.5, totals.CardFee)
	require.Equal(t, 102.5, totals.FinalTotal)
}

func TestComputeTotalsIgnoresCardFeeForOtherMethods(t *testing.T) {
	totals := ComputeTotals(100, 0, PaymentPix, CardFee{Type: CardFeePercent, Rate: 5}, 0)
	require.Zero(t, totals.CardFee)
	require.Equal(t, 100.0, totals.FinalTotal)
}

func TestComputeTotalsAddsDepositCharge(t *testing.T) {
	totals := ComputeTotals(50, 0, PaymentCash, CardFee{}, 15)
	require.Equal(t, 15.0, totals.DepositCharge)
	require.Equal(t, 65.0, totals.FinalTotal)
}
