// Package calculator holds the money arithmetic behind session totals.
package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/cobill/internal/models"
)

// TotalPlaces is the number of decimal places the payable total is rounded to.
const TotalPlaces = 2

// Sum adds amounts exactly. An empty slice sums to zero.
func Sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// TipAmount returns subtotal × tipPercent / 100, unrounded.
func TipAmount(subtotal, tipPercent decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(tipPercent).Shift(-2)
}

// SessionTotals computes the payable total for a session.
//
// Rounding happens once, on the final total: half-up to TotalPlaces (amounts
// are never negative, so half-away-from-zero and half-up coincide). Subtotal
// and tip percent are returned exactly as given.
//
// Example: subtotal 30.00 at 10% → total 33.00; subtotal 19.995 at 0% → 20.00.
func SessionTotals(subtotal, tipPercent decimal.Decimal) models.SessionTotals {
	total := subtotal.Add(TipAmount(subtotal, tipPercent)).Round(TotalPlaces)
	return models.SessionTotals{
		Subtotal:   subtotal,
		TipPercent: tipPercent,
		Total:      total,
	}
}
