package service

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/cobill/internal/apperr"
)

const (
	maxIntegerDigits = 12
	maxScale         = 4
)

// checkMoney rejects negative values and values outside
// maxIntegerDigits.maxScale digits.
func checkMoney(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return apperr.Validation("%s must be >= 0", field)
	}
	exp := int64(d.Exponent())
	if int64(d.NumDigits())+exp > maxIntegerDigits {
		return apperr.Validation("%s must have at most %d integer digits", field, maxIntegerDigits)
	}
	if exp < -maxScale {
		// Trailing zeros past maxScale are accepted.
		if exp < -int64(d.NumDigits())-maxScale || !d.Equal(d.Truncate(maxScale)) {
			return apperr.Validation("%s must have at most %d decimal places", field, maxScale)
		}
	}
	return nil
}
