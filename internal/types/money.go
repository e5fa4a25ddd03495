package types

import (
	"github.com/shopspring/decimal"
)

// All monetary amounts are stored as int64 minor currency units (paise).
// Decimal values exist only at the API boundary; conversion happens exactly
// once per input, rounding half away from zero at each multiplication site.

var hundred = decimal.NewFromInt(100)

// MinorFromDecimal converts a major-unit amount (rupees) to minor units (paise).
func MinorFromDecimal(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// DecimalFromMinor converts minor units back to a major-unit decimal.
func DecimalFromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// LineAmountMinor computes quantity x unit price in minor units, rounded at
// this multiplication site. Rounding error accumulates per line item rather
// than being deferred to a final rounding step.
func LineAmountMinor(quantity, unitPrice decimal.Decimal) int64 {
	return quantity.Mul(unitPrice).Mul(hundred).Round(0).IntPart()
}

// PercentOfMinor computes percent% of a minor-unit amount, rounded half away
// from zero.
func PercentOfMinor(minor int64, percent decimal.Decimal) int64 {
	return decimal.NewFromInt(minor).Mul(percent).Div(hundred).Round(0).IntPart()
}
