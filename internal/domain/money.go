package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorUnitExponent is the number of fraction digits of the store currency.
const MinorUnitExponent = 2

// ToMinorUnits converts a decimal amount to integer minor units (cents),
// rounding half away from zero. Non-positive amounts are rejected.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: amount must be positive, got %s", ErrValidation, amount.String())
	}
	minor := amount.Shift(MinorUnitExponent).Round(0).IntPart()
	if minor < 1 {
		return 0, fmt.Errorf("%w: amount %s rounds to zero", ErrValidation, amount.String())
	}
	return minor, nil
}

// FormatAmount renders an amount with two decimals for display.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(MinorUnitExponent)
}
