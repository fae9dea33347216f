package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

// ParseAmount parses a user-supplied dollar amount into an exact decimal.
// A leading "$" is tolerated. Amounts with more than two decimal places are
// rejected rather than rounded.
func ParseAmount(input string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(input)
	trimmed = strings.TrimPrefix(trimmed, "$")
	if trimmed == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if value.Exponent() < -2 {
		return decimal.Zero, ErrTooManyDecimals
	}
	return value, nil
}

// FormatAmount renders an amount with a dollar sign and exactly two decimals.
func FormatAmount(value decimal.Decimal) string {
	return "$" + value.StringFixed(2)
}
