package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountDigits bounds the significant digits of an amount so that every
// store, including 128-bit decimal columns, can hold it exactly.
const MaxAmountDigits = 34

// ParseAmount parses a positive monetary amount.
//
// The decimal separator is a dot and every supplied digit is kept; no
// rounding is applied. Zero, negative, signed and exponent forms are
// rejected, as are commas and more than MaxAmountDigits significant digits.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("1,000") -> error
//	ParseAmount("-1")    -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, NewValidationError("amount", "is required")
	}
	if strings.Contains(s, ",") {
		return decimal.Zero, NewValidationError("amount", "must use a dot as decimal separator and no grouping")
	}
	if strings.ContainsAny(s, "+-eE") {
		return decimal.Zero, NewValidationError("amount", "must be a plain positive number")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, NewValidationError("amount", "must be a number")
	}
	if err := validateAmount(d); err != nil {
		return decimal.Zero, err
	}
	if len(d.Coefficient().String()) > MaxAmountDigits {
		return decimal.Zero, NewValidationError("amount", "must have at most %d significant digits", MaxAmountDigits)
	}
	return d, nil
}

// FormatAmount renders d in its shortest exact form ("1000", "12.5").
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}
