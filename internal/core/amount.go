// Package core provides the domain model shared by the dialog, storage and
// report layers, including monetary amount parsing.
//
// Amounts travel as decimal.Decimal with two-digit precision and are stored
// in minor units (kopeks) by the repository.
package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPattern accepts digits with an optional single decimal point and
// optional trailing digits. A leading minus parses but is rejected later as
// non-positive, so the two failure classes stay distinct.
var amountPattern = regexp.MustCompile(`^-?\d+\.?\d*$`)

// ParseAmount parses user-entered money text.
//
// Surrounding whitespace is stripped, internal spaces (thousand separators)
// are removed and a comma decimal separator is normalized to a period:
//
//	ParseAmount("1000")  -> 1000.00
//	ParseAmount("1 500") -> 1500.00
//	ParseAmount("2,50")  -> 2.50
//
// Malformed input returns ErrInvalidAmount; a parsable zero or negative value
// returns ErrNonPositiveAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	if !amountPattern.MatchString(cleaned) {
		return decimal.Decimal{}, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return decimal.Decimal{}, ErrNonPositiveAmount
	}
	return d.Round(2), nil
}

// FormatAmount renders an amount in the canonical two-digit form ("1500.00").
// ParseAmount(FormatAmount(d)) always round-trips.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatAmountDisplay renders an amount the way report tables show it:
// space-grouped thousands and a comma decimal separator ("1 234,56").
func FormatAmountDisplay(d decimal.Decimal) string {
	s := d.StringFixed(2)
	intPart, fracPart, _ := strings.Cut(s, ".")

	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, " ") + "," + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
