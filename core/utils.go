package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// amounts are JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Percent returns part/total as a percentage rounded to 2 decimal places. A zero total yields 0.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct, _ := decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 2).
		Float64()
	return pct
}

// BoolPtr is handy for optional filters.
func BoolPtr(b bool) *bool { return &b }
