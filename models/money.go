package models

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits kept for every amount
const MoneyPlaces = 2

// RoundMoney rounds half away from zero to currency precision
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// FormatUSD renders an amount the way user-facing messages show it, e.g. "$45.00"
func FormatUSD(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(MoneyPlaces)
	}
	return "$" + d.StringFixed(MoneyPlaces)
}

// HasMoneyPrecision reports whether d has no more than two fractional digits
func HasMoneyPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyPlaces))
}
