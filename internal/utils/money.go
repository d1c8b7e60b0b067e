package utils

import (
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount for display, e.g. "$1,234.50" or "-£20.00".
// Unknown currencies and non-finite amounts render as an empty string.
func FormatMoney(amount float64, currency string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ""
	}
	cur := money.GetCurrency(currency)
	if cur == nil {
		return ""
	}

	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}
