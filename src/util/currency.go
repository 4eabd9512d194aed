package util

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatUSD renders d as a dollar amount, e.g. "$1,234.56" or "-$250.50".
func FormatUSD(d decimal.Decimal) string {
	cents := d.Round(2).Shift(2).IntPart()
	return money.New(cents, money.USD).Display()
}
