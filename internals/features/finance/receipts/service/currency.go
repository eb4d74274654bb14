// file: internals/features/finance/receipts/service/currency.go
package service

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const rupee = "₹\u00a0"

// FormatRupees renders "₹ 1,230.50" with a no-break space after the symbol.
// Negative balances carry the sign before the symbol.
func FormatRupees(v decimal.Decimal) string {
	v = v.Round(2)
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Abs()
	}
	return sign + rupee + humanize.FormatFloat("#,###.##", v.InexactFloat64())
}
