// file: internals/features/finance/receipts/service/amount_words.go
package service

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ones = []string{"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen"}
	tens   = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
	scales = []string{"", "Thousand", "Million", "Billion", "Trillion", "Quadrillion", "Quintillion"}
)

// AmountInWords rounds to the nearest whole unit and spells the magnitude in
// short-scale English: 1500 -> "One Thousand Five Hundred".
func AmountInWords(v decimal.Decimal) string {
	n := v.Round(0).Abs().BigInt().Uint64()
	return NumberToWords(n)
}

func NumberToWords(n uint64) string {
	if n == 0 {
		return "Zero"
	}
	var groups []string
	for i := 0; n > 0; i++ {
		if chunk := n % 1000; chunk > 0 {
			w := hundreds(int(chunk))
			if scales[i] != "" {
				w += " " + scales[i]
			}
			groups = append([]string{w}, groups...)
		}
		n /= 1000
	}
	return strings.Join(groups, " ")
}

func hundreds(n int) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, ones[n/100], "Hundred")
		n %= 100
	}
	switch {
	case n >= 20:
		parts = append(parts, tens[n/10])
		if n%10 > 0 {
			parts = append(parts, ones[n%10])
		}
	case n > 0:
		parts = append(parts, ones[n])
	}
	return strings.Join(parts, " ")
}
