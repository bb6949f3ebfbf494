package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders an amount with a dollar sign and two decimals,
// without thousands separators.
func FormatCurrency(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// ParseAmount reads a monetary figure after dropping currency symbols,
// thousands separators and whitespace. ok is false when nothing numeric is
// left.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', '₹', ',', ' ', '\t', '\n', '\r':
			return -1
		default:
			return r
		}
	}, raw)
	cleaned = strings.TrimSuffix(cleaned, ".")
	if cleaned == "" {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// Sum adds the amounts in order.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
