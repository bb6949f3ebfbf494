package query

import (
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

// Phrase-qualified amounts come first so the bare number never shadows them.
var thresholdPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)less than\s*([0-9]+)`),
	regexp.MustCompile(`(?i)below\s*([0-9]+)`),
	regexp.MustCompile(`(?i)under\s*([0-9]+)`),
	regexp.MustCompile(`(?i)above\s*([0-9]+)`),
	regexp.MustCompile(`(?i)over\s*([0-9]+)`),
	regexp.MustCompile(`(?i)more than\s*([0-9]+)`),
	regexp.MustCompile(`(?i)greater than\s*([0-9]+)`),
	regexp.MustCompile(`<\s*([0-9]+)`),
	regexp.MustCompile(`>\s*([0-9]+)`),
	regexp.MustCompile(`([0-9]+)`),
}

var firstDigits = regexp.MustCompile(`[0-9]+`)

// thresholdAmount returns the amount a threshold question compares against.
// A zero amount is treated as absent.
func thresholdAmount(text string) (decimal.Decimal, bool) {
	for _, pattern := range thresholdPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		amount, err := decimal.NewFromString(m[1])
		if err != nil || amount.IsZero() {
			return decimal.Zero, false
		}
		return amount, true
	}
	return decimal.Zero, false
}

func firstNumber(text string) (int, bool) {
	digits := firstDigits.FindString(text)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
