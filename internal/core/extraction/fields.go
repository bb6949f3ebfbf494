package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/invoice-assistant/internal/core/normalize"
)

var invoiceNumberLabels = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Invoice\s*(?:Number|No|#)\s*[:#]?\s*([A-Z0-9\-/]+)`),
	regexp.MustCompile(`(?i)Bill\s*(?:Number|No|#)\s*[:#]?\s*([A-Z0-9\-/]+)`),
	regexp.MustCompile(`(?i)Tax\s*Invoice\s*(?:Number|No|#)?\s*[:#]?\s*([A-Z0-9\-/]+)`),
	regexp.MustCompile(`(?i)Number\s*#\s*([A-Z0-9\-/]+)`),
}

// Bare codes are matched case-sensitively, as printed on the document.
var invoiceNumberCodes = []*regexp.Regexp{
	regexp.MustCompile(`[A-Z]{2,}[0-9]{8,}`),
	regexp.MustCompile(`[A-Z]+[0-9]+[A-Z]*[0-9]+`),
}

const minInvoiceNumberLen = 4

func invoiceNumber(text string) (string, bool) {
	for _, pattern := range invoiceNumberLabels {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if candidate := strings.TrimSpace(m[1]); utf8.RuneCountInString(candidate) >= minInvoiceNumberLen {
			return candidate, true
		}
	}
	for _, pattern := range invoiceNumberCodes {
		for _, candidate := range pattern.FindAllString(text, -1) {
			if len(candidate) >= minInvoiceNumberLen {
				return candidate, true
			}
		}
	}
	return "", false
}

const amountGroup = `([0-9,]+\.?[0-9]*)`

// Label priority is kept for readability; the largest candidate across all
// patterns wins regardless of which pattern produced it.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Grand\s*Total[:\s]*[₹$]?\s*` + amountGroup),
	regexp.MustCompile(`(?i)Total[:\s]*₹\s*` + amountGroup),
	regexp.MustCompile(`(?i)Amount[:\s]*₹\s*` + amountGroup),
	regexp.MustCompile(`₹\s*` + amountGroup),
	regexp.MustCompile(`\$\s*` + amountGroup),
	regexp.MustCompile(`(?i)Total[:\s]*\$\s*` + amountGroup),
}

func maxAmount(text string) (decimal.Decimal, bool) {
	best := decimal.Zero
	found := false
	for _, pattern := range amountPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			amount, ok := normalize.ParseAmount(m[1])
			if !ok || !amount.IsPositive() {
				continue
			}
			if !found || amount.GreaterThan(best) {
				best = amount
				found = true
			}
		}
	}
	return best, found
}

func placeholderTotal(entropy Entropy) decimal.Decimal {
	return decimal.NewFromInt(int64(placeholderTotalBase + entropy.Intn(placeholderTotalSpan)))
}
