package query

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/normalize"
)

const (
	ruleOffTopic   = "off_topic"
	ruleOnTime     = "on_time"
	ruleHighest    = "highest"
	ruleLowest     = "lowest"
	ruleOverdue    = "overdue"
	ruleTotal      = "total"
	ruleBelow      = "below_threshold"
	ruleAbove      = "above_threshold"
	ruleVendors    = "vendors"
	ruleFarthest   = "farthest_due"
	ruleDueNext    = "due_next"
	ruleAverage    = "average"
	ruleStatistics = "statistics"
	ruleVendorName = "vendor_lookup"
	ruleFallback   = "fallback"
)

const defaultDueWindowDays = 30

type rule struct {
	name   string
	match  func(q question, invoices []domain.Invoice) bool
	answer func(q question, set invoiceSet) string
}

var (
	offTopicWords = regexp.MustCompile(`\b(?:weather|time|news|sports?|movies?|music|recipes?|health|travel|jokes?|story|stories|games?|politics|hello|how are you|what is your name)\b`)
	onTimePhrase  = regexp.MustCompile(`\bon\s*time\b`)
	overdueWords  = regexp.MustCompile(`\b(?:overdue|late)\b`)
)

func isOffTopic(lower string) bool {
	return offTopicWords.MatchString(onTimePhrase.ReplaceAllString(lower, " "))
}

func defaultRules() []rule {
	return []rule{
		{
			name:   ruleOffTopic,
			match:  func(q question, _ []domain.Invoice) bool { return isOffTopic(q.lower) },
			answer: func(question, invoiceSet) string { return OffTopicMessage },
		},
		{
			name:   ruleOnTime,
			match:  func(q question, _ []domain.Invoice) bool { return q.has("on time", "ontime") },
			answer: answerOnTime,
		},
		{
			name: ruleHighest,
			match: func(q question, _ []domain.Invoice) bool {
				return q.has("highest value", "most expensive", "largest", "highest")
			},
			answer: answerHighest,
		},
		{
			name: ruleLowest,
			match: func(q question, _ []domain.Invoice) bool {
				return q.has("lowest value", "cheapest", "smallest", "lowest")
			},
			answer: answerLowest,
		},
		{
			name:   ruleOverdue,
			match:  func(q question, _ []domain.Invoice) bool { return overdueWords.MatchString(q.lower) },
			answer: answerOverdue,
		},
		{
			name: ruleTotal,
			match: func(q question, _ []domain.Invoice) bool {
				return q.has("total") && q.has("value", "amount")
			},
			answer: answerTotal,
		},
		{
			name: ruleBelow,
			match: func(q question, _ []domain.Invoice) bool {
				_, ok := thresholdAmount(q.raw)
				return ok && q.has("less than", "below", "under", "<")
			},
			answer: answerBelow,
		},
		{
			name: ruleAbove,
			match: func(q question, _ []domain.Invoice) bool {
				_, ok := thresholdAmount(q.raw)
				return ok && q.has("more than", "above", "over", "greater", ">")
			},
			answer: answerAbove,
		},
		{
			name:   ruleVendors,
			match:  func(q question, _ []domain.Invoice) bool { return q.has("vendor", "company", "supplier") },
			answer: answerVendors,
		},
		{
			name: ruleFarthest,
			match: func(q question, _ []domain.Invoice) bool {
				return q.has("farthest", "furthest", "latest") && q.has("due")
			},
			answer: answerFarthest,
		},
		{
			name: ruleDueNext,
			match: func(q question, _ []domain.Invoice) bool {
				return q.has("due") && q.has("next", "upcoming")
			},
			answer: answerDueNext,
		},
		{
			name:   ruleAverage,
			match:  func(q question, _ []domain.Invoice) bool { return q.has("average", "mean") },
			answer: answerAverage,
		},
		{
			name:   ruleStatistics,
			match:  func(q question, _ []domain.Invoice) bool { return q.has("statistics", "stats", "summary") },
			answer: func(_ question, set invoiceSet) string { return set.statistics() },
		},
		{
			name: ruleVendorName,
			match: func(q question, invoices []domain.Invoice) bool {
				_, ok := vendorInQuestion(q, invoices)
				return ok
			},
			answer: answerVendorLookup,
		},
	}
}

func answerOnTime(_ question, set invoiceSet) string {
	onTime := set.onTime()
	vendors := make([]string, 0, len(onTime))
	for _, inv := range onTime {
		vendors = append(vendors, inv.Vendor)
	}
	return fmt.Sprintf("%d invoices are on time: %s", len(onTime), strings.Join(vendors, ", "))
}

func answerHighest(_ question, set invoiceSet) string {
	inv := set.highest()
	return fmt.Sprintf("The highest value invoice is from %s with %s (Invoice: %s)",
		inv.Vendor, normalize.FormatCurrency(inv.Total), inv.InvoiceNumber)
}

func answerLowest(_ question, set invoiceSet) string {
	inv := set.lowest()
	return fmt.Sprintf("The lowest value invoice is from %s with %s (Invoice: %s)",
		inv.Vendor, normalize.FormatCurrency(inv.Total), inv.InvoiceNumber)
}

func answerOverdue(_ question, set invoiceSet) string {
	overdue := set.overdue()
	if len(overdue) == 0 {
		return "No invoices are overdue."
	}
	return fmt.Sprintf("%d overdue invoices: %s. Total overdue: %s",
		len(overdue), vendorAmounts(overdue), normalize.FormatCurrency(sumTotals(overdue)))
}

func answerTotal(_ question, set invoiceSet) string {
	return fmt.Sprintf("Total value of all invoices: %s across %d invoices",
		normalize.FormatCurrency(sumTotals(set.invoices)), len(set.invoices))
}

func answerBelow(q question, set invoiceSet) string {
	limit, _ := thresholdAmount(q.raw)
	matched := set.filter(func(inv domain.Invoice) bool { return inv.Total.LessThan(limit) })
	if len(matched) == 0 {
		return fmt.Sprintf("No invoices below %s.", normalize.FormatCurrency(limit))
	}
	return fmt.Sprintf("Vendors with invoices below %s: %s", normalize.FormatCurrency(limit), vendorAmounts(matched))
}

func answerAbove(q question, set invoiceSet) string {
	limit, _ := thresholdAmount(q.raw)
	matched := set.filter(func(inv domain.Invoice) bool { return inv.Total.GreaterThan(limit) })
	if len(matched) == 0 {
		return fmt.Sprintf("No invoices above %s.", normalize.FormatCurrency(limit))
	}
	return fmt.Sprintf("Vendors with invoices above %s: %s", normalize.FormatCurrency(limit), vendorAmounts(matched))
}

func answerVendors(q question, set invoiceSet) string {
	if q.has("count", "how many") {
		vendors := distinctVendors(set.invoices)
		return fmt.Sprintf("There are %d unique vendors: %s", len(vendors), strings.Join(vendors, ", "))
	}

	parts := make([]string, 0)
	for _, stat := range set.vendorStats() {
		parts = append(parts, fmt.Sprintf("%s: %d invoices, %s", stat.vendor, stat.count, normalize.FormatCurrency(stat.total)))
	}
	return "Vendor breakdown: " + strings.Join(parts, "; ")
}

func answerFarthest(_ question, set invoiceSet) string {
	inv, ok := set.farthestDue()
	if !ok {
		return "No future due dates found."
	}
	days, _ := set.calendar.DaysUntilDue(inv.DueDate)
	return fmt.Sprintf("Invoice with farthest due date: %s on %s\n\nDetails:\n• Amount: %s\n• Invoice Number: %s\n• Days Until Due: %d days",
		inv.Vendor, inv.DueDate, normalize.FormatCurrency(inv.Total), inv.InvoiceNumber, days)
}

func answerDueNext(q question, set invoiceSet) string {
	window, ok := firstNumber(q.raw)
	if !ok || window <= 0 {
		window = defaultDueWindowDays
	}
	upcoming := set.filter(func(inv domain.Invoice) bool {
		days, ok := set.calendar.DaysUntilDue(inv.DueDate)
		return ok && days >= 0 && days <= window
	})
	if len(upcoming) == 0 {
		return fmt.Sprintf("No invoices are due in the next %d days.", window)
	}
	return fmt.Sprintf("%d invoices due in next %d days: %s. Total: %s",
		len(upcoming), window, vendorAmounts(upcoming), normalize.FormatCurrency(sumTotals(upcoming)))
}

func answerAverage(_ question, set invoiceSet) string {
	return "Average invoice value: " + normalize.FormatCurrency(set.average())
}

func answerVendorLookup(q question, set invoiceSet) string {
	vendor, _ := vendorInQuestion(q, set.invoices)
	needle := strings.ToLower(vendor)
	matched := set.filter(func(inv domain.Invoice) bool {
		return strings.Contains(strings.ToLower(inv.Vendor), needle)
	})
	numbers := make([]string, 0, len(matched))
	for _, inv := range matched {
		numbers = append(numbers, fmt.Sprintf("%s (%s)", inv.InvoiceNumber, normalize.FormatCurrency(inv.Total)))
	}
	return fmt.Sprintf("%s: %d invoices totaling %s. Invoices: %s",
		vendor, len(matched), normalize.FormatCurrency(sumTotals(matched)), strings.Join(numbers, ", "))
}

// vendorInQuestion picks the first distinct vendor, in collection order,
// with a name word longer than three characters that occurs in the question.
func vendorInQuestion(q question, invoices []domain.Invoice) (string, bool) {
	for _, vendor := range distinctVendors(invoices) {
		for _, word := range strings.Split(strings.ToLower(vendor), " ") {
			if utf8.RuneCountInString(word) > 3 && strings.Contains(q.lower, word) {
				return vendor, true
			}
		}
	}
	return "", false
}

func vendorAmounts(invoices []domain.Invoice) string {
	parts := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		parts = append(parts, fmt.Sprintf("%s (%s)", inv.Vendor, normalize.FormatCurrency(inv.Total)))
	}
	return strings.Join(parts, ", ")
}

func sumTotals(invoices []domain.Invoice) decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(invoices))
	for _, inv := range invoices {
		amounts = append(amounts, inv.Total)
	}
	return normalize.Sum(amounts...)
}
