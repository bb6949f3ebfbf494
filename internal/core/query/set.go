package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/normalize"
)

// invoiceSet is a non-empty snapshot evaluated against one calendar.
type invoiceSet struct {
	calendar normalize.Calendar
	invoices []domain.Invoice
}

func (s invoiceSet) filter(keep func(domain.Invoice) bool) []domain.Invoice {
	out := make([]domain.Invoice, 0)
	for _, inv := range s.invoices {
		if keep(inv) {
			out = append(out, inv)
		}
	}
	return out
}

func (s invoiceSet) overdue() []domain.Invoice {
	return s.filter(func(inv domain.Invoice) bool { return s.calendar.IsOverdue(inv.DueDate) })
}

func (s invoiceSet) onTime() []domain.Invoice {
	return s.filter(func(inv domain.Invoice) bool { return !s.calendar.IsOverdue(inv.DueDate) })
}

// highest keeps the first record on ties.
func (s invoiceSet) highest() domain.Invoice {
	best := s.invoices[0]
	for _, inv := range s.invoices[1:] {
		if inv.Total.GreaterThan(best.Total) {
			best = inv
		}
	}
	return best
}

// lowest keeps the first record on ties.
func (s invoiceSet) lowest() domain.Invoice {
	best := s.invoices[0]
	for _, inv := range s.invoices[1:] {
		if inv.Total.LessThan(best.Total) {
			best = inv
		}
	}
	return best
}

func (s invoiceSet) average() decimal.Decimal {
	return sumTotals(s.invoices).Div(decimal.NewFromInt(int64(len(s.invoices))))
}

// farthestDue returns the record with the latest calendar due date. Settled
// records are ignored.
func (s invoiceSet) farthestDue() (domain.Invoice, bool) {
	var (
		best     domain.Invoice
		bestDate time.Time
		found    bool
	)
	for _, inv := range s.invoices {
		if !inv.HasDueDate() {
			continue
		}
		due := s.calendar.ParseDate(inv.DueDate)
		if !found || due.After(bestDate) {
			best, bestDate, found = inv, due, true
		}
	}
	return best, found
}

type vendorStat struct {
	vendor string
	count  int
	total  decimal.Decimal
}

// vendorStats aggregates per vendor in first-seen order.
func (s invoiceSet) vendorStats() []vendorStat {
	index := make(map[string]int)
	stats := make([]vendorStat, 0)
	for _, inv := range s.invoices {
		i, ok := index[inv.Vendor]
		if !ok {
			i = len(stats)
			index[inv.Vendor] = i
			stats = append(stats, vendorStat{vendor: inv.Vendor, total: decimal.Zero})
		}
		stats[i].count++
		stats[i].total = stats[i].total.Add(inv.Total)
	}
	return stats
}

func (s invoiceSet) statistics() string {
	vendors := distinctVendors(s.invoices)
	lines := []string{
		"Invoice Statistics:",
		fmt.Sprintf("Total Invoices: %d", len(s.invoices)),
		"Total Value: " + normalize.FormatCurrency(sumTotals(s.invoices)),
		"Average Value: " + normalize.FormatCurrency(s.average()),
		fmt.Sprintf("Unique Vendors: %d", len(vendors)),
		fmt.Sprintf("On Time: %d", len(s.onTime())),
		fmt.Sprintf("Overdue: %d", len(s.overdue())),
		"Highest Invoice: " + normalize.FormatCurrency(s.highest().Total),
		"Lowest Invoice: " + normalize.FormatCurrency(s.lowest().Total),
		"",
		"Vendors: " + strings.Join(vendors, ", "),
	}
	return strings.Join(lines, "\n")
}

func distinctVendors(invoices []domain.Invoice) []string {
	seen := make(map[string]struct{}, len(invoices))
	out := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		if _, ok := seen[inv.Vendor]; ok {
			continue
		}
		seen[inv.Vendor] = struct{}{}
		out = append(out, inv.Vendor)
	}
	return out
}
