package query

import (
	"slices"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/normalize"
)

// Analyze computes the report returned to the function-calling tier. Every
// figure is derived from invoices, whatever analysis type was requested.
func (e *Engine) Analyze(req domain.AnalysisRequest, invoices []domain.Invoice) domain.AnalysisReport {
	report := domain.AnalysisReport{
		Query:        req.Query,
		AnalysisType: req.AnalysisType,
		Status: domain.AnalysisStatus{
			OverdueInvoices: []domain.StatusLine{},
			OnTimeInvoices:  []domain.StatusLine{},
		},
		Vendors: domain.AnalysisVendors{Breakdown: []domain.VendorTotal{}},
	}
	if len(invoices) == 0 {
		return report
	}
	set := invoiceSet{calendar: e.calendar, invoices: invoices}

	total := sumTotals(invoices)
	average := set.average()
	report.Totals = domain.AnalysisTotals{
		Count:      len(invoices),
		TotalValue: normalize.FormatCurrency(total),
		RawTotal:   total.InexactFloat64(),
		Average:    normalize.FormatCurrency(average),
		RawAverage: average.InexactFloat64(),
	}

	report.Amounts = domain.AnalysisAmounts{
		Highest: highlight(set.highest()),
		Lowest:  highlight(set.lowest()),
	}

	if inv, ok := set.farthestDue(); ok {
		days, _ := e.calendar.DaysUntilDue(inv.DueDate)
		report.DueDates.FarthestDue = &domain.FarthestDue{
			Vendor:        inv.Vendor,
			DueDate:       inv.DueDate,
			Amount:        normalize.FormatCurrency(inv.Total),
			InvoiceNumber: inv.InvoiceNumber,
			DaysUntilDue:  days,
		}
	}

	overdue := set.overdue()
	onTime := set.onTime()
	report.Status.OverdueCount = len(overdue)
	report.Status.OnTimeCount = len(onTime)
	report.Status.OverdueTotal = normalize.FormatCurrency(sumTotals(overdue))
	report.Status.OnTimeTotal = normalize.FormatCurrency(sumTotals(onTime))
	for _, inv := range overdue {
		days, _ := e.calendar.DaysUntilDue(inv.DueDate)
		late := -days
		report.Status.OverdueInvoices = append(report.Status.OverdueInvoices, domain.StatusLine{
			Vendor:      inv.Vendor,
			Amount:      normalize.FormatCurrency(inv.Total),
			DueDate:     inv.DueDate,
			DaysOverdue: &late,
		})
	}
	for _, inv := range onTime {
		line := domain.StatusLine{
			Vendor:  inv.Vendor,
			Amount:  normalize.FormatCurrency(inv.Total),
			DueDate: inv.DueDate,
		}
		if days, ok := e.calendar.DaysUntilDue(inv.DueDate); ok {
			line.DaysUntilDue = &days
		}
		report.Status.OnTimeInvoices = append(report.Status.OnTimeInvoices, line)
	}

	stats := set.vendorStats()
	slices.SortStableFunc(stats, func(a, b vendorStat) int {
		return b.total.Cmp(a.total)
	})
	for _, stat := range stats {
		report.Vendors.Breakdown = append(report.Vendors.Breakdown, domain.VendorTotal{
			Vendor:    stat.vendor,
			Total:     stat.total.InexactFloat64(),
			Formatted: normalize.FormatCurrency(stat.total),
		})
	}
	top := report.Vendors.Breakdown[0]
	report.Vendors.HighestVendor = &top

	return report
}

func highlight(inv domain.Invoice) domain.AmountHighlight {
	return domain.AmountHighlight{
		Vendor:        inv.Vendor,
		Amount:        normalize.FormatCurrency(inv.Total),
		InvoiceNumber: inv.InvoiceNumber,
		DueDate:       inv.DueDate,
	}
}
