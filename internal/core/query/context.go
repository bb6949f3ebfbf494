package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/normalize"
)

type invoiceData struct {
	ID             string   `json:"id"`
	Vendor         string   `json:"vendor"`
	InvoiceNumber  string   `json:"invoice_number"`
	Total          float64  `json:"total"`
	FormattedTotal string   `json:"formatted_total"`
	InvoiceDate    string   `json:"invoice_date"`
	DueDate        string   `json:"due_date"`
	Items          []string `json:"items"`
	IsOverdue      bool     `json:"is_overdue"`
	DaysUntilDue   *int     `json:"days_until_due"`
}

// InvoiceDataJSON serializes the per-record data embedded in the
// function-calling system prompt.
func (e *Engine) InvoiceDataJSON(invoices []domain.Invoice) (string, error) {
	data := make([]invoiceData, 0, len(invoices))
	for _, view := range e.calendar.Views(invoices) {
		data = append(data, invoiceData{
			ID:             view.ID,
			Vendor:         view.Vendor,
			InvoiceNumber:  view.InvoiceNumber,
			Total:          view.Total,
			FormattedTotal: view.FormattedTotal,
			InvoiceDate:    view.InvoiceDate,
			DueDate:        view.DueDate,
			Items:          view.Items,
			IsOverdue:      view.IsOverdue,
			DaysUntilDue:   view.DaysUntilDue,
		})
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal invoice data: %w", err)
	}
	return string(raw), nil
}

// DetailedContext renders aggregate figures followed by one line per record
// for the plain answering tier.
func (e *Engine) DetailedContext(invoices []domain.Invoice) string {
	if len(invoices) == 0 {
		return "No invoices available."
	}
	set := invoiceSet{calendar: e.calendar, invoices: invoices}

	var b strings.Builder
	b.WriteString("INVOICE DATA:\n")
	fmt.Fprintf(&b, "Total Invoices: %d\n", len(invoices))
	fmt.Fprintf(&b, "Total Value: %s\n", normalize.FormatCurrency(sumTotals(invoices)))
	fmt.Fprintf(&b, "Vendors: %s\n", strings.Join(distinctVendors(invoices), ", "))
	fmt.Fprintf(&b, "On Time: %d\n", len(set.onTime()))
	fmt.Fprintf(&b, "Overdue: %d\n", len(set.overdue()))
	b.WriteString("\nDETAILED INVOICES:\n")
	for _, inv := range invoices {
		status := "On Time"
		if e.calendar.IsOverdue(inv.DueDate) {
			status = "Overdue"
		}
		fmt.Fprintf(&b, "Invoice %s: %s, Amount: %s, Date: %s, Due: %s, Status: %s\n",
			inv.InvoiceNumber, inv.Vendor, normalize.FormatCurrency(inv.Total), inv.InvoiceDate, inv.DueDate, status)
	}
	return strings.TrimRight(b.String(), "\n")
}
