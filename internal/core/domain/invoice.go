package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	UnknownVendor = "Unknown Vendor"
	// DueCompleted marks an invoice without a due date; it is treated as settled.
	DueCompleted = "Completed"
	DateLayout   = "2006-01-02"
	MaxItems     = 3
)

// InvoiceFields is the output of field extraction, before an id is assigned.
type InvoiceFields struct {
	Vendor        string
	InvoiceNumber string
	InvoiceDate   string
	DueDate       string
	Total         decimal.Decimal
	Items         []string
}

// Invoice is immutable once constructed; the collection only adds or
// removes whole records.
type Invoice struct {
	ID            string
	Vendor        string
	InvoiceNumber string
	InvoiceDate   string
	DueDate       string
	Total         decimal.Decimal
	Items         []string
	ProcessedDate time.Time
}

func NewInvoice(id string, fields InvoiceFields, processedAt time.Time) (*Invoice, error) {
	if strings.TrimSpace(id) == "" {
		return nil, WrapError(ErrInvalidInput, "new invoice", errors.New("id is required"))
	}
	if fields.Total.IsNegative() {
		return nil, WrapError(ErrInvalidInput, "new invoice", fmt.Errorf("negative total %s", fields.Total.String()))
	}
	if len(fields.Items) == 0 {
		return nil, WrapError(ErrInvalidInput, "new invoice", errors.New("at least one item is required"))
	}
	if _, err := time.Parse(DateLayout, fields.InvoiceDate); err != nil {
		return nil, WrapError(ErrInvalidInput, "new invoice", fmt.Errorf("invoice date %q: %w", fields.InvoiceDate, err))
	}
	if fields.DueDate != DueCompleted {
		if _, err := time.Parse(DateLayout, fields.DueDate); err != nil {
			return nil, WrapError(ErrInvalidInput, "new invoice", fmt.Errorf("due date %q: %w", fields.DueDate, err))
		}
	}

	vendor := strings.TrimSpace(fields.Vendor)
	if vendor == "" {
		vendor = UnknownVendor
	}
	items := fields.Items
	if len(items) > MaxItems {
		items = items[:MaxItems]
	}

	return &Invoice{
		ID:            id,
		Vendor:        vendor,
		InvoiceNumber: fields.InvoiceNumber,
		InvoiceDate:   fields.InvoiceDate,
		DueDate:       fields.DueDate,
		Total:         fields.Total,
		Items:         append([]string(nil), items...),
		ProcessedDate: processedAt.UTC(),
	}, nil
}

// HasDueDate reports whether the due date is a calendar date rather than the
// settled sentinel.
func (inv Invoice) HasDueDate() bool {
	return inv.DueDate != DueCompleted
}

// InvoiceView is the display shape of a record with derived fields computed
// against the reference date.
type InvoiceView struct {
	ID             string    `json:"id"`
	Vendor         string    `json:"vendor"`
	InvoiceNumber  string    `json:"invoice_number"`
	InvoiceDate    string    `json:"invoice_date"`
	DueDate        string    `json:"due_date"`
	Total          float64   `json:"total"`
	Items          []string  `json:"items"`
	ProcessedDate  time.Time `json:"processed_date"`
	DaysUntilDue   *int      `json:"days_until_due"`
	IsOverdue      bool      `json:"is_overdue"`
	FormattedTotal string    `json:"formatted_total"`
}
