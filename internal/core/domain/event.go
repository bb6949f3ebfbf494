package domain

import "time"

type InvoiceEventType string

const (
	EventInvoiceAdded   InvoiceEventType = "invoice.added"
	EventInvoiceDeleted InvoiceEventType = "invoice.deleted"
	EventSampleLoaded   InvoiceEventType = "invoices.sample_loaded"
)

// InvoiceEvent is published on collection changes. It carries a summary of
// the record, never the collection itself.
type InvoiceEvent struct {
	ID         string           `json:"id"`
	Type       InvoiceEventType `json:"type"`
	InvoiceID  string           `json:"invoice_id,omitempty"`
	Vendor     string           `json:"vendor,omitempty"`
	Total      string           `json:"total,omitempty"`
	Count      int              `json:"count,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}
