package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

// InvoiceStore holds the ordered invoice collection of the process.
type InvoiceStore interface {
	Add(inv domain.Invoice) error
	Snapshot() []domain.Invoice
	Delete(id string) (domain.Invoice, error)
	Replace(invoices []domain.Invoice)
}

// FieldExtractor turns decoded text into invoice fields. It never fails.
type FieldExtractor interface {
	Extract(text, filename string) domain.InvoiceFields
}

// DocumentDecoder returns the text of a source document. An empty string
// with a nil error means the format carries no extractable text.
type DocumentDecoder interface {
	Decode(ctx context.Context, doc domain.SourceDocument) (string, error)
}

// DocumentFetcher downloads a document from a URL.
type DocumentFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*domain.SourceDocument, error)
}

// ObjectStorage archives source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
}

// EventPublisher emits collection change events.
type EventPublisher interface {
	PublishInvoiceEvent(ctx context.Context, event domain.InvoiceEvent) error
}

// EventSubscriber delivers collection change events to a handler.
type EventSubscriber interface {
	SubscribeInvoiceEvents(ctx context.Context, handler func(context.Context, domain.InvoiceEvent) error) error
}

// EventJournal persists consumed events.
type EventJournal interface {
	AppendEvent(ctx context.Context, event domain.InvoiceEvent) error
	RecentEvents(ctx context.Context, limit int) ([]domain.InvoiceEvent, error)
}

// WorkbookExporter renders the collection as a spreadsheet.
type WorkbookExporter interface {
	WriteInvoices(w io.Writer, invoices []domain.InvoiceView) error
}

// FunctionCallingDelegate is a remote model that must call the analysis
// function before answering. analyze runs locally.
type FunctionCallingDelegate interface {
	AnswerWithAnalysis(ctx context.Context, req domain.DelegateRequest, analyze domain.Analyzer) (string, error)
}

// PlainDelegate is a remote model answering from a text context.
type PlainDelegate interface {
	Answer(ctx context.Context, req domain.DelegateRequest) (string, error)
}

// AnswerRecorder observes the answering cascade.
type AnswerRecorder interface {
	RecordAnswer(tier domain.AnswerTier)
	RecordFallback(tier domain.AnswerTier, reason string)
}

// ExtractionRecorder observes extracted records by origin.
type ExtractionRecorder interface {
	RecordExtraction(origin domain.DocumentOrigin)
}

// EventMetrics observes events handled by the worker.
type EventMetrics interface {
	StartEvent()
	FinishEvent(service, eventType string, duration time.Duration, err error)
	ObserveEventLag(service string, lag time.Duration)
}
