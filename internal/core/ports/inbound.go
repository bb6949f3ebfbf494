package ports

import (
	"context"
	"io"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

// InvoiceService is the inbound contract for collection management.
type InvoiceService interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (*domain.InvoiceView, error)
	ImportURL(ctx context.Context, rawURL string) (*domain.InvoiceView, error)
	AddText(ctx context.Context, text, filename string) (*domain.InvoiceView, error)
	List(ctx context.Context) []domain.InvoiceView
	Delete(ctx context.Context, id string) error
	LoadSample(ctx context.Context) ([]domain.InvoiceView, error)
	Export(ctx context.Context, w io.Writer) error
}

// QuestionAnswerer is the inbound contract for chat over the collection.
type QuestionAnswerer interface {
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}

// EventRecorder is the inbound contract of the event worker.
type EventRecorder interface {
	Record(ctx context.Context, event domain.InvoiceEvent) error
}
