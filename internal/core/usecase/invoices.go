package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/normalize"
	"github.com/kirillkom/invoice-assistant/internal/core/ports"
)

const defaultURLFilename = "invoice.pdf"

type InvoiceDeps struct {
	Store     ports.InvoiceStore
	Extractor ports.FieldExtractor
	Decoder   ports.DocumentDecoder
	Fetcher   ports.DocumentFetcher
	Exporter  ports.WorkbookExporter
	Calendar  normalize.Calendar

	// Storage, Events and Recorder are optional.
	Storage  ports.ObjectStorage
	Events   ports.EventPublisher
	Recorder ports.ExtractionRecorder

	NewID func() string
	Now   func() time.Time
}

type InvoiceUseCase struct {
	deps InvoiceDeps
}

func NewInvoiceUseCase(deps InvoiceDeps) *InvoiceUseCase {
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &InvoiceUseCase{deps: deps}
}

func (uc *InvoiceUseCase) Upload(ctx context.Context, filename, contentType string, body io.Reader) (*domain.InvoiceView, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if !domain.AllowedUploadExtension(filename) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload invoice", fmt.Errorf("unsupported file type %q", filepath.Ext(filename)))
	}

	data, err := io.ReadAll(io.LimitReader(body, domain.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > domain.MaxUploadBytes {
		return nil, domain.WrapError(domain.ErrPayloadTooLarge, "upload invoice", fmt.Errorf("file exceeds %d bytes", domain.MaxUploadBytes))
	}

	doc := domain.SourceDocument{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
		Origin:      domain.OriginUpload,
	}
	id := uc.deps.NewID()
	if uc.deps.Storage != nil {
		key := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
		if err := uc.deps.Storage.Save(ctx, key, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("save to object storage: %w", err)
		}
	}
	return uc.ingest(ctx, id, doc)
}

// ImportURL downloads rawURL and extracts an invoice from it. A failed
// download still yields a record built from the URL's file name.
func (uc *InvoiceUseCase) ImportURL(ctx context.Context, rawURL string) (*domain.InvoiceView, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "import url", fmt.Errorf("invalid url %q", rawURL))
	}

	doc, err := uc.deps.Fetcher.Fetch(ctx, parsed.String())
	if err != nil {
		slog.Warn("invoice_download_failed", "url", parsed.Redacted(), "error", err)
		doc = &domain.SourceDocument{Filename: urlFilename(parsed)}
	}
	doc.Origin = domain.OriginURL
	return uc.ingest(ctx, uc.deps.NewID(), *doc)
}

// AddText extracts an invoice from already decoded text.
func (uc *InvoiceUseCase) AddText(ctx context.Context, text, filename string) (*domain.InvoiceView, error) {
	if strings.TrimSpace(text) == "" && strings.TrimSpace(filename) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "add invoice text", fmt.Errorf("text or filename is required"))
	}
	doc := domain.SourceDocument{
		Filename:    filename,
		ContentType: "text/plain",
		Data:        []byte(text),
		Origin:      domain.OriginText,
	}
	return uc.ingest(ctx, uc.deps.NewID(), doc)
}

func (uc *InvoiceUseCase) List(context.Context) []domain.InvoiceView {
	return uc.deps.Calendar.Views(uc.deps.Store.Snapshot())
}

func (uc *InvoiceUseCase) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.WrapError(domain.ErrInvalidInput, "delete invoice", fmt.Errorf("invoice id is required"))
	}
	removed, err := uc.deps.Store.Delete(id)
	if err != nil {
		return err
	}
	uc.publish(ctx, domain.InvoiceEvent{
		Type:      domain.EventInvoiceDeleted,
		InvoiceID: removed.ID,
		Vendor:    removed.Vendor,
		Total:     removed.Total.StringFixed(2),
	})
	return nil
}

// LoadSample replaces the collection with the demo set. Every load assigns
// new ids.
func (uc *InvoiceUseCase) LoadSample(ctx context.Context) ([]domain.InvoiceView, error) {
	now := uc.deps.Now()
	samples := domain.SampleInvoices()
	invoices := make([]domain.Invoice, 0, len(samples))
	for _, fields := range samples {
		inv, err := domain.NewInvoice(uc.deps.NewID(), fields, now)
		if err != nil {
			return nil, fmt.Errorf("build sample invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	uc.deps.Store.Replace(invoices)

	uc.publish(ctx, domain.InvoiceEvent{Type: domain.EventSampleLoaded, Count: len(invoices)})
	return uc.deps.Calendar.Views(invoices), nil
}

func (uc *InvoiceUseCase) Export(_ context.Context, w io.Writer) error {
	if err := uc.deps.Exporter.WriteInvoices(w, uc.deps.Calendar.Views(uc.deps.Store.Snapshot())); err != nil {
		return fmt.Errorf("export invoices: %w", err)
	}
	return nil
}

func (uc *InvoiceUseCase) ingest(ctx context.Context, id string, doc domain.SourceDocument) (*domain.InvoiceView, error) {
	text := ""
	if len(doc.Data) > 0 {
		decoded, err := uc.deps.Decoder.Decode(ctx, doc)
		if err != nil {
			slog.Warn("document_decode_failed", "filename", doc.Filename, "error", err)
		} else {
			text = decoded
		}
	}

	fields := uc.deps.Extractor.Extract(text, doc.Filename)
	inv, err := domain.NewInvoice(id, fields, uc.deps.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.deps.Store.Add(*inv); err != nil {
		return nil, fmt.Errorf("add invoice: %w", err)
	}
	if uc.deps.Recorder != nil {
		uc.deps.Recorder.RecordExtraction(doc.Origin)
	}
	slog.Info("invoice_added",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"vendor", inv.Vendor,
		"origin", doc.Origin,
	)

	uc.publish(ctx, domain.InvoiceEvent{
		Type:      domain.EventInvoiceAdded,
		InvoiceID: inv.ID,
		Vendor:    inv.Vendor,
		Total:     inv.Total.StringFixed(2),
	})

	view := uc.deps.Calendar.View(*inv)
	return &view, nil
}

// publish is best effort: the collection change already happened.
func (uc *InvoiceUseCase) publish(ctx context.Context, event domain.InvoiceEvent) {
	if uc.deps.Events == nil {
		return
	}
	event.ID = uuid.NewString()
	event.OccurredAt = uc.deps.Now().UTC()
	if err := uc.deps.Events.PublishInvoiceEvent(ctx, event); err != nil {
		slog.Warn("invoice_event_publish_failed", "type", event.Type, "error", err)
	}
}

func urlFilename(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return defaultURLFilename
	}
	return name
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "invoice.bin"
	}
	return base
}
