package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/extraction"
	"github.com/kirillkom/invoice-assistant/internal/core/normalize"
)

type storeFake struct {
	invoices []domain.Invoice
	addErr   error
}

func (f *storeFake) Add(inv domain.Invoice) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.invoices = append(f.invoices, inv)
	return nil
}

func (f *storeFake) Snapshot() []domain.Invoice {
	return append([]domain.Invoice(nil), f.invoices...)
}

func (f *storeFake) Delete(id string) (domain.Invoice, error) {
	for i, inv := range f.invoices {
		if inv.ID == id {
			f.invoices = append(f.invoices[:i], f.invoices[i+1:]...)
			return inv, nil
		}
	}
	return domain.Invoice{}, domain.WrapError(domain.ErrInvoiceNotFound, "delete invoice", fmt.Errorf("id %s", id))
}

func (f *storeFake) Replace(invoices []domain.Invoice) {
	f.invoices = append([]domain.Invoice(nil), invoices...)
}

type decoderFake struct {
	text string
	err  error
	docs []domain.SourceDocument
}

func (f *decoderFake) Decode(_ context.Context, doc domain.SourceDocument) (string, error) {
	f.docs = append(f.docs, doc)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fetcherFake struct {
	doc *domain.SourceDocument
	err error
}

func (f *fetcherFake) Fetch(context.Context, string) (*domain.SourceDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

type storageFake struct {
	keys []string
	data [][]byte
	err  error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, _ := io.ReadAll(data)
	f.keys = append(f.keys, key)
	f.data = append(f.data, raw)
	return nil
}

type publisherFake struct {
	events []domain.InvoiceEvent
	err    error
}

func (f *publisherFake) PublishInvoiceEvent(_ context.Context, event domain.InvoiceEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type exporterFake struct {
	views []domain.InvoiceView
}

func (f *exporterFake) WriteInvoices(w io.Writer, views []domain.InvoiceView) error {
	f.views = views
	_, err := io.WriteString(w, "xlsx")
	return err
}

type extractionRecorderFake struct {
	origins []domain.DocumentOrigin
}

func (f *extractionRecorderFake) RecordExtraction(origin domain.DocumentOrigin) {
	f.origins = append(f.origins, origin)
}

type fixedEntropy struct{}

func (fixedEntropy) Intn(int) int { return 0 }

func (fixedEntropy) Now() time.Time { return time.Unix(1700000000, 0) }

type invoiceHarness struct {
	store     *storeFake
	decoder   *decoderFake
	fetcher   *fetcherFake
	storage   *storageFake
	events    *publisherFake
	exporter  *exporterFake
	recorder  *extractionRecorderFake
	uc        *InvoiceUseCase
	generated int
}

func newInvoiceHarness() *invoiceHarness {
	h := &invoiceHarness{
		store:    &storeFake{},
		decoder:  &decoderFake{},
		fetcher:  &fetcherFake{},
		storage:  &storageFake{},
		events:   &publisherFake{},
		exporter: &exporterFake{},
		recorder: &extractionRecorderFake{},
	}
	calendar := normalize.DefaultCalendar()
	h.uc = NewInvoiceUseCase(InvoiceDeps{
		Store:     h.store,
		Extractor: extraction.NewEngine(extraction.Options{Calendar: calendar, Entropy: fixedEntropy{}}),
		Decoder:   h.decoder,
		Fetcher:   h.fetcher,
		Exporter:  h.exporter,
		Calendar:  calendar,
		Storage:   h.storage,
		Events:    h.events,
		Recorder:  h.recorder,
		NewID: func() string {
			h.generated++
			return fmt.Sprintf("id-%d", h.generated)
		},
		Now: func() time.Time { return time.Date(2025, time.September, 10, 8, 0, 0, 0, time.UTC) },
	})
	return h
}

func TestUploadExtractsArchivesAndPublishes(t *testing.T) {
	h := newInvoiceHarness()
	h.decoder.text = "Vendor: Acme Supplies\nInvoice Number: ACM-0042\nDue Date: 2025-09-01\nGrand Total: $310.20"

	view, err := h.uc.Upload(context.Background(), "scans/March bill.PDF", "application/pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if view.ID != "id-1" || view.Vendor != "Acme Supplies" || view.FormattedTotal != "$310.20" || !view.IsOverdue {
		t.Fatalf("unexpected view: %+v", view)
	}
	if len(h.storage.keys) != 1 || h.storage.keys[0] != "id-1_March_bill.PDF" || string(h.storage.data[0]) != "%PDF-1.4" {
		t.Fatalf("unexpected archive: %v", h.storage.keys)
	}
	if len(h.events.events) != 1 || h.events.events[0].Type != domain.EventInvoiceAdded || h.events.events[0].Total != "310.20" {
		t.Fatalf("unexpected events: %+v", h.events.events)
	}
	if len(h.recorder.origins) != 1 || h.recorder.origins[0] != domain.OriginUpload {
		t.Fatalf("unexpected recorded origins: %v", h.recorder.origins)
	}
	if len(h.store.invoices) != 1 {
		t.Fatalf("expected one stored invoice, got %d", len(h.store.invoices))
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	h := newInvoiceHarness()

	_, err := h.uc.Upload(context.Background(), "malware.exe", "application/octet-stream", strings.NewReader("MZ"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(h.store.invoices) != 0 || len(h.storage.keys) != 0 {
		t.Fatalf("nothing must be stored for rejected uploads")
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	h := newInvoiceHarness()
	body := bytes.NewReader(make([]byte, domain.MaxUploadBytes+1))

	_, err := h.uc.Upload(context.Background(), "big.pdf", "application/pdf", body)
	if !errors.Is(err, domain.ErrPayloadTooLarge) {
		t.Fatalf("expected payload too large, got %v", err)
	}
}

func TestUploadDegradesToFilenameWhenDecodingFails(t *testing.T) {
	h := newInvoiceHarness()
	h.decoder.err = errors.New("corrupt xref table")

	view, err := h.uc.Upload(context.Background(), "Tesla_service.pdf", "application/pdf", strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if view.Vendor != "Tesla" || view.DueDate != domain.DueCompleted {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestUploadFailsWhenArchiveFails(t *testing.T) {
	h := newInvoiceHarness()
	h.storage.err = errors.New("disk full")

	if _, err := h.uc.Upload(context.Background(), "a.png", "image/png", strings.NewReader("png")); err == nil {
		t.Fatal("expected archive error")
	}
	if len(h.store.invoices) != 0 {
		t.Fatal("invoice must not be added when archiving fails")
	}
}

func TestImportURL(t *testing.T) {
	h := newInvoiceHarness()
	h.fetcher.doc = &domain.SourceDocument{Filename: "bill.html", ContentType: "text/html", Data: []byte("<p>x</p>")}
	h.decoder.text = "Supplier: Globex Corporation\nTotal: $99.99"

	view, err := h.uc.ImportURL(context.Background(), "https://billing.example.com/bill.html")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if view.Vendor != "Globex Corporation" || view.Total != 99.99 {
		t.Fatalf("unexpected view: %+v", view)
	}
	if h.decoder.docs[0].Origin != domain.OriginURL || h.recorder.origins[0] != domain.OriginURL {
		t.Fatalf("expected url origin, got %+v", h.decoder.docs[0])
	}
}

func TestImportURLFallsBackToFileName(t *testing.T) {
	h := newInvoiceHarness()
	h.fetcher.err = domain.WrapError(domain.ErrTemporary, "fetch", errors.New("HTTP 500"))

	view, err := h.uc.ImportURL(context.Background(), "https://cdn.example.com/files/Apple-receipt.pdf")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if view.Vendor != "Apple" {
		t.Fatalf("expected vendor from file name, got %+v", view)
	}
	if len(h.decoder.docs) != 0 {
		t.Fatal("decoder must not run without content")
	}
}

func TestImportURLRejectsInvalidURL(t *testing.T) {
	h := newInvoiceHarness()

	for _, raw := range []string{"", "ftp://example.com/a.pdf", "not a url", "https://"} {
		if _, err := h.uc.ImportURL(context.Background(), raw); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%q: expected invalid input, got %v", raw, err)
		}
	}
}

func TestAddText(t *testing.T) {
	h := newInvoiceHarness()
	h.decoder.text = "Company: Initech\nTotal: $40"

	view, err := h.uc.AddText(context.Background(), "raw text", "note.txt")
	if err != nil {
		t.Fatalf("add text: %v", err)
	}
	if view.Vendor != "Initech" {
		t.Fatalf("unexpected view: %+v", view)
	}
	if _, err := h.uc.AddText(context.Background(), " ", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestLoadSampleReplacesCollection(t *testing.T) {
	h := newInvoiceHarness()
	h.store.invoices = []domain.Invoice{{ID: "old"}}

	first, err := h.uc.LoadSample(context.Background())
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	second, err := h.uc.LoadSample(context.Background())
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if len(first) != 5 || len(h.store.invoices) != 5 {
		t.Fatalf("expected 5 invoices, got %d views and %d stored", len(first), len(h.store.invoices))
	}
	if first[0].ID == second[0].ID {
		t.Fatalf("each load must assign new ids")
	}
	last := h.events.events[len(h.events.events)-1]
	if last.Type != domain.EventSampleLoaded || last.Count != 5 || last.ID == "" {
		t.Fatalf("unexpected event: %+v", last)
	}
}

func TestDeleteInvoice(t *testing.T) {
	h := newInvoiceHarness()
	if _, err := h.uc.LoadSample(context.Background()); err != nil {
		t.Fatalf("load sample: %v", err)
	}

	if err := h.uc.Delete(context.Background(), "missing"); !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := h.uc.Delete(context.Background(), "id-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(h.uc.List(context.Background())) != 4 {
		t.Fatalf("expected 4 invoices after delete")
	}
	last := h.events.events[len(h.events.events)-1]
	if last.Type != domain.EventInvoiceDeleted || last.InvoiceID != "id-1" || last.Vendor != "Amazon Web Services" {
		t.Fatalf("unexpected event: %+v", last)
	}
}

func TestPublishFailureDoesNotFailIngest(t *testing.T) {
	h := newInvoiceHarness()
	h.events.err = errors.New("nats down")

	if _, err := h.uc.AddText(context.Background(), "Vendor: Acme", ""); err != nil {
		t.Fatalf("add text: %v", err)
	}
	if len(h.store.invoices) != 1 {
		t.Fatal("invoice must be stored even when publishing fails")
	}
}

func TestExportWritesViews(t *testing.T) {
	h := newInvoiceHarness()
	if _, err := h.uc.LoadSample(context.Background()); err != nil {
		t.Fatalf("load sample: %v", err)
	}

	var buf bytes.Buffer
	if err := h.uc.Export(context.Background(), &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	if buf.String() != "xlsx" || len(h.exporter.views) != 5 || h.exporter.views[0].FormattedTotal != "$2450.00" {
		t.Fatalf("unexpected export: %q %+v", buf.String(), h.exporter.views)
	}
}
