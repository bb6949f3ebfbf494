package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

type journalFake struct {
	events []domain.InvoiceEvent
	err    error
}

func (f *journalFake) AppendEvent(_ context.Context, event domain.InvoiceEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *journalFake) RecentEvents(_ context.Context, limit int) ([]domain.InvoiceEvent, error) {
	if limit > len(f.events) {
		limit = len(f.events)
	}
	return f.events[:limit], f.err
}

type eventMetricsFake struct {
	started  int
	finished []string
	errs     []error
	lags     []time.Duration
}

func (f *eventMetricsFake) StartEvent() { f.started++ }

func (f *eventMetricsFake) FinishEvent(_, eventType string, _ time.Duration, err error) {
	f.finished = append(f.finished, eventType)
	f.errs = append(f.errs, err)
}

func (f *eventMetricsFake) ObserveEventLag(_ string, lag time.Duration) {
	f.lags = append(f.lags, lag)
}

func TestEventJournalRecordsEvent(t *testing.T) {
	journal := &journalFake{}
	metrics := &eventMetricsFake{}
	uc := NewEventJournalUseCase(journal, metrics)
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return now }

	event := domain.InvoiceEvent{
		ID:         "evt-1",
		Type:       domain.EventInvoiceAdded,
		InvoiceID:  "inv-1",
		Vendor:     "Tesla",
		Total:      "1500.00",
		OccurredAt: now.Add(-2 * time.Second),
	}
	if err := uc.Record(context.Background(), event); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(journal.events) != 1 || journal.events[0].ID != "evt-1" {
		t.Fatalf("unexpected journal %+v", journal.events)
	}
	if metrics.started != 1 || len(metrics.finished) != 1 || metrics.finished[0] != "invoice.added" || metrics.errs[0] != nil {
		t.Fatalf("unexpected metrics %+v", metrics)
	}
	if len(metrics.lags) != 1 || metrics.lags[0] != 2*time.Second {
		t.Fatalf("expected 2s lag, got %v", metrics.lags)
	}
}

func TestEventJournalRejectsIncompleteEvent(t *testing.T) {
	journal := &journalFake{}
	metrics := &eventMetricsFake{}
	uc := NewEventJournalUseCase(journal, metrics)

	err := uc.Record(context.Background(), domain.InvoiceEvent{Type: domain.EventInvoiceDeleted})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(journal.events) != 0 {
		t.Fatal("incomplete events must not be journaled")
	}
	if len(metrics.errs) != 1 || metrics.errs[0] == nil {
		t.Fatalf("failure must be observed, got %+v", metrics.errs)
	}
	if len(metrics.lags) != 0 {
		t.Fatal("events without a timestamp have no lag")
	}
}

func TestEventJournalPropagatesJournalError(t *testing.T) {
	errDB := errors.New("db down")
	uc := NewEventJournalUseCase(&journalFake{err: errDB}, nil)

	err := uc.Record(context.Background(), domain.InvoiceEvent{ID: "evt-2", Type: domain.EventSampleLoaded, Count: 5})
	if !errors.Is(err, errDB) {
		t.Fatalf("expected journal error, got %v", err)
	}
}

func TestEventJournalRecent(t *testing.T) {
	journal := &journalFake{events: []domain.InvoiceEvent{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	uc := NewEventJournalUseCase(journal, nil)

	events, err := uc.Recent(context.Background(), 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
}
