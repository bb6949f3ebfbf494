package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/ports"
)

const eventService = "worker"

// EventJournalUseCase persists collection change events consumed from the
// queue.
type EventJournalUseCase struct {
	journal ports.EventJournal
	metrics ports.EventMetrics
	now     func() time.Time
}

func NewEventJournalUseCase(journal ports.EventJournal, metrics ports.EventMetrics) *EventJournalUseCase {
	return &EventJournalUseCase{journal: journal, metrics: metrics, now: time.Now}
}

func (uc *EventJournalUseCase) Record(ctx context.Context, event domain.InvoiceEvent) (err error) {
	started := uc.now()
	if uc.metrics != nil {
		uc.metrics.StartEvent()
		if !event.OccurredAt.IsZero() {
			uc.metrics.ObserveEventLag(eventService, started.Sub(event.OccurredAt))
		}
		defer func() {
			uc.metrics.FinishEvent(eventService, string(event.Type), uc.now().Sub(started), err)
		}()
	}

	if event.ID == "" || event.Type == "" {
		return domain.WrapError(domain.ErrInvalidInput, "record event", fmt.Errorf("event id and type are required"))
	}
	if err := uc.journal.AppendEvent(ctx, event); err != nil {
		return fmt.Errorf("append event %s: %w", event.ID, err)
	}

	slog.Info("invoice_event_recorded",
		"event_id", event.ID,
		"type", event.Type,
		"invoice_id", event.InvoiceID,
		"count", event.Count,
	)
	return nil
}

// Recent returns the latest journaled events, newest first.
func (uc *EventJournalUseCase) Recent(ctx context.Context, limit int) ([]domain.InvoiceEvent, error) {
	events, err := uc.journal.RecentEvents(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return events, nil
}
