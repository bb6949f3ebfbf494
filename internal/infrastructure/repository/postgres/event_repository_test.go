package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*EventRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewEventRepository(db), mock, func() { _ = db.Close() }
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WithArgs(schemaLockKey).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS invoice_events`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendEventInsertsIdempotently(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	at := time.Date(2025, 9, 10, 8, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO invoice_events .* ON CONFLICT \(id\) DO NOTHING`).
		WithArgs("evt-1", "invoice.added", sql.NullString{String: "inv-1", Valid: true}, sql.NullString{String: "Acme", Valid: true}, sql.NullString{String: "120.00", Valid: true}, 0, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AppendEvent(context.Background(), domain.InvoiceEvent{
		ID: "evt-1", Type: domain.EventInvoiceAdded, InvoiceID: "inv-1", Vendor: "Acme", Total: "120.00", OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendEventRejectsIncompleteEvent(t *testing.T) {
	repo, _, done := newRepoWithMock(t)
	defer done()

	err := repo.AppendEvent(context.Background(), domain.InvoiceEvent{Type: domain.EventInvoiceAdded})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAppendEventWrapsDatabaseError(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec(`INSERT INTO invoice_events`).WillReturnError(errors.New("connection reset"))
	err := repo.AppendEvent(context.Background(), domain.InvoiceEvent{ID: "evt-1", Type: domain.EventSampleLoaded, Count: 5})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRecentEventsScansRowsAndClampsLimit(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	at := time.Date(2025, 9, 10, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "type", "invoice_id", "vendor", "total", "count", "occurred_at"}).
		AddRow("evt-2", "invoices.sample_loaded", nil, nil, nil, 5, at).
		AddRow("evt-1", "invoice.deleted", "inv-1", "Acme", "120.00", 0, at.Add(-time.Minute))
	mock.ExpectQuery(`SELECT id, type, invoice_id, vendor, total, count, occurred_at`).
		WithArgs(maxRecentEvents).
		WillReturnRows(rows)

	events, err := repo.RecentEvents(context.Background(), 10_000)
	if err != nil {
		t.Fatalf("RecentEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != domain.EventSampleLoaded || events[0].Count != 5 || events[0].InvoiceID != "" {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].Vendor != "Acme" || events[1].Total != "120.00" {
		t.Fatalf("unexpected second event %+v", events[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecentEventsDefaultsLimit(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery(`FROM invoice_events`).
		WithArgs(defaultRecentEvents).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "invoice_id", "vendor", "total", "count", "occurred_at"}))

	events, err := repo.RecentEvents(context.Background(), 0)
	if err != nil || len(events) != 0 {
		t.Fatalf("unexpected result %v, %v", events, err)
	}
}
