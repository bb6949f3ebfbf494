package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

const (
	schemaLockKey       = int64(2025091001)
	defaultRecentEvents = 50
	maxRecentEvents     = 500
)

// EventRepository is the worker-side journal of invoice events.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *EventRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across worker replicas.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS invoice_events (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	invoice_id TEXT,
	vendor TEXT,
	total TEXT,
	count INTEGER NOT NULL DEFAULT 0,
	occurred_at TIMESTAMPTZ NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_invoice_events_occurred_at ON invoice_events(occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_invoice_events_invoice_id ON invoice_events(invoice_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// AppendEvent is idempotent on the event id so redelivered messages are
// journaled once.
func (r *EventRepository) AppendEvent(ctx context.Context, event domain.InvoiceEvent) error {
	if event.ID == "" || event.Type == "" {
		return domain.WrapError(domain.ErrInvalidInput, "append event", errors.New("event id and type are required"))
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO invoice_events (id, type, invoice_id, vendor, total, count, occurred_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO NOTHING
`,
		event.ID, string(event.Type), nullString(event.InvoiceID), nullString(event.Vendor), nullString(event.Total),
		event.Count, event.OccurredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert invoice event: %w", err)
	}
	return nil
}

func (r *EventRepository) RecentEvents(ctx context.Context, limit int) ([]domain.InvoiceEvent, error) {
	if limit <= 0 {
		limit = defaultRecentEvents
	}
	if limit > maxRecentEvents {
		limit = maxRecentEvents
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, type, invoice_id, vendor, total, count, occurred_at
FROM invoice_events
ORDER BY occurred_at DESC, id
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query invoice events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.InvoiceEvent, 0, limit)
	for rows.Next() {
		var (
			event                    domain.InvoiceEvent
			eventType                string
			invoiceID, vendor, total sql.NullString
		)
		if err := rows.Scan(&event.ID, &eventType, &invoiceID, &vendor, &total, &event.Count, &event.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan invoice event: %w", err)
		}
		event.Type = domain.InvoiceEventType(eventType)
		event.InvoiceID = invoiceID.String
		event.Vendor = vendor.String
		event.Total = total.String
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoice events: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
