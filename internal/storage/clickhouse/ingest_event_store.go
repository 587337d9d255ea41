package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"banano-chat-relay/internal/domain"
	"banano-chat-relay/internal/storage"
)

// IngestEventStore implements storage.IngestEventStore using ClickHouse.
// MergeTree enforces no uniqueness, which suits the append-only archive.
type IngestEventStore struct {
	conn *Conn
}

// NewIngestEventStore creates a new IngestEventStore.
func NewIngestEventStore(conn *Conn) *IngestEventStore {
	return &IngestEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.IngestEventStore = (*IngestEventStore)(nil)

// Insert appends one ingest event.
func (s *IngestEventStore) Insert(ctx context.Context, e *domain.IngestEvent) error {
	if e == nil {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO ingest_events (
			hash, outcome, reason, address, amount_raw, duration_ms, timestamp
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		e.Hash, string(e.Outcome), e.Reason, e.Address, e.AmountRaw,
		uint64(e.DurationMs), uint64(e.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves events within [start, end] ms (inclusive).
func (s *IngestEventStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.IngestEvent, error) {
	query := `
		SELECT hash, outcome, reason, address, amount_raw, duration_ms, timestamp
		FROM ingest_events
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanIngestEvents(rows)
}

// scanIngestEvents scans multiple rows into a slice of IngestEvent.
func scanIngestEvents(rows driver.Rows) ([]*domain.IngestEvent, error) {
	var events []*domain.IngestEvent

	for rows.Next() {
		var (
			e          domain.IngestEvent
			outcome    string
			durationMs uint64
			timestamp  uint64
		)
		err := rows.Scan(&e.Hash, &outcome, &e.Reason, &e.Address, &e.AmountRaw, &durationMs, &timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan ingest event: %w", err)
		}
		e.Outcome = domain.Outcome(outcome)
		e.DurationMs = int64(durationMs)
		e.Timestamp = int64(timestamp)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingest events: %w", err)
	}

	return events, nil
}
