package storage

import (
	"context"

	"banano-chat-relay/internal/domain"
)

// MessageStore provides access to messages storage.
type MessageStore interface {
	// Insert adds a new message keyed by its block hash and returns the
	// stored record with ID and CreatedAt assigned. Returns ErrDuplicateKey
	// if the hash exists: exactly one of N concurrent inserts for the same
	// hash succeeds, all others observe ErrDuplicateKey.
	Insert(ctx context.Context, m *domain.Message) (*domain.Message, error)

	// CountByAddress counts stored messages from an address, hidden included.
	CountByAddress(ctx context.Context, address string) (int, error)

	// Recent retrieves up to limit messages, newest first. Hidden messages
	// are excluded unless includeHidden is set.
	Recent(ctx context.Context, limit int, includeHidden bool) ([]*domain.Message, error)

	// SetHidden flips the moderation flag on a message.
	// Returns ErrNotFound if the hash is unknown.
	SetHidden(ctx context.Context, hash string, hidden bool) error
}

// IngestEventStore archives webhook processing outcomes for offline
// analysis. Append-only; duplicates are allowed.
type IngestEventStore interface {
	// Insert appends one ingest event.
	Insert(ctx context.Context, e *domain.IngestEvent) error

	// GetByTimeRange retrieves events within [start, end] ms (inclusive),
	// ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.IngestEvent, error)
}
