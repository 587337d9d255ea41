package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"banano-chat-relay/internal/domain"
	"banano-chat-relay/internal/storage"
)

// MessageStore implements storage.MessageStore using PostgreSQL.
// Deduplication rides on the unique index on messages.hash, so exactly one
// of any number of concurrent inserts for a hash can succeed, even across
// multiple relay instances sharing the database.
type MessageStore struct {
	pool *Pool
}

// NewMessageStore creates a new MessageStore.
func NewMessageStore(pool *Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MessageStore = (*MessageStore)(nil)

// Insert adds a new message. Returns ErrDuplicateKey if the hash exists.
func (s *MessageStore) Insert(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	if m == nil || m.Hash == "" || m.Address == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO messages (hash, address, content, premium, hidden)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	stored := *m
	err := s.pool.QueryRow(ctx, query,
		m.Hash,
		m.Address,
		m.Content,
		m.Premium,
		m.Hidden,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, storage.ErrDuplicateKey
		}
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return &stored, nil
}

// CountByAddress counts stored messages from an address, hidden included.
func (s *MessageStore) CountByAddress(ctx context.Context, address string) (int, error) {
	query := `SELECT count(*) FROM messages WHERE address = $1`

	var count int
	if err := s.pool.QueryRow(ctx, query, address).Scan(&count); err != nil {
		return 0, fmt.Errorf("count messages by address: %w", err)
	}
	return count, nil
}

// Recent retrieves up to limit messages, newest first.
func (s *MessageStore) Recent(ctx context.Context, limit int, includeHidden bool) ([]*domain.Message, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT id, hash, address, content, premium, hidden, created_at
		FROM messages
		WHERE ($2 OR NOT hidden)
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit, includeHidden)
	if err != nil {
		return nil, fmt.Errorf("get recent messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// SetHidden flips the moderation flag. Returns ErrNotFound if hash unknown.
func (s *MessageStore) SetHidden(ctx context.Context, hash string, hidden bool) error {
	query := `UPDATE messages SET hidden = $2 WHERE hash = $1`

	tag, err := s.pool.Exec(ctx, query, hash, hidden)
	if err != nil {
		return fmt.Errorf("set hidden: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanMessages scans multiple rows into a slice of Message.
func scanMessages(rows pgx.Rows) ([]*domain.Message, error) {
	var messages []*domain.Message

	for rows.Next() {
		var m domain.Message
		err := rows.Scan(&m.ID, &m.Hash, &m.Address, &m.Content, &m.Premium, &m.Hidden, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}
