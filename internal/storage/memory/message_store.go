package memory

import (
	"context"
	"sync"
	"time"

	"banano-chat-relay/internal/domain"
	"banano-chat-relay/internal/storage"
)

// MessageStore is an in-memory implementation of storage.MessageStore.
type MessageStore struct {
	mu     sync.RWMutex
	byHash map[string]*domain.Message
	order  []*domain.Message // insertion order, oldest first
	nextID int64
}

// NewMessageStore creates a new in-memory message store.
func NewMessageStore() *MessageStore {
	return &MessageStore{
		byHash: make(map[string]*domain.Message),
		nextID: 1,
	}
}

// Insert adds a new message. Returns ErrDuplicateKey if the hash exists.
func (s *MessageStore) Insert(_ context.Context, m *domain.Message) (*domain.Message, error) {
	if m == nil || m.Hash == "" || m.Address == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byHash[m.Hash]; exists {
		return nil, storage.ErrDuplicateKey
	}

	stored := *m
	stored.ID = s.nextID
	stored.CreatedAt = time.Now().UnixMilli()
	s.nextID++

	s.byHash[stored.Hash] = &stored
	s.order = append(s.order, &stored)

	result := stored
	return &result, nil
}

// CountByAddress counts stored messages from an address, hidden included.
func (s *MessageStore) CountByAddress(_ context.Context, address string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, m := range s.order {
		if m.Address == address {
			count++
		}
	}
	return count, nil
}

// Recent retrieves up to limit messages, newest first.
func (s *MessageStore) Recent(_ context.Context, limit int, includeHidden bool) ([]*domain.Message, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Message
	for i := len(s.order) - 1; i >= 0 && len(result) < limit; i-- {
		m := s.order[i]
		if m.Hidden && !includeHidden {
			continue
		}
		copy := *m
		result = append(result, &copy)
	}
	return result, nil
}

// SetHidden flips the moderation flag. Returns ErrNotFound if hash unknown.
func (s *MessageStore) SetHidden(_ context.Context, hash string, hidden bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, exists := s.byHash[hash]
	if !exists {
		return storage.ErrNotFound
	}
	m.Hidden = hidden
	return nil
}

var _ storage.MessageStore = (*MessageStore)(nil)
