package memory

import (
	"context"
	"sync"

	"banano-chat-relay/internal/domain"
	"banano-chat-relay/internal/storage"
)

// IngestEventStore is an in-memory implementation of storage.IngestEventStore.
type IngestEventStore struct {
	mu     sync.RWMutex
	events []*domain.IngestEvent
}

// NewIngestEventStore creates a new in-memory ingest event store.
func NewIngestEventStore() *IngestEventStore {
	return &IngestEventStore{}
}

// Insert appends one ingest event.
func (s *IngestEventStore) Insert(_ context.Context, e *domain.IngestEvent) error {
	if e == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *e
	s.events = append(s.events, &copy)
	return nil
}

// GetByTimeRange retrieves events within [start, end] ms (inclusive).
func (s *IngestEventStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.IngestEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.IngestEvent
	for _, e := range s.events {
		if e.Timestamp >= start && e.Timestamp <= end {
			copy := *e
			result = append(result, &copy)
		}
	}
	return result, nil
}

var _ storage.IngestEventStore = (*IngestEventStore)(nil)
