// Package hub fans accepted messages out to the currently connected
// realtime subscribers. Delivery is best-effort: a slow subscriber loses
// events instead of back-pressuring ingestion.
package hub

import (
	"log"
	"sync"

	"banano-chat-relay/internal/domain"
	"banano-chat-relay/internal/observability"
)

// DefaultQueueSize is the per-subscriber outbound buffer.
const DefaultQueueSize = 64

// Subscriber receives published events over a bounded buffered channel.
// The channel is closed on Unsubscribe.
type Subscriber struct {
	ch chan *domain.MessageEvent
}

// C returns the subscriber's receive channel.
func (s *Subscriber) C() <-chan *domain.MessageEvent {
	return s.ch
}

// Hub maintains the subscriber set and delivers events to all of it.
type Hub struct {
	mu        sync.Mutex
	subs      map[*Subscriber]struct{}
	queueSize int
	logger    *log.Logger
}

// Options contains configuration for creating a Hub.
type Options struct {
	QueueSize int // per-subscriber buffer, default DefaultQueueSize
	Logger    *log.Logger
}

// New creates a new Hub.
func New(opts Options) *Hub {
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		subs:      make(map[*Subscriber]struct{}),
		queueSize: queueSize,
		logger:    logger,
	}
}

// Subscribe registers a new subscriber. Subscribers receive only events
// published after registration; there is no replay.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{ch: make(chan *domain.MessageEvent, h.queueSize)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	observability.SetSubscribers(n)
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
// Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	if ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
	n := len(h.subs)
	h.mu.Unlock()

	if ok {
		observability.SetSubscribers(n)
	}
}

// Publish delivers an event to every subscriber without blocking: a full
// queue drops the event for that subscriber only. Publishes are serialized
// under the hub lock, so every subscriber observes them in publish order.
func (h *Hub) Publish(event *domain.MessageEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case sub.ch <- event:
			observability.RecordBroadcast()
		default:
			observability.RecordBroadcastDrop()
			h.logger.Printf("Dropping event for slow subscriber (queue full, size %d)", h.queueSize)
		}
	}
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
