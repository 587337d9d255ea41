package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"banano-chat-relay/internal/banano"
	"banano-chat-relay/internal/domain"
	"banano-chat-relay/internal/hub"
	"banano-chat-relay/internal/observability"
	"banano-chat-relay/internal/storage"
)

// DefaultFetchTimeout bounds the node RPC call per notification.
const DefaultFetchTimeout = 10 * time.Second

// auditTimeout bounds the fire-and-forget archive write.
const auditTimeout = 5 * time.Second

// Pipeline orchestrates fetch → validate → insert → broadcast for each
// webhook notification. Safe for concurrent use; the store's insert-if-
// absent is the only point deciding races between replays of one hash.
type Pipeline struct {
	rpc          banano.Client
	validator    *Validator
	store        storage.MessageStore
	hub          *hub.Hub
	audit        storage.IngestEventStore // optional
	fetchTimeout time.Duration
	logger       *log.Logger

	// orderMu serializes insert+publish so every subscriber observes
	// broadcasts in the store's insertion order.
	orderMu sync.Mutex
}

// Options contains configuration for creating a Pipeline.
type Options struct {
	RPC          banano.Client
	Validator    *Validator
	Store        storage.MessageStore
	Hub          *hub.Hub
	Audit        storage.IngestEventStore // nil disables archiving
	FetchTimeout time.Duration
	Logger       *log.Logger
}

// New creates a new Pipeline.
func New(opts Options) *Pipeline {
	fetchTimeout := opts.FetchTimeout
	if fetchTimeout == 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		rpc:          opts.RPC,
		validator:    opts.Validator,
		store:        opts.Store,
		hub:          opts.Hub,
		audit:        opts.Audit,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

// Ingest processes one settlement notification end to end.
//
// Non-sends are acknowledged without work. A hash already stored is an
// idempotent replay: acknowledged, never re-broadcast. Only a fresh insert
// publishes to subscribers; broadcast can never fail the call, persistence
// is the durability contract.
func (p *Pipeline) Ingest(ctx context.Context, n *domain.Notification) Result {
	start := time.Now()
	observability.RecordCallback()

	result := p.ingest(ctx, n)

	p.record(n, result, time.Since(start))
	return result
}

func (p *Pipeline) ingest(ctx context.Context, n *domain.Notification) Result {
	if n == nil || n.Hash == "" {
		return rejected(ErrMissingHash)
	}
	if !n.IsSend.Bool() {
		// Receives, changes and epochs are settled too; nothing to do.
		return Result{Status: StatusOK}
	}

	block, err := p.fetch(ctx, n.Hash)
	if err != nil {
		if errors.Is(err, banano.ErrBlockNotFound) {
			return rejected(ErrBlockNotFound)
		}
		p.logger.Printf("Fetch failed for %s: %v", n.Hash, err)
		return serverError(fmt.Errorf("fetch block: %w", err))
	}

	draft, err := p.validator.Validate(block)
	if err != nil {
		p.logger.Printf("Rejected %s: %v", n.Hash, err)
		return rejected(err)
	}

	// Insert and publish form one critical section: interleaving them
	// across goroutines could broadcast id N+1 before id N.
	p.orderMu.Lock()
	stored, err := p.store.Insert(ctx, &domain.Message{
		Hash:    draft.Hash,
		Address: draft.Address,
		Content: draft.Content,
		Premium: draft.Premium,
	})
	if err != nil {
		p.orderMu.Unlock()
		if errors.Is(err, storage.ErrDuplicateKey) {
			// Webhook replays are routine; ack without a second broadcast.
			return Result{Status: StatusOK, Duplicate: true}
		}
		p.logger.Printf("Store insert failed for %s: %v", n.Hash, err)
		return serverError(fmt.Errorf("insert message: %w", err))
	}
	observability.RecordStored()
	p.publish(ctx, stored)
	p.orderMu.Unlock()

	return Result{Status: StatusOK, Message: stored}
}

// fetch retrieves the block under the pipeline's fetch timeout.
func (p *Pipeline) fetch(ctx context.Context, hash string) (*domain.Block, error) {
	ctx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	start := time.Now()
	block, err := p.rpc.BlockInfo(ctx, hash)
	observability.ObserveNodeCall(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}
	if block.Hash == "" {
		block.Hash = hash
	}
	return block, nil
}

// publish fans the accepted message out with the sender's running count.
// Failures here never affect the caller's terminal status.
func (p *Pipeline) publish(ctx context.Context, m *domain.Message) {
	if p.hub == nil {
		return
	}

	count, err := p.store.CountByAddress(ctx, m.Address)
	if err != nil {
		p.logger.Printf("Count lookup failed for %s: %v", m.Address, err)
	}

	p.hub.Publish(&domain.MessageEvent{Message: m, AddressCount: count})
}

// record archives the outcome and updates metrics. Best-effort.
func (p *Pipeline) record(n *domain.Notification, result Result, elapsed time.Duration) {
	outcome := result.Outcome()
	observability.RecordOutcome(string(outcome))
	observability.ObserveIngest(elapsed.Seconds())
	if result.Status == StatusRejected && result.Reason != nil {
		observability.RecordReject(result.Reason.Error())
	}

	if p.audit == nil {
		return
	}

	event := &domain.IngestEvent{
		Outcome:    outcome,
		DurationMs: elapsed.Milliseconds(),
		Timestamp:  time.Now().UnixMilli(),
	}
	if n != nil {
		event.Hash = n.Hash
		event.Address = n.Account
		event.AmountRaw = n.AmountRaw
	}
	if result.Message != nil {
		event.Address = result.Message.Address
	}
	switch {
	case result.Reason != nil:
		event.Reason = result.Reason.Error()
	case result.Err != nil:
		event.Reason = "server_error"
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()
		if err := p.audit.Insert(ctx, event); err != nil {
			p.logger.Printf("Archive write failed for %s: %v", event.Hash, err)
		}
	}()
}
