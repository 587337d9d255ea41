// Package server exposes the relay over HTTP: the node's settlement
// webhook, read queries for messages and fees, and the realtime
// websocket feed.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"banano-chat-relay/internal/domain"
	"banano-chat-relay/internal/fees"
	"banano-chat-relay/internal/hub"
	"banano-chat-relay/internal/ingest"
	"banano-chat-relay/internal/observability"
	"banano-chat-relay/internal/storage"
)

const (
	// DefaultMessageLimit is the page size when the client names none.
	DefaultMessageLimit = 100

	// MaxMessageLimit caps a single read query.
	MaxMessageLimit = 500
)

// Server serves the webhook, read API and websocket feed.
type Server struct {
	pipeline *ingest.Pipeline
	store    storage.MessageStore
	fees     *fees.Provider
	hub      *hub.Hub
	logger   *log.Logger

	httpServer *http.Server
}

// Options contains configuration for creating a Server.
type Options struct {
	Pipeline   *ingest.Pipeline
	Store      storage.MessageStore
	Fees       *fees.Provider
	Hub        *hub.Hub
	ListenAddr string
	Logger     *log.Logger
}

// New creates a new Server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		pipeline: opts.Pipeline,
		store:    opts.Store,
		fees:     opts.Fees,
		hub:      opts.Hub,
		logger:   logger,
	}
	s.httpServer = &http.Server{
		Addr:              opts.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route table. Exposed separately so tests can drive
// it through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)
	mux.HandleFunc("/messages", s.handleMessages)
	mux.HandleFunc("/fees", s.handleFees)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	return mux
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// handleCallback receives the node's settlement notification. The response
// code tells the node whether to retry: 2xx and 4xx are terminal, 5xx is
// worth retrying.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var n domain.Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeError(w, http.StatusBadRequest, "malformed notification")
		return
	}

	result := s.pipeline.Ingest(r.Context(), &n)
	switch result.Status {
	case ingest.StatusOK:
		w.WriteHeader(http.StatusNoContent)
	case ingest.StatusRejected:
		writeError(w, http.StatusBadRequest, result.Reason.Error())
	default:
		writeError(w, http.StatusInternalServerError, "temporary failure, retry")
	}
}

// messageJSON is the wire shape shared by the read API and the websocket
// feed.
type messageJSON struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
	Date    string `json:"date"`
	Premium bool   `json:"premium"`
	Address string `json:"address"`
	Count   int    `json:"count"`
}

func toMessageJSON(m *domain.Message, count int) messageJSON {
	return messageJSON{
		ID:      m.ID,
		Content: m.Content,
		Date:    time.UnixMilli(m.CreatedAt).UTC().Format(time.RFC3339),
		Premium: m.Premium,
		Address: m.Address,
		Count:   count,
	}
}

// handleMessages returns recent visible messages, newest first.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := DefaultMessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	if limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}

	messages, err := s.store.Recent(r.Context(), limit, false)
	if err != nil {
		s.logger.Printf("Recent query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "temporary failure, retry")
		return
	}

	// Hidden rows are invisible but still count toward their sender.
	counts := make(map[string]int)
	out := make([]messageJSON, 0, len(messages))
	for _, m := range messages {
		count, ok := counts[m.Address]
		if !ok {
			count, err = s.store.CountByAddress(r.Context(), m.Address)
			if err != nil {
				s.logger.Printf("Count lookup failed for %s: %v", m.Address, err)
				writeError(w, http.StatusInternalServerError, "temporary failure, retry")
				return
			}
			counts[m.Address] = count
		}
		out = append(out, toMessageJSON(m, count))
	}

	// Bare array, the shape existing chat clients consume.
	writeJSON(w, http.StatusOK, out)
}

// handleFees returns the active fee schedule as raw-unit decimal strings.
func (s *Server) handleFees(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	schedule := s.fees.Current()
	writeJSON(w, http.StatusOK, map[string]string{
		"fee":     schedule.FeeRaw(),
		"premium": schedule.PremiumFeeRaw(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
