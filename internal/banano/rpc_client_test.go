package banano

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const testHash = "87434F8041869A01C8F6F263B87972D7BA443A72E0A97D7A3FD0CCC2358FD6F9"

func TestHTTPClient_BlockInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req blockInfoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.Action != "block_info" {
			t.Errorf("expected action block_info, got %s", req.Action)
		}
		if req.Hash != testHash {
			t.Errorf("unexpected hash %s", req.Hash)
		}

		resp := map[string]interface{}{
			"block_account": "ban_1testaccount",
			"amount":        "1000000000000000000000000000",
			"subtype":       "send",
			"confirmed":     "true",
			"contents": map[string]string{
				"account":        "ban_1testaccount",
				"previous":       strings.Repeat("0", 64),
				"representative": "ban_1rep",
				"balance":        "5000000000000000000000000000",
				"link":           linkHex("hello"),
				"signature":      strings.Repeat("AB", 64),
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	block, err := client.BlockInfo(context.Background(), strings.ToLower(testHash))
	if err != nil {
		t.Fatalf("BlockInfo: %v", err)
	}

	if block.Hash != testHash {
		t.Errorf("hash = %s, want %s (uppercased)", block.Hash, testHash)
	}
	if block.Account != "ban_1testaccount" {
		t.Errorf("account = %s", block.Account)
	}
	if block.AmountRaw != "1000000000000000000000000000" {
		t.Errorf("amount = %s", block.AmountRaw)
	}
	if block.Content != "hello" {
		t.Errorf("content = %q, want %q", block.Content, "hello")
	}
	if block.Subtype != "send" {
		t.Errorf("subtype = %s", block.Subtype)
	}
}

func TestHTTPClient_BlockInfo_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "Block not found"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	_, err := client.BlockInfo(context.Background(), testHash)
	if !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("expected ErrBlockNotFound, got %v", err)
	}
}

func TestHTTPClient_BlockInfo_NodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "Bad hash"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	_, err := client.BlockInfo(context.Background(), "nothex")
	if err == nil || errors.Is(err, ErrBlockNotFound) {
		t.Errorf("expected generic node error, got %v", err)
	}
}

func TestHTTPClient_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"block_account": "ban_1testaccount",
			"amount":        "1",
			"subtype":       "send",
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(time.Millisecond),
	)

	block, err := client.BlockInfo(context.Background(), testHash)
	if err != nil {
		t.Fatalf("BlockInfo after retries: %v", err)
	}
	if block.AmountRaw != "1" {
		t.Errorf("amount = %s", block.AmountRaw)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(10),
		WithRetryDelay(50*time.Millisecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.BlockInfo(ctx, testHash)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}
