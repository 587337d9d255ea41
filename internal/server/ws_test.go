package server

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, f *serverFixture) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// The handler registers the subscription after the handshake; wait
	// for it so a subsequent ingest is observable.
	deadline := time.After(2 * time.Second)
	for f.hub.Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("subscription never registered")
		case <-time.After(5 * time.Millisecond):
		}
	}
	return conn
}

func TestWS_ReceivesAcceptedMessage(t *testing.T) {
	f := newServerFixture(t)
	f.addBlock(testHash)

	conn := dialWS(t, f)

	resp := f.postCallback(t, `{"hash":"`+testHash+`","is_send":true}`)
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event messageJSON
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if event.Content != "hello" {
		t.Errorf("content = %q", event.Content)
	}
	if event.Address != testAddress {
		t.Errorf("address = %q", event.Address)
	}
	if event.Count != 1 {
		t.Errorf("count = %d, want 1", event.Count)
	}
	if !strings.HasPrefix(event.Date, "20") {
		t.Errorf("date = %q", event.Date)
	}
}

func TestWS_DuplicateNotRebroadcast(t *testing.T) {
	f := newServerFixture(t)
	f.addBlock(testHash)

	conn := dialWS(t, f)

	for i := 0; i < 2; i++ {
		resp := f.postCallback(t, `{"hash":"`+testHash+`","is_send":true}`)
		resp.Body.Close()
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first messageJSON
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var second messageJSON
	if err := conn.ReadJSON(&second); err == nil {
		t.Fatalf("replay was re-broadcast: %+v", second)
	}
}

func TestWS_DisconnectUnsubscribes(t *testing.T) {
	f := newServerFixture(t)

	conn := dialWS(t, f)
	if got := f.hub.Len(); got != 1 {
		t.Fatalf("subscribers = %d, want 1", got)
	}

	conn.Close()

	deadline := time.After(2 * time.Second)
	for f.hub.Len() != 0 {
		select {
		case <-deadline:
			t.Fatalf("subscribers = %d after disconnect, want 0", f.hub.Len())
		case <-time.After(10 * time.Millisecond):
		}
	}
}
