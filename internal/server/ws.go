package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"banano-chat-relay/internal/hub"
)

const (
	// wsWriteTimeout bounds a single frame write.
	wsWriteTimeout = 10 * time.Second

	// wsPingInterval keeps idle connections alive through proxies.
	wsPingInterval = 30 * time.Second

	// wsPongTimeout is how long a connection may go silent before the
	// read loop gives up on it.
	wsPongTimeout = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is public read-only data; any origin may subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS upgrades the connection and streams accepted messages until
// the client goes away. Events missed while the outbound queue is full
// are dropped, not replayed.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("Websocket upgrade failed: %v", err)
		return
	}

	sub := s.hub.Subscribe()

	go s.writePump(conn, sub)
	s.readPump(conn)

	s.hub.Unsubscribe(sub)
	conn.Close()
}

// writePump drains the subscriber queue onto the connection. Exits when
// the subscriber channel closes or a write fails; the read pump notices
// the dead connection and finishes teardown.
func (s *Server) writePump(conn *websocket.Conn, sub *hub.Subscriber) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.C():
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(toMessageJSON(event.Message, event.AddressCount)); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the feed is one-way. Returns when the
// client disconnects or stops answering pings.
func (s *Server) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
