package casserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dvs-io/dvs/pkg/oid"
)

// event is broadcast to every connected /events client whenever an
// object is written or removed, letting a long-running client watch for
// remote changes without polling /status.
type event struct {
	Kind string    `json:"kind"` // "put" or "delete"
	Oid  string    `json:"oid"`
	At   time.Time `json:"at"`
}

// eventHub fans out events to connected websocket clients, dropping a
// client that falls behind rather than blocking the writer that
// produced the event.
type eventHub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan event
}

func newEventHub() *eventHub {
	return &eventHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan event),
	}
}

func (h *eventHub) broadcastPut(id oid.Oid) {
	h.broadcast(event{Kind: "put", Oid: id.String(), At: time.Now()})
}

func (h *eventHub) broadcastDelete(id oid.Oid) {
	h.broadcast(event{Kind: "delete", Oid: id.String(), At: time.Now()})
}

func (h *eventHub) broadcast(ev event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- ev:
		default:
			delete(h.clients, conn)
			close(ch)
		}
	}
}

func (h *eventHub) add(conn *websocket.Conn) chan event {
	ch := make(chan event, 16)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *eventHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(ch)
	}
	h.mu.Unlock()
}

func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	if _, status := s.auth.authorize(r, "read"); status != 0 {
		writeError(w, status, authKind(status))
		return
	}
	conn, err := s.events.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("events upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ch := s.events.add(conn)
	defer s.events.remove(conn)

	go drainClientReads(conn)

	for ev := range ch {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// drainClientReads discards incoming frames so ping/pong and close
// control messages are handled by the gorilla/websocket library, and
// detects client disconnects.
func drainClientReads(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
