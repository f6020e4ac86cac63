// Package realtime pushes session snapshots to browsers over websockets.
//
// Each session is a room. The hub fans a message out to every client in the
// room; clients that cannot keep up drop messages rather than block the
// publisher. The next snapshot supersedes anything dropped.
package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/meety/meety/internal/telemetry"
)

// Message types sent to clients.
const (
	TypeSnapshot = "session.snapshot"
	TypeClosed   = "session.closed"
)

// Message is the envelope every websocket frame carries.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub tracks connected clients per session.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[uuid.UUID]map[*Client]struct{}
	closed bool
	logger *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:  make(map[uuid.UUID]map[*Client]struct{}),
		logger: logger,
	}
}

// Register adds c to its session's room. It returns false once the hub is
// closed; the caller should then drop the connection.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}

	room, ok := h.rooms[c.sessionID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.sessionID] = room
	}
	room[c] = struct{}{}
	telemetry.WebsocketClients.Inc()
	return true
}

// Unregister removes c and closes its send queue. Safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[c.sessionID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.sessionID)
	}
	close(c.send)
	telemetry.WebsocketClients.Dec()
}

// Broadcast sends msg to every client watching sessionID.
func (h *Hub) Broadcast(sessionID uuid.UUID, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal websocket message", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[sessionID] {
		if !c.Send(data) {
			h.logger.Debug("websocket client queue full, message dropped",
				"session_id", sessionID, "type", msg.Type)
		}
	}
}

// Send queues msg for a single registered client. It reports false when the
// client is no longer registered or its queue is full.
func (h *Hub) Send(c *Client, msg Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal websocket message", "type", msg.Type, "error", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.rooms[c.sessionID][c]; !ok {
		return false
	}
	return c.Send(data)
}

// ClientCount returns how many clients watch sessionID.
func (h *Hub) ClientCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// Close disconnects every client and rejects new registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, room := range h.rooms {
		for c := range room {
			close(c.send)
			telemetry.WebsocketClients.Dec()
		}
		delete(h.rooms, id)
	}
}
