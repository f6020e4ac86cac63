package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/meety/meety/internal/realtime"
	"github.com/meety/meety/internal/service"
)

// SessionWebsocket handles GET /ws/sessions/{sessionId}.
// The connection receives the current snapshot immediately and then every
// change the session's coordinator reports.
func (s *Server) SessionWebsocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil || s.upgrader == nil {
		writeError(w, http.StatusNotFound, "not_found", "websocket updates are disabled")
		return
	}
	id, ok := pathUUID(w, r, "sessionId")
	if !ok {
		return
	}

	// Look the session up before upgrading so unknown IDs get a plain 404.
	snap, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, sessionNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		s.logger.WarnContext(r.Context(), "websocket upgrade failed", "session_id", id, "error", err)
		return
	}

	client := realtime.NewClient(s.hub, conn, id)
	if !s.hub.Register(client) {
		_ = conn.Close()
		return
	}
	s.hub.Send(client, snapshotMessage(snap))

	go client.WritePump()
	client.ReadPump()
}

// SnapshotNotifier pushes coordinator snapshots to websocket clients.
type SnapshotNotifier struct {
	hub *realtime.Hub
}

// NewSnapshotNotifier returns a notifier broadcasting through hub.
func NewSnapshotNotifier(hub *realtime.Hub) *SnapshotNotifier {
	return &SnapshotNotifier{hub: hub}
}

var _ service.Notifier = (*SnapshotNotifier)(nil)

// Notify implements service.Notifier.
func (n *SnapshotNotifier) Notify(sessionID uuid.UUID, snap service.Snapshot) {
	n.hub.Broadcast(sessionID, snapshotMessage(snap))
}

func snapshotMessage(snap service.Snapshot) realtime.Message {
	typ := realtime.TypeSnapshot
	if !snap.Session.IsActive {
		typ = realtime.TypeClosed
	}
	return realtime.Message{Type: typ, Data: SnapshotToResponse(snap)}
}
