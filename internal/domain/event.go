package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Table names used in change events. They match the Postgres table names.
const (
	TableSessions     = "sessions"
	TableParticipants = "session_participants"
	TableSuggestions  = "meetup_suggestions"
)

// EventType is the kind of row change a ChangeEvent describes.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangeEvent is a row-level change notification scoped to one session.
// Receivers must treat NewRow/OldRow as hints only and re-fetch state.
// Origin identifies the process that made the change so it can skip its own
// echoes.
type ChangeEvent struct {
	Table     string          `json:"table"`
	Type      EventType       `json:"event_type"`
	SessionID uuid.UUID       `json:"session_id"`
	Origin    string          `json:"origin,omitempty"`
	NewRow    json.RawMessage `json:"new_row,omitempty"`
	OldRow    json.RawMessage `json:"old_row,omitempty"`
}
