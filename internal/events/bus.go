// Package events carries row-level change notifications between processes
// that share a session. Every mutation publishes a domain.ChangeEvent;
// session coordinators subscribe per session and re-fetch on delivery.
package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meety/meety/internal/domain"
)

// Handler receives one change event. Delivery may be duplicated or out of
// order, so handlers treat the event as a hint and re-read state.
type Handler func(ctx context.Context, ev domain.ChangeEvent)

// Subscription is released with Unsubscribe when the session closes.
type Subscription interface {
	Unsubscribe() error
}

// Bus publishes and subscribes to session-scoped change events.
type Bus interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
	Subscribe(sessionID uuid.UUID, h Handler) (Subscription, error)
	Close() error
}

// Subject returns the subject an event for table in sessionID is published on.
func Subject(sessionID uuid.UUID, table string) string {
	return fmt.Sprintf("meety.sessions.%s.%s", sessionID, table)
}

// SessionWildcard matches every table's events for sessionID.
func SessionWildcard(sessionID uuid.UUID) string {
	return fmt.Sprintf("meety.sessions.%s.>", sessionID)
}
