package events

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/meety/meety/internal/domain"
	"github.com/meety/meety/internal/telemetry"
)

// MemoryBus is an in-process Bus used when no NATS server is configured and
// in tests. Publish calls handlers synchronously on the caller's goroutine,
// after releasing the bus lock.
type MemoryBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[uuid.UUID]map[int]Handler
}

// NewMemoryBus returns an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[uuid.UUID]map[int]Handler)}
}

// Publish delivers ev to every current subscriber of its session.
func (b *MemoryBus) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.subs[ev.SessionID]))
	for _, h := range b.subs[ev.SessionID] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	telemetry.BusEvents.WithLabelValues("published").Inc()
	for _, h := range handlers {
		telemetry.BusEvents.WithLabelValues("received").Inc()
		h(ctx, ev)
	}
	return nil
}

// Subscribe registers h for sessionID.
func (b *MemoryBus) Subscribe(sessionID uuid.UUID, h Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[int]Handler)
	}
	b.subs[sessionID][id] = h

	return &memorySub{bus: b, sessionID: sessionID, id: id}, nil
}

// Subscribers returns how many handlers are registered for sessionID.
func (b *MemoryBus) Subscribers(sessionID uuid.UUID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[sessionID])
}

// Close drops every subscription.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[uuid.UUID]map[int]Handler)
	return nil
}

type memorySub struct {
	bus       *MemoryBus
	sessionID uuid.UUID
	id        int
}

func (s *memorySub) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	delete(s.bus.subs[s.sessionID], s.id)
	if len(s.bus.subs[s.sessionID]) == 0 {
		delete(s.bus.subs, s.sessionID)
	}
	return nil
}
