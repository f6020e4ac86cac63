package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/meety/meety/internal/domain"
	"github.com/meety/meety/internal/telemetry"
)

// NATSBus is a Bus backed by a NATS connection. Events are JSON-encoded
// domain.ChangeEvent values.
type NATSBus struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSBus connects to url with reconnect handling enabled.
func NewNATSBus(url string, logger *slog.Logger) (*NATSBus, error) {
	nc, err := nats.Connect(url,
		nats.Name("meety-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("events.NewNATSBus: %w", err)
	}
	return &NATSBus{conn: nc, logger: logger}, nil
}

// Publish sends ev on its session/table subject.
func (b *NATSBus) Publish(_ context.Context, ev domain.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events.NATSBus.Publish: marshal: %w", err)
	}
	if err := b.conn.Publish(Subject(ev.SessionID, ev.Table), data); err != nil {
		return fmt.Errorf("events.NATSBus.Publish: %w", err)
	}
	telemetry.BusEvents.WithLabelValues("published").Inc()
	return nil
}

// Subscribe delivers every event for sessionID to h on the NATS callback
// goroutine. Malformed payloads are logged and dropped.
func (b *NATSBus) Subscribe(sessionID uuid.UUID, h Handler) (Subscription, error) {
	sub, err := b.conn.Subscribe(SessionWildcard(sessionID), func(msg *nats.Msg) {
		var ev domain.ChangeEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.logger.Warn("dropping malformed change event", "subject", msg.Subject, "error", err)
			return
		}
		telemetry.BusEvents.WithLabelValues("received").Inc()
		h(context.Background(), ev)
	})
	if err != nil {
		return nil, fmt.Errorf("events.NATSBus.Subscribe: %w", err)
	}
	return sub, nil
}

// Close drains pending messages and closes the connection.
func (b *NATSBus) Close() error {
	if err := b.conn.Drain(); err != nil {
		return fmt.Errorf("events.NATSBus.Close: %w", err)
	}
	return nil
}
