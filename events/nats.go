package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSPublisher publishes each event on "<prefix>.<event type>".
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	log    *zap.Logger
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url, prefix string, log *zap.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("meal-delivery-api"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS server: %w", err)
	}
	return &NATSPublisher{conn: conn, prefix: prefix, log: log.Named("events")}, nil
}

func (p *NATSPublisher) Subject(eventType string) string {
	return p.prefix + "." + eventType
}

func (p *NATSPublisher) Publish(_ context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("failed to encode event", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	if err := p.conn.Publish(p.Subject(ev.Type), data); err != nil {
		p.log.Warn("failed to publish event",
			zap.String("type", ev.Type),
			zap.String("order_id", ev.OrderID),
			zap.Error(err),
		)
	}
}

// Close flushes buffered events and closes the connection.
func (p *NATSPublisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// Noop discards events when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) {}
