package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSForwarder republishes dispatched events to NATS so other services can
// react to credential activity.
type NATSForwarder struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSForwarder connects to the NATS server at url.
func NewNATSForwarder(url, prefix string) (*NATSForwarder, error) {
	conn, err := nats.Connect(url, nats.Name("admission-service"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSForwarder{conn: conn, prefix: prefix}, nil
}

// Subject returns the NATS subject for an event type.
func (f *NATSForwarder) Subject(eventType EventType) string {
	if f.prefix == "" {
		return string(eventType)
	}
	return f.prefix + "." + string(eventType)
}

// Forward is an EventHandler publishing the event as JSON.
func (f *NATSForwarder) Forward(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return f.conn.Publish(f.Subject(event.Type), payload)
}

// Attach subscribes the forwarder to every event type on d.
func (f *NATSForwarder) Attach(d Dispatcher) {
	for _, eventType := range AllEventTypes {
		d.Subscribe(eventType, f.Forward)
	}
}

// Close drains and closes the connection.
func (f *NATSForwarder) Close() {
	if f != nil && f.conn != nil {
		_ = f.conn.Drain()
	}
}
