package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
)

// Publisher fans stored events out to subscribers outside the process.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// NopPublisher drops events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// NATSPublisher publishes each event as JSON on "<prefix>.<event type>".
type NATSPublisher struct {
	Conn   *nats.Conn
	Prefix string
}

// ConnectNATS dials url and returns a publisher using prefix for subjects.
func ConnectNATS(url, prefix string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("sitebuilder"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	slog.Info("connected to nats", "url", url)
	return &NATSPublisher{Conn: nc, Prefix: prefix}, nil
}

// Subject returns the subject evt is published on.
func (p *NATSPublisher) Subject(evt Event) string {
	prefix := strings.TrimSuffix(p.Prefix, ".")
	if prefix == "" {
		prefix = "sitebuilder.events"
	}
	return prefix + "." + evt.Type
}

func (p *NATSPublisher) Publish(_ context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.Conn.Publish(p.Subject(evt), data)
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if p.Conn == nil {
		return
	}
	if err := p.Conn.Drain(); err != nil {
		p.Conn.Close()
	}
}
