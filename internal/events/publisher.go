package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/smartcity/governance/internal/domain"
)

// Config holds NATS configuration
type Config struct {
	URL            string
	Name           string
	Subject        string
	ReconnectWait  time.Duration
	MaxReconnects  int
	ConnectTimeout time.Duration
}

// RoutedEvent is the payload published for every routing decision
type RoutedEvent struct {
	Type     string                 `json:"type"`
	Decision domain.RoutingDecision `json:"decision"`
	SentAt   time.Time              `json:"sent_at"`
}

// EventTypeRouted identifies routing decision events
const EventTypeRouted = "request.routed"

// conn is the slice of *nats.Conn the publisher needs
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// NATSPublisher publishes routing decisions to a NATS subject
type NATSPublisher struct {
	conn    conn
	subject string
	now     func() time.Time
}

// NewNATSPublisher connects to NATS and returns a publisher
func NewNATSPublisher(cfg Config) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.ConnectTimeout),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("events: failed to connect to NATS: %w", err)
	}

	return newPublisher(nc, cfg.Subject), nil
}

func newPublisher(c conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: c, subject: subject, now: time.Now}
}

// PublishRouted publishes a decision and waits for the server to accept it
func (p *NATSPublisher) PublishRouted(ctx context.Context, decision domain.RoutingDecision) error {
	payload, err := json.Marshal(RoutedEvent{
		Type:     EventTypeRouted,
		Decision: decision,
		SentAt:   p.now(),
	})
	if err != nil {
		return fmt.Errorf("events: failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("events: failed to publish: %w", err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("events: failed to flush: %w", err)
	}
	return nil
}

// Close drains pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// NopPublisher discards events; used when NATS is not configured
type NopPublisher struct{}

// PublishRouted does nothing
func (NopPublisher) PublishRouted(context.Context, domain.RoutingDecision) error {
	return nil
}

var (
	_ domain.EventPublisher = (*NATSPublisher)(nil)
	_ domain.EventPublisher = NopPublisher{}
)
