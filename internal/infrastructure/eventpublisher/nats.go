package eventpublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/iho/commissionledger/internal/domain"
)

// SubjectPrefix prefixes every subject an outbox event is published on.
const SubjectPrefix = "commissionledger."

// natsConn is the part of *nats.Conn the publisher needs.
type natsConn interface {
	PublishMsg(msg *nats.Msg) error
	FlushWithContext(ctx context.Context) error
}

// Envelope is the message body sent on the bus.
type Envelope struct {
	ID            string         `json:"id"`
	AggregateID   string         `json:"aggregate_id"`
	AggregateType string         `json:"aggregate_type"`
	EventType     string         `json:"event_type"`
	CreatedAt     time.Time      `json:"created_at"`
	Payload       map[string]any `json:"payload"`
}

// NATSPublisher publishes outbox events on NATS subjects named
// commissionledger.<event_type>.
type NATSPublisher struct {
	conn natsConn
}

// NewNATSPublisher creates a NATSPublisher on an open connection.
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// Publish sends the event and waits for the server to acknowledge the flush.
// The event ID travels in the Nats-Msg-Id header so JetStream consumers can
// drop redeliveries.
func (p *NATSPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	body, err := json.Marshal(Envelope{
		ID:            event.ID,
		AggregateID:   event.AggregateID,
		AggregateType: event.AggregateType,
		EventType:     event.EventType,
		CreatedAt:     event.CreatedAt,
		Payload:       event.Payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.ID, err)
	}

	msg := nats.NewMsg(Subject(event.EventType))
	msg.Header.Set(nats.MsgIdHdr, event.ID)
	msg.Data = body

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}

	return p.conn.FlushWithContext(ctx)
}

// Subject returns the NATS subject for an event type.
func Subject(eventType string) string {
	return SubjectPrefix + eventType
}

// ConnectNATS dials url with reconnect handling that reports through logger.
func ConnectNATS(url string, logger zerolog.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("commissionledger"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn().Err(err).Bool("will_reconnect", !nc.IsClosed()).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info().Msg("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info().Str("url", conn.ConnectedUrl()).Msg("NATS connected")

	return conn, nil
}
