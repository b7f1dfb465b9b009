package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/graceseason/storefront/internal/storefront/core/ports"
)

const EventOrderPlaced = "order.placed"

var (
	_ ports.EventPublisher = (*Publisher)(nil)
	_ ports.EventPublisher = NoopPublisher{}
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes order events to a single topic, keyed by payment id so
// events of one payment stay ordered.
type Publisher struct {
	writer messageWriter
	topic  string
}

func NewPublisher(topic string, brokers ...string) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, topic: topic}
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, event ports.OrderPlacedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", EventOrderPlaced, err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.PaymentID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(EventOrderPlaced)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", EventOrderPlaced, p.topic, err)
	}

	slog.InfoContext(ctx, "order event published", "topic", p.topic, "payment_id", event.PaymentID, "order_id", event.OrderID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderPlaced(ctx context.Context, event ports.OrderPlacedEvent) error {
	slog.DebugContext(ctx, "order event dropped: no brokers configured", "payment_id", event.PaymentID)
	return nil
}
