package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graceseason/storefront/internal/storefront/core/ports"
)

type mockWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func testEvent() ports.OrderPlacedEvent {
	return ports.OrderPlacedEvent{
		PaymentID:      "pay_1",
		GatewayOrderID: "order_1",
		OrderID:        42,
		OrderNumber:    1001,
		TotalPrice:     "26.25",
		Currency:       "GHS",
		ItemCount:      2,
		PlacedAt:       time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestPublishOrderPlaced(t *testing.T) {
	w := &mockWriter{}
	p := &Publisher{writer: w, topic: "storefront.orders"}

	require.NoError(t, p.PublishOrderPlaced(context.Background(), testEvent()))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "pay_1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, EventOrderPlaced, string(msg.Headers[0].Value))

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "order_1", got["gateway_order_id"])
	assert.EqualValues(t, 42, got["order_id"])
	assert.Equal(t, "26.25", got["total_price"])
	assert.Equal(t, "2024-05-01T10:00:00Z", got["placed_at"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishOrderPlaced_WriterError(t *testing.T) {
	p := &Publisher{writer: &mockWriter{err: errors.New("leader not available")}, topic: "storefront.orders"}

	err := p.PublishOrderPlaced(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.PublishOrderPlaced(context.Background(), testEvent()))
}
