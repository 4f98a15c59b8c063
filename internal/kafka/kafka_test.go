package kafka

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := orders.NewEnvelope(orders.EventOrderPlaced, "shop-api", "o1", orders.OrderPlacedPayload{OrderID: "o1", Total: "20.00"})
	require.NoError(t, err)

	got, err := UnmarshalEnvelope(kafka.Message{Value: MustMarshal(env), Headers: eventHeaders(env)})
	require.NoError(t, err)
	assert.Equal(t, env.EventID, got.EventID)
	assert.Equal(t, orders.EventOrderPlaced, got.EventType)

	payload, err := orders.DecodePayload[orders.OrderPlacedPayload](got)
	require.NoError(t, err)
	assert.Equal(t, "20.00", payload.Total)

	_, err = UnmarshalEnvelope(kafka.Message{Value: []byte("nope")})
	assert.Error(t, err)
}

func TestEventHeaders(t *testing.T) {
	h := eventHeaders(orders.Envelope{EventType: orders.EventOrderCancelled, EventVersion: 1})
	require.Len(t, h, 2)
	assert.Equal(t, "x-event-type", h[0].Key)
	assert.Equal(t, []byte(orders.EventOrderCancelled), h[0].Value)
	assert.Equal(t, []byte("1"), h[1].Value)
}

func TestProducer_CloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := NewProducer([]string{"localhost:9092"}, 4, zap.NewNop())
	p.Start()
	p.Close()
	p.Close()
	p.WaitClosed()

	err := p.Publish(t.Context(), orders.TopicOrderPlaced, []byte("k"), []byte("v"))
	assert.ErrorIs(t, err, ErrProducerClosed)
}

func TestProducer_PublishHonoursContext(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, 0, zap.NewNop())

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	err := p.Publish(ctx, orders.TopicOrderPlaced, []byte("k"), []byte("v"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublisher(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, 1, zap.NewNop())
	pub := &Publisher{Producer: p}

	env, err := orders.NewEnvelope(orders.EventOrderPlaced, "shop-api", "o1", orders.OrderPlacedPayload{OrderID: "o1"})
	require.NoError(t, err)
	require.NoError(t, pub.Publish(t.Context(), orders.TopicOrderPlaced, "o1", env))

	m := <-p.inbox
	assert.Equal(t, orders.TopicOrderPlaced, m.Topic)
	assert.Equal(t, orders.PartitionKey("o1"), m.Key)
	assert.Len(t, m.Headers, 2)
}
