package kafka

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

// Publisher adapts Producer to orders.EventPublisher.
type Publisher struct {
	Producer *Producer
}

func (p *Publisher) Publish(ctx context.Context, topic, key string, env orders.Envelope) error {
	if err := p.Producer.Publish(ctx, topic, orders.PartitionKey(key), MustMarshal(env), eventHeaders(env)...); err != nil {
		return fmt.Errorf("publish %s: %w", env.EventType, err)
	}
	return nil
}
