package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

// OrderCache implements orders.OrderCache on top of Redis strings.
type OrderCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

type cachedOrder struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	ProductID   string          `json:"product_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	Status      orders.Status   `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`
}

func (c *OrderCache) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return TTLOrderCache
}

func (c *OrderCache) Get(ctx context.Context, id string) (orders.Order, bool, error) {
	s, err := c.Redis.Get(ctx, fmt.Sprintf(KeyOrder, id)).Result()
	if errors.Is(err, redis.Nil) {
		return orders.Order{}, false, nil
	}
	if err != nil {
		return orders.Order{}, false, fmt.Errorf("redis get order: %w", err)
	}

	var co cachedOrder
	if err := json.Unmarshal([]byte(s), &co); err != nil {
		return orders.Order{}, false, fmt.Errorf("decode cached order: %w", err)
	}
	return orders.Order(co), true, nil
}

func (c *OrderCache) Put(ctx context.Context, o orders.Order) error {
	b, err := json.Marshal(cachedOrder(o))
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	if err := c.Redis.Set(ctx, fmt.Sprintf(KeyOrder, o.ID), b, c.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set order: %w", err)
	}
	return nil
}
