package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const pendingMarker = "pending"

// Idempotency remembers which order a client-supplied Idempotency-Key
// produced.
type Idempotency struct {
	Redis *redis.Client
}

// Claim reserves key for a new placement. When the key is already known it
// returns the stored order id, or "" while the first request is in flight.
func (i *Idempotency) Claim(ctx context.Context, key string) (orderID string, claimed bool, err error) {
	k := fmt.Sprintf(KeyIdemOrderPlace, key)
	ok, err := i.Redis.SetNX(ctx, k, pendingMarker, TTLIdemPending).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis setnx: %w", err)
	}
	if ok {
		return "", true, nil
	}

	v, err := i.Redis.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; let the caller retry
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	if v == pendingMarker {
		return "", false, nil
	}
	return v, false, nil
}

func (i *Idempotency) Complete(ctx context.Context, key, orderID string) error {
	return i.Redis.Set(ctx, fmt.Sprintf(KeyIdemOrderPlace, key), orderID, TTLIdempotency).Err()
}

// Forget drops a claim whose placement failed so the client may retry.
func (i *Idempotency) Forget(ctx context.Context, key string) error {
	return i.Redis.Del(ctx, fmt.Sprintf(KeyIdemOrderPlace, key)).Err()
}
