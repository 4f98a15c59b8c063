package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Deduper struct {
	Redis *redis.Client
}

// FirstSeen marks id as processed by service and reports whether this was
// the first sighting.
func (d *Deduper) FirstSeen(ctx context.Context, service, id string) (bool, error) {
	ok, err := d.Redis.SetNX(ctx, fmt.Sprintf(KeyDedup, service, id), "1", TTLDedup).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx dedup: %w", err)
	}
	return ok, nil
}

// Forget removes the mark so a failed event can be processed again.
func (d *Deduper) Forget(ctx context.Context, service, id string) error {
	return d.Redis.Del(ctx, fmt.Sprintf(KeyDedup, service, id)).Err()
}
