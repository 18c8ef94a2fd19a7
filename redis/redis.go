// Package redis adapts a Redis client to the store.Backend contract for
// deployments where overrides must be visible across processes.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zerbitx/mockit/store"
)

// Backend implements store.Backend on a Redis client.
type Backend struct {
	client redis.UniversalClient
}

var _ store.Backend = (*Backend)(nil)

// New returns a Backend on the given client.
func New(client redis.UniversalClient) *Backend {
	return &Backend{client: client}
}

// NewFromAddr returns a Backend on a single-node client for addr.
func NewFromAddr(addr string) *Backend {
	return New(redis.NewClient(&redis.Options{Addr: addr}))
}

// Read implements store.Backend.
func (b *Backend) Read(ctx context.Context, key string) (string, bool, error) {
	value, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}

	if err != nil {
		return "", false, err
	}

	return value, true, nil
}

// Write implements store.Backend.
func (b *Backend) Write(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

// Delete implements store.Backend.
func (b *Backend) Delete(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}
