package store

import (
	"context"
	"time"
)

// Backend is the persistence primitive the store is built on. It is assumed
// to provide atomic single-key read/write/delete, but no multi-key
// transactions. A ttl of zero means the entry does not expire.
type Backend interface {
	Read(ctx context.Context, key string) (value string, ok bool, err error)
	Write(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
