// Package redis provides a Redis-backed Store for usagemeter.
//
// The adapter exposes exactly the Store contract: plain GET and SET with
// optional TTL. It deliberately does not reach for Lua scripts or
// WATCH/MULTI even though Redis offers them, because the metering core
// is written against non-atomic primitives and documents the races that
// follow. Hardening a deployment means moving the read-modify-write
// cycles themselves behind atomic scripts, not widening this adapter.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ineyio/usagemeter"
)

// Store is a Redis-backed usagemeter.Store.
type Store struct {
	client goredis.Cmdable
}

var _ usagemeter.Store = (*Store)(nil)

// New creates a new Redis-backed Store.
// The client must be a connected *goredis.Client or *goredis.ClusterClient.
func New(client goredis.Cmdable) *Store {
	return &Store{client: client}
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %q: %v", usagemeter.ErrStoreUnavailable, key, err)
	}
	return val, true, nil
}

// Put writes value under key. A ttl of zero means no expiry.
func (s *Store) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %q: %v", usagemeter.ErrStoreUnavailable, key, err)
	}
	return nil
}
