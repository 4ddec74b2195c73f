// Package tokenstore tracks superseded cart token ids. Every cart mutation
// issues a fresh token; the old token's id lands here so replays of stale
// snapshots are rejected. Keys carry a TTL equal to the token lifetime, so
// eviction is automatic and the store never grows unboundedly.
package tokenstore

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cart:revoked:"

// Store is a Redis-backed invalidation set.
type Store struct {
	rdb *redis.Client
}

// New creates a Store on the given Redis client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Invalidate marks a token id as superseded for ttl.
func (s *Store) Invalidate(ctx context.Context, id string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, keyPrefix+id, "1", ttl).Err(); err != nil {
		return errors.Wrap(err, "invalidate token")
	}
	return nil
}

// IsInvalidated reports whether a token id has been superseded.
func (s *Store) IsInvalidated(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Exists(ctx, keyPrefix+id).Result()
	if err != nil {
		return false, errors.Wrap(err, "check token")
	}
	return n > 0, nil
}
