// Package storage is the durable key-value store that holds per-user drafts and carts
// between requests.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ReservationDraftKey = "eatme-reservation"
	CartKey             = "eatme-cart"
)

var (
	ErrNotFound = errors.New("storage: key not found")
	ErrEmptyKey = errors.New("storage: key cannot be empty")

	// ErrNotPersisted means the in-memory state changed but the write behind it failed.
	ErrNotPersisted = errors.New("storage: state not persisted")
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// UserKey scopes a fixed storage key to one user.
func UserKey(base, uid string) string {
	return base + ":" + uid
}

// LoadJSON decodes the value at key into dst. It returns ErrNotFound when nothing is stored.
func LoadJSON(ctx context.Context, s Store, key string, dst any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("storage: corrupt value at %s: %w", key, err)
	}
	return nil
}

func SaveJSON(ctx context.Context, s Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// New returns a Redis-backed store when client is set and an in-process store otherwise.
func New(client *redis.Client, ttl time.Duration) Store {
	if client == nil {
		return NewMemoryStore()
	}
	return NewRedisStore(client, ttl)
}
