package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "eatme:pricing:" + DocumentID

// Cache mirrors the last accepted config so a cold instance starts with known rates.
type Cache interface {
	Load(ctx context.Context) (*Config, error)
	Save(ctx context.Context, cfg Config) error
}

type redisCache struct {
	client *redis.Client
}

// NewRedisCache returns a no-op cache when client is nil.
func NewRedisCache(client *redis.Client) Cache {
	if client == nil {
		return nopCache{}
	}
	return &redisCache{client: client}
}

func (c *redisCache) Load(ctx context.Context) (*Config, error) {
	raw, err := c.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached pricing: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode cached pricing: %w", err)
	}
	return &cfg, nil
}

func (c *redisCache) Save(ctx context.Context, cfg Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey, raw, 0).Err()
}

type nopCache struct{}

func (nopCache) Load(context.Context) (*Config, error) { return nil, nil }
func (nopCache) Save(context.Context, Config) error    { return nil }
