package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 30 * time.Second

// Cache holds the expanded cart projection of a session.
type Cache interface {
	Get(ctx context.Context, sessionID string) ([]Line, bool, error)
	Set(ctx context.Context, sessionID string, lines []Line) error
	Invalidate(ctx context.Context, sessionID string) error
}

type redisCartStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// RedisCache stores projections as JSON under tableside:cart:<session>.
type RedisCache struct {
	client redisCartStore
	ttl    time.Duration
}

// NewRedisCache builds a RedisCache; a zero ttl takes the default.
func NewRedisCache(client redisCartStore, ttl time.Duration) (*RedisCache, error) {
	if client == nil {
		return nil, errors.New("redis client required for cart cache")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, sessionID string) ([]Line, bool, error) {
	raw, err := c.client.Get(ctx, c.client.CartKey(sessionID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cart cache: %w", err)
	}
	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, false, fmt.Errorf("decode cart cache: %w", err)
	}
	return lines, true, nil
}

func (c *RedisCache) Set(ctx context.Context, sessionID string, lines []Line) error {
	payload, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart cache: %w", err)
	}
	if err := c.client.Set(ctx, c.client.CartKey(sessionID), payload, c.ttl); err != nil {
		return fmt.Errorf("write cart cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, c.client.CartKey(sessionID)); err != nil {
		return fmt.Errorf("invalidate cart cache: %w", err)
	}
	return nil
}
