package sessionlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Redis key scopes. Keys of different scopes never collide, whatever the id.
const (
	ScopeSession      = "session"
	ScopeMenuItemVote = "menu-item-vote"
)

const (
	defaultTTL          = 10 * time.Second
	defaultWait         = 5 * time.Second
	defaultPollInterval = 25 * time.Millisecond
)

// redisStore defines the operations used by Redis.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(scope, id string) string
}

// Redis implements Locker across processes with SETNX + TTL. The TTL bounds
// how long a crashed holder can block a session.
type Redis struct {
	client redisStore
	scope  string
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

// NewRedis constructs a Redis-backed session locker. Zero durations take
// defaults.
func NewRedis(client redisStore, ttl, wait time.Duration) (*Redis, error) {
	return NewRedisScope(client, ScopeSession, ttl, wait)
}

// NewRedisScope constructs a Redis-backed locker whose keys live under scope.
func NewRedisScope(client redisStore, scope string, ttl, wait time.Duration) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client required for session lock")
	}
	if scope == "" {
		return nil, errors.New("lock scope required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if wait <= 0 {
		wait = defaultWait
	}
	return &Redis{client: client, scope: scope, ttl: ttl, wait: wait, poll: defaultPollInterval}, nil
}

func (r *Redis) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := r.client.LockKey(r.scope, sessionID)
	owner := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, r.wait)
	defer cancel()

	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(waitCtx, key, owner, r.ttl)
		if err != nil {
			return nil, fmt.Errorf("setnx %s: %w", key, err)
		}
		if ok {
			return func() { r.release(context.WithoutCancel(ctx), key, owner) }, nil
		}

		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%s: %w", sessionID, ErrBusy)
		}
	}
}

// release frees the lock only if the owner value still matches.
func (r *Redis) release(ctx context.Context, key, owner string) {
	value, err := r.client.Get(ctx, key)
	if err != nil || value != owner {
		// redis.Nil means the TTL already expired the key.
		return
	}
	_ = r.client.Del(ctx, key)
}
