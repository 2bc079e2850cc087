package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	"github.com/angelmondragon/tableside-backend/pkg/money"
)

type fakeRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	value, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	default:
		return errors.New("unexpected value type")
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeRedis) CartKey(sessionID string) string {
	return "tableside:cart:" + sessionID
}

func TestRedisCacheRoundTrip(t *testing.T) {
	client := newFakeRedis()
	cache, err := NewRedisCache(client, 0)
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "s1")
	require.NoError(t, err)
	require.False(t, ok)

	lines := []Line{{
		CartItem: models.CartItem{ID: 1, SessionID: "s1", MenuItemID: 2, Quantity: 2},
		MenuItem: models.MenuItem{ID: 2, Name: "Burger", Price: 1000},
		Addons: []LineAddon{{
			CartItemAddon: models.CartItemAddon{ID: 3, CartItemID: 1, AddonID: 4, Quantity: 1},
			Addon:         models.MenuItemAddon{ID: 4, Name: "Cheese", Price: 150},
		}},
	}}
	require.NoError(t, cache.Set(ctx, "s1", lines))
	require.Equal(t, defaultCacheTTL, client.ttls["tableside:cart:s1"])

	got, ok, err := cache.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	total, err := got[0].Total()
	require.NoError(t, err)
	require.Equal(t, money.Cents(2150), total)
	require.Equal(t, "Cheese", got[0].Addons[0].Addon.Name)

	require.NoError(t, cache.Invalidate(ctx, "s1"))
	_, ok, err = cache.Get(ctx, "s1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCacheSurfacesErrors(t *testing.T) {
	client := newFakeRedis()
	client.getErr = errors.New("connection refused")
	cache, err := NewRedisCache(client, time.Minute)
	require.NoError(t, err)

	_, _, err = cache.Get(context.Background(), "s1")
	require.Error(t, err)

	_, err = NewRedisCache(nil, time.Minute)
	require.Error(t, err)
}
