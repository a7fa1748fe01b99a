package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, 15*time.Minute), mr
}

func TestSetThenGet(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()
	items := []d.CartItem{
		{ProductID: "p1", ProductName: "Kasavu Saree", UnitPrice: decimal.RequireFromString("1200.50"), Quantity: 2, Stock: 9},
	}

	require.NoError(t, cache.Set(ctx, "user-1", items))
	got, err := cache.Get(ctx, "user-1")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ProductID)
	assert.Equal(t, "Kasavu Saree", got[0].ProductName)
	assert.Equal(t, "1200.50", got[0].UnitPrice.StringFixed(2))
	assert.Equal(t, int32(2), got[0].Quantity)
	assert.Zero(t, got[0].Stock, "stock is never cached")
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	got, err := cache.Get(context.Background(), "nobody")

	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cacheKey("user-1"), `[{"product_id":`))

	_, err := cache.Get(context.Background(), "user-1")

	require.ErrorContains(t, err, "unmarshal cart failed")
}

func TestSet_WithTTL(t *testing.T) {
	cache, mr := setupTestRedis(t)

	require.NoError(t, cache.Set(context.Background(), "user-1", nil))

	ttl := mr.TTL(cacheKey("user-1"))
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.Less(t, ttl, 20*time.Minute)
}

func TestDelete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cacheKey("user-1"), "[]"))

	require.NoError(t, cache.Delete(context.Background(), "user-1"))

	assert.False(t, mr.Exists(cacheKey("user-1")))
	assert.NoError(t, cache.Delete(context.Background(), "user-1"))
}

func TestGet_RedisDown(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Close()

	_, err := cache.Get(context.Background(), "user-1")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestCacheKey_Format(t *testing.T) {
	assert.Equal(t, "checkout:cart:test123", cacheKey("test123"))
}
