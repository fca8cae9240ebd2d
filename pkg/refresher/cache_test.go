package refresher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexadash/dcx/internal/testutil"
	"github.com/nexadash/dcx/pkg/datacontext"
)

func TestCacheKey(t *testing.T) {
	cache := NewCache(nil)
	assert.Equal(t, "dcx:screen:abc123::operations", cache.Key("abc123", "operations"))
}

func TestCacheRoundtrip(t *testing.T) {
	client := testutil.NewMiniredisClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	entry := &CacheEntry{
		Data: datacontext.Context{
			"main": map[string]interface{}{"x": 1.5},
		},
		Ts: time.Now().Unix(),
	}

	key := cache.Key("fp1", "operations")
	require.NoError(t, cache.Set(ctx, key, entry))

	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.Ts, got.Ts)

	section, ok := got.Data["main"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 1.5, section["x"])
}

func TestCacheMissReturnsNil(t *testing.T) {
	client := testutil.NewMiniredisClient(t)
	cache := NewCache(client)

	got, err := cache.Get(context.Background(), cache.Key("fp1", "operations"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheClearByScreen(t *testing.T) {
	client := testutil.NewMiniredisClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	entry := &CacheEntry{Data: datacontext.Context{}, Ts: time.Now().Unix()}

	require.NoError(t, cache.Set(ctx, cache.Key("fp1", "operations"), entry))
	require.NoError(t, cache.Set(ctx, cache.Key("fp2", "operations"), entry))
	require.NoError(t, cache.Set(ctx, cache.Key("fp1", "administration"), entry))

	require.NoError(t, cache.Clear(ctx, "operations"))

	got, err := cache.Get(ctx, cache.Key("fp1", "operations"))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = cache.Get(ctx, cache.Key("fp2", "operations"))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = cache.Get(ctx, cache.Key("fp1", "administration"))
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestCacheClearAll(t *testing.T) {
	client := testutil.NewMiniredisClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	entry := &CacheEntry{Data: datacontext.Context{}, Ts: time.Now().Unix()}

	require.NoError(t, cache.Set(ctx, cache.Key("fp1", "operations"), entry))
	require.NoError(t, cache.Set(ctx, cache.Key("fp1", "administration"), entry))

	require.NoError(t, cache.Clear(ctx, ""))

	got, err := cache.Get(ctx, cache.Key("fp1", "operations"))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = cache.Get(ctx, cache.Key("fp1", "administration"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheEntryAge(t *testing.T) {
	now := time.Now()
	entry := &CacheEntry{Ts: now.Add(-45 * time.Second).Unix()}

	age := entry.Age(now)
	assert.InDelta(t, 45, age.Seconds(), 1.0)
}
