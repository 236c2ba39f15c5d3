package cache_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/sharesmallbiz/pkg/cache"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage/kv"
)

func newCache(t *testing.T, ns string) (*cache.Cache, kv.KVStore) {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	return cache.NewCache(store, ns), store
}

// TestCache_Namespace 测试键自动加命名空间.
func TestCache_Namespace(t *testing.T) {
	ctx := context.Background()
	c, store := newCache(t, "ssb")

	require.NoError(t, cache.Set(ctx, c, "keywords:names", []string{"retail", "food"}, 0))

	ok, err := store.Exists(ctx, "ssb:keywords:names")
	require.NoError(t, err)
	assert.True(t, ok)

	names, err := cache.Get[[]string](ctx, c, "keywords:names")
	require.NoError(t, err)
	assert.Equal(t, []string{"retail", "food"}, names)
}

// TestCache_Miss 测试未命中返回 kv.ErrNotFound.
func TestCache_Miss(t *testing.T) {
	c, _ := newCache(t, "")

	_, err := cache.Get[string](context.Background(), c, "missing")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

// TestCache_TTL 测试过期后视为未命中.
func TestCache_TTL(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t, "ttl")

	require.NoError(t, cache.Set(ctx, c, "short", 1, time.Second))

	v, err := cache.Get[int](ctx, c, "short")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	time.Sleep(1100 * time.Millisecond)

	_, err = cache.Get[int](ctx, c, "short")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

// TestGetOrSet 测试 getter 只在未命中时调用.
func TestGetOrSet(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t, "ssb")

	calls := 0
	getter := func() ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	first, err := cache.GetOrSet(ctx, c, "names", getter, time.Minute)
	require.NoError(t, err)

	second, err := cache.GetOrSet(ctx, c, "names", getter, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Delete(ctx, "names"))

	_, err = cache.GetOrSet(ctx, c, "names", getter, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

// TestGetOrSet_GetterError 测试 getter 错误透传且不写缓存.
func TestGetOrSet_GetterError(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t, "ssb")
	boom := errors.New("db down")

	_, err := cache.GetOrSet(ctx, c, "k", func() (int, error) { return 0, boom }, time.Minute)
	require.ErrorIs(t, err, boom)

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestCache_Clear 测试只清理本命名空间.
func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	store, err := kv.NewMemoryKV(ctx, nil)
	require.NoError(t, err)

	a := cache.NewCache(store, "a")
	b := cache.NewCache(store, "b")

	require.NoError(t, cache.Set(ctx, a, "x", 1, 0))
	require.NoError(t, cache.Set(ctx, a, "y", 2, 0))
	require.NoError(t, cache.Set(ctx, b, "x", 3, 0))

	n, err := a.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, _ := a.Exists(ctx, "x")
	assert.False(t, ok)

	v, err := cache.Get[int](ctx, b, "x")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "media:search:abc", cache.Key("media", "search", "abc"))

	long := strings.Repeat("q", 200)
	k := cache.Key("media", "search", long)
	assert.True(t, strings.HasPrefix(k, "media:search:"))
	assert.Less(t, len(k), 64)
	assert.Equal(t, k, cache.Key("media", "search", long))
}
