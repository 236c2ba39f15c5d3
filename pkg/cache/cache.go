// Package cache 在 kv 存储之上提供带命名空间的泛型缓存，值用 sonic 编码.
//
//	names, err := cache.GetOrSet(ctx, c, "keywords:names", loadNames, time.Hour)
//
// 未命中返回 kv.ErrNotFound. 并发的 GetOrSet 对同一个键只调用一次 getter.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/sharesmallbiz/pkg/internal/storage/kv"
)

// DefaultNamespace 应用缓存键的前缀.
const DefaultNamespace = "ssb"

// maxPlainKeyLen 超过该长度的键片段替换为 xxhash.
const maxPlainKeyLen = 64

// Cache 所有键都加上 namespace 前缀.
type Cache struct {
	store     kv.KVStore
	namespace string
	group     singleflight.Group
}

// NewCache 创建缓存，namespace 可省略.
func NewCache(store kv.KVStore, namespace ...string) *Cache {
	c := &Cache{store: store}
	if len(namespace) > 0 && namespace[0] != "" {
		c.namespace = namespace[0] + ":"
	}

	return c
}

// Key 用冒号拼接键片段，过长的片段（如搜索条件）替换为哈希.
func Key(parts ...string) string {
	var b strings.Builder

	for i, p := range parts {
		if i > 0 {
			b.WriteByte(':')
		}

		if len(p) > maxPlainKeyLen {
			p = strconv.FormatUint(xxhash.Sum64String(p), 16)
		}

		b.WriteString(p)
	}

	return b.String()
}

func (c *Cache) full(key string) string {
	return c.namespace + key
}

// Get 读取并解码.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var v T

	raw, err := c.store.Get(ctx, c.full(key))
	if err != nil {
		return v, err
	}

	if err := sonic.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("cache decode %s: %w", key, err)
	}

	return v, nil
}

// Set 编码并写入，ttl 为 0 表示不过期.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	raw, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}

	return c.store.Set(ctx, c.full(key), raw, ttl)
}

// GetOrSet 命中直接返回，否则调用 getter 并回写. 回写失败不影响返回值，
// getter 出错时不写缓存.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	if v, err := Get[T](ctx, c, key); err == nil {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		v, err := getter()
		if err != nil {
			return v, err
		}

		_ = Set(ctx, c, key, v, ttl)

		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return res.(T), nil
}

// Delete 删除键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, c.full(key))
}

// Exists 键是否存在且未过期.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.store.Exists(ctx, c.full(key))
}

// Clear 删除命名空间下的全部键，返回删除数量.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	keys, err := c.store.Keys(ctx, c.namespace+"*")
	if err != nil {
		return 0, err
	}

	for i, k := range keys {
		if err := c.store.Delete(ctx, k); err != nil {
			return i, err
		}
	}

	return len(keys), nil
}
