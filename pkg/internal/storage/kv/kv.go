// Package kv 是缓存层使用的字节键值存储. 后端有 memory、redis、nats（JetStream KV）
// 与 groupcache，统一支持按键 TTL.
package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
)

// ErrNotFound 键不存在或已过期.
var ErrNotFound = errors.New("kv: key not found")

// KVStore 后端需要实现的操作. ttl 为 0 表示不过期.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Keys 按 glob 列出未过期的键，仅供命令行排查使用
	Keys(ctx context.Context, pattern string) ([]string, error)
	Close() error
}

// Client 持有按配置选出的后端.
type Client struct {
	KVStore
	kind KVType
}

// Type 返回后端类型.
func (c *Client) Type() KVType { return c.kind }

// KVType 后端名称，与配置中的 kv.type 一致.
type KVType string

const (
	KVTypeMemory     KVType = "memory"
	KVTypeRedis      KVType = "redis"
	KVTypeNATS       KVType = "nats"
	KVTypeGroupcache KVType = "groupcache"
)

// KVFactory 由后端自己的配置段创建实例，memory 的配置为 nil.
type KVFactory func(ctx context.Context, config any) (KVStore, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[KVType]KVFactory{}
)

// RegisterKVFactory 注册后端.
func RegisterKVFactory(t KVType, f KVFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	factories[t] = f
}

// GetRegisteredKVTypes 返回已注册的后端，按名称排序.
func GetRegisteredKVTypes() []KVType {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	out := make([]KVType, 0, len(factories))
	for t := range factories {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// NewKVStore 创建指定类型的后端.
func NewKVStore(ctx context.Context, t KVType, config any) (KVStore, error) {
	factoriesMu.RLock()
	f, ok := factories[t]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported kv type: %s", t)
	}

	return f(ctx, config)
}

// section 返回 kv.type 对应的配置段.
func section(cfg *configs.KVConfig) any {
	switch KVType(cfg.Type) {
	case KVTypeRedis:
		return &cfg.Redis
	case KVTypeNATS:
		return &cfg.NATS
	case KVTypeGroupcache:
		return &cfg.Groupcache
	default:
		return nil
	}
}

// NewKVClientWithConfig 按 kv 配置创建客户端.
func NewKVClientWithConfig(ctx context.Context, cfg *configs.KVConfig) (*Client, error) {
	t := KVType(cfg.Type)

	store, err := NewKVStore(ctx, t, section(cfg))
	if err != nil {
		return nil, err
	}

	return &Client{KVStore: store, kind: t}, nil
}
