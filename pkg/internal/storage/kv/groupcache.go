package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
)

// genSep 分隔键与版本号. groupcache 缓存的值不可变，版本号变化后旧值不会再被读到.
const genSep = "\x00"

type groupEntry struct {
	value []byte // 可能带 TTL 包装
	gen   uint64
}

// GroupcacheKV 本节点写入的数据保存在 data 中，读取经过 groupcache 的热点缓存.
// 配置了 peers 时，不属于本节点的键由所属节点通过 HTTP 提供.
type GroupcacheKV struct {
	group *groupcache.Group
	pool  *groupcache.HTTPPool

	mu   sync.RWMutex
	data map[string]groupEntry
	gen  uint64
}

// NewGroupcacheKV 创建 groupcache 组，同名组在进程内只能创建一次.
func NewGroupcacheKV(_ context.Context, config any) (KVStore, error) {
	cfg, ok := config.(*configs.GroupcacheKVConfig)
	if !ok {
		return nil, errors.New("kv: invalid groupcache config")
	}

	if groupcache.GetGroup(cfg.Name) != nil {
		return nil, fmt.Errorf("kv: groupcache group %q already exists", cfg.Name)
	}

	g := &GroupcacheKV{data: map[string]groupEntry{}}
	g.group = groupcache.NewGroup(cfg.Name, cfg.CacheBytes, groupcache.GetterFunc(g.load))

	if len(cfg.Peers) > 0 {
		g.pool = groupcache.NewHTTPPoolOpts(cfg.Self, &groupcache.HTTPPoolOptions{})
		g.pool.Set(cfg.Peers...)
	}

	return g, nil
}

// load 在缓存未命中时由 groupcache 调用.
func (g *GroupcacheKV) load(_ context.Context, versioned string, dest groupcache.Sink) error {
	key, _, _ := strings.Cut(versioned, genSep)

	g.mu.RLock()
	e, ok := g.data[key]
	g.mu.RUnlock()

	if !ok {
		return notFound(key)
	}

	return dest.SetBytes(e.value)
}

func (g *GroupcacheKV) versioned(key string) (string, bool) {
	g.mu.RLock()
	e, ok := g.data[key]
	g.mu.RUnlock()

	if !ok {
		return key, false
	}

	return key + genSep + strconv.FormatUint(e.gen, 10), true
}

// Get 获取键的值.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	vkey, local := g.versioned(key)
	if !local && g.pool == nil {
		return nil, notFound(key)
	}

	var raw []byte
	if err := g.group.Get(ctx, vkey, groupcache.AllocatingByteSliceSink(&raw)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("kv: groupcache get %s: %w", key, err)
	}

	value, alive, err := unwrap(raw, time.Now())
	if err != nil {
		return nil, err
	}

	if !alive {
		if local {
			_ = g.Delete(ctx, key)
		}

		return nil, notFound(key)
	}

	return bytes.Clone(value), nil
}

// Set 写入本节点并更新版本号.
func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b, err := wrap(bytes.Clone(value), ttl, time.Now())
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.gen++
	g.data[key] = groupEntry{value: b, gen: g.gen}
	g.mu.Unlock()

	return nil
}

// Delete 删除本节点的键.
func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.data, key)
	g.mu.Unlock()

	return nil
}

// Exists 检查本节点是否持有未过期的键.
func (g *GroupcacheKV) Exists(_ context.Context, key string) (bool, error) {
	g.mu.RLock()
	e, ok := g.data[key]
	g.mu.RUnlock()

	if !ok {
		return false, nil
	}

	_, alive, err := unwrap(e.value, time.Now())

	return alive, err
}

// Keys 返回本节点匹配 glob 模式的键.
func (g *GroupcacheKV) Keys(_ context.Context, pattern string) ([]string, error) {
	now := time.Now()

	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.data))

	for k, e := range g.data {
		if pattern != "" && pattern != "*" {
			if ok, _ := path.Match(pattern, k); !ok {
				continue
			}
		}

		if _, alive, _ := unwrap(e.value, now); alive {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

// Close groupcache 没有需要释放的资源.
func (g *GroupcacheKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeGroupcache, NewGroupcacheKV)
}
