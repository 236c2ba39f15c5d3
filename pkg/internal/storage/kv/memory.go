package kv

import (
	"bytes"
	"context"
	"path"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // 零值表示不过期
}

func (e memoryEntry) alive(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

// MemoryKV 进程内 KV，单实例部署和测试使用. 过期键在读取时删除.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	now  func() time.Time
}

// NewMemoryKV 创建内存 KV 实例，不需要配置.
func NewMemoryKV(_ context.Context, _ any) (KVStore, error) {
	return &MemoryKV{data: map[string]memoryEntry{}, now: time.Now}, nil
}

func (m *MemoryKV) lookup(key string) (memoryEntry, bool) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return memoryEntry{}, false
	}

	if !e.alive(m.now()) {
		m.mu.Lock()
		if cur, ok := m.data[key]; ok && !cur.alive(m.now()) {
			delete(m.data, key)
		}
		m.mu.Unlock()

		return memoryEntry{}, false
	}

	return e, true
}

// Get 返回值的副本.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := m.lookup(key)
	if !ok {
		return nil, notFound(key)
	}

	return bytes.Clone(e.value), nil
}

// Set 保存值的副本，ttl<=0 表示不过期.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: bytes.Clone(value)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.data[key] = e
	m.mu.Unlock()

	return nil
}

// Delete 删除键，键不存在不报错.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()

	return nil
}

// Exists 检查键是否存在且未过期.
func (m *MemoryKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.lookup(key)
	return ok, nil
}

// Keys 返回匹配 glob 模式的未过期键，空模式匹配全部.
func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	now := m.now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))

	for k, e := range m.data {
		if !e.alive(now) {
			continue
		}

		if pattern == "" || pattern == "*" {
			keys = append(keys, k)
			continue
		}

		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

// Close 内存实现无需释放资源.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
