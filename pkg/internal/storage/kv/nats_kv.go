package kv

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
)

// NATS KV 的键只允许字母数字与 -/_=.，缓存键中的冒号等字符需要编码.
var (
	natsKeyPattern = regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)
	encodedPrefix  = "_b64."
)

func encodeNATSKey(key string) string {
	if natsKeyPattern.MatchString(key) && !strings.HasPrefix(key, ".") && !strings.HasSuffix(key, ".") &&
		!strings.HasPrefix(key, encodedPrefix) {
		return key
	}

	return encodedPrefix + base64.RawURLEncoding.EncodeToString([]byte(key))
}

func decodeNATSKey(key string) string {
	rest, ok := strings.CutPrefix(key, encodedPrefix)
	if !ok {
		return key
	}

	b, err := base64.RawURLEncoding.DecodeString(rest)
	if err != nil {
		return key
	}

	return string(b)
}

// NATSKV 基于 JetStream KeyValue 的实现. 逐键 TTL 通过值包装实现，过期键在读取时删除.
type NATSKV struct {
	conn *nats.Conn
	kv   jetstream.KeyValue
}

// NewNATSKV 连接 NATS 并创建或打开 bucket.
func NewNATSKV(ctx context.Context, config any) (KVStore, error) {
	cfg, ok := config.(*configs.NATSKVConfig)
	if !ok {
		return nil, errors.New("kv: invalid nats config")
	}

	opts := []nats.Option{nats.Name("sharesmallbiz-kv")}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("kv: connect nats %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("kv: jetstream: %w", err)
	}

	kv, err := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "sharesmallbiz cache",
	})
	if errors.Is(err, jetstream.ErrBucketExists) {
		kv, err = js.KeyValue(ctx, cfg.Bucket)
	}

	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("kv: open bucket %s: %w", cfg.Bucket, err)
	}

	return &NATSKV{conn: nc, kv: kv}, nil
}

// get 返回未过期的值，过期时顺带删除.
func (n *NATSKV) get(ctx context.Context, key string) ([]byte, bool, error) {
	k := encodeNATSKey(key)

	entry, err := n.kv.Get(ctx, k)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("kv: nats get %s: %w", key, err)
	}

	value, alive, err := unwrap(entry.Value(), time.Now())
	if err != nil {
		return nil, false, err
	}

	if !alive {
		_ = n.kv.Delete(ctx, k)
		return nil, false, nil
	}

	return value, true, nil
}

// Get 获取键的值.
func (n *NATSKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, ok, err := n.get(ctx, key)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, notFound(key)
	}

	return value, nil
}

// Set 设置键的值.
func (n *NATSKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	b, err := wrap(value, ttl, time.Now())
	if err != nil {
		return err
	}

	if _, err := n.kv.Put(ctx, encodeNATSKey(key), b); err != nil {
		return fmt.Errorf("kv: nats put %s: %w", key, err)
	}

	return nil
}

// Delete 删除键.
func (n *NATSKV) Delete(ctx context.Context, key string) error {
	err := n.kv.Delete(ctx, encodeNATSKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("kv: nats delete %s: %w", key, err)
	}

	return nil
}

// Exists 检查键是否存在且未过期.
func (n *NATSKV) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := n.get(ctx, key)
	return ok, err
}

// Keys 返回匹配 glob 模式的键. 需要逐个读取以排除过期键，只用于调试.
func (n *NATSKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	lister, err := n.kv.ListKeys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("kv: nats list keys: %w", err)
	}
	defer func() { _ = lister.Stop() }()

	var keys []string

	for raw := range lister.Keys() {
		key := decodeNATSKey(raw)

		if pattern != "" && pattern != "*" {
			if ok, _ := path.Match(pattern, key); !ok {
				continue
			}
		}

		if _, ok, err := n.get(ctx, key); err == nil && ok {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

// Close 关闭 NATS 连接.
func (n *NATSKV) Close() error {
	n.conn.Close()
	return nil
}

func init() {
	RegisterKVFactory(KVTypeNATS, NewNATSKV)
}
