package kv

import (
	"bytes"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// envelopeMagic 标记带过期时间的值. 没有 TTL 的值原样保存.
// Redis 使用原生过期，只有 NATS、Groupcache 需要包装.
var envelopeMagic = []byte("SSBTTL1:")

type envelope struct {
	Value     []byte `json:"v"`
	ExpiresAt int64  `json:"e"` // unix 毫秒
}

// wrap 为 ttl>0 的值加上过期时间.
func wrap(value []byte, ttl time.Duration, now time.Time) ([]byte, error) {
	if ttl <= 0 {
		return value, nil
	}

	b, err := sonic.Marshal(envelope{Value: value, ExpiresAt: now.Add(ttl).UnixMilli()})
	if err != nil {
		return nil, fmt.Errorf("kv: encode ttl envelope: %w", err)
	}

	return append(bytes.Clone(envelopeMagic), b...), nil
}

// unwrap 还原值. 已过期时 alive 为 false.
func unwrap(raw []byte, now time.Time) (value []byte, alive bool, err error) {
	payload, ok := bytes.CutPrefix(raw, envelopeMagic)
	if !ok {
		return raw, true, nil
	}

	var e envelope
	if err := sonic.Unmarshal(payload, &e); err != nil {
		return nil, false, fmt.Errorf("kv: decode ttl envelope: %w", err)
	}

	if e.ExpiresAt > 0 && now.UnixMilli() >= e.ExpiresAt {
		return nil, false, nil
	}

	return e.Value, true, nil
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, key)
}
