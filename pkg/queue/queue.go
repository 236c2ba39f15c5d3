// Package queue 定义领域事件：主题、负载与统一的消息信封.
//
// 信封为 JSON（bytedance/sonic 编解码）：
//
//	{
//	  "header": {
//	    "id": "01J9Z3Q8K6W2N8V5T4R3P2M1A0",
//	    "topic": "media.cleanup.requested",
//	    "trace_id": "4bf92f3577b34da6a3ce929d0e0e4736",
//	    "producer": "sharesmallbiz",
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": { ... }
//	}
//
// 事件 ID 是单调递增的 ULID，消费者可以据此去重. 清理请求可能重复投递，
// 消费者需要按媒体 ID 幂等处理. 消费者应忽略未知字段.
package queue

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/oklog/ulid"
)

// PayloadVersionV1 当前的负载版本.
const PayloadVersionV1 = "v1"

// watermill 元数据键，与信封头重复，便于不解码就能路由或排查.
const (
	MetaTopic      = "topic"
	MetaTraceID    = "trace_id"
	MetaProducer   = "producer"
	MetaOccurredAt = "occurred_at"
	MetaVersion    = "version"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newEventID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// NewEventHeader 创建事件头，时间为 UTC.
func NewEventHeader(topic string, opts ...func(*EventHeader)) EventHeader {
	now := time.Now().UTC()
	hdr := EventHeader{
		ID:         newEventID(now),
		Topic:      topic,
		OccurredAt: now,
		Version:    PayloadVersionV1,
	}

	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID 设置 TraceID.
func WithTraceID(id string) func(*EventHeader) { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 设置 Producer.
func WithProducer(p string) func(*EventHeader) { return func(h *EventHeader) { h.Producer = p } }

// Encode 将信封编码为 JSON.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 解码信封，拒绝不认识的版本.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	if err := sonic.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("queue: decode envelope: %w", err)
	}

	if m.Header.Version != "" && m.Header.Version != PayloadVersionV1 {
		return m, fmt.Errorf("queue: unsupported payload version %q", m.Header.Version)
	}

	return m, nil
}

// NewWatermillMessage 构造 watermill 消息，消息 UUID 使用事件 ID.
func NewWatermillMessage[T any](topic string, payload T, opts ...func(*EventHeader)) (*message.Message, error) {
	header := NewEventHeader(topic, opts...)

	data, err := Encode(Message[T]{Header: header, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("queue: encode %s: %w", topic, err)
	}

	msg := message.NewMessage(header.ID, data)
	msg.Metadata.Set(MetaTopic, topic)
	msg.Metadata.Set(MetaOccurredAt, header.OccurredAt.Format(time.RFC3339Nano))
	msg.Metadata.Set(MetaVersion, header.Version)

	if header.TraceID != "" {
		msg.Metadata.Set(MetaTraceID, header.TraceID)
	}

	if header.Producer != "" {
		msg.Metadata.Set(MetaProducer, header.Producer)
	}

	return msg, nil
}

// ParseWatermillMessage 解出泛型负载.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}
