package mq

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
)

// redisMaxDeliveries Nack 后在本进程内重投的次数上限. Pub/Sub 没有服务端重投.
const redisMaxDeliveries = 3

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

// redisEnvelope Redis 频道上传输的消息，保留 UUID 与元数据.
type redisEnvelope struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

func encodeRedisMessage(msg *message.Message) ([]byte, error) {
	return sonic.Marshal(redisEnvelope{UUID: msg.UUID, Metadata: msg.Metadata, Payload: msg.Payload})
}

func decodeRedisMessage(raw string) (*message.Message, error) {
	var env redisEnvelope
	if err := sonic.UnmarshalString(raw, &env); err != nil {
		return nil, fmt.Errorf("decode redis message: %w", err)
	}

	if env.UUID == "" {
		env.UUID = watermill.NewUUID()
	}

	msg := message.NewMessage(env.UUID, env.Payload)
	for k, v := range env.Metadata {
		msg.Metadata.Set(k, v)
	}

	return msg, nil
}

func redisFactory(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis mq ping: %w", err)
	}

	return &redisPublisher{client: rdb}, &redisSubscriber{
		client:  rdb,
		buffer:  bufferSize(cfg),
		logger:  logger,
		closing: make(chan struct{}),
	}, nil
}

// redisPublisher 发布端与订阅端共用一个连接池，由订阅端负责关闭.
type redisPublisher struct {
	client *redis.Client
}

func (p *redisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		raw, err := encodeRedisMessage(msg)
		if err != nil {
			return err
		}

		if err := p.client.Publish(msg.Context(), topic, raw).Err(); err != nil {
			return fmt.Errorf("redis publish %s: %w", topic, err)
		}
	}

	return nil
}

func (p *redisPublisher) Close() error { return nil }

type redisSubscriber struct {
	client *redis.Client
	buffer int
	logger watermill.LoggerAdapter

	mu      sync.Mutex
	subs    []*redis.PubSub
	wg      sync.WaitGroup
	closed  bool
	closing chan struct{}
}

// Subscribe 每次调用建立独立的 PubSub 连接. 消息逐条投递，
// 上一条 Ack 或 Nack 之后才投递下一条.
func (s *redisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrNotInitialized
	}

	ps := s.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", topic, err)
	}

	s.subs = append(s.subs, ps)
	out := make(chan *message.Message)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer close(out)

		in := ps.Channel(redis.WithChannelSize(s.buffer))

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.closing:
				return
			case raw, ok := <-in:
				if !ok {
					return
				}

				msg, err := decodeRedisMessage(raw.Payload)
				if err != nil {
					s.logger.Error("dropping redis message", err, watermill.LogFields{"topic": topic})
					continue
				}

				if !s.deliver(ctx, out, msg, topic) {
					return
				}
			}
		}
	}()

	return out, nil
}

// deliver 返回 false 表示订阅应结束.
func (s *redisSubscriber) deliver(ctx context.Context, out chan<- *message.Message, msg *message.Message, topic string) bool {
	for attempt := 1; attempt <= redisMaxDeliveries; attempt++ {
		m := msg.Copy()
		m.SetContext(ctx)

		select {
		case out <- m:
		case <-ctx.Done():
			return false
		case <-s.closing:
			return false
		}

		select {
		case <-m.Acked():
			return true
		case <-m.Nacked():
			s.logger.Debug("redis message nacked", watermill.LogFields{"topic": topic, "uuid": msg.UUID, "attempt": attempt})
		case <-ctx.Done():
			return false
		case <-s.closing:
			return false
		}
	}

	s.logger.Error("redis message dropped after retries", nil, watermill.LogFields{"topic": topic, "uuid": msg.UUID})

	return true
}

func (s *redisSubscriber) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	close(s.closing)
	subs := s.subs
	s.mu.Unlock()

	var errs error
	for _, ps := range subs {
		errs = multierr.Append(errs, ps.Close())
	}

	s.wg.Wait()

	return multierr.Append(errs, s.client.Close())
}
