// Package mq 按配置创建 watermill Publisher 与 Subscriber.
//
// 支持 nats（可选 JetStream）、redis（Pub/Sub）与 gochannel（进程内，默认）.
// 上层通过 queue 包发布强类型事件，通过 internal/mq 消费.
package mq

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	wmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/multierr"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	nlog "github.com/yeisme/sharesmallbiz/pkg/log"
	"github.com/yeisme/sharesmallbiz/pkg/metrics"
)

// ErrNotInitialized Client 为空或已关闭.
var ErrNotInitialized = errors.New("mq client not initialized")

// Factory 创建一对 Publisher 与 Subscriber.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[configs.MQType]Factory{}
)

// RegisterFactory 注册指定类型的工厂，重复注册会覆盖.
func RegisterFactory(t configs.MQType, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	factories[t] = f
}

// GetRegisteredMQTypes 返回已注册的消息队列类型，按名称排序.
func GetRegisteredMQTypes() []configs.MQType {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	types := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// Client 持有同一后端的 Publisher 与 Subscriber.
type Client struct {
	kind       configs.MQType
	publisher  message.Publisher
	subscriber message.Subscriber
}

// NewWithConfig 按配置创建客户端. 开启指标时 publisher 与 subscriber
// 会被包装，指标注册到应用的 Prometheus 注册表.
func NewWithConfig(ctx context.Context, cfg *configs.MQConfig, metricsCfg *configs.MetricsConfig) (*Client, error) {
	factoriesMu.RLock()
	factory, ok := factories[cfg.Type]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", cfg.Type)
	}

	logger := NewLoggerAdapter(nlog.Logger())

	pub, sub, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", cfg.Type, err)
	}

	c := &Client{kind: cfg.Type, publisher: pub, subscriber: sub}

	if cfg.EnableMetrics && metricsCfg != nil && metricsCfg.Enabled {
		if err := c.instrument(); err != nil {
			return nil, multierr.Append(err, c.Close())
		}
	}

	nlog.Logger().Info().Str("type", string(cfg.Type)).Bool("metrics", cfg.EnableMetrics).Msg("mq ready")

	return c, nil
}

func (c *Client) instrument() error {
	builder := wmetrics.NewPrometheusMetricsBuilder(metrics.GetRegistry(), "sharesmallbiz", "mq")

	pub, err := builder.DecoratePublisher(c.publisher)
	if err != nil {
		return fmt.Errorf("instrument publisher: %w", err)
	}

	sub, err := builder.DecorateSubscriber(c.subscriber)
	if err != nil {
		return fmt.Errorf("instrument subscriber: %w", err)
	}

	c.publisher, c.subscriber = pub, sub

	return nil
}

// Type 返回后端类型.
func (c *Client) Type() configs.MQType {
	if c == nil {
		return ""
	}

	return c.kind
}

// Publish 发布到 topic.
func (c *Client) Publish(topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return ErrNotInitialized
	}

	return c.publisher.Publish(topic, msgs...)
}

// Subscribe 订阅 topic，ctx 取消后通道关闭.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, ErrNotInitialized
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// Publisher 返回底层 publisher.
func (c *Client) Publisher() message.Publisher {
	if c == nil {
		return nil
	}

	return c.publisher
}

// Subscriber 返回底层 subscriber.
func (c *Client) Subscriber() message.Subscriber {
	if c == nil {
		return nil
	}

	return c.subscriber
}

// Close 关闭 publisher 与 subscriber. gochannel 两者为同一实例，只关闭一次.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}

	var errs error

	if c.publisher != nil {
		errs = multierr.Append(errs, c.publisher.Close())
	}

	if c.subscriber != nil && any(c.subscriber) != any(c.publisher) {
		errs = multierr.Append(errs, c.subscriber.Close())
	}

	return errs
}
