package mq

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
)

func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

func natsOptions(cfg *configs.MQNATSConfig) []nc.Option {
	opts := []nc.Option{
		nc.Name(cfg.ClientName),
		nc.MaxReconnects(cfg.MaxReconnects),
		nc.ReconnectWait(cfg.ReconnectWait()),
		nc.RetryOnFailedConnect(true),
	}

	switch {
	case cfg.JWT != "":
		opts = append(opts, nc.UserJWTAndSeed(cfg.JWT, cfg.NKey))
	case cfg.NKey != "":
		if opt, err := nc.NkeyOptionFromSeed(cfg.NKey); err == nil {
			opts = append(opts, opt)
		}
	case cfg.User != "":
		opts = append(opts, nc.UserInfo(cfg.User, cfg.Password))
	}

	return opts
}

// natsFactory 创建 NATS 发布与订阅端. 开启 JetStream 时自动创建流，
// 消息 ID 用于服务端去重，订阅端使用 durable 消费者.
func natsFactory(_ context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	n := cfg.NATS
	opts := natsOptions(&n)
	marshaler := &nats.NATSMarshaler{}

	js := nats.JetStreamConfig{Disabled: !n.JetStream}
	if n.JetStream {
		js.AutoProvision = true
		js.TrackMsgId = true
		js.DurablePrefix = n.DurablePrefix
		js.SubscribeOptions = []nc.SubOpt{nc.AckWait(n.AckWait()), nc.AckExplicit()}
	}

	pub, err := nats.NewPublisher(nats.PublisherConfig{
		URL:         n.ServerURL(),
		NatsOptions: opts,
		JetStream:   js,
		Marshaler:   marshaler,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("nats publisher: %w", err)
	}

	sub, err := nats.NewSubscriber(nats.SubscriberConfig{
		URL:              n.ServerURL(),
		NatsOptions:      opts,
		JetStream:        js,
		Unmarshaler:      marshaler,
		QueueGroupPrefix: n.DurablePrefix,
		AckWaitTimeout:   n.AckWait(),
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, fmt.Errorf("nats subscriber: %w", err)
	}

	return pub, sub, nil
}
