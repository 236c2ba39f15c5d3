package mq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
)

func init() {
	RegisterFactory(configs.MQTypeGoChannel, goChannelFactory)
}

// goChannelFactory 进程内 Pub/Sub，发布与订阅共用一个实例.
func goChannelFactory(_ context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: int64(bufferSize(cfg)),
	}, logger)

	return ps, ps, nil
}

func bufferSize(cfg *configs.MQConfig) int {
	if cfg == nil || cfg.BufferSize <= 0 {
		return 256
	}

	return cfg.BufferSize
}
