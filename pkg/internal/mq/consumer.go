// Package mq 消费领域事件.
//
// 目前处理的主题：
//   - media.cleanup.requested：存储删除失败后立即重试一次，失败则留给定时清理任务
//   - media.deleted / post.*：只记录日志，便于审计
//
// 使用示例：
//
//	c, err := mq.NewConsumer(client.Subscriber(), mediaService)
//	if err != nil {
//		return err
//	}
//	go c.Run(ctx)
//	defer c.Close()
package mq

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/yeisme/sharesmallbiz/pkg/internal/service"
	mqc "github.com/yeisme/sharesmallbiz/pkg/internal/storage/mq"
	nlog "github.com/yeisme/sharesmallbiz/pkg/log"
	"github.com/yeisme/sharesmallbiz/pkg/queue"
)

// MediaCleaner 消费者依赖的媒体清理能力.
type MediaCleaner interface {
	CleanupMedia(ctx context.Context, id uint) (bool, error)
}

var _ MediaCleaner = (*service.MediaService)(nil)

// Consumer 把事件主题绑定到处理函数.
type Consumer struct {
	router  *message.Router
	cleaner MediaCleaner
}

// NewConsumer 创建消费者. sub 为 nil 时返回错误.
func NewConsumer(sub message.Subscriber, cleaner MediaCleaner) (*Consumer, error) {
	if sub == nil {
		return nil, errors.New("mq subscriber not initialized")
	}

	router, err := message.NewRouter(message.RouterConfig{}, mqc.NewLoggerAdapter(nlog.Logger()))
	if err != nil {
		return nil, fmt.Errorf("create consumer router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)

	c := &Consumer{router: router, cleaner: cleaner}

	router.AddNoPublisherHandler("media.cleanup", queue.TopicMediaCleanupRequested, sub, c.handleCleanup)
	router.AddNoPublisherHandler("media.deleted.audit", queue.TopicMediaDeleted, sub, c.handleAudit)

	for _, topic := range queue.PostTopics {
		router.AddNoPublisherHandler(topic+".audit", topic, sub, c.handleAudit)
	}

	return c, nil
}

// Run 阻塞运行，ctx 取消后返回.
func (c *Consumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running 在所有处理函数开始订阅后关闭.
func (c *Consumer) Running() chan struct{} {
	return c.router.Running()
}

// Close 停止消费.
func (c *Consumer) Close() error {
	return c.router.Close()
}

// handleCleanup 重试删除. 只有无法解析的消息会被丢弃，其余失败交给定时任务，不触发重投.
func (c *Consumer) handleCleanup(msg *message.Message) error {
	env, err := queue.ParseMediaCleanupRequested(msg)
	if err != nil {
		nlog.Logger().Error().Err(err).Str("message_id", msg.UUID).Msg("drop malformed cleanup request")
		return nil
	}

	ctx := queue.ContextWithTraceID(msg.Context(), env.Header.TraceID)
	l := nlog.Logger().With().Uint("media_id", env.Payload.Media.ID).Int("attempts", env.Payload.Attempts).Logger()

	ok, err := c.cleaner.CleanupMedia(ctx, env.Payload.Media.ID)
	switch {
	case err != nil:
		l.Warn().Err(err).Msg("deferred media cleanup failed, left for scheduled sweep")
	case ok:
		l.Info().Msg("deferred media cleanup done")
	default:
		l.Debug().Msg("media no longer pending cleanup")
	}

	return nil
}

func (c *Consumer) handleAudit(msg *message.Message) error {
	nlog.Logger().Debug().
		Str("topic", msg.Metadata.Get("topic")).
		Str("message_id", msg.UUID).
		Str("trace_id", msg.Metadata.Get("trace_id")).
		Msg("event received")

	return nil
}
