package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	nlog "github.com/yeisme/sharesmallbiz/pkg/log"
)

// DefaultProducer 事件头中的默认生产者名.
const DefaultProducer = "sharesmallbiz"

// -------------------------- 基于业务封装 events --------------------------

// Publish 构造信封并发布到 topic.
func Publish[T any](pub message.Publisher, topic string, payload T, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(topic, msg)
}

// ParseMediaCleanupRequested 将 Watermill 消息解析为强类型 Envelope.
func ParseMediaCleanupRequested(msg *message.Message) (Message[MediaCleanupRequestedPayload], error) {
	return ParseWatermillMessage[MediaCleanupRequestedPayload](msg)
}

// ParseMediaDeleted 将 Watermill 消息解析为强类型 Envelope.
func ParseMediaDeleted(msg *message.Message) (Message[MediaDeletedPayload], error) {
	return ParseWatermillMessage[MediaDeletedPayload](msg)
}

// Events 按 EventsConfig 开关发布领域事件.
// pub 为 nil 或总开关关闭时所有方法静默返回；发布失败只记录日志，不影响业务结果.
type Events struct {
	pub      message.Publisher
	cfg      configs.EventsConfig
	producer string
}

// NewEvents 创建事件发布器.
func NewEvents(pub message.Publisher, cfg configs.EventsConfig) *Events {
	return &Events{pub: pub, cfg: cfg, producer: DefaultProducer}
}

// enabled 在读取配置前判空，nil *Events 等同于关闭.
func (e *Events) enabled(flag func(configs.EventsConfig) bool) bool {
	return e != nil && e.pub != nil && e.cfg.Enabled && flag(e.cfg)
}

func publishLogged[T any](ctx context.Context, e *Events, topic string, payload T) {
	err := Publish(e.pub, topic, payload, WithProducer(e.producer), WithTraceID(traceID(ctx)))
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", topic).Msg("publish event failed")
	}
}

// MediaCreated 发布 media.created.
func (e *Events) MediaCreated(ctx context.Context, p MediaCreatedPayload) {
	if e.enabled(func(c configs.EventsConfig) bool { return c.Media.Created }) {
		publishLogged(ctx, e, TopicMediaCreated, p)
	}
}

// MediaDeleted 发布 media.deleted.
func (e *Events) MediaDeleted(ctx context.Context, p MediaDeletedPayload) {
	if e.enabled(func(c configs.EventsConfig) bool { return c.Media.Deleted }) {
		publishLogged(ctx, e, TopicMediaDeleted, p)
	}
}

// MediaCleanupRequested 发布 media.cleanup.requested，返回是否已投递.
func (e *Events) MediaCleanupRequested(ctx context.Context, p MediaCleanupRequestedPayload) bool {
	if !e.enabled(func(c configs.EventsConfig) bool { return c.Media.CleanupRequested }) {
		return false
	}

	err := Publish(e.pub, TopicMediaCleanupRequested, p, WithProducer(e.producer), WithTraceID(traceID(ctx)))
	if err != nil {
		nlog.Logger().Warn().Err(err).Uint("media_id", p.Media.ID).Msg("publish cleanup request failed, cron job will retry")
		return false
	}

	return true
}

// PostCreated 发布 post.created.
func (e *Events) PostCreated(ctx context.Context, p PostCreatedPayload) {
	if e.enabled(func(c configs.EventsConfig) bool { return c.Post.Created }) {
		publishLogged(ctx, e, TopicPostCreated, p)
	}
}

// PostLiked 发布 post.liked.
func (e *Events) PostLiked(ctx context.Context, p PostLikedPayload) {
	if e.enabled(func(c configs.EventsConfig) bool { return c.Post.Liked }) {
		publishLogged(ctx, e, TopicPostLiked, p)
	}
}

// PostCommented 发布 post.commented.
func (e *Events) PostCommented(ctx context.Context, p PostCommentedPayload) {
	if e.enabled(func(c configs.EventsConfig) bool { return c.Post.Commented }) {
		publishLogged(ctx, e, TopicPostCommented, p)
	}
}

type traceIDKey struct{}

// ContextWithTraceID 在 ctx 中携带事件关联 ID.
func ContextWithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

func traceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(traceIDKey{}).(string)

	return id
}
