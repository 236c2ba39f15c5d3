package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// ID 事件唯一标识（ULID，按时间有序）.
	ID string `json:"id"`
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 媒体库领域 --------------------------

// MediaRef 标识一条媒体记录与其存储位置.
type MediaRef struct {
	ID              uint   `json:"id"`
	StorageProvider string `json:"storage_provider"`
	MediaType       string `json:"media_type,omitempty"`
	URL             string `json:"url,omitempty"`
	FileName        string `json:"file_name,omitempty"`
	UserID          string `json:"user_id,omitempty"`
}

// MediaCreatedPayload 新媒体已登记.
type MediaCreatedPayload struct {
	Media MediaRef `json:"media"`
	Size  int64    `json:"size,omitempty"`
}

// MediaDeletedPayload 媒体已删除.
type MediaDeletedPayload struct {
	Media MediaRef `json:"media"`
	// Deferred 为 true 表示由延迟清理完成删除
	Deferred bool `json:"deferred,omitempty"`
}

// MediaCleanupRequestedPayload 存储删除失败，数据库行已标记待清理.
type MediaCleanupRequestedPayload struct {
	Media    MediaRef `json:"media"`
	Attempts int      `json:"attempts"`
	Error    string   `json:"error,omitempty"`
}

// -------------------------- 讨论帖领域 --------------------------

// PostRef 标识一条帖子.
type PostRef struct {
	ID       uint   `json:"id"`
	Slug     string `json:"slug,omitempty"`
	AuthorID string `json:"author_id,omitempty"`
}

// PostCreatedPayload 新帖发布.
type PostCreatedPayload struct {
	Post     PostRef  `json:"post"`
	Title    string   `json:"title"`
	Keywords []string `json:"keywords,omitempty"`
}

// PostLikedPayload 帖子被点赞.
type PostLikedPayload struct {
	Post   PostRef `json:"post"`
	UserID string  `json:"user_id"`
}

// PostCommentedPayload 帖子收到评论.
type PostCommentedPayload struct {
	Post      PostRef `json:"post"`
	CommentID uint    `json:"comment_id"`
	AuthorID  string  `json:"author_id"`
}
