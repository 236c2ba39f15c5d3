// Package queue 定义消息主题常量与通配模式，供发布/订阅使用.
package queue

// 主题命名规范：<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：media(媒体库)、post(讨论帖)
// 状态：请求(requested)、完成(ed)

const (
	// 媒体库领域.
	TopicMediaCreated          = "media.created"           // 媒体行已写入数据库
	TopicMediaDeleted          = "media.deleted"           // 字节与数据库行均已删除
	TopicMediaCleanupRequested = "media.cleanup.requested" // 存储删除失败，请求延迟清理

	// 讨论帖领域.
	TopicPostCreated   = "post.created"   // 新帖发布
	TopicPostLiked     = "post.liked"     // 帖子被点赞
	TopicPostCommented = "post.commented" // 帖子收到评论
)

// 主题分组，用于批量订阅.
var (
	MediaTopics = []string{TopicMediaCreated, TopicMediaDeleted, TopicMediaCleanupRequested}

	PostTopics = []string{TopicPostCreated, TopicPostLiked, TopicPostCommented}
)

// AllTopics 返回全部主题.
func AllTopics() []string {
	return append(append([]string{}, MediaTopics...), PostTopics...)
}
