package jobs

// 任务名称常量，管理接口通过名称触发任务.
const (
	JobMediaCleanup   = "media.cleanup"
	JobKeywordRefresh = "keyword.refresh"
)
