package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/sharesmallbiz/pkg/scheduler"
)

const schedulerKey = "scheduler"

// SchedulerMiddleware 让管理接口拿到后台任务调度器. 未启用后台任务时不注册.
func SchedulerMiddleware(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(schedulerKey, sched)
		c.Next()
	}
}

// GetScheduler 返回调度器，未注入时为 nil.
func GetScheduler(c *gin.Context) *scheduler.Scheduler {
	v, ok := c.Get(schedulerKey)
	if !ok {
		return nil
	}

	sched, _ := v.(*scheduler.Scheduler)

	return sched
}
