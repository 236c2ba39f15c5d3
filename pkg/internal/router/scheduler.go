package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/sharesmallbiz/pkg/internal/handle"
	"github.com/yeisme/sharesmallbiz/pkg/middleware"
)

// RegisterSchedulerRoutes 注册后台任务管理路由，仅管理员.
func RegisterSchedulerRoutes(g *gin.RouterGroup) {
	jobs := g.Group("/admin/jobs", middleware.RequireAdmin())
	{
		jobs.GET("", handle.SchedulerJobs)
		jobs.GET("/waiting", handle.SchedulerQueueWaiting)
		jobs.POST("/cleanup", handle.SchedulerRunCleanup)
		jobs.POST("/stop", handle.SchedulerStopJobs)
		jobs.DELETE("/id/:id", handle.SchedulerRemoveJob)
		jobs.GET("/:name", handle.SchedulerJob)
		jobs.POST("/:name/run", handle.SchedulerRunNow)
	}
}
