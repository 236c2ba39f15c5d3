package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeisme/sharesmallbiz/pkg/internal/jobs"
	"github.com/yeisme/sharesmallbiz/pkg/log"
	"github.com/yeisme/sharesmallbiz/pkg/middleware"
	"github.com/yeisme/sharesmallbiz/pkg/scheduler"
)

func getScheduler(c *gin.Context) (*scheduler.Scheduler, bool) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
		return nil, false
	}

	return sched, true
}

func schedulerError(c *gin.Context, err error) {
	if errors.Is(err, scheduler.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	log.Logger().Error().Err(err).Msg("scheduler operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// SchedulerJobs 返回所有调度器任务信息.
//
//	@Summary		任务列表
//	@Tags			管理
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Router			/api/v1/admin/jobs [get]
func SchedulerJobs(c *gin.Context) {
	sched, ok := getScheduler(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.GetJobInfos()})
}

// SchedulerJob 按名称返回任务信息.
//
//	@Summary		任务详情
//	@Tags			管理
//	@Produce		json
//	@Param			name	path		string	true	"任务名"
//	@Success		200		{object}	scheduler.JobInfo
//	@Router			/api/v1/admin/jobs/{name} [get]
func SchedulerJob(c *gin.Context) {
	sched, ok := getScheduler(c)
	if !ok {
		return
	}

	info, err := sched.GetJobInfoByName(c.Param("name"))
	if err != nil {
		schedulerError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// SchedulerRunNow 立即执行一次任务，例如 media.cleanup.
//
//	@Summary		立即执行任务
//	@Tags			管理
//	@Produce		json
//	@Param			name	path		string	true	"任务名"
//	@Success		202		{object}	map[string]string
//	@Failure		404		{object}	map[string]string	"任务不存在"
//	@Router			/api/v1/admin/jobs/{name}/run [post]
func SchedulerRunNow(c *gin.Context) {
	sched, ok := getScheduler(c)
	if !ok {
		return
	}

	name := c.Param("name")
	if err := sched.RunNow(name); err != nil {
		schedulerError(c, err)
		return
	}

	log.Logger().Info().Str("job", name).Str("by", principal(c).UserID).Msg("job triggered manually")
	c.JSON(http.StatusAccepted, gin.H{"message": "job triggered", "job": name})
}

// SchedulerRunCleanup 立即执行一次延迟清理.
//
//	@Summary		立即清理媒体
//	@Tags			管理
//	@Produce		json
//	@Success		202	{object}	map[string]string
//	@Router			/api/v1/admin/jobs/cleanup [post]
func SchedulerRunCleanup(c *gin.Context) {
	c.Params = append(c.Params, gin.Param{Key: "name", Value: jobs.JobMediaCleanup})
	SchedulerRunNow(c)
}

// SchedulerStopJobs 停止所有任务.
//
//	@Summary		停止全部任务
//	@Tags			管理
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/api/v1/admin/jobs/stop [post]
func SchedulerStopJobs(c *gin.Context) {
	sched, ok := getScheduler(c)
	if !ok {
		return
	}

	if err := sched.StopJobs(); err != nil {
		schedulerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "jobs stopped"})
}

// SchedulerRemoveJob 根据 id 删除任务.
//
//	@Summary		删除任务
//	@Tags			管理
//	@Produce		json
//	@Param			id	path		string	true	"任务 UUID"
//	@Success		200	{object}	map[string]string
//	@Router			/api/v1/admin/jobs/id/{id} [delete]
func SchedulerRemoveJob(c *gin.Context) {
	sched, ok := getScheduler(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	if err := sched.RemoveJob(id); err != nil {
		schedulerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job removed"})
}

// SchedulerQueueWaiting 返回队列中等待的任务数.
//
//	@Summary		等待中的任务数
//	@Tags			管理
//	@Produce		json
//	@Success		200	{object}	map[string]int
//	@Router			/api/v1/admin/jobs/waiting [get]
func SchedulerQueueWaiting(c *gin.Context) {
	sched, ok := getScheduler(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"waiting": sched.JobsWaitingInQueue()})
}
