// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	"github.com/yeisme/sharesmallbiz/pkg/log"
	"github.com/yeisme/sharesmallbiz/pkg/scheduler"
)

// MediaSweeper 处理待清理媒体.
type MediaSweeper interface {
	ProcessPendingCleanup(ctx context.Context, batch int) (types.CleanupResult, error)
}

// KeywordRefresher 重建关键词缓存.
type KeywordRefresher interface {
	RefreshNames(ctx context.Context) (int, error)
}

// jobTimeout 单次运行上限，避免卡住的存储调用阻塞后续调度.
const jobTimeout = 5 * time.Minute

// RegisterCronJobs 配置业务定时任务：
//   - media.cleanup：重试存储删除失败的媒体
//   - keyword.refresh：预热关键词名称缓存
//
// cron 表达式为空的任务不注册.
func RegisterCronJobs(ctx context.Context, sched *scheduler.Scheduler, cfg configs.JobsConfig, media MediaSweeper, keywords KeywordRefresher) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if media != nil && cfg.MediaCleanup != "" {
		if err := sched.AddCron(JobMediaCleanup, cfg.MediaCleanup, MediaCleanup(media, cfg.CleanupBatch), ctx); err != nil {
			return err
		}
	}

	if keywords != nil && cfg.KeywordRefresh != "" {
		if err := sched.AddCron(JobKeywordRefresh, cfg.KeywordRefresh, KeywordRefresh(keywords), ctx); err != nil {
			return err
		}
	}

	return nil
}

// MediaCleanup 返回清理任务.
func MediaCleanup(media MediaSweeper, batch int) scheduler.JobFunc {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()

		res, err := media.ProcessPendingCleanup(ctx, batch)
		if err != nil {
			return err
		}

		if res.Processed > 0 {
			log.Logger().Info().Str("job", JobMediaCleanup).
				Int("processed", res.Processed).
				Int("deleted", res.Deleted).
				Int("failed", res.Failed).
				Int("gave_up", res.GaveUp).
				Msg("media cleanup sweep done")
		}

		return nil
	}
}

// KeywordRefresh 返回关键词缓存预热任务.
func KeywordRefresh(keywords KeywordRefresher) scheduler.JobFunc {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()

		n, err := keywords.RefreshNames(ctx)
		if err != nil {
			return err
		}

		log.Logger().Debug().Str("job", JobKeywordRefresh).Int("keywords", n).Msg("keyword cache refreshed")

		return nil
	}
}
