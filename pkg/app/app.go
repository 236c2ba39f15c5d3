// Package app 提供应用程序的初始化和配置功能.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/yeisme/sharesmallbiz/pkg/api"
	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/unsplash"
	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/youtube"
	"github.com/yeisme/sharesmallbiz/pkg/internal/jobs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/mq"
	"github.com/yeisme/sharesmallbiz/pkg/internal/service"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage"
	"github.com/yeisme/sharesmallbiz/pkg/log"
	"github.com/yeisme/sharesmallbiz/pkg/metrics"
	"github.com/yeisme/sharesmallbiz/pkg/middleware"
	"github.com/yeisme/sharesmallbiz/pkg/queue"
	"github.com/yeisme/sharesmallbiz/pkg/scheduler"
	"github.com/yeisme/sharesmallbiz/pkg/tracing"
)

// App 持有 HTTP 引擎与后台组件.
type App struct {
	Engine   *gin.Engine
	config   *configs.AppConfig
	manager  *storage.Manager
	services *service.Services
	sched    *scheduler.Scheduler
	consumer *mq.Consumer
}

// Bootstrap 加载配置并初始化日志、追踪、指标与存储，命令行子命令共用.
func Bootstrap(ctx context.Context, configPath string) (*configs.AppConfig, *storage.Manager, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, nil, fmt.Errorf("init config: %w", err)
	}

	config := configs.GetConfig()
	log.Init()

	if err := tracing.InitTracer(ctx, config.Tracing); err != nil {
		return nil, nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, nil, fmt.Errorf("init metrics: %w", err)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	return config, manager, nil
}

// NewServices 按配置组装服务集合. 未配置 API Key 的外部服务不注入客户端.
func NewServices(config *configs.AppConfig, manager *storage.Manager) *service.Services {
	deps := service.Deps{
		DB:         manager.DB.GetDB(),
		Store:      manager.Media,
		Events:     queue.NewEvents(manager.MQ.Publisher(), config.Events),
		Cache:      manager.Cache,
		KeywordTTL: time.Duration(config.Jobs.KeywordTTL) * time.Minute,
	}

	if config.YouTube.APIKey != "" {
		deps.YouTube = youtube.NewClient(config.YouTube, config.CircuitBreaker, manager.Cache)
	}

	if config.Unsplash.AccessKey != "" {
		deps.Unsplash = unsplash.NewClient(config.Unsplash, config.CircuitBreaker)
	}

	return service.NewServices(deps)
}

// NewApp 创建应用：存储、服务、后台任务、消息消费者与中间件链.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	config, manager, err := Bootstrap(ctx, configPath)
	if err != nil {
		return nil, err
	}

	a := &App{
		Engine:   gin.New(),
		config:   config,
		manager:  manager,
		services: NewServices(config, manager),
	}

	if config.Jobs.Enabled {
		a.sched, err = scheduler.NewScheduler()
		if err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("init scheduler: %w", err)
		}

		if err := jobs.RegisterCronJobs(ctx, a.sched, config.Jobs, a.services.Media, a.services.Keywords); err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
	}

	if sub := manager.MQ.Subscriber(); sub != nil {
		a.consumer, err = mq.NewConsumer(sub, a.services.Media)
		if err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("init consumer: %w", err)
		}
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	a.Engine.Use(
		gin.Recovery(),
		middleware.CORSMiddleware(config.Server),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.GinLoggerMiddleware(),
		// 媒体字节多为已压缩格式
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`^/Media/`})),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.StorageMiddleware(manager),
		middleware.ServicesMiddleware(a.services),
		middleware.AuthMiddleware(config.Auth, a.services.Users),
	)

	if a.sched != nil {
		a.Engine.Use(middleware.SchedulerMiddleware(a.sched))
	}

	if config.Metrics.Enabled {
		if err := metrics.StartMetricsServer(config.Metrics, a.Engine); err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
	}

	api.RegisterGroup(a.Engine, config, manager.Cache)

	return a, nil
}

// Services 返回服务集合.
func (a *App) Services() *service.Services {
	return a.services
}

// Run 启动后台任务、消息消费者与 HTTP 服务，ctx 取消后优雅退出.
func (a *App) Run(ctx context.Context) error {
	l := log.Logger()

	if a.sched != nil {
		a.sched.Start()
		l.Info().Int("jobs", len(a.sched.GetJobInfos())).Msg("scheduler started")
	}

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Run(ctx); err != nil {
				l.Error().Err(err).Msg("mq consumer stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:              a.config.Server.Addr(),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
		// 上传大文件需要更长的读取时间
		ReadTimeout: 4 * a.config.Server.GetTimeoutDuration(),
	}

	errCh := make(chan error, 1)

	go func() {
		l.Info().Str("addr", srv.Addr).Str("version", configs.AppVersion).Msg("http server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		_ = a.Close(context.Background())
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.GetShutdownTimeout())
	defer cancel()

	l.Info().Msg("shutting down")

	err := srv.Shutdown(shutdownCtx)

	return multierr.Append(err, a.Close(shutdownCtx))
}

// Close 停止后台组件并释放存储连接.
func (a *App) Close(ctx context.Context) error {
	var errs error

	if a.sched != nil {
		errs = multierr.Append(errs, a.sched.Shutdown())
	}

	if a.consumer != nil {
		errs = multierr.Append(errs, a.consumer.Close())
	}

	if a.manager != nil {
		errs = multierr.Append(errs, a.manager.Close())
	}

	return multierr.Append(errs, tracing.ShutdownTracer(ctx))
}
