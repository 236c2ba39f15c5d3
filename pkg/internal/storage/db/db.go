// Package db 按配置打开 GORM 连接并迁移领域模型.
//
// 驱动按构建标签注册：no_postgres、no_mysql、no_sqlite 可去掉对应驱动.
// sqlite 在开启 cgo 时使用 gorm.io/driver/sqlite，否则使用纯 Go 的 glebarez/sqlite.
package db

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	gormPrometheus "gorm.io/plugin/prometheus"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	nlog "github.com/yeisme/sharesmallbiz/pkg/log"
)

// metricsRefreshSeconds 连接池指标的刷新间隔.
const metricsRefreshSeconds = 15

// DialectorFactory 由 DSN 创建 dialector.
type DialectorFactory func(dsn string) gorm.Dialector

var (
	dialectorsMu sync.RWMutex
	dialectors   = map[configs.DBType]DialectorFactory{}
)

// RegisterDialectorFactory 注册驱动，t 使用归一后的驱动名.
func RegisterDialectorFactory(t configs.DBType, f DialectorFactory) {
	dialectorsMu.Lock()
	defer dialectorsMu.Unlock()

	dialectors[t] = f
}

// GetRegisteredDBTypes 返回已编译进来的驱动，按名称排序.
func GetRegisteredDBTypes() []configs.DBType {
	dialectorsMu.RLock()
	defer dialectorsMu.RUnlock()

	types := make([]configs.DBType, 0, len(dialectors))
	for t := range dialectors {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// Client 包装 GORM 连接.
type Client struct {
	*gorm.DB
}

// New 打开连接并配置连接池. AutoMigrate 为 true 时迁移全部模型，
// 开启指标时注册 GORM Prometheus 插件.
func New(ctx context.Context, cfg *configs.DBConfig) (*Client, error) {
	driver := cfg.Driver()

	dialectorsMu.RLock()
	factory, ok := dialectors[driver]
	dialectorsMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	dsn := cfg.GetDSN()
	if dsn == "" {
		return nil, fmt.Errorf("empty dsn for database type: %s", cfg.Type)
	}

	level := logger.Warn
	if configs.GetConfig().Server.Debug {
		level = logger.Info
	}

	gdb, err := gorm.Open(factory(dsn), &gorm.Config{
		Logger: logger.New(nlog.Logger(), logger.Config{
			SlowThreshold:             cfg.SlowThreshold(),
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	c := &Client{DB: gdb}

	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := c.Migrate(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	if configs.GetConfig().Metrics.Enabled {
		if err := c.Use(gormPrometheus.New(gormPrometheus.Config{
			DBName:          string(driver),
			RefreshInterval: metricsRefreshSeconds,
		})); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("register gorm metrics: %w", err)
		}
	}

	nlog.Logger().Info().Str("driver", string(driver)).Str("target", cfg.Target()).Msg("database connected")

	return c, nil
}

// GetDB 返回 GORM 实例.
func (c *Client) GetDB() *gorm.DB {
	return c.DB
}

// Ping 检查连接是否可用.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	return nil
}

// Migrate 迁移全部领域模型.
func (c *Client) Migrate(ctx context.Context) error {
	models := model.All()
	if err := c.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	nlog.Logger().Info().Int("models", len(models)).Msg("database migrated")

	return nil
}

// Close 关闭连接池.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
