// Package storage 聚合应用的存储资源：数据库、键值缓存、消息队列、对象存储与媒体提供者.
package storage

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/yeisme/sharesmallbiz/pkg/cache"
	"github.com/yeisme/sharesmallbiz/pkg/configs"
	dbc "github.com/yeisme/sharesmallbiz/pkg/internal/storage/db"
	kvc "github.com/yeisme/sharesmallbiz/pkg/internal/storage/kv"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage/media"
	mqc "github.com/yeisme/sharesmallbiz/pkg/internal/storage/mq"
	s3c "github.com/yeisme/sharesmallbiz/pkg/internal/storage/s3"
	nlog "github.com/yeisme/sharesmallbiz/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	DB    *dbc.Client
	KV    *kvc.Client
	MQ    *mqc.Client
	S3    *s3c.Client // s3.enabled=false 时为 nil
	Media *media.Store
	Cache *cache.Cache
}

var (
	mgr     *Manager
	mgrErr  error
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置.重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	mgrOnce.Do(func() {
		mgr, mgrErr = New(ctx, configs.GetConfig())
		if mgrErr == nil {
			nlog.Logger().Info().Msg("storage manager initialized")
		}
	})

	return mgr, mgrErr
}

// New 按配置创建 Manager. DB 必须可用，其余组件按配置启用.
func New(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	m := &Manager{}

	// DB
	dbi, err := dbc.New(ctx, &cfg.DB)
	if err != nil {
		return nil, err
	}

	m.DB = dbi

	// KV + Cache
	kvi, err := kvc.NewKVClientWithConfig(ctx, &cfg.KV)
	if err != nil {
		_ = m.Close()

		return nil, fmt.Errorf("init kv (%s): %w", cfg.KV.Type, err)
	}

	m.KV = kvi
	m.Cache = cache.NewCache(kvi, cache.DefaultNamespace)

	// MQ
	mqi, err := mqc.NewWithConfig(ctx, &cfg.MQ, &cfg.Metrics)
	if err != nil {
		_ = m.Close()
		return nil, err
	}

	m.MQ = mqi

	// 媒体提供者，S3 可选
	providers := []media.Provider{
		media.NewLocalProvider(&cfg.Media),
		media.NewExternalProvider(),
		media.NewYouTubeProvider(),
	}

	if cfg.S3.Enabled {
		s3i, err := s3c.New(ctx, &cfg.S3)
		if err != nil {
			_ = m.Close()
			return nil, err
		}

		m.S3 = s3i
		providers = append(providers, media.NewS3Provider(s3i, cfg.Media.UploadsDir))
	}

	m.Media = media.NewStore(&cfg.Media, providers...)

	return m, nil
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// Close 释放所有连接.
func (m *Manager) Close() error {
	var errs error

	if m.MQ != nil {
		errs = multierr.Append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = multierr.Append(errs, m.KV.Close())
	}

	if m.S3 != nil {
		errs = multierr.Append(errs, m.S3.Close())
	}

	if m.DB != nil {
		errs = multierr.Append(errs, m.DB.Close())
	}

	return errs
}
