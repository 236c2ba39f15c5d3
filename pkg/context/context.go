// Package context 在 context.Context 中传递存储管理器与调用方.
package context

import (
	"context"

	"github.com/yeisme/sharesmallbiz/pkg/internal/storage"
	dbc "github.com/yeisme/sharesmallbiz/pkg/internal/storage/db"
	kvc "github.com/yeisme/sharesmallbiz/pkg/internal/storage/kv"
	mqc "github.com/yeisme/sharesmallbiz/pkg/internal/storage/mq"
	s3c "github.com/yeisme/sharesmallbiz/pkg/internal/storage/s3"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
)

type key int

const (
	managerKey key = iota
	principalKey
)

// WithStorageManager 保存存储管理器.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, managerKey, mgr)
}

// GetManager 取出存储管理器，没有时返回 nil.
func GetManager(ctx context.Context) *storage.Manager {
	mgr, _ := ctx.Value(managerKey).(*storage.Manager)
	return mgr
}

// 以下访问器在管理器缺失时返回 nil，健康检查据此判断组件是否启用.

func GetS3Client(ctx context.Context) *s3c.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetS3Client()
	}

	return nil
}

func GetDBClient(ctx context.Context) *dbc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetDBClient()
	}

	return nil
}

func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetMQClient()
	}

	return nil
}

func GetKVClient(ctx context.Context) *kvc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetKVClient()
	}

	return nil
}

// WithPrincipal 保存认证后的调用方.
func WithPrincipal(ctx context.Context, p *types.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal 取出调用方，匿名请求返回 nil.
func GetPrincipal(ctx context.Context) *types.Principal {
	p, _ := ctx.Value(principalKey).(*types.Principal)
	return p
}
