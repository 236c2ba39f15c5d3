package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/sharesmallbiz/pkg/cache"
	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/youtube"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage/media"
	"github.com/yeisme/sharesmallbiz/pkg/queue"
)

// Deps 构造全部服务所需的依赖. YouTube、Unsplash、Events、Cache 可以为 nil.
type Deps struct {
	DB         *gorm.DB
	Store      *media.Store
	Events     *queue.Events
	Cache      *cache.Cache
	KeywordTTL time.Duration
	YouTube    youtube.API
	Unsplash   UnsplashAPI
}

// Services 应用的服务集合，由 HTTP 层与命令行共用.
type Services struct {
	Media       *MediaService
	YouTube     *YouTubeService
	Unsplash    *UnsplashService
	Discussions *DiscussionService
	Keywords    *KeywordService
	Users       *UserService
}

// NewServices 按依赖创建服务集合.
func NewServices(d Deps) *Services {
	ms := NewMediaService(d.DB, d.Store, d.Events)

	s := &Services{
		Media:       ms,
		YouTube:     NewYouTubeService(ms, d.YouTube),
		Discussions: NewDiscussionService(d.DB, d.Events),
		Keywords:    NewKeywordService(d.DB, d.Cache, d.KeywordTTL),
		Users:       NewUserService(d.DB, ms),
	}

	if d.Unsplash != nil {
		s.Unsplash = NewUnsplashService(ms, d.Unsplash)
	}

	return s
}

type servicesKey struct{}

// WithServices 把服务集合放入 context.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// FromContext 取出服务集合，不存在时返回 nil.
func FromContext(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}
