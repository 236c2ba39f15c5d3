// Package router 管理路由配置，把 handle 包中的处理器绑定到 gin 路由组.
//
// 读接口对匿名用户开放，写接口需要登录，关键词维护与后台任务需要管理员.
package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/sharesmallbiz/pkg/cache"
	"github.com/yeisme/sharesmallbiz/pkg/internal/handle"
	"github.com/yeisme/sharesmallbiz/pkg/middleware"
)

// externalCacheTTL 外部 API 查询结果的 HTTP 缓存时间.
const externalCacheTTL = 5 * time.Minute

// RegisterMediaContentRoutes 注册 /Media/{id} 与 /Media/Thumbnail/{id}.
func RegisterMediaContentRoutes(r gin.IRouter) {
	content := r.Group("/Media")
	{
		content.GET("/:id", handle.ServeMedia)
		content.GET("/Thumbnail/:id", handle.ServeThumbnail)
	}
}

// RegisterMediaRoutes 注册媒体库接口.
func RegisterMediaRoutes(g *gin.RouterGroup) {
	mediaRoutes := g.Group("/media")
	{
		mediaRoutes.GET("", handle.SearchMedia)
		mediaRoutes.GET("/:id", handle.GetMedia)

		write := mediaRoutes.Group("", middleware.RequireAuth())
		{
			write.POST("", handle.UploadMedia)
			write.POST("/external", handle.RegisterExternalMedia)
			write.POST("/youtube", handle.CreateYouTubeMedia)
			write.POST("/unsplash", handle.ImportUnsplashMedia)
			write.PUT("/:id", handle.UpdateMedia)
			write.PUT("/:id/link", handle.SwitchMediaLink)
			write.DELETE("/:id", handle.DeleteMedia)
		}
	}
}

// RegisterDiscussionRoutes 注册帖子与评论接口.
func RegisterDiscussionRoutes(g *gin.RouterGroup) {
	discussions := g.Group("/discussions")
	{
		discussions.GET("", handle.ListDiscussions)
		discussions.GET("/featured", handle.FeaturedDiscussions)
		discussions.GET("/slug/:slug", handle.GetDiscussionBySlug)
		discussions.GET("/:id", handle.GetDiscussion)
		discussions.GET("/:id/comments", handle.ListComments)

		write := discussions.Group("", middleware.RequireAuth())
		{
			write.POST("", handle.CreateDiscussion)
			write.PUT("/:id", handle.UpdateDiscussion)
			write.DELETE("/:id", handle.DeleteDiscussion)
			write.POST("/:id/like", handle.LikeDiscussion)
			write.DELETE("/:id/like", handle.UnlikeDiscussion)
			write.POST("/:id/comments", handle.CreateComment)
		}
	}

	comments := g.Group("/comments/:commentId", middleware.RequireAuth())
	{
		comments.PUT("", handle.UpdateComment)
		comments.DELETE("", handle.DeleteComment)
		comments.POST("/like", handle.LikeComment)
		comments.DELETE("/like", handle.UnlikeComment)
	}
}

// RegisterKeywordRoutes 注册关键词接口，写操作仅管理员.
func RegisterKeywordRoutes(g *gin.RouterGroup) {
	keywords := g.Group("/keywords")
	{
		keywords.GET("", handle.ListKeywords)
		keywords.GET("/names", handle.KeywordNames)
		keywords.GET("/:id", handle.GetKeyword)

		admin := keywords.Group("", middleware.RequireAdmin())
		{
			admin.POST("", handle.CreateKeyword)
			admin.POST("/import", handle.ImportKeywords)
			admin.PUT("/:id", handle.UpdateKeyword)
			admin.DELETE("/:id", handle.DeleteKeyword)
		}
	}
}

// RegisterUserRoutes 注册用户资料与关注接口.
func RegisterUserRoutes(g *gin.RouterGroup) {
	g.GET("/me", middleware.RequireAuth(), handle.CurrentUser)

	users := g.Group("/users/:id")
	{
		users.GET("", handle.GetProfile)
		users.GET("/posts", handle.UserPosts)
		users.GET("/followers", handle.Followers)
		users.GET("/following", handle.Following)

		write := users.Group("", middleware.RequireAuth())
		{
			write.PUT("", handle.UpdateProfile)
			write.PUT("/picture", handle.SetProfilePicture)
			write.POST("/follow", handle.FollowUser)
			write.DELETE("/follow", handle.UnfollowUser)
		}
	}
}

// RegisterIntegrationRoutes 注册 YouTube 与 Unsplash 查询接口，c 不为 nil 时缓存响应.
func RegisterIntegrationRoutes(g *gin.RouterGroup, c *cache.Cache) {
	var handlers []gin.HandlerFunc

	if c != nil {
		cfg := middleware.DefaultCacheConfig(c)
		cfg.TTL = externalCacheTTL
		handlers = append(handlers, middleware.CacheMiddleware(cfg))
	}

	yt := g.Group("/youtube", handlers...)
	{
		yt.GET("/search", handle.SearchYouTube)
		yt.GET("/channel", handle.YouTubeChannel)
		yt.GET("/video", handle.YouTubeVideo)
	}

	us := g.Group("/unsplash", handlers...)
	{
		us.GET("/search", handle.SearchUnsplash)
		us.GET("/users/:username/photos", handle.UnsplashUserPhotos)
	}
}
