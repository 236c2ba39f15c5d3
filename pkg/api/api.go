// Package api 汇总对外 HTTP 接口，把各业务路由组挂到 gin 引擎上.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/sharesmallbiz/pkg/cache"
	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/router"
)

// BasePath 业务接口前缀.
const BasePath = "/api/v1"

// RegisterGroup 注册全部路由到传入的 gin 引擎. c 为 nil 时外部查询不做响应缓存.
func RegisterGroup(e *gin.Engine, cfg *configs.AppConfig, c *cache.Cache) *gin.Engine {
	router.RegisterMediaContentRoutes(e)
	router.RegisterSwaggerRoute(e, cfg.Server)

	v1 := e.Group(BasePath)
	router.RegisterHealthCheckRoute(v1)
	router.RegisterMediaRoutes(v1)
	router.RegisterDiscussionRoutes(v1)
	router.RegisterKeywordRoutes(v1)
	router.RegisterUserRoutes(v1)
	router.RegisterIntegrationRoutes(v1, c)
	router.RegisterSchedulerRoutes(v1)

	return e
}
