// Package middleware 提供 gin 中间件：认证与角色校验、依赖注入、缓存、限流、熔断、追踪与访问日志.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/sharesmallbiz/pkg/internal/service"
)

// ServicesMiddleware 将服务集合注入到 request context，处理器通过 service.FromContext 获取.
func ServicesMiddleware(s *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(service.WithServices(c.Request.Context(), s))
		c.Next()
	}
}
