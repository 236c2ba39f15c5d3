package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
)

// CORSMiddleware 按 server.allow_origins 放行跨域请求. 调试模式允许任意来源.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowHeaders = append(config.AllowHeaders, "Authorization", BypassHeader)
	config.ExposeHeaders = []string{"X-Trace-Id", "X-Cache", "ETag", "Content-Disposition"}
	config.MaxAge = 12 * time.Hour

	if cfg.Debug || len(cfg.AllowOrigins) == 0 || slices.Contains(cfg.AllowOrigins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = cfg.AllowOrigins
		config.AllowCredentials = true
	}

	return cors.New(config)
}
