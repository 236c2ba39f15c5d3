package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/sharesmallbiz/pkg/log"
	"github.com/yeisme/sharesmallbiz/pkg/tracing"
)

// quietPaths 成功时不记录访问日志.
var quietPaths = []string{"/metrics", "/api/v1/health"}

// GinLoggerMiddleware 访问日志. 5xx 记为 error，4xx 记为 warn，媒体内容与探活的成功请求记为 debug.
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		l := log.Logger()

		var event *zerolog.Event

		switch {
		case status >= http.StatusInternalServerError:
			event = l.Error()
		case status >= http.StatusBadRequest:
			event = l.Warn()
		case isSkippedPath(path, quietPaths), isSkippedPath(path, []string{"/Media/"}):
			event = l.Debug()
		default:
			event = l.Info()
		}

		if query != "" {
			path += "?" + query
		}

		event = event.
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("route", c.FullPath()).
			Int("bytes", c.Writer.Size()).
			Str("client_ip", c.ClientIP())

		if id := tracing.TraceID(c.Request.Context()); id != "" {
			event = event.Str("trace_id", id)
		}

		if p := GetPrincipal(c); p.Authenticated() {
			event = event.Str("user_id", p.UserID)
		}

		if len(c.Errors) > 0 {
			event = event.Str("error", c.Errors.String())
		}

		event.Msg("http request")
	}
}
