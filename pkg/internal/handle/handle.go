// Package handle 提供 HTTP 请求处理器的实现.
//
// 处理器通过 service.FromContext 取得服务集合，调用方身份由认证中间件注入.
package handle

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/unsplash"
	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/youtube"
	"github.com/yeisme/sharesmallbiz/pkg/internal/service"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage/media"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	"github.com/yeisme/sharesmallbiz/pkg/log"
	"github.com/yeisme/sharesmallbiz/pkg/middleware"
	"github.com/yeisme/sharesmallbiz/pkg/rule"
)

// errorStatus 把领域错误映射为 HTTP 状态码.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrMediaNotFound),
		errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrKeywordNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, media.ErrFileNotFound),
		errors.Is(err, youtube.ErrVideoNotFound),
		errors.Is(err, unsplash.ErrPhotoNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, service.ErrInvalidYouTubeURL),
		errors.Is(err, service.ErrInvalidUnsplashURL),
		errors.Is(err, service.ErrSelfFollow),
		errors.Is(err, media.ErrInvalidFile),
		errors.Is(err, media.ErrUnsupportedProvider),
		errors.Is(err, media.ErrUnsupportedOperation),
		rule.Errors(err) != nil:
		return http.StatusBadRequest
	case errors.Is(err, youtube.ErrNotConfigured),
		errors.Is(err, unsplash.ErrNotConfigured),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError 统一的错误响应 {"error": "..."}，校验错误附带字段明细.
func writeError(c *gin.Context, err error) {
	status := errorStatus(err)

	l := log.Ctx(c.Request.Context())
	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	} else {
		l.Debug().Err(err).Int("status", status).Str("path", c.FullPath()).Msg("request rejected")
	}

	body := gin.H{"error": err.Error()}
	if fields := rule.Errors(err); fields != nil {
		body["fields"] = fields
	}

	var verr *media.ValidationError
	if errors.As(err, &verr) {
		body["reasons"] = verr.Reasons
	}

	c.AbortWithStatusJSON(status, body)
}

// services 取出服务集合，未注入时返回 503.
func services(c *gin.Context) (*service.Services, bool) {
	s := service.FromContext(c.Request.Context())
	if s == nil {
		log.Logger().Error().Msg("services not initialized")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "services not initialized"})

		return nil, false
	}

	return s, true
}

// bind 绑定请求并按 rule 标签校验.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBind(dst); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid request")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return false
	}

	if err := rule.ValidateStruct(dst); err != nil {
		writeError(c, err)
		return false
	}

	return true
}

// paramID 解析路径中的数字 ID.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}

	return uint(id), true
}

// pageQuery 读取分页参数，非法值交给服务层钳制.
func pageQuery(c *gin.Context) (types.PageQuery, bool) {
	var q types.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return q, false
	}

	if err := rule.ValidateStruct(&q); err != nil {
		writeError(c, err)
		return q, false
	}

	return q, true
}

func principal(c *gin.Context) *types.Principal {
	return middleware.GetPrincipal(c)
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}

	return v
}
