// Package middleware 提供角色与权限相关的中间件和辅助方法。
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/sharesmallbiz/pkg/context"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
)

// GetPrincipal 返回当前请求的调用方，匿名请求返回 nil.
func GetPrincipal(c *gin.Context) *types.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*types.Principal); ok {
			return p
		}
	}

	// 回退到 request context
	return ctxPkg.GetPrincipal(c.Request.Context())
}

// RequireAuth 要求已登录，否则返回 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetPrincipal(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		c.Next()
	}
}

// RequireAdmin 要求管理员角色，未登录返回 401，权限不足返回 403.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if !p.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		if !p.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: insufficient role"})
			return
		}

		c.Next()
	}
}

// RequireRole 要求拥有指定角色（大小写不敏感），管理员总是通过.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if !p.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		if !p.IsAdmin() && !p.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: insufficient role"})
			return
		}

		c.Next()
	}
}
