package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	ctxPkg "github.com/yeisme/sharesmallbiz/pkg/context"
	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	"github.com/yeisme/sharesmallbiz/pkg/log"
)

const principalKey = "principal"

// UserSyncer 认证成功后同步用户表.
type UserSyncer interface {
	EnsureUser(ctx context.Context, p *types.Principal) (*model.User, error)
}

// Claims Bearer Token 的载荷.
type Claims struct {
	Email string   `json:"email,omitempty"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware 解析调用方身份，按以下顺序：
//   - Authorization: Bearer <HS256 JWT>（配置了 jwt_secret 时）
//   - oauth2-proxy 注入的 X-Auth-Request-* / X-Forwarded-* 请求头
//   - 开发模式下的 ?user=&roles= 查询参数
//
// 没有身份信息的请求以匿名身份继续，由 RequireAuth 拦截；Token 无效直接返回 401.
func AuthMiddleware(conf configs.AuthConfig, users UserSyncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !conf.Enabled || isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		p, err := resolvePrincipal(c, conf)
		if err != nil {
			log.Logger().Warn().Err(err).Str("path", c.Request.URL.Path).Msg("reject invalid credentials")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

			return
		}

		if p == nil {
			c.Next()
			return
		}

		if users != nil {
			u, err := users.EnsureUser(c.Request.Context(), p)
			if err != nil {
				log.Logger().Error().Err(err).Str("user_id", p.UserID).Msg("sync user failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sync user failed"})

				return
			}

			p.Name = u.Name()
		}

		c.Set(principalKey, p)
		c.Request = c.Request.WithContext(ctxPkg.WithPrincipal(c.Request.Context(), p))

		c.Next()
	}
}

func resolvePrincipal(c *gin.Context, conf configs.AuthConfig) (*types.Principal, error) {
	if h := c.GetHeader("Authorization"); conf.JWTSecret != "" && h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			return nil, errors.New("authorization header is not a bearer token")
		}

		return ParseToken(conf, strings.TrimSpace(token))
	}

	email := firstHeader(c, "X-Auth-Request-Email", "X-Forwarded-Email")
	user := firstHeader(c, "X-Auth-Request-User", "X-Forwarded-User")

	if email != "" || user != "" {
		if user == "" {
			user = email
		}

		p := types.NewPrincipal(user, email, splitList(firstHeader(c, "X-Auth-Request-Groups", "X-Forwarded-Groups")), conf.AdminRole)
		p.Name = firstHeader(c, "X-Auth-Request-Preferred-Username", "X-Forwarded-Preferred-Username")

		return p, nil
	}

	if conf.DevAllowQuery {
		if user := strings.TrimSpace(c.Query("user")); user != "" {
			email := ""
			if strings.Contains(user, "@") {
				email = user
			}

			return types.NewPrincipal(user, email, splitList(c.Query("roles")), conf.AdminRole), nil
		}
	}

	return nil, nil
}

// ParseToken 校验 HS256 Token 并转换为调用方.
func ParseToken(conf configs.AuthConfig, raw string) (*types.Principal, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if conf.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(conf.JWTIssuer))
	}

	var claims Claims

	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(conf.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	p := types.NewPrincipal(claims.Subject, claims.Email, claims.Roles, conf.AdminRole)
	p.Name = claims.Name

	return p, nil
}

// IssueToken 为调用方签发 Token，用于命令行与测试.
func IssueToken(conf configs.AuthConfig, p *types.Principal, ttl time.Duration) (string, error) {
	if conf.JWTSecret == "" {
		return "", errors.New("auth.jwt_secret is not configured")
	}

	now := time.Now()
	claims := Claims{
		Email: p.Email,
		Name:  p.Name,
		Roles: p.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    conf.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(conf.JWTSecret))
}

func firstHeader(c *gin.Context, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(c.GetHeader(n)); v != "" {
			return v
		}
	}

	return ""
}

func splitList(s string) []string {
	var out []string

	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
