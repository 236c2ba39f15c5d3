package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	"github.com/yeisme/sharesmallbiz/pkg/middleware"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func authConfig() configs.AuthConfig {
	return configs.AuthConfig{
		Enabled:       true,
		SkipPaths:     []string{"/metrics"},
		DevAllowQuery: true,
		JWTSecret:     testSecret,
		JWTIssuer:     "sharesmallbiz",
		AdminRole:     "Admin",
	}
}

type fakeUsers struct {
	err   error
	calls int
}

func (f *fakeUsers) EnsureUser(_ context.Context, p *types.Principal) (*model.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	return &model.User{ID: p.UserID, Email: p.Email, DisplayName: "Synced " + p.UserID}, nil
}

// newEngine 返回的 handler 把解析到的调用方写回响应.
func newEngine(conf configs.AuthConfig, users middleware.UserSyncer, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware.AuthMiddleware(conf, users))

	handlers := append(extra, func(c *gin.Context) {
		p := middleware.GetPrincipal(c)
		if p == nil {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}

		c.JSON(http.StatusOK, p)
	})

	r.GET("/probe", handlers...)
	r.GET("/metrics", handlers...)

	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestAuthBearerToken(t *testing.T) {
	conf := authConfig()
	users := &fakeUsers{}
	r := newEngine(conf, users)

	token, err := middleware.IssueToken(conf, &types.Principal{UserID: "u-1", Email: "a@example.com", Roles: []string{"admin"}}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u-1"`)
	assert.Contains(t, w.Body.String(), `"admin":true`)
	assert.Contains(t, w.Body.String(), `"name":"Synced u-1"`)
	assert.Equal(t, 1, users.calls)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	conf := authConfig()
	r := newEngine(conf, nil)

	other := conf
	other.JWTSecret = "another-secret"
	forged, err := middleware.IssueToken(other, &types.Principal{UserID: "u-1"}, time.Hour)
	require.NoError(t, err)

	expired, err := middleware.IssueToken(conf, &types.Principal{UserID: "u-1"}, -time.Minute)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"wrong secret": "Bearer " + forged,
		"expired":      "Bearer " + expired,
		"not bearer":   "Basic dXNlcjpwYXNz",
		"garbage":      "Bearer not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			req.Header.Set("Authorization", header)

			assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
		})
	}
}

func TestParseTokenChecksIssuer(t *testing.T) {
	conf := authConfig()

	other := conf
	other.JWTIssuer = "someone-else"
	token, err := middleware.IssueToken(other, &types.Principal{UserID: "u-1"}, time.Hour)
	require.NoError(t, err)

	_, err = middleware.ParseToken(conf, token)
	require.Error(t, err)

	token, err = middleware.IssueToken(conf, &types.Principal{UserID: "u-1", Roles: []string{"Member"}}, time.Hour)
	require.NoError(t, err)

	p, err := middleware.ParseToken(conf, token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.UserID)
	assert.True(t, p.HasRole("member"))
	assert.False(t, p.IsAdmin())
}

func TestIssueTokenRequiresSecret(t *testing.T) {
	conf := authConfig()
	conf.JWTSecret = ""

	_, err := middleware.IssueToken(conf, &types.Principal{UserID: "u-1"}, time.Hour)
	require.Error(t, err)
}

func TestAuthProxyHeaders(t *testing.T) {
	r := newEngine(authConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-Auth-Request-Email", "owner@example.com")
	req.Header.Set("X-Auth-Request-Groups", "member, admin")
	req.Header.Set("X-Auth-Request-Preferred-Username", "owner")

	w := do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"owner@example.com"`)
	assert.Contains(t, w.Body.String(), `"name":"owner"`)
	assert.Contains(t, w.Body.String(), `"admin":true`)
}

func TestAuthDevQuery(t *testing.T) {
	conf := authConfig()
	r := newEngine(conf, nil)

	w := do(r, httptest.NewRequest(http.MethodGet, "/probe?user=dev@example.com&roles=member", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"dev@example.com"`)
	assert.Contains(t, w.Body.String(), `"admin":false`)

	conf.DevAllowQuery = false
	r = newEngine(conf, nil)

	w = do(r, httptest.NewRequest(http.MethodGet, "/probe?user=dev@example.com", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"anonymous":true}`, w.Body.String())
}

func TestAuthAnonymousAndSkipPaths(t *testing.T) {
	users := &fakeUsers{}
	r := newEngine(authConfig(), users)

	w := do(r, httptest.NewRequest(http.MethodGet, "/probe", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"anonymous":true}`, w.Body.String())

	// 跳过的路径不解析 Token，无效 Token 也放行
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	w = do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"anonymous":true}`, w.Body.String())
	assert.Zero(t, users.calls)
}

func TestAuthDisabled(t *testing.T) {
	conf := authConfig()
	conf.Enabled = false
	r := newEngine(conf, nil)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	w := do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"anonymous":true}`, w.Body.String())
}

func TestAuthUserSyncFailure(t *testing.T) {
	r := newEngine(authConfig(), &fakeUsers{err: errors.New("db down")})

	w := do(r, httptest.NewRequest(http.MethodGet, "/probe?user=u-1", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
