package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yeisme/sharesmallbiz/pkg/middleware"
)

func TestRequireAuth(t *testing.T) {
	r := newEngine(authConfig(), nil, middleware.RequireAuth())

	assert.Equal(t, http.StatusUnauthorized, do(r, httptest.NewRequest(http.MethodGet, "/probe", nil)).Code)
	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/probe?user=u-1", nil)).Code)
}

func TestRequireAdmin(t *testing.T) {
	r := newEngine(authConfig(), nil, middleware.RequireAdmin())

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"member", "?user=u-1&roles=member", http.StatusForbidden},
		{"admin", "?user=u-2&roles=admin", http.StatusOK},
		{"admin case insensitive", "?user=u-3&roles=ADMIN", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, httptest.NewRequest(http.MethodGet, "/probe"+tt.query, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := newEngine(authConfig(), nil, middleware.RequireRole("moderator"))

	assert.Equal(t, http.StatusUnauthorized, do(r, httptest.NewRequest(http.MethodGet, "/probe", nil)).Code)
	assert.Equal(t, http.StatusForbidden, do(r, httptest.NewRequest(http.MethodGet, "/probe?user=u-1&roles=member", nil)).Code)
	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/probe?user=u-1&roles=Moderator", nil)).Code)
	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/probe?user=u-2&roles=admin", nil)).Code)
}
