package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/sharesmallbiz/pkg/cache"
	"github.com/yeisme/sharesmallbiz/pkg/metrics"
)

const (
	// DefaultMaxBodyBytes 超过该大小的响应不缓存.
	DefaultMaxBodyBytes = 1 << 20
	// BypassHeader 请求带此头时直接访问上游.
	BypassHeader = "X-Cache-Bypass"

	defaultCacheTTL = 30 * time.Second
	storeTimeout    = 2 * time.Second
)

// CacheConfig 查询响应缓存配置.
type CacheConfig struct {
	Cache        *appcache.Cache
	TTL          time.Duration
	MaxBodyBytes int // 0 表示不限制
}

// DefaultCacheConfig 返回默认配置.
func DefaultCacheConfig(c *appcache.Cache) CacheConfig {
	return CacheConfig{Cache: c, TTL: defaultCacheTTL, MaxBodyBytes: DefaultMaxBodyBytes}
}

// cachedResponse 存入 KV 的响应.
type cachedResponse struct {
	Status      int    `json:"s"`
	ContentType string `json:"c,omitempty"`
	Body        []byte `json:"b,omitempty"`
	ETag        string `json:"e"`
	StoredAt    int64  `json:"t"`
}

// CacheMiddleware 缓存 GET/HEAD 的 200 响应，用于 YouTube、Unsplash 等外部查询，
// 降低配额消耗. 键由路由模板与排序后的查询参数组成，与调用方身份无关.
// 命中时写 X-Cache: HIT 与 Age，支持 If-None-Match 返回 304. 缓存读写失败不影响请求.
func CacheMiddleware(cfg CacheConfig) gin.HandlerFunc {
	if cfg.Cache == nil {
		panic("CacheMiddleware: Cache cannot be nil")
	}

	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}

	return func(c *gin.Context) {
		route := c.FullPath()

		if !cacheable(c) {
			metrics.ResponseCache.WithLabelValues(route, "bypass").Inc()
			c.Next()

			return
		}

		key := responseKey(c)

		if entry, err := appcache.Get[cachedResponse](c.Request.Context(), cfg.Cache, key); err == nil {
			metrics.ResponseCache.WithLabelValues(route, "hit").Inc()
			replay(c, entry)

			return
		}

		metrics.ResponseCache.WithLabelValues(route, "miss").Inc()

		rec := &recordingWriter{ResponseWriter: c.Writer, limit: cfg.MaxBodyBytes}
		c.Writer = rec
		c.Next()

		if c.Writer.Status() != http.StatusOK || rec.overflow || noStore(c.Writer.Header()) {
			return
		}

		entry := cachedResponse{
			Status:      http.StatusOK,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        bytes.Clone(rec.buf.Bytes()),
			ETag:        fmt.Sprintf(`"%x"`, xxhash.Sum64(rec.buf.Bytes())),
			StoredAt:    time.Now().UnixNano(),
		}

		// gin.Context 会被复用，不能在 goroutine 中访问 c
		base := context.WithoutCancel(c.Request.Context())

		go func() {
			ctx, cancel := context.WithTimeout(base, storeTimeout)
			defer cancel()

			_ = appcache.Set(ctx, cfg.Cache, key, entry, cfg.TTL)
		}()
	}
}

func cacheable(c *gin.Context) bool {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		return false
	}

	if c.GetHeader(BypassHeader) != "" {
		return false
	}

	cc := strings.ToLower(c.GetHeader("Cache-Control"))

	return !strings.Contains(cc, "no-cache") && !strings.Contains(cc, "no-store")
}

func noStore(h http.Header) bool {
	cc := strings.ToLower(h.Get("Cache-Control"))
	return strings.Contains(cc, "no-store") || strings.Contains(cc, "private")
}

// responseKey 形如 resp:<hash>，hash 覆盖 "GET /api/v1/youtube/search?limit=5&q=bakery".
func responseKey(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}

	var b strings.Builder

	b.WriteString(c.Request.Method)
	b.WriteByte(' ')
	b.WriteString(route)

	// 路由参数，例如 :username
	for _, p := range c.Params {
		b.WriteByte('/')
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}

	q := c.Request.URL.Query()
	names := make([]string, 0, len(q))

	for k := range q {
		names = append(names, k)
	}

	sort.Strings(names)

	for i, k := range names {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}

		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(q[k], ","))
	}

	return "resp:" + strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}

func replay(c *gin.Context, e cachedResponse) {
	h := c.Writer.Header()
	h.Set("ETag", e.ETag)
	h.Set("X-Cache", "HIT")
	h.Set("Age", strconv.FormatInt(int64(time.Since(time.Unix(0, e.StoredAt)).Seconds()), 10))

	if e.ContentType != "" {
		h.Set("Content-Type", e.ContentType)
	}

	if c.GetHeader("If-None-Match") == e.ETag {
		c.AbortWithStatus(http.StatusNotModified)
		return
	}

	c.Status(e.Status)

	if c.Request.Method != http.MethodHead {
		_, _ = c.Writer.Write(e.Body)
	}

	c.Abort()
}

// recordingWriter 在写出响应的同时保留一份副本，超过 limit 后停止记录.
type recordingWriter struct {
	gin.ResponseWriter

	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (w *recordingWriter) WriteHeader(code int) {
	if code == http.StatusOK {
		w.Header().Set("X-Cache", "MISS")
	}

	w.ResponseWriter.WriteHeader(code)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}

	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}
