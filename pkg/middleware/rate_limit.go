package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet 每个客户端一个令牌桶.
type limiterSet struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
}

func (s *limiterSet) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.visitors[key] = v
	}

	v.lastSeen = now

	return v.limiter
}

// evict 回收 idle 之前最后访问的客户端.
func (s *limiterSet) evict(before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0

	for k, v := range s.visitors {
		if v.lastSeen.Before(before) {
			delete(s.visitors, k)
			n++
		}
	}

	return n
}

// RateLimitMiddleware 令牌桶限流，超限返回 429 与 Retry-After.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = int(math.Ceil(cfg.RPS))
	}

	retryAfter := strconv.Itoa(int(math.Ceil(1 / cfg.RPS)))
	mode := strings.ToLower(strings.TrimSpace(cfg.Key))

	reject := func(c *gin.Context) {
		c.Header("Retry-After", retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, please try again later"})
	}

	if mode == "" || mode == "global" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), burst)

		return func(c *gin.Context) {
			if isSkippedPath(c.Request.URL.Path, cfg.SkipPaths) || limiter.Allow() {
				c.Next()
				return
			}

			reject(c)
		}
	}

	set := &limiterSet{visitors: map[string]*visitor{}, limit: rate.Limit(cfg.RPS), burst: burst}

	if cfg.IdleMinutes > 0 {
		idle := time.Duration(cfg.IdleMinutes) * time.Minute

		go func() {
			ticker := time.NewTicker(idle)
			defer ticker.Stop()

			for now := range ticker.C {
				set.evict(now.Add(-idle))
			}
		}()
	}

	header, byHeader := strings.CutPrefix(mode, "header:")

	return func(c *gin.Context) {
		if isSkippedPath(c.Request.URL.Path, cfg.SkipPaths) {
			c.Next()
			return
		}

		key := ""
		if byHeader {
			key = c.GetHeader(header)
		}

		if key == "" {
			key = c.ClientIP()
		}

		if !set.get(key, time.Now()).Allow() {
			reject(c)
			return
		}

		c.Next()
	}
}
