// Package apiclient 是调用第三方 JSON API 的公共 HTTP 客户端，带熔断与结构化错误.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sony/gobreaker"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	nlog "github.com/yeisme/sharesmallbiz/pkg/log"
	"github.com/yeisme/sharesmallbiz/pkg/metrics"
)

// maxErrorBody 错误响应体最多保留的字节数.
const maxErrorBody = 2048

// StatusError 非 2xx 响应.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s api returned %d: %s", e.Service, e.Code, e.Body)
}

// IsNotFound 判断是否为 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Client 访问单个第三方 API.
type Client struct {
	service string
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	headers http.Header
}

// Option 配置 Client.
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client，测试时注入 httptest 客户端.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithHeader 为每个请求附加请求头.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithBreaker 启用熔断.
func WithBreaker(cfg configs.CircuitBreakerConfig) Option {
	return func(c *Client) {
		if !cfg.Enabled {
			return
		}

		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        c.service,
			MaxRequests: cfg.MaxRequestsInHalf,
			Interval:    cfg.Interval(),
			Timeout:     cfg.OpenTimeout(),
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return cfg.ShouldTrip(counts.Requests, counts.TotalFailures)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				nlog.Logger().Warn().Str("service", name).Str("from", from.String()).Str("to", to.String()).
					Msg("api circuit breaker state changed")
			},
			// 4xx 是调用方问题，不计入熔断
			IsSuccessful: func(err error) bool {
				var se *StatusError
				if errors.As(err, &se) {
					return se.Code < http.StatusInternalServerError
				}

				return err == nil
			},
		})
	}
}

// New 创建客户端.
func New(service, baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		headers: http.Header{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetJSON 发送 GET 请求并把响应解码到 dst.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, dst any) error {
	call := func() (any, error) {
		return nil, c.get(ctx, path, query, dst)
	}

	if c.breaker == nil {
		_, err := call()
		c.observe(err)

		return err
	}

	_, err := c.breaker.Execute(call)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.ExternalRequests.WithLabelValues(c.service, "open").Inc()
		return fmt.Errorf("%s api unavailable: %w", c.service, err)
	}

	c.observe(err)

	return err
}

func (c *Client) observe(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	metrics.ExternalRequests.WithLabelValues(c.service, result).Inc()
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dst any) error {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", c.service, err)
	}

	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s api: %w", c.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		se := &StatusError{Service: c.service, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		nlog.Logger().Warn().Str("service", c.service).Int("status", se.Code).Str("body", se.Body).
			Str("path", path).Msg("api request failed")

		return se
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", c.service, err)
	}

	if err := sonic.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s response: %w", c.service, err)
	}

	return nil
}
