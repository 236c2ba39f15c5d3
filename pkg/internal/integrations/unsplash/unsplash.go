// Package unsplash 访问 Unsplash API 并解析图片链接.
package unsplash

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/apiclient"
)

// ErrNotConfigured 未配置 Access Key.
var ErrNotConfigured = errors.New("unsplash access key is not configured")

// ErrPhotoNotFound 图片不存在.
var ErrPhotoNotFound = errors.New("unsplash photo not found")

// photoIDLen Unsplash 图片 ID 固定 11 位.
const photoIDLen = 11

// ExtractPhotoID 从 unsplash.com/photos/... 链接中取出图片 ID.
// 新版链接形如 /photos/red-bicycle-AbCdEfGhIjK，ID 为最后一个 "-" 之后的 11 位.
func ExtractPhotoID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !strings.HasSuffix(strings.ToLower(u.Hostname()), "unsplash.com") {
		return ""
	}

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, s := range segs {
		if s != "photos" || i+1 >= len(segs) {
			continue
		}

		id := segs[i+1]
		if len(id) > photoIDLen {
			if j := strings.LastIndex(id, "-"); j >= 0 && len(id)-j-1 == photoIDLen {
				id = id[j+1:]
			}
		}

		return id
	}

	return ""
}

// Attribution 返回 "Photo by {name} on Unsplash".
func Attribution(name string) string {
	if name == "" {
		name = "Unknown"
	}

	return "Photo by " + name + " on Unsplash"
}

// User 摄影师.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Links    struct {
		HTML string `json:"html"`
	} `json:"links"`
}

// Photo 图片信息.
type Photo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	AltDesc     string `json:"alt_description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	URLs        struct {
		Raw     string `json:"raw"`
		Full    string `json:"full"`
		Regular string `json:"regular"`
		Small   string `json:"small"`
		Thumb   string `json:"thumb"`
	} `json:"urls"`
	Links struct {
		HTML             string `json:"html"`
		DownloadLocation string `json:"download_location"`
	} `json:"links"`
	User User `json:"user"`
}

// Caption 优先使用描述，其次 alt 文本.
func (p *Photo) Caption() string {
	if p.Description != "" {
		return p.Description
	}

	return p.AltDesc
}

// SearchResult 搜索结果.
type SearchResult struct {
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
	Results    []Photo `json:"results"`
}

// Client Unsplash API 客户端.
type Client struct {
	api       *apiclient.Client
	accessKey string
}

// NewClient 创建客户端.
func NewClient(cfg configs.UnsplashConfig, cb configs.CircuitBreakerConfig, opts ...apiclient.Option) *Client {
	base := []apiclient.Option{
		apiclient.WithBreaker(cb),
		apiclient.WithHeader("Authorization", "Client-ID "+cfg.AccessKey),
		apiclient.WithHeader("Accept-Version", "v1"),
	}

	return &Client{
		api:       apiclient.New("unsplash", cfg.BaseURL, cfg.GetTimeoutDuration(), append(base, opts...)...),
		accessKey: cfg.AccessKey,
	}
}

// GetPhoto 按 ID 获取图片.
func (c *Client) GetPhoto(ctx context.Context, id string) (*Photo, error) {
	if c.accessKey == "" {
		return nil, ErrNotConfigured
	}

	var p Photo
	if err := c.api.GetJSON(ctx, "photos/"+url.PathEscape(id), nil, &p); err != nil {
		if apiclient.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrPhotoNotFound, id)
		}

		return nil, err
	}

	return &p, nil
}

// SearchPhotos 关键字搜索.
func (c *Client) SearchPhotos(ctx context.Context, query string, page, perPage int) (*SearchResult, error) {
	if c.accessKey == "" {
		return nil, ErrNotConfigured
	}

	var res SearchResult
	if err := c.api.GetJSON(ctx, "search/photos", pageQuery(url.Values{"query": {query}}, page, perPage), &res); err != nil {
		return nil, err
	}

	return &res, nil
}

// GetUserPhotos 获取某个摄影师的图片.
func (c *Client) GetUserPhotos(ctx context.Context, username string, page, perPage int) ([]Photo, error) {
	if c.accessKey == "" {
		return nil, ErrNotConfigured
	}

	var photos []Photo
	if err := c.api.GetJSON(ctx, "users/"+url.PathEscape(username)+"/photos", pageQuery(url.Values{}, page, perPage), &photos); err != nil {
		return nil, err
	}

	return photos, nil
}

const maxPerPage = 30

func pageQuery(q url.Values, page, perPage int) url.Values {
	if page < 1 {
		page = 1
	}

	if perPage < 1 {
		perPage = 10
	} else if perPage > maxPerPage {
		perPage = maxPerPage
	}

	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	return q
}
