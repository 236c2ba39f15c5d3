package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/yeisme/sharesmallbiz/pkg/cache"
	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/apiclient"
)

// ErrNotConfigured 未配置 API Key.
var ErrNotConfigured = errors.New("youtube api key is not configured")

// ErrVideoNotFound API 没有返回该视频.
var ErrVideoNotFound = errors.New("youtube video not found")

// Video 视频信息.
type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ChannelID    string    `json:"channel_id"`
	ChannelTitle string    `json:"channel_title"`
	PublishedAt  time.Time `json:"published_at"`
	Duration     string    `json:"duration"`
	ViewCount    int64     `json:"view_count"`
	ThumbnailURL string    `json:"thumbnail_url"`
}

// FormattedDuration 返回 H:MM:SS 或 M:SS.
func (v *Video) FormattedDuration() string { return FormatDuration(v.Duration) }

// FormattedViews 返回缩写播放量.
func (v *Video) FormattedViews() string { return FormatViewCount(v.ViewCount) }

// Channel 频道信息.
type Channel struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	CustomURL       string `json:"custom_url"`
	ThumbnailURL    string `json:"thumbnail_url"`
	SubscriberCount int64  `json:"subscriber_count"`
	VideoCount      int64  `json:"video_count"`
	UploadsPlaylist string `json:"uploads_playlist"`
}

//go:generate mockgen -source=client.go -destination=mock_api.go -package=youtube

// API YouTube Data API 的只读能力.
type API interface {
	GetVideo(ctx context.Context, videoID string) (*Video, error)
	SearchVideos(ctx context.Context, query string, maxResults int) ([]Video, error)
	GetChannel(ctx context.Context, channelID string) (*Channel, error)
	GetChannelByUsername(ctx context.Context, username string) (*Channel, error)
	GetPlaylistItems(ctx context.Context, playlistID string, maxResults int) ([]Video, error)
}

// Client 实现 API.
type Client struct {
	api    *apiclient.Client
	apiKey string
	cache  *cache.Cache
	ttl    time.Duration
}

var _ API = (*Client)(nil)

// NewClient 创建客户端. c 不为 nil 时视频元数据按配置 TTL 缓存.
func NewClient(cfg configs.YouTubeConfig, cb configs.CircuitBreakerConfig, c *cache.Cache, opts ...apiclient.Option) *Client {
	opts = append([]apiclient.Option{apiclient.WithBreaker(cb)}, opts...)

	return &Client{
		api:    apiclient.New("youtube", cfg.BaseURL, cfg.GetTimeoutDuration(), opts...),
		apiKey: cfg.APIKey,
		cache:  c,
		ttl:    cfg.GetMetadataTTL(),
	}
}

// GetVideo 获取单个视频的 snippet/contentDetails/statistics.
func (c *Client) GetVideo(ctx context.Context, videoID string) (*Video, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	load := func() (Video, error) {
		var resp videoListResponse
		if err := c.get(ctx, "videos", url.Values{
			"part": {"snippet,contentDetails,statistics"},
			"id":   {videoID},
		}, &resp); err != nil {
			return Video{}, err
		}

		if len(resp.Items) == 0 {
			return Video{}, fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
		}

		return resp.Items[0].toVideo(), nil
	}

	if c.cache == nil || c.ttl <= 0 {
		v, err := load()
		if err != nil {
			return nil, err
		}

		return &v, nil
	}

	v, err := cache.GetOrSet(ctx, c.cache, cache.Key("youtube", "video", videoID), load, c.ttl)
	if err != nil {
		return nil, err
	}

	return &v, nil
}

// SearchVideos 按关键字搜索视频.
func (c *Client) SearchVideos(ctx context.Context, query string, maxResults int) ([]Video, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	var resp searchListResponse
	if err := c.get(ctx, "search", url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"q":          {query},
		"maxResults": {strconv.Itoa(clampResults(maxResults))},
	}, &resp); err != nil {
		return nil, err
	}

	out := make([]Video, 0, len(resp.Items))
	for _, it := range resp.Items {
		out = append(out, it.Snippet.toVideo(it.ID.VideoID))
	}

	return out, nil
}

// GetChannel 按频道 ID 获取频道.
func (c *Client) GetChannel(ctx context.Context, channelID string) (*Channel, error) {
	return c.channel(ctx, url.Values{"id": {channelID}})
}

// GetChannelByUsername 按旧版用户名获取频道.
func (c *Client) GetChannelByUsername(ctx context.Context, username string) (*Channel, error) {
	return c.channel(ctx, url.Values{"forUsername": {username}})
}

// GetPlaylistItems 获取播放列表中的视频（频道上传列表即为播放列表）.
func (c *Client) GetPlaylistItems(ctx context.Context, playlistID string, maxResults int) ([]Video, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	var resp playlistItemsResponse
	if err := c.get(ctx, "playlistItems", url.Values{
		"part":       {"snippet,contentDetails"},
		"playlistId": {playlistID},
		"maxResults": {strconv.Itoa(clampResults(maxResults))},
	}, &resp); err != nil {
		return nil, err
	}

	out := make([]Video, 0, len(resp.Items))
	for _, it := range resp.Items {
		out = append(out, it.Snippet.toVideo(it.ContentDetails.VideoID))
	}

	return out, nil
}

func (c *Client) channel(ctx context.Context, q url.Values) (*Channel, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	q.Set("part", "snippet,statistics,contentDetails")

	var resp channelListResponse
	if err := c.get(ctx, "channels", q, &resp); err != nil {
		return nil, err
	}

	if len(resp.Items) == 0 {
		return nil, nil
	}

	ch := resp.Items[0].toChannel()

	return &ch, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	q.Set("key", c.apiKey)
	return c.api.GetJSON(ctx, path, q, dst)
}

const maxSearchResults = 50

func clampResults(n int) int {
	if n <= 0 {
		return 10
	}

	if n > maxSearchResults {
		return maxSearchResults
	}

	return n
}
