package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/youtube"
	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	nlog "github.com/yeisme/sharesmallbiz/pkg/log"
)

// YouTubeService 登记 YouTube 视频并用 Data API 补全标题、频道等信息.
type YouTubeService struct {
	media *MediaService
	api   youtube.API
}

// NewYouTubeService 创建服务，api 为 nil 时只登记链接不补全.
func NewYouTubeService(ms *MediaService, api youtube.API) *YouTubeService {
	return &YouTubeService{media: ms, api: api}
}

// CreateYouTubeMedia 从任意可识别的 YouTube 地址创建媒体. 元数据获取失败只记录日志.
func (s *YouTubeService) CreateYouTubeMedia(ctx context.Context, p *types.Principal, req types.YouTubeMediaRequest) (*model.Media, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}

	videoID := youtube.ExtractVideoID(req.URL)
	if videoID == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidYouTubeURL, req.URL)
	}

	var zero int64

	m := &model.Media{
		FileName:        "YouTube video " + videoID,
		MediaType:       model.MediaTypeVideo,
		StorageProvider: model.ProviderYouTube,
		URL:             youtube.EmbedURL(videoID),
		ContentType:     model.DefaultContentType(model.MediaTypeVideo),
		FileSize:        &zero,
		Description:     req.Description,
		Attribution:     req.Attribution,
		UserID:          p.UserID,
		PostID:          req.PostID,
		CommentID:       req.CommentID,
		CreatedID:       p.UserID,
	}

	meta := model.YouTubeMetadata{VideoID: videoID, ThumbnailURL: youtube.ThumbnailURL(videoID)}

	if s.api != nil {
		video, err := s.api.GetVideo(ctx, videoID)
		if err != nil {
			nlog.Logger().Warn().Err(err).Str("video_id", videoID).Msg("youtube metadata lookup failed, creating without it")
		} else {
			applyVideo(m, &meta, video)
		}
	}

	if err := m.SetMetadata(meta); err != nil {
		return nil, err
	}

	if err := s.media.CreateMedia(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

func applyVideo(m *model.Media, meta *model.YouTubeMetadata, v *youtube.Video) {
	if v.Title != "" {
		m.FileName = v.Title
	}

	if m.Description == "" {
		m.Description = v.Description
	}

	if m.Attribution == "" && v.ChannelTitle != "" {
		m.Attribution = "Video by " + v.ChannelTitle + " on YouTube"
	}

	meta.ChannelID = v.ChannelID
	meta.ChannelTitle = v.ChannelTitle
	meta.Duration = v.FormattedDuration()
	meta.ViewCount = v.FormattedViews()

	if !v.PublishedAt.IsZero() {
		meta.PublishedAt = v.PublishedAt.UTC().Format(time.RFC3339)
	}

	if v.ThumbnailURL != "" {
		meta.ThumbnailURL = v.ThumbnailURL
	}
}

// SearchVideos 搜索视频.
func (s *YouTubeService) SearchVideos(ctx context.Context, query string, maxResults int) ([]youtube.Video, error) {
	if s.api == nil {
		return nil, youtube.ErrNotConfigured
	}

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidArgument)
	}

	return s.api.SearchVideos(ctx, query, maxResults)
}

// ChannelVideos 按频道地址、@用户名或频道 ID 列出上传的视频.
func (s *YouTubeService) ChannelVideos(ctx context.Context, channel string, maxResults int) (*youtube.Channel, []youtube.Video, error) {
	if s.api == nil {
		return nil, nil, youtube.ErrNotConfigured
	}

	var (
		ch  *youtube.Channel
		err error
	)

	switch {
	case youtube.ExtractChannelID(channel) != "":
		ch, err = s.api.GetChannel(ctx, youtube.ExtractChannelID(channel))
	case youtube.ExtractUsername(channel) != "":
		ch, err = s.api.GetChannelByUsername(ctx, youtube.ExtractUsername(channel))
	case strings.HasPrefix(channel, "UC"):
		ch, err = s.api.GetChannel(ctx, channel)
	default:
		return nil, nil, fmt.Errorf("%w: channel %q", ErrInvalidArgument, channel)
	}

	if err != nil {
		return nil, nil, err
	}

	if ch == nil || ch.UploadsPlaylist == "" {
		return ch, nil, nil
	}

	videos, err := s.api.GetPlaylistItems(ctx, ch.UploadsPlaylist, maxResults)
	if err != nil {
		return ch, nil, err
	}

	return ch, videos, nil
}

// VideoInfo 返回视频详情与格式化后的时长、播放量.
func (s *YouTubeService) VideoInfo(ctx context.Context, rawURL string) (*youtube.Video, map[string]string, error) {
	if s.api == nil {
		return nil, nil, youtube.ErrNotConfigured
	}

	id := youtube.ExtractVideoID(rawURL)
	if id == "" {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidYouTubeURL, rawURL)
	}

	v, err := s.api.GetVideo(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return v, map[string]string{
		"duration":   v.FormattedDuration(),
		"views":      v.FormattedViews(),
		"view_count": strconv.FormatInt(v.ViewCount, 10),
		"embed_url":  youtube.EmbedURL(v.ID),
		"watch_url":  youtube.WatchURL(v.ID),
	}, nil
}
