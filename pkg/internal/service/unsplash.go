package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/unsplash"
	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
)

// UnsplashAPI Unsplash 客户端中服务用到的部分.
type UnsplashAPI interface {
	GetPhoto(ctx context.Context, id string) (*unsplash.Photo, error)
	SearchPhotos(ctx context.Context, query string, page, perPage int) (*unsplash.SearchResult, error)
	GetUserPhotos(ctx context.Context, username string, page, perPage int) ([]unsplash.Photo, error)
}

// UnsplashService 把 Unsplash 图片登记为外部链接媒体.
type UnsplashService struct {
	media *MediaService
	api   UnsplashAPI
}

// NewUnsplashService 创建服务.
func NewUnsplashService(ms *MediaService, api UnsplashAPI) *UnsplashService {
	return &UnsplashService{media: ms, api: api}
}

var barePhotoID = regexp.MustCompile(`^[A-Za-z0-9_-]{6,32}$`)

// ImportPhoto 按地址或 ID 导入图片，署名固定为 "Photo by {name} on Unsplash".
func (s *UnsplashService) ImportPhoto(ctx context.Context, p *types.Principal, req types.UnsplashMediaRequest) (*model.Media, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}

	raw := strings.TrimSpace(req.URLOrID)

	id := unsplash.ExtractPhotoID(raw)
	if id == "" && barePhotoID.MatchString(raw) {
		id = raw
	}

	if id == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUnsplashURL, req.URLOrID)
	}

	photo, err := s.api.GetPhoto(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get unsplash photo %s: %w", id, err)
	}

	fileName := photo.Caption()
	if fileName == "" {
		fileName = "unsplash-" + photo.ID + ".jpg"
	}

	description := req.Description
	if description == "" {
		description = photo.Caption()
	}

	var zero int64

	m := &model.Media{
		FileName:        truncate(fileName, 512),
		MediaType:       model.MediaTypeImage,
		StorageProvider: model.ProviderExternal,
		URL:             firstNonEmpty(photo.URLs.Regular, photo.URLs.Full, photo.URLs.Raw),
		ContentType:     model.DefaultContentType(model.MediaTypeImage),
		FileSize:        &zero,
		Description:     description,
		Attribution:     unsplash.Attribution(photo.User.Name),
		UserID:          p.UserID,
		PostID:          req.PostID,
		CommentID:       req.CommentID,
		CreatedID:       p.UserID,
	}

	if m.URL == "" {
		return nil, fmt.Errorf("%w: unsplash photo %s has no url", ErrInvalidArgument, id)
	}

	err = m.SetMetadata(model.UnsplashMetadata{
		PhotoID:          photo.ID,
		PhotographerName: photo.User.Name,
		PhotographerUser: photo.User.Username,
		PhotographerURL:  photo.User.Links.HTML,
		DownloadLocation: photo.Links.DownloadLocation,
		Width:            photo.Width,
		Height:           photo.Height,
	})
	if err != nil {
		return nil, err
	}

	if err := s.media.CreateMedia(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

// SearchPhotos 搜索图片.
func (s *UnsplashService) SearchPhotos(ctx context.Context, query string, page, perPage int) (*unsplash.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidArgument)
	}

	return s.api.SearchPhotos(ctx, query, page, perPage)
}

// UserPhotos 列出摄影师的图片.
func (s *UnsplashService) UserPhotos(ctx context.Context, username string, page, perPage int) ([]unsplash.Photo, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: empty username", ErrInvalidArgument)
	}

	return s.api.GetUserPhotos(ctx, username, page, perPage)
}
