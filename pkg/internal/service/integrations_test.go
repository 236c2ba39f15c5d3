package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/unsplash"
	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/youtube"
	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/service"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
)

func TestCreateYouTubeMedia(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := youtube.NewMockAPI(ctrl)

	ms, owner := newMediaService(t)
	svc := service.NewYouTubeService(ms, api)

	api.EXPECT().GetVideo(gomock.Any(), "dQw4w9WgXcQ").Return(&youtube.Video{
		ID:           "dQw4w9WgXcQ",
		Title:        "Never Gonna Give You Up",
		ChannelID:    "UCuAXFkgsw1L7xaCfnd5JJOw",
		ChannelTitle: "Rick Astley",
		Duration:     "PT3M33S",
		ViewCount:    1_500_000_000,
	}, nil)

	m, err := svc.CreateYouTubeMedia(context.Background(), owner, types.YouTubeMediaRequest{
		URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProviderYouTube, m.StorageProvider)
	assert.Equal(t, model.MediaTypeVideo, m.MediaType)
	assert.Equal(t, youtube.EmbedURL("dQw4w9WgXcQ"), m.URL)
	assert.Equal(t, "Never Gonna Give You Up", m.FileName)
	assert.Equal(t, "Video by Rick Astley on YouTube", m.Attribution)
	assert.Zero(t, m.Size())
	assert.Equal(t, m.URL, service.MediaURL(m))

	var meta model.YouTubeMetadata
	require.NoError(t, m.Metadata(&meta))
	assert.Equal(t, "dQw4w9WgXcQ", meta.VideoID)
	assert.Equal(t, "3:33", meta.Duration)
	assert.Equal(t, "1.5B views", meta.ViewCount)
}

func TestCreateYouTubeMediaWithoutMetadata(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := youtube.NewMockAPI(ctrl)

	ms, owner := newMediaService(t)
	svc := service.NewYouTubeService(ms, api)

	api.EXPECT().GetVideo(gomock.Any(), "dQw4w9WgXcQ").Return(nil, errors.New("quota exceeded"))

	m, err := svc.CreateYouTubeMedia(context.Background(), owner, types.YouTubeMediaRequest{URL: "https://youtu.be/dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Equal(t, "YouTube video dQw4w9WgXcQ", m.FileName)

	_, err = svc.CreateYouTubeMedia(context.Background(), owner, types.YouTubeMediaRequest{URL: "https://vimeo.com/123"})
	assert.ErrorIs(t, err, service.ErrInvalidYouTubeURL)
}

func TestChannelVideos(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := youtube.NewMockAPI(ctrl)

	ms, _ := newMediaService(t)
	svc := service.NewYouTubeService(ms, api)

	ch := &youtube.Channel{ID: "UC123", Title: "Main Street", UploadsPlaylist: "UU123"}
	gomock.InOrder(
		api.EXPECT().GetChannelByUsername(gomock.Any(), "mainstreet").Return(ch, nil),
		api.EXPECT().GetPlaylistItems(gomock.Any(), "UU123", 5).Return([]youtube.Video{{ID: "a"}, {ID: "b"}}, nil),
	)

	got, videos, err := svc.ChannelVideos(context.Background(), "https://www.youtube.com/@mainstreet", 5)
	require.NoError(t, err)
	assert.Equal(t, "Main Street", got.Title)
	assert.Len(t, videos, 2)

	_, _, err = svc.ChannelVideos(context.Background(), "not a channel", 5)
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
}

type fakeUnsplash struct {
	photos map[string]*unsplash.Photo
}

func (f *fakeUnsplash) GetPhoto(_ context.Context, id string) (*unsplash.Photo, error) {
	if p, ok := f.photos[id]; ok {
		return p, nil
	}

	return nil, unsplash.ErrPhotoNotFound
}

func (f *fakeUnsplash) SearchPhotos(_ context.Context, query string, _, _ int) (*unsplash.SearchResult, error) {
	res := &unsplash.SearchResult{}
	for _, p := range f.photos {
		if p.Description == query {
			res.Results = append(res.Results, *p)
		}
	}

	res.Total = len(res.Results)

	return res, nil
}

func (f *fakeUnsplash) GetUserPhotos(context.Context, string, int, int) ([]unsplash.Photo, error) {
	return nil, nil
}

func TestImportUnsplashPhoto(t *testing.T) {
	photo := &unsplash.Photo{ID: "AbCdEfGhIjK", Description: "storefront", Width: 4000, Height: 3000}
	photo.URLs.Regular = "https://images.unsplash.com/photo-1?w=1080"
	photo.User.Name = "Jane Doe"
	photo.User.Username = "janedoe"

	ms, owner := newMediaService(t)
	svc := service.NewUnsplashService(ms, &fakeUnsplash{photos: map[string]*unsplash.Photo{photo.ID: photo}})

	for _, ref := range []string{"https://unsplash.com/photos/red-door-AbCdEfGhIjK", "AbCdEfGhIjK"} {
		m, err := svc.ImportPhoto(context.Background(), owner, types.UnsplashMediaRequest{URLOrID: ref})
		require.NoError(t, err)
		assert.Equal(t, model.ProviderExternal, m.StorageProvider)
		assert.Equal(t, model.MediaTypeImage, m.MediaType)
		assert.Equal(t, photo.URLs.Regular, m.URL)
		assert.Equal(t, "Photo by Jane Doe on Unsplash", m.Attribution)
		assert.Equal(t, "storefront", m.Description)

		var meta model.UnsplashMetadata
		require.NoError(t, m.Metadata(&meta))
		assert.Equal(t, "janedoe", meta.PhotographerUser)
	}

	_, err := svc.ImportPhoto(context.Background(), owner, types.UnsplashMediaRequest{URLOrID: "https://example.com/x"})
	require.ErrorIs(t, err, service.ErrInvalidUnsplashURL)

	_, err = svc.ImportPhoto(context.Background(), owner, types.UnsplashMediaRequest{URLOrID: "ZZZZZZZZZZZ"})
	require.ErrorIs(t, err, unsplash.ErrPhotoNotFound)

	res, err := svc.SearchPhotos(context.Background(), "storefront", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	_, err = svc.SearchPhotos(context.Background(), " ", 1, 10)
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
}
