package youtube_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/sharesmallbiz/pkg/cache"
	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/apiclient"
	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/youtube"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage/kv"
)

const videoJSON = `{"items":[{"id":"dQw4w9WgXcQ","snippet":{"title":"Never Gonna","channelId":"UC1","channelTitle":"Rick",
"publishedAt":"2009-10-25T06:57:33Z","thumbnails":{"high":{"url":"https://i.ytimg.com/hq.jpg"}}},
"contentDetails":{"duration":"PT3M33S"},"statistics":{"viewCount":"1500000000"}}]}`

func newClient(t *testing.T, h http.HandlerFunc, c *cache.Cache) *youtube.Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := configs.YouTubeConfig{APIKey: "k", BaseURL: srv.URL, Timeout: 5, MetadataTTL: 60}

	return youtube.NewClient(cfg, configs.CircuitBreakerConfig{}, c, apiclient.WithHTTPClient(srv.Client()))
}

func TestGetVideo(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(videoJSON))
	}, nil)

	v, err := c.GetVideo(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Never Gonna", v.Title)
	assert.Equal(t, "3:33", v.FormattedDuration())
	assert.Equal(t, "1.5B views", v.FormattedViews())
	assert.Equal(t, "https://i.ytimg.com/hq.jpg", v.ThumbnailURL)
	assert.Equal(t, 2009, v.PublishedAt.Year())
}

func TestGetVideoNotFound(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	}, nil)

	_, err := c.GetVideo(context.Background(), "xxxxxxxxxxx")
	assert.ErrorIs(t, err, youtube.ErrVideoNotFound)
}

func TestGetVideoStatusError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusForbidden)
	}, nil)

	_, err := c.GetVideo(context.Background(), "dQw4w9WgXcQ")

	var se *apiclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.Code)
}

func TestGetVideoCached(t *testing.T) {
	var calls atomic.Int32

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(videoJSON))
	}, cache.NewCache(store, "test"))

	for range 3 {
		v, err := c.GetVideo(context.Background(), "dQw4w9WgXcQ")
		require.NoError(t, err)
		assert.Equal(t, "Never Gonna", v.Title)
	}

	assert.Equal(t, int32(1), calls.Load())
}

func TestNotConfigured(t *testing.T) {
	c := youtube.NewClient(configs.YouTubeConfig{BaseURL: "http://127.0.0.1:1", Timeout: 1}, configs.CircuitBreakerConfig{}, nil)

	_, err := c.GetVideo(context.Background(), "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, youtube.ErrNotConfigured)

	_, err = c.SearchVideos(context.Background(), "go", 5)
	assert.ErrorIs(t, err, youtube.ErrNotConfigured)
}

func TestSearchVideos(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "video", r.URL.Query().Get("type"))
		assert.Equal(t, "50", r.URL.Query().Get("maxResults"))
		_, _ = w.Write([]byte(`{"items":[{"id":{"videoId":"abcdefghijk"},"snippet":{"title":"A"}},
{"id":{"videoId":"bbcdefghijk"},"snippet":{"title":"B"}}]}`))
	}, nil)

	vs, err := c.SearchVideos(context.Background(), "small business", 500)
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, "abcdefghijk", vs[0].ID)
	assert.Equal(t, youtube.ThumbnailURL("abcdefghijk"), vs[0].ThumbnailURL)
}

func TestGetChannelAndPlaylist(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/channels":
			if r.URL.Query().Get("forUsername") == "missing" {
				_, _ = w.Write([]byte(`{"items":[]}`))
				return
			}

			_, _ = w.Write([]byte(`{"items":[{"id":"UC1","snippet":{"title":"Shop","customUrl":"@shop"},
"statistics":{"subscriberCount":"1200","videoCount":"7"},
"contentDetails":{"relatedPlaylists":{"uploads":"UU1"}}}]}`))
		case "/playlistItems":
			assert.Equal(t, "UU1", r.URL.Query().Get("playlistId"))
			_, _ = w.Write([]byte(`{"items":[{"snippet":{"title":"Ep1"},"contentDetails":{"videoId":"abcdefghijk"}}]}`))
		default:
			http.NotFound(w, r)
		}
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := c.GetChannel(ctx, "UC1")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), ch.SubscriberCount)
	assert.Equal(t, "UU1", ch.UploadsPlaylist)

	none, err := c.GetChannelByUsername(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, none)

	items, err := c.GetPlaylistItems(ctx, ch.UploadsPlaylist, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "abcdefghijk", items[0].ID)
}
