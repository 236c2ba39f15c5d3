package unsplash_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/apiclient"
	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/unsplash"
)

func TestExtractPhotoID(t *testing.T) {
	cases := map[string]string{
		"https://unsplash.com/photos/AbCdEfGhIjK":                     "AbCdEfGhIjK",
		"https://unsplash.com/photos/red-bicycle-AbCdEfGhIjK":         "AbCdEfGhIjK",
		"https://unsplash.com/photos/AbCdEfGhIjK/download?force=true": "AbCdEfGhIjK",
		"https://unsplash.com/@someone":                               "",
		"https://example.com/photos/AbCdEfGhIjK":                      "",
		"not a url":                                                   "",
	}

	for in, want := range cases {
		assert.Equal(t, want, unsplash.ExtractPhotoID(in), in)
	}
}

func TestAttribution(t *testing.T) {
	assert.Equal(t, "Photo by Jane Doe on Unsplash", unsplash.Attribution("Jane Doe"))
	assert.Equal(t, "Photo by Unknown on Unsplash", unsplash.Attribution(""))
}

func newClient(t *testing.T, h http.HandlerFunc) *unsplash.Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := configs.UnsplashConfig{AccessKey: "key", BaseURL: srv.URL, Timeout: 5}

	return unsplash.NewClient(cfg, configs.CircuitBreakerConfig{}, apiclient.WithHTTPClient(srv.Client()))
}

func TestGetPhoto(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Client-ID key", r.Header.Get("Authorization"))

		if r.URL.Path != "/photos/AbCdEfGhIjK" {
			http.NotFound(w, r)
			return
		}

		_, _ = w.Write([]byte(`{"id":"AbCdEfGhIjK","alt_description":"a red bike","width":4000,"height":3000,
"urls":{"regular":"https://images.unsplash.com/photo-1"},"user":{"username":"jane","name":"Jane Doe"}}`))
	})

	p, err := c.GetPhoto(context.Background(), "AbCdEfGhIjK")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", p.User.Name)
	assert.Equal(t, "a red bike", p.Caption())
	assert.Equal(t, "https://images.unsplash.com/photo-1", p.URLs.Regular)

	_, err = c.GetPhoto(context.Background(), "missingmiss")
	assert.ErrorIs(t, err, unsplash.ErrPhotoNotFound)
}

func TestSearchAndUserPhotos(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/photos":
			assert.Equal(t, "coffee", r.URL.Query().Get("query"))
			assert.Equal(t, "30", r.URL.Query().Get("per_page"))
			_, _ = w.Write([]byte(`{"total":1,"total_pages":1,"results":[{"id":"AbCdEfGhIjK"}]}`))
		case "/users/jane/photos":
			assert.Equal(t, "1", r.URL.Query().Get("page"))
			_, _ = w.Write([]byte(`[{"id":"one"},{"id":"two"}]`))
		default:
			http.NotFound(w, r)
		}
	})

	res, err := c.SearchPhotos(context.Background(), "coffee", 1, 100)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)

	photos, err := c.GetUserPhotos(context.Background(), "jane", 0, 0)
	require.NoError(t, err)
	assert.Len(t, photos, 2)
}

func TestNotConfigured(t *testing.T) {
	c := unsplash.NewClient(configs.UnsplashConfig{BaseURL: "http://127.0.0.1:1", Timeout: 1}, configs.CircuitBreakerConfig{})

	_, err := c.GetPhoto(context.Background(), "AbCdEfGhIjK")
	assert.ErrorIs(t, err, unsplash.ErrNotConfigured)
}
