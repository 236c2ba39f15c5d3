package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
)

func TestInferMediaType(t *testing.T) {
	tests := []struct {
		contentType string
		want        model.MediaType
	}{
		{"image/png", model.MediaTypeImage},
		{"IMAGE/JPEG", model.MediaTypeImage},
		{"video/mp4", model.MediaTypeVideo},
		{"audio/mpeg", model.MediaTypeAudio},
		{"application/pdf", model.MediaTypeDocument},
		{"text/plain; charset=utf-8", model.MediaTypeDocument},
		{"application/vnd.ms-excel", model.MediaTypeDocument},
		{"application/zip", model.MediaTypeOther},
		{"", model.MediaTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, model.InferMediaType(tt.contentType))
		})
	}
}

func TestDefaultContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", model.DefaultContentType(model.MediaTypeImage))
	assert.Equal(t, "video/mp4", model.DefaultContentType(model.MediaTypeVideo))
	assert.Equal(t, "audio/mpeg", model.DefaultContentType(model.MediaTypeAudio))
	assert.Equal(t, "application/pdf", model.DefaultContentType(model.MediaTypeDocument))
	assert.Equal(t, "application/octet-stream", model.DefaultContentType(model.MediaTypeOther))
	assert.Equal(t, "application/octet-stream", model.DefaultContentType("Hologram"))
}

func TestParseEnums(t *testing.T) {
	mt, ok := model.ParseMediaType(" video ")
	assert.True(t, ok)
	assert.Equal(t, model.MediaTypeVideo, mt)

	_, ok = model.ParseMediaType("Hologram")
	assert.False(t, ok)

	p, ok := model.ParseStorageProvider("awss3")
	assert.True(t, ok)
	assert.Equal(t, model.ProviderAwsS3, p)
	assert.False(t, p.IsLink())

	assert.True(t, model.ProviderYouTube.IsLink())
	assert.True(t, model.ProviderExternal.IsLink())
	assert.False(t, model.StorageProvider("Dropbox").Valid())
	assert.True(t, model.MediaTypeOther.Valid())
}
