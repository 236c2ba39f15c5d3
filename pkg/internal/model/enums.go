package model

import (
	"strings"
)

// MediaType 媒体类别，闭合枚举.
type MediaType string

const (
	MediaTypeImage    MediaType = "Image"
	MediaTypeVideo    MediaType = "Video"
	MediaTypeAudio    MediaType = "Audio"
	MediaTypeDocument MediaType = "Document"
	MediaTypeOther    MediaType = "Other"
)

// MediaTypes 返回全部媒体类别.
func MediaTypes() []MediaType {
	return []MediaType{MediaTypeImage, MediaTypeVideo, MediaTypeAudio, MediaTypeDocument, MediaTypeOther}
}

func (t MediaType) String() string { return string(t) }

// Valid 判断是否为已知类别.
func (t MediaType) Valid() bool {
	for _, v := range MediaTypes() {
		if v == t {
			return true
		}
	}

	return false
}

// ParseMediaType 大小写不敏感地解析类别名.
func ParseMediaType(s string) (MediaType, bool) {
	for _, v := range MediaTypes() {
		if strings.EqualFold(string(v), strings.TrimSpace(s)) {
			return v, true
		}
	}

	return "", false
}

// StorageProvider 媒体字节或链接的归属后端.
type StorageProvider string

const (
	ProviderLocalStorage StorageProvider = "LocalStorage"
	ProviderExternal     StorageProvider = "External"
	ProviderYouTube      StorageProvider = "YouTube"
	ProviderAzureBlob    StorageProvider = "AzureBlob"
	ProviderAwsS3        StorageProvider = "AwsS3"
)

// StorageProviders 返回全部提供者.
func StorageProviders() []StorageProvider {
	return []StorageProvider{ProviderLocalStorage, ProviderExternal, ProviderYouTube, ProviderAzureBlob, ProviderAwsS3}
}

func (p StorageProvider) String() string { return string(p) }

// Valid 判断是否为已知提供者.
func (p StorageProvider) Valid() bool {
	for _, v := range StorageProviders() {
		if v == p {
			return true
		}
	}

	return false
}

// IsLink 外部链接与 YouTube 不持有任何字节.
func (p StorageProvider) IsLink() bool {
	return p == ProviderExternal || p == ProviderYouTube
}

// ParseStorageProvider 大小写不敏感地解析提供者名.
func ParseStorageProvider(s string) (StorageProvider, bool) {
	for _, v := range StorageProviders() {
		if strings.EqualFold(string(v), strings.TrimSpace(s)) {
			return v, true
		}
	}

	return "", false
}

var documentContentTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {},
	"application/vnd.ms-excel":                                                  {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {},
	"application/vnd.ms-powerpoint":                                             {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
	"application/rtf": {},
}

// InferMediaType 由 Content-Type 推断媒体类别.
func InferMediaType(contentType string) MediaType {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	switch {
	case strings.HasPrefix(ct, "image/"):
		return MediaTypeImage
	case strings.HasPrefix(ct, "video/"):
		return MediaTypeVideo
	case strings.HasPrefix(ct, "audio/"):
		return MediaTypeAudio
	case strings.HasPrefix(ct, "text/"):
		return MediaTypeDocument
	}

	if _, ok := documentContentTypes[ct]; ok {
		return MediaTypeDocument
	}

	return MediaTypeOther
}

// DefaultContentType 返回类别对应的默认 Content-Type，用于外部链接.
func DefaultContentType(t MediaType) string {
	switch t {
	case MediaTypeImage:
		return "image/jpeg"
	case MediaTypeVideo:
		return "video/mp4"
	case MediaTypeAudio:
		return "audio/mpeg"
	case MediaTypeDocument:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
