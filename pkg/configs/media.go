package configs

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultMediaRootDir         = "data/media"      // 本地媒体根目录
	DefaultMediaMaxFileSize     = 10 * 1024 * 1024  // 默认单文件上限 10MB
	DefaultMediaThumbnailWidth  = 300               // 默认缩略图宽度
	DefaultMediaThumbnailHeight = 300               // 默认缩略图高度
	DefaultMediaProvider        = "LocalStorage"    // 默认上传提供者
	DefaultMediaPlaceholder     = "static/file.png" // 非图片媒体的占位图标（相对 root_dir）
	DefaultMediaUploadsDir      = "uploads"         // 上传子目录
	DefaultMediaThumbnailsDir   = "thumbnails"      // 缩略图子目录
	DefaultMediaProfilesDir     = "profiles"        // 头像子目录
	DefaultMediaCleanupAttempts = 5                 // 延迟清理最大重试次数
)

// MediaConfig 媒体库配置.
type MediaConfig struct {
	RootDir             string   `mapstructure:"root_dir"              rule:"required"`
	MaxFileSize         int64    `mapstructure:"max_file_size"         rule:"min=1"`
	AllowedExtensions   []string `mapstructure:"allowed_extensions"    rule:"min=1"`
	AllowedContentTypes []string `mapstructure:"allowed_content_types" rule:"min=1"`
	ThumbnailWidth      int      `mapstructure:"thumbnail_width"       rule:"min=16,max=4096"`
	ThumbnailHeight     int      `mapstructure:"thumbnail_height"      rule:"min=16,max=4096"`
	PlaceholderIcon     string   `mapstructure:"placeholder_icon"`
	DefaultProvider     string   `mapstructure:"default_provider"      rule:"oneof=LocalStorage AwsS3"`
	UploadsDir          string   `mapstructure:"uploads_dir"`
	ThumbnailsDir       string   `mapstructure:"thumbnails_dir"`
	ProfilesDir         string   `mapstructure:"profiles_dir"`
	MaxCleanupAttempts  int      `mapstructure:"max_cleanup_attempts"  rule:"min=1"`
}

// UploadsPath 返回上传目录的绝对路径.
func (c *MediaConfig) UploadsPath() string {
	return filepath.Join(c.RootDir, c.UploadsDir)
}

// ThumbnailsPath 返回缩略图目录的绝对路径.
func (c *MediaConfig) ThumbnailsPath() string {
	return filepath.Join(c.RootDir, c.ThumbnailsDir)
}

// ProfilesPath 返回头像目录的绝对路径.
func (c *MediaConfig) ProfilesPath() string {
	return filepath.Join(c.RootDir, c.ProfilesDir)
}

// PlaceholderPath 返回占位图标路径.
func (c *MediaConfig) PlaceholderPath() string {
	if c.PlaceholderIcon == "" {
		return ""
	}

	if filepath.IsAbs(c.PlaceholderIcon) {
		return c.PlaceholderIcon
	}

	return filepath.Join(c.RootDir, c.PlaceholderIcon)
}

// IsExtensionAllowed 判断扩展名是否在白名单内，大小写不敏感.
func (c *MediaConfig) IsExtensionAllowed(ext string) bool {
	ext = strings.ToLower(ext)

	return slices.ContainsFunc(c.AllowedExtensions, func(e string) bool {
		return strings.ToLower(e) == ext
	})
}

// IsContentTypeAllowed 判断 Content-Type 是否在白名单内.
func (c *MediaConfig) IsContentTypeAllowed(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}

	return slices.ContainsFunc(c.AllowedContentTypes, func(t string) bool {
		return strings.ToLower(t) == contentType
	})
}

func (c *MediaConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("media.root_dir", DefaultMediaRootDir)
	v.SetDefault("media.max_file_size", DefaultMediaMaxFileSize)
	v.SetDefault("media.allowed_extensions", []string{
		".jpg", ".jpeg", ".png", ".gif", ".webp",
		".mp4", ".webm", ".mp3", ".wav",
		".pdf", ".doc", ".docx", ".xls", ".xlsx", ".txt",
	})
	v.SetDefault("media.allowed_content_types", []string{
		"image/jpeg", "image/png", "image/gif", "image/webp",
		"video/mp4", "video/webm", "audio/mpeg", "audio/wav",
		"application/pdf", "application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"text/plain",
	})
	v.SetDefault("media.thumbnail_width", DefaultMediaThumbnailWidth)
	v.SetDefault("media.thumbnail_height", DefaultMediaThumbnailHeight)
	v.SetDefault("media.placeholder_icon", DefaultMediaPlaceholder)
	v.SetDefault("media.default_provider", DefaultMediaProvider)
	v.SetDefault("media.uploads_dir", DefaultMediaUploadsDir)
	v.SetDefault("media.thumbnails_dir", DefaultMediaThumbnailsDir)
	v.SetDefault("media.profiles_dir", DefaultMediaProfilesDir)
	v.SetDefault("media.max_cleanup_attempts", DefaultMediaCleanupAttempts)
}
