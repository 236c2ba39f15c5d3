package model

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/datatypes"
)

// Media 媒体库条目，字节由 StorageProvider 对应的后端持有.
type Media struct {
	ID              uint            `gorm:"primaryKey"            json:"id"`
	FileName        string          `gorm:"size:512;index"        json:"file_name"`
	MediaType       MediaType       `gorm:"size:32;index"         json:"media_type"`
	StorageProvider StorageProvider `gorm:"size:32;index"         json:"storage_provider"`
	// URL 外部地址、本地路径或 YouTube 嵌入地址
	URL         string `gorm:"size:2048"      json:"url"`
	ContentType string `gorm:"size:255"       json:"content_type"`
	// FileSize 外部链接与 YouTube 为 0
	FileSize    *int64 `json:"file_size,omitempty"`
	Description string `gorm:"type:text"      json:"description"`
	Attribution string `gorm:"size:512"       json:"attribution"`
	// StorageMetadata 提供者相关元数据，如 YouTube 视频/频道或 Unsplash 作者
	StorageMetadata datatypes.JSON `json:"storage_metadata,omitempty"`
	UserID          string         `gorm:"size:64;index"  json:"user_id"`
	PostID          *uint          `gorm:"index"          json:"post_id,omitempty"`
	CommentID       *uint          `gorm:"index"          json:"comment_id,omitempty"`
	// 延迟清理：存储删除失败时标记，由后台任务重试
	CleanupPending  bool      `gorm:"index"          json:"cleanup_pending"`
	CleanupAttempts int       `json:"cleanup_attempts"`
	CleanupError    string    `gorm:"size:1024"      json:"cleanup_error,omitempty"`
	CreatedID       string    `gorm:"size:64"        json:"created_id"`
	ModifiedID      string    `gorm:"size:64"        json:"modified_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// YouTubeMetadata 存放在 StorageMetadata 中的 YouTube 信息.
type YouTubeMetadata struct {
	VideoID      string `json:"video_id"`
	ChannelID    string `json:"channel_id,omitempty"`
	ChannelTitle string `json:"channel_title,omitempty"`
	PublishedAt  string `json:"published_at,omitempty"`
	Duration     string `json:"duration,omitempty"`
	ViewCount    string `json:"view_count,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// UnsplashMetadata 存放在 StorageMetadata 中的 Unsplash 信息.
type UnsplashMetadata struct {
	PhotoID          string `json:"photo_id"`
	PhotographerName string `json:"photographer_name"`
	PhotographerUser string `json:"photographer_username"`
	PhotographerURL  string `json:"photographer_url,omitempty"`
	DownloadLocation string `json:"download_location,omitempty"`
	Width            int    `json:"width,omitempty"`
	Height           int    `json:"height,omitempty"`
}

// SetMetadata 序列化提供者元数据.
func (m *Media) SetMetadata(v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal storage metadata: %w", err)
	}

	m.StorageMetadata = datatypes.JSON(data)

	return nil
}

// Metadata 反序列化提供者元数据到 dst.
func (m *Media) Metadata(dst any) error {
	if len(m.StorageMetadata) == 0 {
		return nil
	}

	if err := sonic.Unmarshal(m.StorageMetadata, dst); err != nil {
		return fmt.Errorf("unmarshal storage metadata: %w", err)
	}

	return nil
}

// Size 返回字节数，未知时为 0.
func (m *Media) Size() int64 {
	if m.FileSize == nil {
		return 0
	}

	return *m.FileSize
}
