package types

import "time"

// MediaMeta 创建媒体时的可选描述信息.
type MediaMeta struct {
	Description string `form:"description" json:"description" rule:"max=4096"`
	Attribution string `form:"attribution" json:"attribution" rule:"max=512"`
	MediaType   string `form:"media_type"  json:"media_type"`
	PostID      *uint  `form:"post_id"     json:"post_id,omitempty"`
	CommentID   *uint  `form:"comment_id"  json:"comment_id,omitempty"`
}

// UploadMediaRequest multipart 上传的表单字段，文件字段名为 file.
type UploadMediaRequest struct {
	MediaMeta
	FileName        string `form:"file_name"        rule:"max=255"`
	StorageProvider string `form:"storage_provider" rule:"omitempty,oneof=LocalStorage AwsS3 AzureBlob"`
}

// ExternalMediaRequest 登记外部链接.
type ExternalMediaRequest struct {
	MediaMeta
	URL      string `json:"url"       rule:"required,url,max=2048"`
	FileName string `json:"file_name" rule:"max=255"`
}

// YouTubeMediaRequest 登记 YouTube 视频.
type YouTubeMediaRequest struct {
	MediaMeta
	URL string `json:"url" rule:"required,max=2048"`
}

// UnsplashMediaRequest 导入 Unsplash 图片，URL 或 ID 二选一.
type UnsplashMediaRequest struct {
	MediaMeta
	URLOrID string `json:"url_or_id" rule:"required,max=2048"`
}

// UpdateMediaRequest 更新媒体信息，URL 非空时切换为外部链接或 YouTube.
type UpdateMediaRequest struct {
	FileName    *string `json:"file_name,omitempty"   rule:"omitempty,max=255"`
	Description *string `json:"description,omitempty" rule:"omitempty,max=4096"`
	Attribution *string `json:"attribution,omitempty" rule:"omitempty,max=512"`
	URL         *string `json:"url,omitempty"         rule:"omitempty,max=2048"`
}

// MediaSearchRequest 媒体搜索条件.
type MediaSearchRequest struct {
	Query           string `form:"q"                json:"q"                rule:"max=255"`
	MediaType       string `form:"media_type"       json:"media_type"`
	StorageProvider string `form:"storage_provider" json:"storage_provider"`
	UserID          string `form:"user_id"          json:"user_id"`
	PageNumber      int    `form:"page"             json:"page"`
	PageSize        int    `form:"page_size"        json:"page_size"`
}

// MediaResponse 媒体视图，URL 与缩略图地址已按提供者换算.
type MediaResponse struct {
	ID              uint      `json:"id"`
	FileName        string    `json:"file_name"`
	MediaType       string    `json:"media_type"`
	StorageProvider string    `json:"storage_provider"`
	URL             string    `json:"url"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	ContentType     string    `json:"content_type"`
	FileSize        int64     `json:"file_size"`
	Description     string    `json:"description,omitempty"`
	Attribution     string    `json:"attribution,omitempty"`
	Metadata        any       `json:"metadata,omitempty"`
	UserID          string    `json:"user_id"`
	PostID          *uint     `json:"post_id,omitempty"`
	CommentID       *uint     `json:"comment_id,omitempty"`
	CleanupPending  bool      `json:"cleanup_pending,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CleanupResult 一次延迟清理的统计.
type CleanupResult struct {
	Processed int `json:"processed"`
	Deleted   int `json:"deleted"`
	Failed    int `json:"failed"`
	GaveUp    int `json:"gave_up"`
}
