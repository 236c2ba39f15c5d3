package types

import "time"

// PostInput 创建或更新帖子.
type PostInput struct {
	Title       string     `json:"title"               rule:"required,max=255"`
	Content     string     `json:"content"             rule:"max=100000"`
	Description string     `json:"description"         rule:"max=1024"`
	Cover       string     `json:"cover"               rule:"omitempty,max=2048"`
	IsFeatured  bool       `json:"is_featured"`
	IsPublic    *bool      `json:"is_public,omitempty"`
	PostType    string     `json:"post_type"           rule:"omitempty,oneof=Post Article Question Announcement"`
	Rating      float64    `json:"rating"              rule:"min=0,max=5"`
	TargetID    *string    `json:"target_id,omitempty"`
	Keywords    []string   `json:"keywords"            rule:"max=20,dive,max=128"`
	Published   *time.Time `json:"published,omitempty"`
}

// CommentInput 评论内容.
type CommentInput struct {
	Content      string `json:"content"                  rule:"required,max=10000"`
	ParentPostID *uint  `json:"parent_post_id,omitempty"`
}

// UserSummary 作者等嵌入信息.
type UserSummary struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

// CommentResponse 评论视图.
type CommentResponse struct {
	ID           uint         `json:"id"`
	PostID       uint         `json:"post_id"`
	Author       *UserSummary `json:"author,omitempty"`
	ParentPostID *uint        `json:"parent_post_id,omitempty"`
	Content      string       `json:"content"`
	ContentHTML  string       `json:"content_html"`
	LikeCount    int          `json:"like_count"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// PostResponse 帖子视图.
type PostResponse struct {
	ID           uint              `json:"id"`
	Title        string            `json:"title"`
	Slug         string            `json:"slug"`
	Content      string            `json:"content"`
	ContentHTML  string            `json:"content_html"`
	Description  string            `json:"description"`
	Cover        string            `json:"cover,omitempty"`
	IsFeatured   bool              `json:"is_featured"`
	IsPublic     bool              `json:"is_public"`
	PostType     string            `json:"post_type"`
	PostViews    int64             `json:"post_views"`
	Rating       float64           `json:"rating"`
	Published    time.Time         `json:"published"`
	Author       *UserSummary      `json:"author,omitempty"`
	Target       *UserSummary      `json:"target,omitempty"`
	Keywords     []string          `json:"keywords"`
	LikeCount    int               `json:"like_count"`
	LikedBy      []string          `json:"liked_by,omitempty"`
	CommentCount int               `json:"comment_count"`
	Comments     []CommentResponse `json:"comments,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
