package model

import (
	"time"
)

// PostType 帖子类型.
type PostType string

const (
	PostTypePost         PostType = "Post"
	PostTypeArticle      PostType = "Article"
	PostTypeQuestion     PostType = "Question"
	PostTypeAnnouncement PostType = "Announcement"
)

// Post 讨论帖.
type Post struct {
	ID          uint     `gorm:"primaryKey"              json:"id"`
	Title       string   `gorm:"size:255;not null"       json:"title"`
	Content     string   `gorm:"type:text"               json:"content"`
	Description string   `gorm:"size:1024"               json:"description"`
	Cover       string   `gorm:"size:2048"               json:"cover"`
	IsFeatured  bool     `gorm:"index"                   json:"is_featured"`
	IsPublic    bool     `gorm:"index"                   json:"is_public"`
	PostType    PostType `gorm:"size:32"                 json:"post_type"`
	PostViews   int64    `gorm:"index"                   json:"post_views"`
	// Published 用于 Recent 排序
	Published time.Time `gorm:"index"                   json:"published"`
	Rating    float64   `json:"rating"`
	// Slug 由标题生成，每次更新都会重新计算，不做唯一约束
	Slug     string  `gorm:"size:255;index"          json:"slug"`
	AuthorID string  `gorm:"size:64;index;not null"  json:"author_id"`
	Author   *User   `gorm:"foreignKey:AuthorID"     json:"author,omitempty"`
	TargetID *string `gorm:"size:64;index"           json:"target_id,omitempty"`
	Target   *User   `gorm:"foreignKey:TargetID"     json:"target,omitempty"`

	Comments []PostComment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	Likes    []PostLike    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"likes,omitempty"`
	Keywords []Keyword     `gorm:"many2many:post_keywords"                       json:"keywords,omitempty"`

	// Version 乐观并发控制
	Version    int       `gorm:"not null;default:0" json:"-"`
	CreatedID  string    `gorm:"size:64"            json:"created_id"`
	ModifiedID string    `gorm:"size:64"            json:"modified_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PostComment 帖子评论，ParentPostID 指向被引用的帖子而不是评论.
type PostComment struct {
	ID           uint              `gorm:"primaryKey"                                       json:"id"`
	PostID       uint              `gorm:"index;not null"                                   json:"post_id"`
	AuthorID     *string           `gorm:"size:64;index"                                    json:"author_id,omitempty"`
	Author       *User             `gorm:"foreignKey:AuthorID"                              json:"author,omitempty"`
	ParentPostID *uint             `gorm:"index"                                            json:"parent_post_id,omitempty"`
	Content      string            `gorm:"type:text;not null"                               json:"content"`
	Likes        []PostCommentLike `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"likes,omitempty"`
	CreatedID    string            `gorm:"size:64"                                          json:"created_id"`
	ModifiedID   string            `gorm:"size:64"                                          json:"modified_id"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// IsAuthoredBy 判断评论作者.
func (c *PostComment) IsAuthoredBy(userID string) bool {
	return c.AuthorID != nil && *c.AuthorID == userID
}

// PostLike 用户对帖子的点赞，(post_id, user_id) 唯一.
type PostLike struct {
	ID        uint      `gorm:"primaryKey"                               json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_like_user"  json:"post_id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_post_like_user;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID"                        json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PostCommentLike 用户对评论的点赞，(comment_id, user_id) 唯一.
type PostCommentLike struct {
	ID        uint      `gorm:"primaryKey"                                  json:"id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_like_user"  json:"comment_id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_comment_like_user;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID"                           json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
