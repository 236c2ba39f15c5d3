package types

import "time"

// UpdateProfileRequest 更新个人资料，nil 字段保持不变.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" rule:"omitempty,max=255"`
	Bio         *string `json:"bio,omitempty"          rule:"omitempty,max=4096"`
	WebsiteURL  *string `json:"website_url,omitempty"  rule:"omitempty,url,max=1024"`
}

// ProfileResponse 用户资料视图.
type ProfileResponse struct {
	ID                string    `json:"id"`
	UserName          string    `json:"user_name"`
	DisplayName       string    `json:"display_name"`
	Bio               string    `json:"bio,omitempty"`
	BioHTML           string    `json:"bio_html,omitempty"`
	WebsiteURL        string    `json:"website_url,omitempty"`
	ProfilePictureURL string    `json:"profile_picture_url,omitempty"`
	Followers         int64     `json:"followers"`
	Following         int64     `json:"following"`
	PostCount         int64     `json:"post_count"`
	LikeCount         int64     `json:"like_count"`
	CreatedAt         time.Time `json:"created_at"`
}

// MigrationResult 头像迁移统计.
type MigrationResult struct {
	Migrated int      `json:"migrated"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}
