package model

import (
	"strings"
	"time"
)

// User 门户用户，身份由外部认证系统提供.
type User struct {
	ID          string `gorm:"primaryKey;size:64"   json:"id"`
	UserName    string `gorm:"size:255;index"       json:"user_name"`
	Email       string `gorm:"size:255;index"       json:"email"`
	DisplayName string `gorm:"size:255"             json:"display_name"`
	Bio         string `gorm:"type:text"            json:"bio"`
	WebsiteURL  string `gorm:"size:1024"            json:"website_url"`
	// ProfilePictureURL 指向媒体库，如 /Media/42
	ProfilePictureURL string `gorm:"size:1024"       json:"profile_picture_url"`
	// ProfilePicture 旧版内联头像，仅作为迁移输入
	ProfilePicture []byte `json:"-"`
	// Roles 逗号分隔的角色列表
	Roles     string    `gorm:"size:255"   json:"roles"`
	LikeCount int64     `json:"like_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasRole 判断用户是否拥有指定角色，大小写不敏感.
func (u *User) HasRole(role string) bool {
	for _, r := range strings.Split(u.Roles, ",") {
		if strings.EqualFold(strings.TrimSpace(r), role) {
			return true
		}
	}

	return false
}

// Name 返回用于展示的名字.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}

	if u.UserName != "" {
		return u.UserName
	}

	return u.Email
}

// UserFollow 关注关系，(follower_id, following_id) 唯一.
type UserFollow struct {
	ID          uint      `gorm:"primaryKey"                                           json:"id"`
	FollowerID  string    `gorm:"size:64;not null;uniqueIndex:idx_follow_pair;index"   json:"follower_id"`
	Follower    *User     `gorm:"foreignKey:FollowerID"                                json:"follower,omitempty"`
	FollowingID string    `gorm:"size:64;not null;uniqueIndex:idx_follow_pair;index"   json:"following_id"`
	Following   *User     `gorm:"foreignKey:FollowingID"                               json:"following,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
