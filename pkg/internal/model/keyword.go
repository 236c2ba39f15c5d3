package model

import "time"

// Keyword 帖子标签，同时作为管理员维护的扁平分类.
type Keyword struct {
	ID          uint      `gorm:"primaryKey"              json:"id"`
	Name        string    `gorm:"size:128;uniqueIndex"    json:"name"`
	Description string    `gorm:"size:512"                json:"description"`
	Posts       []Post    `gorm:"many2many:post_keywords" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
