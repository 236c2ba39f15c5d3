// Package model 定义持久化实体，数据库是唯一的事实来源.
package model

// All 返回需要迁移的全部模型.
func All() []any {
	return []any{
		&User{},
		&UserFollow{},
		&Keyword{},
		&Post{},
		&PostComment{},
		&PostLike{},
		&PostCommentLike{},
		&Media{},
	}
}
