// Package service 实现门户的业务逻辑：媒体库、外部媒体导入、讨论帖、关键词与用户资料.
//
// 所有服务都通过构造函数显式注入依赖（*gorm.DB、*media.Store、*queue.Events、*cache.Cache），
// 不读取全局状态，便于在测试中替换为内存数据库与临时目录.
package service

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrMediaNotFound 媒体不存在.
	ErrMediaNotFound = errors.New("media not found")
	// ErrPostNotFound 帖子不存在.
	ErrPostNotFound = errors.New("post not found")
	// ErrCommentNotFound 评论不存在.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrKeywordNotFound 关键词不存在.
	ErrKeywordNotFound = errors.New("keyword not found")
	// ErrUserNotFound 用户不存在.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnauthenticated 调用方未登录或在用户表中不存在.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden 调用方既不是所有者也不是管理员.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict 并发修改冲突或唯一约束冲突.
	ErrConflict = errors.New("conflict")
	// ErrInvalidArgument 参数不合法.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidYouTubeURL 无法从地址中识别视频 ID.
	ErrInvalidYouTubeURL = errors.New("invalid youtube url")
	// ErrInvalidUnsplashURL 无法从地址中识别图片 ID.
	ErrInvalidUnsplashURL = errors.New("invalid unsplash url")
	// ErrSelfFollow 不能关注自己.
	ErrSelfFollow = errors.New("cannot follow yourself")
)

// notFound 把 gorm.ErrRecordNotFound 转换为领域错误.
func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}

	return err
}
