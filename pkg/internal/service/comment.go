package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	"github.com/yeisme/sharesmallbiz/pkg/queue"
)

func (s *DiscussionService) postExists(ctx context.Context, id uint) (*model.Post, error) {
	var post model.Post
	if err := s.db.WithContext(ctx).Select("id", "author_id", "slug").First(&post, id).Error; err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}

	return &post, nil
}

// LikePost 点赞，重复点赞不做任何修改并返回 false.
func (s *DiscussionService) LikePost(ctx context.Context, p *types.Principal, postID uint) (bool, error) {
	user, err := resolveUser(ctx, s.db, p)
	if err != nil {
		return false, err
	}

	post, err := s.postExists(ctx, postID)
	if err != nil {
		return false, err
	}

	var created bool

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.PostLike{PostID: post.ID, UserID: user.ID})
		if res.Error != nil {
			return res.Error
		}

		created = res.RowsAffected > 0
		if !created {
			return nil
		}

		return tx.Model(&model.User{}).Where("id = ?", post.AuthorID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
	if err != nil {
		return false, fmt.Errorf("like post %d: %w", postID, err)
	}

	if created {
		s.events.PostLiked(ctx, queue.PostLikedPayload{
			Post:   queue.PostRef{ID: post.ID, Slug: post.Slug, AuthorID: post.AuthorID},
			UserID: user.ID,
		})
	}

	return created, nil
}

// UnlikePost 取消点赞，没有点过赞时返回 false.
func (s *DiscussionService) UnlikePost(ctx context.Context, p *types.Principal, postID uint) (bool, error) {
	user, err := resolveUser(ctx, s.db, p)
	if err != nil {
		return false, err
	}

	post, err := s.postExists(ctx, postID)
	if err != nil {
		return false, err
	}

	var removed bool

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", post.ID, user.ID).Delete(&model.PostLike{})
		if res.Error != nil {
			return res.Error
		}

		removed = res.RowsAffected > 0
		if !removed {
			return nil
		}

		return tx.Model(&model.User{}).Where("id = ? AND like_count > 0", post.AuthorID).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
	if err != nil {
		return false, fmt.Errorf("unlike post %d: %w", postID, err)
	}

	return removed, nil
}

// GetComments 帖子的评论，按时间正序.
func (s *DiscussionService) GetComments(ctx context.Context, postID uint) ([]model.PostComment, error) {
	if _, err := s.postExists(ctx, postID); err != nil {
		return nil, err
	}

	var comments []model.PostComment

	err := s.db.WithContext(ctx).Preload("Author").Preload("Likes").
		Where("post_id = ?", postID).Order("created_at ASC, id ASC").Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	return comments, nil
}

// CommentPost 发表评论.
func (s *DiscussionService) CommentPost(ctx context.Context, p *types.Principal, postID uint, in types.CommentInput) (*model.PostComment, error) {
	user, err := resolveUser(ctx, s.db, p)
	if err != nil {
		return nil, err
	}

	post, err := s.postExists(ctx, postID)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment content is required", ErrInvalidArgument)
	}

	if in.ParentPostID != nil {
		if _, err := s.postExists(ctx, *in.ParentPostID); err != nil {
			return nil, err
		}
	}

	c := &model.PostComment{
		PostID:       post.ID,
		AuthorID:     &user.ID,
		ParentPostID: in.ParentPostID,
		Content:      content,
		CreatedID:    user.ID,
		ModifiedID:   user.ID,
	}

	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	c.Author = user

	s.events.PostCommented(ctx, queue.PostCommentedPayload{
		Post:      queue.PostRef{ID: post.ID, Slug: post.Slug, AuthorID: post.AuthorID},
		CommentID: c.ID,
		AuthorID:  user.ID,
	})

	return c, nil
}

// ownedComment 读取评论并校验作者或管理员权限.
func (s *DiscussionService) ownedComment(ctx context.Context, p *types.Principal, commentID uint) (*model.PostComment, error) {
	if _, err := resolveUser(ctx, s.db, p); err != nil {
		return nil, err
	}

	var c model.PostComment
	if err := s.db.WithContext(ctx).First(&c, commentID).Error; err != nil {
		return nil, notFound(err, ErrCommentNotFound)
	}

	owner := ""
	if c.AuthorID != nil {
		owner = *c.AuthorID
	}

	if !p.CanModify(owner) {
		return nil, ErrForbidden
	}

	return &c, nil
}

// UpdateComment 作者或管理员修改评论内容.
func (s *DiscussionService) UpdateComment(ctx context.Context, p *types.Principal, commentID uint, content string) (*model.PostComment, error) {
	c, err := s.ownedComment(ctx, p, commentID)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment content is required", ErrInvalidArgument)
	}

	err = s.db.WithContext(ctx).Model(c).Updates(map[string]any{
		"content":     content,
		"modified_id": p.UserID,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update comment %d: %w", commentID, err)
	}

	c.Content = content
	c.ModifiedID = p.UserID

	return c, nil
}

// DeleteComment 作者或管理员删除评论及其点赞. 评论不存在返回 (false, nil).
func (s *DiscussionService) DeleteComment(ctx context.Context, p *types.Principal, commentID uint) (bool, error) {
	c, err := s.ownedComment(ctx, p, commentID)
	if errors.Is(err, ErrCommentNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	var deleted bool

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", c.ID).Delete(&model.PostCommentLike{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Media{}).Where("comment_id = ?", c.ID).Update("comment_id", nil).Error; err != nil {
			return err
		}

		res := tx.Delete(&model.PostComment{}, c.ID)
		deleted = res.RowsAffected > 0

		return res.Error
	})
	if err != nil {
		return false, fmt.Errorf("delete comment %d: %w", commentID, err)
	}

	return deleted, nil
}

// LikeComment 评论点赞，重复点赞返回 false.
func (s *DiscussionService) LikeComment(ctx context.Context, p *types.Principal, commentID uint) (bool, error) {
	user, err := resolveUser(ctx, s.db, p)
	if err != nil {
		return false, err
	}

	var c model.PostComment
	if err := s.db.WithContext(ctx).Select("id").First(&c, commentID).Error; err != nil {
		return false, notFound(err, ErrCommentNotFound)
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.PostCommentLike{CommentID: c.ID, UserID: user.ID})
	if res.Error != nil {
		return false, fmt.Errorf("like comment %d: %w", commentID, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// UnlikeComment 取消评论点赞.
func (s *DiscussionService) UnlikeComment(ctx context.Context, p *types.Principal, commentID uint) (bool, error) {
	user, err := resolveUser(ctx, s.db, p)
	if err != nil {
		return false, err
	}

	var c model.PostComment
	if err := s.db.WithContext(ctx).Select("id").First(&c, commentID).Error; err != nil {
		return false, notFound(err, ErrCommentNotFound)
	}

	res := s.db.WithContext(ctx).Where("comment_id = ? AND user_id = ?", c.ID, user.ID).Delete(&model.PostCommentLike{})
	if res.Error != nil {
		return false, fmt.Errorf("unlike comment %d: %w", commentID, res.Error)
	}

	return res.RowsAffected > 0, nil
}
