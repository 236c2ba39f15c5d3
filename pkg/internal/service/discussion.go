package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	nlog "github.com/yeisme/sharesmallbiz/pkg/log"
	"github.com/yeisme/sharesmallbiz/pkg/queue"
	"github.com/yeisme/sharesmallbiz/pkg/textutil"
)

// DefaultFeaturedCount 精选帖默认条数.
const DefaultFeaturedCount = 5

// DiscussionService 讨论帖、评论与点赞.
type DiscussionService struct {
	db     *gorm.DB
	events *queue.Events
}

// NewDiscussionService 创建服务，events 可以为 nil.
func NewDiscussionService(db *gorm.DB, events *queue.Events) *DiscussionService {
	return &DiscussionService{db: db, events: events}
}

// resolveUser 把调用方解析为用户记录，未登录或用户不存在都视为未认证.
func resolveUser(ctx context.Context, db *gorm.DB, p *types.Principal) (*model.User, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}

	var u model.User
	if err := db.WithContext(ctx).First(&u, "id = ?", p.UserID).Error; err != nil {
		return nil, notFound(err, ErrUnauthenticated)
	}

	return &u, nil
}

// postGraph 详情页需要的关联.
func postGraph(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Target").
		Preload("Keywords", func(tx *gorm.DB) *gorm.DB { return tx.Order("name ASC") }).
		Preload("Likes.User").
		Preload("Comments", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC, id ASC") }).
		Preload("Comments.Author").
		Preload("Comments.Likes")
}

// listGraph 列表页需要的关联.
func listGraph(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Keywords", func(tx *gorm.DB) *gorm.DB { return tx.Order("name ASC") }).
		Preload("Likes").
		Preload("Comments", func(tx *gorm.DB) *gorm.DB { return tx.Select("id", "post_id") })
}

// lookupKeywords 按名称查找已存在的关键词，大小写不敏感，未知名称被丢弃.
func lookupKeywords(ctx context.Context, db *gorm.DB, names []string) ([]model.Keyword, error) {
	seen := make(map[string]struct{}, len(names))
	lowered := make([]string, 0, len(names))

	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}

		if _, ok := seen[n]; ok {
			continue
		}

		seen[n] = struct{}{}
		lowered = append(lowered, n)
	}

	if len(lowered) == 0 {
		return nil, nil
	}

	var kws []model.Keyword
	if err := db.WithContext(ctx).Where("LOWER(name) IN ?", lowered).Order("name ASC").Find(&kws).Error; err != nil {
		return nil, fmt.Errorf("lookup keywords: %w", err)
	}

	return kws, nil
}

// CreatePost 发布帖子，slug 由标题生成.
func (s *DiscussionService) CreatePost(ctx context.Context, p *types.Principal, in types.PostInput) (*model.Post, error) {
	user, err := resolveUser(ctx, s.db, p)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}

	kws, err := lookupKeywords(ctx, s.db, in.Keywords)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		Title:       strings.TrimSpace(in.Title),
		Content:     in.Content,
		Description: in.Description,
		Cover:       in.Cover,
		IsFeatured:  in.IsFeatured,
		IsPublic:    true,
		PostType:    model.PostTypePost,
		Rating:      in.Rating,
		TargetID:    in.TargetID,
		Published:   time.Now().UTC(),
		AuthorID:    user.ID,
		Keywords:    kws,
		CreatedID:   user.ID,
		ModifiedID:  user.ID,
	}

	post.Slug = textutil.GenerateSlug(post.Title)

	if in.IsPublic != nil {
		post.IsPublic = *in.IsPublic
	}

	if in.PostType != "" {
		post.PostType = model.PostType(in.PostType)
	}

	if in.Published != nil && !in.Published.IsZero() {
		post.Published = in.Published.UTC()
	}

	// Keywords 已存在，只写入关联表
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	post.Author = user

	s.events.PostCreated(ctx, queue.PostCreatedPayload{
		Post:     queue.PostRef{ID: post.ID, Slug: post.Slug, AuthorID: post.AuthorID},
		Title:    post.Title,
		Keywords: keywordNames(post.Keywords),
	})

	return post, nil
}

// loadPost 读取完整帖子，不计浏览量.
func (s *DiscussionService) loadPost(ctx context.Context, id uint) (*model.Post, error) {
	var post model.Post
	if err := postGraph(s.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}

	return &post, nil
}

// GetPostByID 读取帖子并尽力增加浏览量；浏览量写入冲突或失败只记录日志，帖子照常返回.
func (s *DiscussionService) GetPostByID(ctx context.Context, id uint) (*model.Post, error) {
	post, err := s.loadPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.incrementViews(ctx, post); err != nil {
		nlog.Logger().Warn().Err(err).Uint("post_id", post.ID).Msg("post view count increment lost")
	}

	return post, nil
}

func (s *DiscussionService) incrementViews(ctx context.Context, post *model.Post) error {
	res := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND version = ?", post.ID, post.Version).
		UpdateColumns(map[string]any{
			"post_views": gorm.Expr("post_views + 1"),
			"version":    gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: post %d version %d", ErrConflict, post.ID, post.Version)
	}

	post.PostViews++
	post.Version++

	return nil
}

// GetPostBySlug 按 slug 读取，同名时取最新的一篇.
func (s *DiscussionService) GetPostBySlug(ctx context.Context, slug string) (*model.Post, error) {
	var ids []uint

	err := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).
		Order("id DESC").Limit(1).Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}

	if len(ids) == 0 {
		return nil, ErrPostNotFound
	}

	return s.GetPostByID(ctx, ids[0])
}

// UpdatePost 作者或管理员可修改；关键词按名称重建，未知名称被丢弃.
func (s *DiscussionService) UpdatePost(ctx context.Context, p *types.Principal, id uint, in types.PostInput) (*model.Post, error) {
	user, err := resolveUser(ctx, s.db, p)
	if err != nil {
		return nil, err
	}

	var post model.Post
	if err := s.db.WithContext(ctx).Preload("Keywords").First(&post, id).Error; err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}

	if !p.CanModify(post.AuthorID) {
		return nil, ErrForbidden
	}

	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}

	kws, err := lookupKeywords(ctx, s.db, in.Keywords)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{
		"title":       strings.TrimSpace(in.Title),
		"slug":        textutil.GenerateSlug(in.Title),
		"content":     in.Content,
		"description": in.Description,
		"cover":       in.Cover,
		"is_featured": in.IsFeatured,
		"rating":      in.Rating,
		"target_id":   in.TargetID,
		"modified_id": user.ID,
		"version":     gorm.Expr("version + 1"),
		"updated_at":  time.Now().UTC(),
	}

	if in.IsPublic != nil {
		fields["is_public"] = *in.IsPublic
	}

	if in.PostType != "" {
		fields["post_type"] = in.PostType
	}

	if in.Published != nil && !in.Published.IsZero() {
		fields["published"] = in.Published.UTC()
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Post{}).Where("id = ? AND version = ?", post.ID, post.Version).Updates(fields)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: post %d was modified concurrently", ErrConflict, post.ID)
		}

		assoc := tx.Model(&post).Association("Keywords")
		if len(kws) == 0 {
			return assoc.Clear()
		}

		return assoc.Replace(kws)
	})
	if err != nil {
		return nil, fmt.Errorf("update post %d: %w", id, err)
	}

	return s.loadPost(ctx, id)
}

// DeletePost 作者或管理员可删除，评论、点赞与关键词关联一并删除，关联媒体解除引用.
func (s *DiscussionService) DeletePost(ctx context.Context, p *types.Principal, id uint) (bool, error) {
	if _, err := resolveUser(ctx, s.db, p); err != nil {
		return false, err
	}

	var post model.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}

		return false, err
	}

	if !p.CanModify(post.AuthorID) {
		return false, ErrForbidden
	}

	var deleted bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := tx.Model(&model.PostComment{}).Select("id").Where("post_id = ?", post.ID)

		if err := tx.Where("comment_id IN (?)", comments).Delete(&model.PostCommentLike{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Media{}).Where("comment_id IN (?)", comments).Update("comment_id", nil).Error; err != nil {
			return err
		}

		if err := tx.Where("post_id = ?", post.ID).Delete(&model.PostComment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("post_id = ?", post.ID).Delete(&model.PostLike{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&post).Association("Keywords").Clear(); err != nil {
			return err
		}

		if err := tx.Model(&model.Media{}).Where("post_id = ?", post.ID).Update("post_id", nil).Error; err != nil {
			return err
		}

		res := tx.Delete(&model.Post{}, post.ID)
		deleted = res.RowsAffected > 0

		return res.Error
	})
	if err != nil {
		return false, fmt.Errorf("delete post %d: %w", id, err)
	}

	return deleted, nil
}

// GetPosts 公开帖子分页. Recent 按发布时间、Popular 按浏览量、All 按 ID 倒序.
func (s *DiscussionService) GetPosts(ctx context.Context, pageNumber, pageSize int, sort types.PostSort) (*types.PaginatedResult[model.Post], error) {
	q := s.db.WithContext(ctx).Model(&model.Post{}).Where("is_public = ?", true)

	return s.page(q, pageNumber, pageSize, sort)
}

// GetUserPosts 某个作者的帖子，includePrivate 为 true 时包含非公开帖子.
func (s *DiscussionService) GetUserPosts(ctx context.Context, userID string, includePrivate bool, pageNumber, pageSize int) (*types.PaginatedResult[model.Post], error) {
	q := s.db.WithContext(ctx).Model(&model.Post{}).Where("author_id = ?", userID)
	if !includePrivate {
		q = q.Where("is_public = ?", true)
	}

	return s.page(q, pageNumber, pageSize, types.SortRecent)
}

// GetPostsByKeyword 带有某个关键词的公开帖子.
func (s *DiscussionService) GetPostsByKeyword(ctx context.Context, keyword string, pageNumber, pageSize int) (*types.PaginatedResult[model.Post], error) {
	sub := s.db.Table("post_keywords").
		Select("post_keywords.post_id").
		Joins("JOIN keywords ON keywords.id = post_keywords.keyword_id").
		Where("LOWER(keywords.name) = ?", strings.ToLower(strings.TrimSpace(keyword)))

	q := s.db.WithContext(ctx).Model(&model.Post{}).Where("is_public = ? AND id IN (?)", true, sub)

	return s.page(q, pageNumber, pageSize, types.SortRecent)
}

// GetFeaturedPosts 精选公开帖子，按发布时间倒序.
func (s *DiscussionService) GetFeaturedPosts(ctx context.Context, count int) ([]model.Post, error) {
	if count <= 0 {
		count = DefaultFeaturedCount
	}

	if count > types.MaxPageSize {
		count = types.MaxPageSize
	}

	var posts []model.Post

	err := listGraph(s.db.WithContext(ctx)).
		Where("is_featured = ? AND is_public = ?", true, true).
		Order("published DESC, id DESC").Limit(count).Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list featured posts: %w", err)
	}

	return posts, nil
}

func (s *DiscussionService) page(q *gorm.DB, pageNumber, pageSize int, sort types.PostSort) (*types.PaginatedResult[model.Post], error) {
	page, size := types.ClampPage(pageNumber, pageSize)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	var posts []model.Post

	err := listGraph(q.Session(&gorm.Session{})).
		Order(sortOrder(sort)).
		Offset(types.Offset(page, size)).Limit(size).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	return types.NewPaginatedResult(posts, page, size, total), nil
}

func sortOrder(sort types.PostSort) string {
	switch sort {
	case types.SortPopular:
		return "post_views DESC, id DESC"
	case types.SortAll:
		return "id DESC"
	default:
		return "published DESC, id DESC"
	}
}

func keywordNames(kws []model.Keyword) []string {
	names := make([]string, 0, len(kws))
	for _, k := range kws {
		names = append(names, k.Name)
	}

	return names
}
