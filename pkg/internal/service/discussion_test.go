package service_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/service"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
)

type discussionFixture struct {
	db    *gorm.DB
	svc   *service.DiscussionService
	alice *types.Principal
	bob   *types.Principal
	admin *types.Principal
}

func newDiscussion(t *testing.T) *discussionFixture {
	t.Helper()

	db := newDB(t)
	seedKeywords(t, db, "Retail", "Food", "Marketing")

	return &discussionFixture{
		db:    db,
		svc:   service.NewDiscussionService(db, nil),
		alice: seedUser(t, db, "alice"),
		bob:   seedUser(t, db, "bob"),
		admin: seedUser(t, db, "root", adminRole),
	}
}

func (f *discussionFixture) post(t *testing.T, p *types.Principal, in types.PostInput) *model.Post {
	t.Helper()

	post, err := f.svc.CreatePost(bg(), p, in)
	require.NoError(t, err)

	return post
}

func TestCreatePost(t *testing.T) {
	f := newDiscussion(t)

	post := f.post(t, f.alice, types.PostInput{
		Title:    "  Grand Opening: Café Déjà Vu!  ",
		Content:  "line one\n<b>line two</b>",
		Keywords: []string{"retail", "FOOD", "unknown", "food", ""},
	})

	assert.NotZero(t, post.ID)
	assert.Equal(t, "grand-opening-cafe-deja-vu", post.Slug)
	assert.Equal(t, "alice", post.AuthorID)
	assert.True(t, post.IsPublic)
	assert.Equal(t, model.PostTypePost, post.PostType)
	assert.Zero(t, post.PostViews)
	assert.ElementsMatch(t, []string{"Food", "Retail"}, []string{post.Keywords[0].Name, post.Keywords[1].Name})
	assert.Len(t, post.Keywords, 2)

	resp := service.ToPostResponse(post)
	assert.Equal(t, "line one<br />&lt;b&gt;line two&lt;/b&gt;", resp.ContentHTML)
	assert.Equal(t, "alice", resp.Author.ID)
}

func TestCreatePostValidation(t *testing.T) {
	f := newDiscussion(t)

	_, err := f.svc.CreatePost(bg(), &types.Principal{}, types.PostInput{Title: "x"})
	require.ErrorIs(t, err, service.ErrUnauthenticated)

	_, err = f.svc.CreatePost(bg(), types.NewPrincipal("ghost", "", nil, adminRole), types.PostInput{Title: "x"})
	require.ErrorIs(t, err, service.ErrUnauthenticated)

	_, err = f.svc.CreatePost(bg(), f.alice, types.PostInput{Title: "   "})
	require.ErrorIs(t, err, service.ErrInvalidArgument)

	private := false
	post := f.post(t, f.alice, types.PostInput{Title: "Draft", IsPublic: &private, PostType: "Question"})
	assert.False(t, post.IsPublic)
	assert.Equal(t, model.PostTypeQuestion, post.PostType)

	var stored model.Post
	require.NoError(t, f.db.First(&stored, post.ID).Error)
	assert.False(t, stored.IsPublic)
}

func TestGetPostCountsViews(t *testing.T) {
	f := newDiscussion(t)
	created := f.post(t, f.alice, types.PostInput{Title: "Hello World"})

	for want := int64(1); want <= 3; want++ {
		got, err := f.svc.GetPostByID(bg(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.PostViews)
	}

	bySlug, err := f.svc.GetPostBySlug(bg(), "HELLO-world")
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySlug.ID)
	assert.Equal(t, int64(4), bySlug.PostViews)

	_, err = f.svc.GetPostBySlug(bg(), "missing")
	assert.ErrorIs(t, err, service.ErrPostNotFound)

	_, err = f.svc.GetPostByID(bg(), 404)
	assert.ErrorIs(t, err, service.ErrPostNotFound)
}

func TestGetPostSwallowsViewConflict(t *testing.T) {
	f := newDiscussion(t)
	created := f.post(t, f.alice, types.PostInput{Title: "Contended"})

	// 模拟并发写入：浏览量更新永远匹配不到行
	err := f.db.Callback().Update().Before("gorm:update").Register("test:stale_views", func(tx *gorm.DB) {
		if fields, ok := tx.Statement.Dest.(map[string]any); ok {
			if _, views := fields["post_views"]; views {
				tx.Statement.AddClause(clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "1 = 0"}}})
			}
		}
	})
	require.NoError(t, err)

	got, err := f.svc.GetPostByID(bg(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Zero(t, got.PostViews)

	var stored model.Post
	require.NoError(t, f.db.First(&stored, created.ID).Error)
	assert.Zero(t, stored.PostViews)
}

func TestUpdatePost(t *testing.T) {
	f := newDiscussion(t)
	created := f.post(t, f.alice, types.PostInput{Title: "Original", Content: "v1", Keywords: []string{"Retail"}})

	_, err := f.svc.UpdatePost(bg(), f.bob, created.ID, types.PostInput{Title: "Hijacked", Content: "x"})
	require.ErrorIs(t, err, service.ErrForbidden)

	var stored model.Post
	require.NoError(t, f.db.Preload("Keywords").First(&stored, created.ID).Error)
	assert.Equal(t, "Original", stored.Title)
	assert.Equal(t, "v1", stored.Content)
	assert.Len(t, stored.Keywords, 1)

	updated, err := f.svc.UpdatePost(bg(), f.alice, created.ID, types.PostInput{
		Title:    "Renamed Post",
		Content:  "v2",
		Keywords: []string{"marketing", "nope"},
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed-post", updated.Slug)
	assert.Equal(t, "v2", updated.Content)
	require.Len(t, updated.Keywords, 1)
	assert.Equal(t, "Marketing", updated.Keywords[0].Name)
	assert.Equal(t, created.Version+1, updated.Version)

	// 管理员可以修改任何帖子，空关键词清除关联
	updated, err = f.svc.UpdatePost(bg(), f.admin, created.ID, types.PostInput{Title: "Moderated"})
	require.NoError(t, err)
	assert.Empty(t, updated.Keywords)
	assert.Equal(t, "root", updated.ModifiedID)

	_, err = f.svc.UpdatePost(bg(), f.alice, 404, types.PostInput{Title: "x"})
	assert.ErrorIs(t, err, service.ErrPostNotFound)
}

func TestDeletePost(t *testing.T) {
	f := newDiscussion(t)
	created := f.post(t, f.alice, types.PostInput{Title: "Short lived", Keywords: []string{"Food"}})

	c, err := f.svc.CommentPost(bg(), f.bob, created.ID, types.CommentInput{Content: "nice"})
	require.NoError(t, err)
	_, err = f.svc.LikeComment(bg(), f.alice, c.ID)
	require.NoError(t, err)
	_, err = f.svc.LikePost(bg(), f.bob, created.ID)
	require.NoError(t, err)

	_, err = f.svc.DeletePost(bg(), f.bob, created.ID)
	require.ErrorIs(t, err, service.ErrForbidden)

	ok, err := f.svc.DeletePost(bg(), f.alice, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	for _, m := range []any{&model.Post{}, &model.PostComment{}, &model.PostLike{}, &model.PostCommentLike{}} {
		var n int64
		require.NoError(t, f.db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T", m)
	}

	var links int64
	require.NoError(t, f.db.Table("post_keywords").Count(&links).Error)
	assert.Zero(t, links)

	ok, err = f.svc.DeletePost(bg(), f.alice, created.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetPostsPaginationAndSort(t *testing.T) {
	f := newDiscussion(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []uint

	for i := range 5 {
		published := base.Add(time.Duration(i) * time.Hour)
		post := f.post(t, f.alice, types.PostInput{Title: "Post", Published: &published})
		require.NoError(t, f.db.Model(&model.Post{}).Where("id = ?", post.ID).
			UpdateColumn("post_views", (i*7)%5).Error)
		ids = append(ids, post.ID)
	}

	hidden := false
	f.post(t, f.alice, types.PostInput{Title: "Private", IsPublic: &hidden})

	res, err := f.svc.GetPosts(bg(), 2, 2, types.SortRecent)
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.TotalCount)
	assert.Equal(t, 3, res.TotalPages)
	require.Len(t, res.Items, 2)
	assert.Equal(t, []uint{ids[2], ids[1]}, []uint{res.Items[0].ID, res.Items[1].ID})

	// 浏览量 0,2,4,1,3
	res, err = f.svc.GetPosts(bg(), 1, 3, types.SortPopular)
	require.NoError(t, err)
	assert.Equal(t, []uint{ids[2], ids[4], ids[1]}, []uint{res.Items[0].ID, res.Items[1].ID, res.Items[2].ID})

	res, err = f.svc.GetPosts(bg(), 0, 0, types.SortAll)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentPage)
	assert.Equal(t, types.DefaultPageSize, res.PageSize)
	assert.Equal(t, ids[4], res.Items[0].ID)

	res, err = f.svc.GetPosts(bg(), 1, 1000, types.SortAll)
	require.NoError(t, err)
	assert.Equal(t, types.MaxPageSize, res.PageSize)

	res, err = f.svc.GetPosts(bg(), 9, 2, types.SortRecent)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, int64(5), res.TotalCount)

	for _, page := range []int{math.MaxInt, math.MaxInt32, types.MaxPageNumber + 1} {
		res, err = f.svc.GetPosts(bg(), page, types.MaxPageSize, types.SortAll)
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.Equal(t, types.MaxPageNumber, res.CurrentPage)
	}

	mine, err := f.svc.GetUserPosts(bg(), "alice", true, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(6), mine.TotalCount)

	public, err := f.svc.GetUserPosts(bg(), "alice", false, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5), public.TotalCount)
}

func TestPostsByKeywordAndFeatured(t *testing.T) {
	f := newDiscussion(t)

	f.post(t, f.alice, types.PostInput{Title: "A", Keywords: []string{"Food"}, IsFeatured: true})
	f.post(t, f.alice, types.PostInput{Title: "B", Keywords: []string{"Food", "Retail"}})
	f.post(t, f.alice, types.PostInput{Title: "C", Keywords: []string{"Retail"}, IsFeatured: true})

	res, err := f.svc.GetPostsByKeyword(bg(), "food", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalCount)

	featured, err := f.svc.GetFeaturedPosts(bg(), 0)
	require.NoError(t, err)
	require.Len(t, featured, 2)
	assert.Equal(t, "C", featured[0].Title)

	featured, err = f.svc.GetFeaturedPosts(bg(), 1)
	require.NoError(t, err)
	assert.Len(t, featured, 1)
}

func TestLikePost(t *testing.T) {
	f := newDiscussion(t)
	post := f.post(t, f.alice, types.PostInput{Title: "Likeable"})

	liked, err := f.svc.LikePost(bg(), f.bob, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = f.svc.LikePost(bg(), f.bob, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	var author model.User
	require.NoError(t, f.db.First(&author, "id = ?", "alice").Error)
	assert.Equal(t, int64(1), author.LikeCount)

	got, err := f.svc.GetPostByID(bg(), post.ID)
	require.NoError(t, err)
	resp := service.ToPostResponse(got)
	assert.Equal(t, 1, resp.LikeCount)
	assert.Equal(t, []string{"bob"}, resp.LikedBy)

	removed, err := f.svc.UnlikePost(bg(), f.bob, post.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = f.svc.UnlikePost(bg(), f.bob, post.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, f.db.First(&author, "id = ?", "alice").Error)
	assert.Zero(t, author.LikeCount)

	_, err = f.svc.LikePost(bg(), f.bob, 404)
	assert.ErrorIs(t, err, service.ErrPostNotFound)
}

func TestComments(t *testing.T) {
	f := newDiscussion(t)
	post := f.post(t, f.alice, types.PostInput{Title: "Discuss"})
	quoted := f.post(t, f.bob, types.PostInput{Title: "Related"})

	c, err := f.svc.CommentPost(bg(), f.bob, post.ID, types.CommentInput{Content: " first ", ParentPostID: &quoted.ID})
	require.NoError(t, err)
	assert.Equal(t, "first", c.Content)

	missing := uint(404)
	_, err = f.svc.CommentPost(bg(), f.bob, post.ID, types.CommentInput{Content: "x", ParentPostID: &missing})
	require.ErrorIs(t, err, service.ErrPostNotFound)

	_, err = f.svc.CommentPost(bg(), f.bob, post.ID, types.CommentInput{Content: "  "})
	require.ErrorIs(t, err, service.ErrInvalidArgument)

	_, err = f.svc.UpdateComment(bg(), f.alice, c.ID, "edited by post author")
	require.ErrorIs(t, err, service.ErrForbidden)

	edited, err := f.svc.UpdateComment(bg(), f.bob, c.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Content)

	liked, err := f.svc.LikeComment(bg(), f.alice, c.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = f.svc.LikeComment(bg(), f.alice, c.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	comments, err := f.svc.GetComments(bg(), post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, 1, service.ToCommentResponse(&comments[0]).LikeCount)

	unliked, err := f.svc.UnlikeComment(bg(), f.alice, c.ID)
	require.NoError(t, err)
	assert.True(t, unliked)

	_, err = f.svc.DeleteComment(bg(), f.alice, c.ID)
	require.ErrorIs(t, err, service.ErrForbidden)

	ok, err := f.svc.DeleteComment(bg(), f.admin, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.DeleteComment(bg(), f.bob, c.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
