package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/service"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	"github.com/yeisme/sharesmallbiz/pkg/log"
)

func postPage(res *types.PaginatedResult[model.Post]) *types.PaginatedResult[types.PostResponse] {
	return types.NewPaginatedResult(service.ToPostResponses(res.Items), res.CurrentPage, res.PageSize, res.TotalCount)
}

// ListDiscussions 公开帖子分页.
//
//	@Summary		帖子列表
//	@Tags			讨论
//	@Produce		json
//	@Param			page		query		int		false	"页码"
//	@Param			page_size	query		int		false	"页大小，最大 100"
//	@Param			sort		query		string	false	"Recent / Popular / All"
//	@Param			keyword		query		string	false	"按关键词过滤"
//	@Success		200			{object}	map[string]any	"分页结果"
//	@Router			/api/v1/discussions [get]
func ListDiscussions(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	q, ok := pageQuery(c)
	if !ok {
		return
	}

	var (
		res *types.PaginatedResult[model.Post]
		err error
	)

	if kw := c.Query("keyword"); kw != "" {
		res, err = svcs.Discussions.GetPostsByKeyword(c.Request.Context(), kw, q.PageNumber, q.PageSize)
	} else {
		res, err = svcs.Discussions.GetPosts(c.Request.Context(), q.PageNumber, q.PageSize, types.ParsePostSort(q.Sort))
	}

	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, postPage(res))
}

// FeaturedDiscussions 精选帖子.
//
//	@Summary		精选帖子
//	@Tags			讨论
//	@Produce		json
//	@Param			count	query		int	false	"条数"
//	@Success		200		{array}		types.PostResponse
//	@Router			/api/v1/discussions/featured [get]
func FeaturedDiscussions(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	posts, err := svcs.Discussions.GetFeaturedPosts(c.Request.Context(), queryInt(c, "count", service.DefaultFeaturedCount))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, service.ToPostResponses(posts))
}

// GetDiscussion 读取帖子并累加浏览数. 非公开帖子只对作者与管理员可见.
//
//	@Summary		帖子详情
//	@Tags			讨论
//	@Produce		json
//	@Param			id	path		int					true	"帖子 ID"
//	@Success		200	{object}	types.PostResponse	"帖子"
//	@Failure		404	{object}	map[string]string	"不存在"
//	@Router			/api/v1/discussions/{id} [get]
func GetDiscussion(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	post, err := svcs.Discussions.GetPostByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	writePost(c, post)
}

// GetDiscussionBySlug 按 slug 读取帖子.
//
//	@Summary		按 slug 读取帖子
//	@Tags			讨论
//	@Produce		json
//	@Param			slug	path		string				true	"slug"
//	@Success		200		{object}	types.PostResponse	"帖子"
//	@Router			/api/v1/discussions/slug/{slug} [get]
func GetDiscussionBySlug(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	post, err := svcs.Discussions.GetPostBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}

	writePost(c, post)
}

func writePost(c *gin.Context, post *model.Post) {
	if !post.IsPublic && !principal(c).CanModify(post.AuthorID) {
		writeError(c, service.ErrPostNotFound)
		return
	}

	c.JSON(http.StatusOK, service.ToPostResponse(post))
}

// CreateDiscussion 发布帖子.
//
//	@Summary		发布帖子
//	@Tags			讨论
//	@Accept			json
//	@Produce		json
//	@Param			post	body		types.PostInput		true	"帖子"
//	@Success		201		{object}	types.PostResponse	"帖子"
//	@Failure		401		{object}	map[string]string	"未登录"
//	@Router			/api/v1/discussions [post]
func CreateDiscussion(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	var in types.PostInput
	if !bind(c, &in) {
		return
	}

	post, err := svcs.Discussions.CreatePost(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, err)
		return
	}

	log.Logger().Info().Uint("post_id", post.ID).Str("slug", post.Slug).Msg("post created")
	c.JSON(http.StatusCreated, service.ToPostResponse(post))
}

// UpdateDiscussion 修改帖子，作者或管理员.
//
//	@Summary		修改帖子
//	@Tags			讨论
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"帖子 ID"
//	@Param			post	body		types.PostInput		true	"帖子"
//	@Success		200		{object}	types.PostResponse	"帖子"
//	@Failure		403		{object}	map[string]string	"无权限"
//	@Router			/api/v1/discussions/{id} [put]
func UpdateDiscussion(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var in types.PostInput
	if !bind(c, &in) {
		return
	}

	post, err := svcs.Discussions.UpdatePost(c.Request.Context(), principal(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, service.ToPostResponse(post))
}

// DeleteDiscussion 删除帖子，作者或管理员.
//
//	@Summary		删除帖子
//	@Tags			讨论
//	@Produce		json
//	@Param			id	path		int					true	"帖子 ID"
//	@Success		200	{object}	map[string]any		"已删除"
//	@Failure		404	{object}	map[string]string	"不存在"
//	@Router			/api/v1/discussions/{id} [delete]
func DeleteDiscussion(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	deleted, err := svcs.Discussions.DeletePost(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	if !deleted {
		writeError(c, service.ErrPostNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true, "id": id})
}

// LikeDiscussion 点赞，重复点赞 changed 为 false.
//
//	@Summary		点赞帖子
//	@Tags			讨论
//	@Produce		json
//	@Param			id	path		int				true	"帖子 ID"
//	@Success		200	{object}	map[string]any	"changed"
//	@Router			/api/v1/discussions/{id}/like [post]
func LikeDiscussion(c *gin.Context) {
	toggle(c, "id", func(c *gin.Context, id uint, s *service.Services) (bool, error) {
		return s.Discussions.LikePost(c.Request.Context(), principal(c), id)
	})
}

// UnlikeDiscussion 取消点赞.
//
//	@Summary		取消点赞帖子
//	@Tags			讨论
//	@Produce		json
//	@Param			id	path		int				true	"帖子 ID"
//	@Success		200	{object}	map[string]any	"changed"
//	@Router			/api/v1/discussions/{id}/like [delete]
func UnlikeDiscussion(c *gin.Context) {
	toggle(c, "id", func(c *gin.Context, id uint, s *service.Services) (bool, error) {
		return s.Discussions.UnlikePost(c.Request.Context(), principal(c), id)
	})
}

// ListComments 帖子的评论.
//
//	@Summary		评论列表
//	@Tags			讨论
//	@Produce		json
//	@Param			id	path		int	true	"帖子 ID"
//	@Success		200	{array}		types.CommentResponse
//	@Router			/api/v1/discussions/{id}/comments [get]
func ListComments(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	comments, err := svcs.Discussions.GetComments(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]types.CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, service.ToCommentResponse(&comments[i]))
	}

	c.JSON(http.StatusOK, out)
}

// CreateComment 发表评论.
//
//	@Summary		发表评论
//	@Tags			讨论
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"帖子 ID"
//	@Param			comment	body		types.CommentInput		true	"评论"
//	@Success		201		{object}	types.CommentResponse	"评论"
//	@Router			/api/v1/discussions/{id}/comments [post]
func CreateComment(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var in types.CommentInput
	if !bind(c, &in) {
		return
	}

	comment, err := svcs.Discussions.CommentPost(c.Request.Context(), principal(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, service.ToCommentResponse(comment))
}

type commentUpdate struct {
	Content string `json:"content" rule:"required,max=10000"`
}

// UpdateComment 修改评论，作者或管理员.
//
//	@Summary		修改评论
//	@Tags			讨论
//	@Accept			json
//	@Produce		json
//	@Param			commentId	path		int						true	"评论 ID"
//	@Param			comment		body		map[string]string		true	"{\"content\": \"...\"}"
//	@Success		200			{object}	types.CommentResponse	"评论"
//	@Router			/api/v1/comments/{commentId} [put]
func UpdateComment(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "commentId")
	if !ok {
		return
	}

	var in commentUpdate
	if !bind(c, &in) {
		return
	}

	comment, err := svcs.Discussions.UpdateComment(c.Request.Context(), principal(c), id, in.Content)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, service.ToCommentResponse(comment))
}

// DeleteComment 删除评论.
//
//	@Summary		删除评论
//	@Tags			讨论
//	@Produce		json
//	@Param			commentId	path		int				true	"评论 ID"
//	@Success		200			{object}	map[string]any	"已删除"
//	@Router			/api/v1/comments/{commentId} [delete]
func DeleteComment(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "commentId")
	if !ok {
		return
	}

	deleted, err := svcs.Discussions.DeleteComment(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	if !deleted {
		writeError(c, service.ErrCommentNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true, "id": id})
}

// LikeComment 点赞评论.
//
//	@Summary		点赞评论
//	@Tags			讨论
//	@Produce		json
//	@Param			commentId	path		int				true	"评论 ID"
//	@Success		200			{object}	map[string]any	"changed"
//	@Router			/api/v1/comments/{commentId}/like [post]
func LikeComment(c *gin.Context) {
	toggle(c, "commentId", func(c *gin.Context, id uint, s *service.Services) (bool, error) {
		return s.Discussions.LikeComment(c.Request.Context(), principal(c), id)
	})
}

// UnlikeComment 取消点赞评论.
//
//	@Summary		取消点赞评论
//	@Tags			讨论
//	@Produce		json
//	@Param			commentId	path		int				true	"评论 ID"
//	@Success		200			{object}	map[string]any	"changed"
//	@Router			/api/v1/comments/{commentId}/like [delete]
func UnlikeComment(c *gin.Context) {
	toggle(c, "commentId", func(c *gin.Context, id uint, s *service.Services) (bool, error) {
		return s.Discussions.UnlikeComment(c.Request.Context(), principal(c), id)
	})
}

// toggle 点赞类幂等操作的公共流程.
func toggle(c *gin.Context, param string, fn func(*gin.Context, uint, *service.Services) (bool, error)) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id, ok := paramID(c, param)
	if !ok {
		return
	}

	changed, err := fn(c, id, svcs)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "changed": changed})
}
