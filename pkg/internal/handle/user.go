package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/service"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
)

// CurrentUser 返回当前调用方.
//
//	@Summary		当前用户
//	@Tags			用户
//	@Produce		json
//	@Success		200	{object}	types.Principal
//	@Failure		401	{object}	map[string]string	"未登录"
//	@Router			/api/v1/me [get]
func CurrentUser(c *gin.Context) {
	p := principal(c)
	if !p.Authenticated() {
		writeError(c, service.ErrUnauthenticated)
		return
	}

	c.JSON(http.StatusOK, p)
}

// GetProfile 用户资料.
//
//	@Summary		用户资料
//	@Tags			用户
//	@Produce		json
//	@Param			id	path		string	true	"用户 ID"
//	@Success		200	{object}	types.ProfileResponse
//	@Failure		404	{object}	map[string]string	"不存在"
//	@Router			/api/v1/users/{id} [get]
func GetProfile(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	profile, err := svcs.Users.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile 修改资料，本人或管理员.
//
//	@Summary		修改资料
//	@Tags			用户
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"用户 ID"
//	@Param			profile	body		types.UpdateProfileRequest	true	"资料"
//	@Success		200		{object}	types.ProfileResponse
//	@Router			/api/v1/users/{id} [put]
func UpdateProfile(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	var req types.UpdateProfileRequest
	if !bind(c, &req) {
		return
	}

	id := c.Param("id")
	if _, err := svcs.Users.UpdateProfile(c.Request.Context(), principal(c), id, req); err != nil {
		writeError(c, err)
		return
	}

	profile, err := svcs.Users.GetProfile(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UserPosts 用户的帖子，本人与管理员可见非公开帖子.
//
//	@Summary		用户的帖子
//	@Tags			用户
//	@Produce		json
//	@Param			id			path		string	true	"用户 ID"
//	@Param			page		query		int		false	"页码"
//	@Param			page_size	query		int		false	"页大小"
//	@Success		200			{object}	map[string]any	"分页结果"
//	@Router			/api/v1/users/{id}/posts [get]
func UserPosts(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	q, ok := pageQuery(c)
	if !ok {
		return
	}

	id := c.Param("id")

	res, err := svcs.Discussions.GetUserPosts(c.Request.Context(), id, principal(c).CanModify(id), q.PageNumber, q.PageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, postPage(res))
}

// FollowUser 关注用户.
//
//	@Summary		关注
//	@Tags			用户
//	@Produce		json
//	@Param			id	path		string			true	"被关注的用户 ID"
//	@Success		200	{object}	map[string]any	"changed"
//	@Failure		400	{object}	map[string]string	"不能关注自己"
//	@Router			/api/v1/users/{id}/follow [post]
func FollowUser(c *gin.Context) {
	followToggle(c, func(svcs *service.Services, p *types.Principal, id string) (bool, error) {
		return svcs.Users.Follow(c.Request.Context(), p, id)
	})
}

// UnfollowUser 取消关注.
//
//	@Summary		取消关注
//	@Tags			用户
//	@Produce		json
//	@Param			id	path		string			true	"用户 ID"
//	@Success		200	{object}	map[string]any	"changed"
//	@Router			/api/v1/users/{id}/follow [delete]
func UnfollowUser(c *gin.Context) {
	followToggle(c, func(svcs *service.Services, p *types.Principal, id string) (bool, error) {
		return svcs.Users.Unfollow(c.Request.Context(), p, id)
	})
}

func followToggle(c *gin.Context, fn func(*service.Services, *types.Principal, string) (bool, error)) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id := c.Param("id")

	changed, err := fn(svcs, principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "changed": changed})
}

// Followers 关注该用户的人.
//
//	@Summary		粉丝列表
//	@Tags			用户
//	@Produce		json
//	@Param			id	path		string	true	"用户 ID"
//	@Success		200	{object}	map[string]any	"分页结果"
//	@Router			/api/v1/users/{id}/followers [get]
func Followers(c *gin.Context) {
	userPage(c, func(svcs *service.Services, id string, q types.PageQuery) (*types.PaginatedResult[model.User], error) {
		return svcs.Users.Followers(c.Request.Context(), id, q.PageNumber, q.PageSize)
	})
}

// Following 该用户关注的人.
//
//	@Summary		关注列表
//	@Tags			用户
//	@Produce		json
//	@Param			id	path		string	true	"用户 ID"
//	@Success		200	{object}	map[string]any	"分页结果"
//	@Router			/api/v1/users/{id}/following [get]
func Following(c *gin.Context) {
	userPage(c, func(svcs *service.Services, id string, q types.PageQuery) (*types.PaginatedResult[model.User], error) {
		return svcs.Users.Following(c.Request.Context(), id, q.PageNumber, q.PageSize)
	})
}

func userPage(c *gin.Context, fn func(*service.Services, string, types.PageQuery) (*types.PaginatedResult[model.User], error)) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	q, ok := pageQuery(c)
	if !ok {
		return
	}

	res, err := fn(svcs, c.Param("id"), q)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]types.UserSummary, 0, len(res.Items))
	for i := range res.Items {
		items = append(items, *service.ToUserSummary(&res.Items[i]))
	}

	c.JSON(http.StatusOK, types.NewPaginatedResult(items, res.CurrentPage, res.PageSize, res.TotalCount))
}

// SetProfilePicture 上传头像，头像以媒体形式保存.
//
//	@Summary		上传头像
//	@Tags			用户
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		string	true	"用户 ID"
//	@Param			file	formData	file	true	"图片"
//	@Success		200		{object}	types.ProfileResponse
//	@Router			/api/v1/users/{id}/picture [put]
func SetProfilePicture(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	f, closer, ok := formFile(c, "file")
	if !ok {
		return
	}
	defer closer.Close()

	id := c.Param("id")
	if _, err := svcs.Users.SetProfilePicture(c.Request.Context(), principal(c), id, f); err != nil {
		writeError(c, err)
		return
	}

	profile, err := svcs.Users.GetProfile(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
