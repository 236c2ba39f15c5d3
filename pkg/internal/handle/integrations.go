package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SearchYouTube 搜索 YouTube 视频.
//
//	@Summary		搜索 YouTube
//	@Tags			外部服务
//	@Produce		json
//	@Param			q		query		string	true	"关键词"
//	@Param			limit	query		int		false	"条数，最多 50"
//	@Success		200		{array}		youtube.Video
//	@Failure		503		{object}	map[string]string	"未配置 API Key 或熔断"
//	@Router			/api/v1/youtube/search [get]
func SearchYouTube(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	videos, err := svcs.YouTube.SearchVideos(c.Request.Context(), c.Query("q"), queryInt(c, "limit", 10))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, videos)
}

// YouTubeChannel 频道信息与最近上传.
//
//	@Summary		YouTube 频道
//	@Tags			外部服务
//	@Produce		json
//	@Param			channel	query		string	true	"频道地址、@用户名或频道 ID"
//	@Param			limit	query		int		false	"条数"
//	@Success		200		{object}	map[string]any
//	@Router			/api/v1/youtube/channel [get]
func YouTubeChannel(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	ch, videos, err := svcs.YouTube.ChannelVideos(c.Request.Context(), c.Query("channel"), queryInt(c, "limit", 10))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"channel": ch, "videos": videos})
}

// YouTubeVideo 视频详情.
//
//	@Summary		YouTube 视频详情
//	@Tags			外部服务
//	@Produce		json
//	@Param			url	query		string	true	"视频地址或 ID"
//	@Success		200	{object}	map[string]any
//	@Router			/api/v1/youtube/video [get]
func YouTubeVideo(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	v, formatted, err := svcs.YouTube.VideoInfo(c.Request.Context(), c.Query("url"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"video": v, "formatted": formatted})
}

// SearchUnsplash 搜索 Unsplash 图片.
//
//	@Summary		搜索 Unsplash
//	@Tags			外部服务
//	@Produce		json
//	@Param			q			query		string	true	"关键词"
//	@Param			page		query		int		false	"页码"
//	@Param			per_page	query		int		false	"每页条数"
//	@Success		200			{object}	unsplash.SearchResult
//	@Router			/api/v1/unsplash/search [get]
func SearchUnsplash(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	if svcs.Unsplash == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "unsplash is not configured"})
		return
	}

	res, err := svcs.Unsplash.SearchPhotos(c.Request.Context(), c.Query("q"), queryInt(c, "page", 1), queryInt(c, "per_page", 10))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// UnsplashUserPhotos 摄影师的图片.
//
//	@Summary		Unsplash 摄影师图片
//	@Tags			外部服务
//	@Produce		json
//	@Param			username	path		string	true	"用户名"
//	@Success		200			{array}		unsplash.Photo
//	@Router			/api/v1/unsplash/users/{username}/photos [get]
func UnsplashUserPhotos(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	if svcs.Unsplash == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "unsplash is not configured"})
		return
	}

	photos, err := svcs.Unsplash.UserPhotos(c.Request.Context(), c.Param("username"), queryInt(c, "page", 1), queryInt(c, "per_page", 10))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, photos)
}
