package handle

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/sharesmallbiz/pkg/internal/service"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage/media"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	"github.com/yeisme/sharesmallbiz/pkg/log"
)

// UploadMedia 上传文件并登记媒体.
//
//	@Summary		上传媒体文件
//	@Description	multipart 上传，文件字段名为 file；大小、扩展名与 Content-Type 均需通过校验
//	@Tags			媒体
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file				formData	file				true	"上传的文件"
//	@Param			file_name			formData	string				false	"自定义文件名"
//	@Param			storage_provider	formData	string				false	"LocalStorage / AwsS3"
//	@Param			description			formData	string				false	"描述"
//	@Param			attribution			formData	string				false	"署名"
//	@Success		201					{object}	types.MediaResponse	"媒体"
//	@Failure		400					{object}	map[string]string	"文件未通过校验"
//	@Failure		401					{object}	map[string]string	"未登录"
//	@Router			/api/v1/media [post]
func UploadMedia(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	var req types.UploadMediaRequest
	if !bind(c, &req) {
		return
	}

	f, closer, ok := formFile(c, "file")
	if !ok {
		return
	}
	defer closer.Close()

	m, err := svcs.Media.Upload(c.Request.Context(), principal(c), f, req)
	if err != nil {
		writeError(c, err)
		return
	}

	log.Logger().Info().Uint("media_id", m.ID).Str("provider", m.StorageProvider.String()).
		Int64("size", m.Size()).Msg("media uploaded")
	c.JSON(http.StatusCreated, service.ToMediaResponse(m))
}

// RegisterExternalMedia 登记外部链接.
//
//	@Summary		登记外部链接
//	@Tags			媒体
//	@Accept			json
//	@Produce		json
//	@Param			media	body		types.ExternalMediaRequest	true	"外部链接"
//	@Success		201		{object}	types.MediaResponse			"媒体"
//	@Failure		400		{object}	map[string]string			"请求参数错误"
//	@Router			/api/v1/media/external [post]
func RegisterExternalMedia(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	var req types.ExternalMediaRequest
	if !bind(c, &req) {
		return
	}

	m, err := svcs.Media.RegisterExternal(c.Request.Context(), principal(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, service.ToMediaResponse(m))
}

// CreateYouTubeMedia 登记 YouTube 视频，API 可用时补充元数据.
//
//	@Summary		登记 YouTube 视频
//	@Tags			媒体
//	@Accept			json
//	@Produce		json
//	@Param			media	body		types.YouTubeMediaRequest	true	"视频地址"
//	@Success		201		{object}	types.MediaResponse			"媒体"
//	@Failure		400		{object}	map[string]string			"无法识别的视频地址"
//	@Router			/api/v1/media/youtube [post]
func CreateYouTubeMedia(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	var req types.YouTubeMediaRequest
	if !bind(c, &req) {
		return
	}

	m, err := svcs.YouTube.CreateYouTubeMedia(c.Request.Context(), principal(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, service.ToMediaResponse(m))
}

// ImportUnsplashMedia 导入 Unsplash 图片.
//
//	@Summary		导入 Unsplash 图片
//	@Tags			媒体
//	@Accept			json
//	@Produce		json
//	@Param			media	body		types.UnsplashMediaRequest	true	"图片地址或 ID"
//	@Success		201		{object}	types.MediaResponse			"媒体"
//	@Failure		503		{object}	map[string]string			"未配置 Unsplash"
//	@Router			/api/v1/media/unsplash [post]
func ImportUnsplashMedia(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	if svcs.Unsplash == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "unsplash is not configured"})
		return
	}

	var req types.UnsplashMediaRequest
	if !bind(c, &req) {
		return
	}

	m, err := svcs.Unsplash.ImportPhoto(c.Request.Context(), principal(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, service.ToMediaResponse(m))
}

// SearchMedia 搜索媒体.
//
//	@Summary		搜索媒体
//	@Tags			媒体
//	@Produce		json
//	@Param			q					query		string	false	"文件名、描述、署名子串"
//	@Param			media_type			query		string	false	"Image / Video / Audio / Document / Other"
//	@Param			storage_provider	query		string	false	"存储提供者"
//	@Param			user_id				query		string	false	"上传者"
//	@Param			page				query		int		false	"页码"
//	@Param			page_size			query		int		false	"页大小"
//	@Success		200					{object}	map[string]any	"分页结果"
//	@Router			/api/v1/media [get]
func SearchMedia(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	var req types.MediaSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := svcs.Media.Search(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NewPaginatedResult(service.ToMediaResponses(res.Items), res.CurrentPage, res.PageSize, res.TotalCount))
}

// GetMedia 返回媒体信息.
//
//	@Summary		获取媒体信息
//	@Tags			媒体
//	@Produce		json
//	@Param			id	path		int					true	"媒体 ID"
//	@Success		200	{object}	types.MediaResponse	"媒体"
//	@Failure		404	{object}	map[string]string	"不存在"
//	@Router			/api/v1/media/{id} [get]
func GetMedia(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	m, err := svcs.Media.GetMedia(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, service.ToMediaResponse(m))
}

// UpdateMedia 修改媒体信息；url 非空时切换为外部链接或 YouTube.
//
//	@Summary		更新媒体
//	@Tags			媒体
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"媒体 ID"
//	@Param			media	body		types.UpdateMediaRequest	true	"修改项"
//	@Success		200		{object}	types.MediaResponse			"媒体"
//	@Failure		409		{object}	map[string]string			"并发修改冲突"
//	@Router			/api/v1/media/{id} [put]
func UpdateMedia(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req types.UpdateMediaRequest
	if !bind(c, &req) {
		return
	}

	m, err := svcs.Media.Update(c.Request.Context(), principal(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, service.ToMediaResponse(m))
}

type switchLinkRequest struct {
	URL string `json:"url" rule:"required,max=2048"`
}

// SwitchMediaLink 把媒体改为指向新链接，原先存储的字节会被删除.
//
//	@Summary		切换为链接
//	@Tags			媒体
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"媒体 ID"
//	@Param			link	body		map[string]string	true	"{\"url\": \"...\"}"
//	@Success		200		{object}	types.MediaResponse	"媒体"
//	@Router			/api/v1/media/{id}/link [put]
func SwitchMediaLink(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req switchLinkRequest
	if !bind(c, &req) {
		return
	}

	m, err := svcs.Media.SwitchLink(c.Request.Context(), principal(c), id, req.URL)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, service.ToMediaResponse(m))
}

// DeleteMedia 删除媒体. 存储删除失败时行被标记为待清理，返回 500 与 cleanup_pending.
//
//	@Summary		删除媒体
//	@Tags			媒体
//	@Produce		json
//	@Param			id	path		int					true	"媒体 ID"
//	@Success		200	{object}	map[string]any		"已删除"
//	@Failure		404	{object}	map[string]string	"不存在"
//	@Failure		500	{object}	map[string]any		"存储删除失败，已转入延迟清理"
//	@Router			/api/v1/media/{id} [delete]
func DeleteMedia(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	deleted, err := svcs.Media.Delete(c.Request.Context(), principal(c), id)
	if err != nil {
		if status := errorStatus(err); status != http.StatusInternalServerError && status != http.StatusBadRequest {
			writeError(c, err)
			return
		}

		log.Ctx(c.Request.Context()).Warn().Err(err).Uint("media_id", id).Msg("media delete deferred")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "cleanup_pending": true})

		return
	}

	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrMediaNotFound.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true, "id": id})
}

// ServeMedia 输出媒体字节；外部链接与 YouTube 重定向到原地址.
//
//	@Summary		媒体内容
//	@Tags			媒体
//	@Produce		octet-stream
//	@Param			id	path	int		true	"媒体 ID"
//	@Success		200	{file}	file	"文件流"
//	@Success		302	"外部链接"
//	@Failure		404	{object}	map[string]string	"不存在"
//	@Router			/Media/{id} [get]
func ServeMedia(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	m, err := svcs.Media.GetMedia(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	if m.StorageProvider.IsLink() && m.URL != "" {
		c.Redirect(http.StatusFound, m.URL)
		return
	}

	st, err := svcs.Media.Store().GetFileStream(c.Request.Context(), m)
	if err != nil {
		writeError(c, err)
		return
	}

	writeStream(c, st, m.FileName, m.Size())
}

// ServeThumbnail 输出缩略图，w、h 缺省时使用配置值.
//
//	@Summary		媒体缩略图
//	@Tags			媒体
//	@Produce		octet-stream
//	@Param			id	path	int		true	"媒体 ID"
//	@Param			w	query	int		false	"宽"
//	@Param			h	query	int		false	"高"
//	@Success		200	{file}	file	"缩略图或占位图标"
//	@Router			/Media/Thumbnail/{id} [get]
func ServeThumbnail(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	w, h := queryInt(c, "w", 0), queryInt(c, "h", 0)
	if w < 0 || h < 0 || w > maxThumbnailSide || h > maxThumbnailSide {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thumbnail size"})
		return
	}

	m, st, err := svcs.Media.OpenThumbnail(c.Request.Context(), id, w, h)
	if err != nil {
		writeError(c, err)
		return
	}

	writeStream(c, st, "thumb_"+m.FileName, -1)
}

const maxThumbnailSide = 2048

var fileNameEscaper = strings.NewReplacer("\\", "_", "\"", "_", ";", "_", "\n", "_", "\r", "_")

// escapeFileName 替换 Content-Disposition 中会破坏头部的字符.
func escapeFileName(s string) string {
	return fileNameEscaper.Replace(s)
}

func writeStream(c *gin.Context, st *media.Stream, name string, size int64) {
	defer st.Close()

	if st.Placeholder {
		c.Header("Cache-Control", "no-cache")
	} else {
		c.Header("Cache-Control", "public, max-age=86400")
		c.Header("Content-Disposition", "inline; filename=\""+escapeFileName(name)+"\"")
	}

	if size > 0 && !st.Placeholder {
		c.Header("Content-Length", strconv.FormatInt(size, 10))
	}

	ct := st.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", ct)

	if _, err := io.Copy(c.Writer, st); err != nil {
		log.Logger().Warn().Err(err).Str("file", name).Msg("write media stream failed")
	}
}

// formFile 读取 multipart 文件字段.
func formFile(c *gin.Context, field string) (*media.File, io.Closer, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		log.Logger().Warn().Err(err).Msg("missing upload file")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no file provided"})

		return nil, nil, false
	}

	f, closer, err := media.FromMultipart(fh)
	if err != nil {
		writeError(c, err)
		return nil, nil, false
	}

	return f, closer, true
}
