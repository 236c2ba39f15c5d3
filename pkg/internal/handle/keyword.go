package handle

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	"github.com/yeisme/sharesmallbiz/pkg/log"
)

// maxCSVSize 导入文件上限.
const maxCSVSize = 4 << 20

// ListKeywords 全部关键词.
//
//	@Summary		关键词列表
//	@Tags			关键词
//	@Produce		json
//	@Success		200	{array}	model.Keyword
//	@Router			/api/v1/keywords [get]
func ListKeywords(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	kws, err := svcs.Keywords.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, kws)
}

// KeywordNames 关键词名称，走缓存.
//
//	@Summary		关键词名称
//	@Tags			关键词
//	@Produce		json
//	@Success		200	{array}	string
//	@Router			/api/v1/keywords/names [get]
func KeywordNames(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	names, err := svcs.Keywords.Names(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, names)
}

// GetKeyword 读取关键词.
//
//	@Summary		关键词详情
//	@Tags			关键词
//	@Produce		json
//	@Param			id	path		int	true	"关键词 ID"
//	@Success		200	{object}	model.Keyword
//	@Router			/api/v1/keywords/{id} [get]
func GetKeyword(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	kw, err := svcs.Keywords.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, kw)
}

// CreateKeyword 新建关键词（管理员）.
//
//	@Summary		新建关键词
//	@Tags			关键词
//	@Accept			json
//	@Produce		json
//	@Param			keyword	body		types.KeywordInput	true	"关键词"
//	@Success		201		{object}	model.Keyword
//	@Failure		409		{object}	map[string]string	"名称已存在"
//	@Router			/api/v1/keywords [post]
func CreateKeyword(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	var in types.KeywordInput
	if !bind(c, &in) {
		return
	}

	kw, err := svcs.Keywords.Create(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, kw)
}

// UpdateKeyword 修改关键词（管理员）.
//
//	@Summary		修改关键词
//	@Tags			关键词
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"关键词 ID"
//	@Param			keyword	body		types.KeywordInput	true	"关键词"
//	@Success		200		{object}	model.Keyword
//	@Router			/api/v1/keywords/{id} [put]
func UpdateKeyword(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var in types.KeywordInput
	if !bind(c, &in) {
		return
	}

	kw, err := svcs.Keywords.Update(c.Request.Context(), principal(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, kw)
}

// DeleteKeyword 删除关键词（管理员）.
//
//	@Summary		删除关键词
//	@Tags			关键词
//	@Produce		json
//	@Param			id	path		int				true	"关键词 ID"
//	@Success		200	{object}	map[string]any	"已删除"
//	@Router			/api/v1/keywords/{id} [delete]
func DeleteKeyword(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	deleted, err := svcs.Keywords.Delete(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "keyword not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true, "id": id})
}

// ImportKeywords 从 CSV 导入关键词（name,description），支持 multipart 字段 file 或原始请求体.
//
//	@Summary		导入关键词
//	@Tags			关键词
//	@Accept			multipart/form-data
//	@Accept			text/csv
//	@Produce		json
//	@Param			file	formData	file	false	"CSV 文件"
//	@Success		200		{object}	types.ImportResult
//	@Router			/api/v1/keywords/import [post]
func ImportKeywords(c *gin.Context) {
	svcs, ok := services(c)
	if !ok {
		return
	}

	var src io.Reader = http.MaxBytesReader(c.Writer, c.Request.Body, maxCSVSize)

	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			writeError(c, err)
			return
		}
		defer f.Close()

		src = io.LimitReader(f, maxCSVSize)
	}

	res, err := svcs.Keywords.ImportCSV(c.Request.Context(), principal(c), src)
	if err != nil {
		writeError(c, err)
		return
	}

	log.Logger().Info().Int("created", res.Created).Int("skipped", res.Skipped).Int("errors", len(res.Errors)).
		Msg("keywords imported")
	c.JSON(http.StatusOK, res)
}
