package service

import (
	"html"

	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	"github.com/yeisme/sharesmallbiz/pkg/textutil"
)

// ToMediaResponse 生成媒体视图.
func ToMediaResponse(m *model.Media) types.MediaResponse {
	resp := types.MediaResponse{
		ID:              m.ID,
		FileName:        m.FileName,
		MediaType:       m.MediaType.String(),
		StorageProvider: m.StorageProvider.String(),
		URL:             MediaURL(m),
		ThumbnailURL:    ThumbnailURL(m),
		ContentType:     m.ContentType,
		FileSize:        m.Size(),
		Description:     m.Description,
		Attribution:     m.Attribution,
		UserID:          m.UserID,
		PostID:          m.PostID,
		CommentID:       m.CommentID,
		CleanupPending:  m.CleanupPending,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}

	if len(m.StorageMetadata) > 0 {
		var meta map[string]any
		if err := m.Metadata(&meta); err == nil {
			resp.Metadata = meta
		}
	}

	return resp
}

// ToMediaResponses 批量转换.
func ToMediaResponses(ms []model.Media) []types.MediaResponse {
	out := make([]types.MediaResponse, 0, len(ms))
	for i := range ms {
		out = append(out, ToMediaResponse(&ms[i]))
	}

	return out
}

// ToUserSummary 作者等嵌入信息，u 为 nil 时返回 nil.
func ToUserSummary(u *model.User) *types.UserSummary {
	if u == nil {
		return nil
	}

	return &types.UserSummary{ID: u.ID, Name: u.Name(), ProfilePictureURL: u.ProfilePictureURL}
}

// ToCommentResponse 生成评论视图，内容先转义再换行.
func ToCommentResponse(c *model.PostComment) types.CommentResponse {
	return types.CommentResponse{
		ID:           c.ID,
		PostID:       c.PostID,
		Author:       ToUserSummary(c.Author),
		ParentPostID: c.ParentPostID,
		Content:      c.Content,
		ContentHTML:  toHTML(c.Content),
		LikeCount:    len(c.Likes),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// ToPostResponse 生成帖子视图. 列表查询未加载评论内容时只返回评论数.
func ToPostResponse(p *model.Post) types.PostResponse {
	resp := types.PostResponse{
		ID:           p.ID,
		Title:        p.Title,
		Slug:         p.Slug,
		Content:      p.Content,
		ContentHTML:  toHTML(p.Content),
		Description:  p.Description,
		Cover:        p.Cover,
		IsFeatured:   p.IsFeatured,
		IsPublic:     p.IsPublic,
		PostType:     string(p.PostType),
		PostViews:    p.PostViews,
		Rating:       p.Rating,
		Published:    p.Published,
		Author:       ToUserSummary(p.Author),
		Target:       ToUserSummary(p.Target),
		Keywords:     make([]string, 0, len(p.Keywords)),
		LikeCount:    len(p.Likes),
		CommentCount: len(p.Comments),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}

	for _, k := range p.Keywords {
		resp.Keywords = append(resp.Keywords, k.Name)
	}

	for _, l := range p.Likes {
		if l.User != nil {
			resp.LikedBy = append(resp.LikedBy, l.User.Name())
		}
	}

	for i := range p.Comments {
		if p.Comments[i].Content == "" {
			continue
		}

		resp.Comments = append(resp.Comments, ToCommentResponse(&p.Comments[i]))
	}

	return resp
}

// ToPostResponses 批量转换.
func ToPostResponses(ps []model.Post) []types.PostResponse {
	out := make([]types.PostResponse, 0, len(ps))
	for i := range ps {
		out = append(out, ToPostResponse(&ps[i]))
	}

	return out
}

func toHTML(text string) string {
	return textutil.NewlineToBr(html.EscapeString(text))
}
