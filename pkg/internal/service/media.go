package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/youtube"
	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage/media"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	nlog "github.com/yeisme/sharesmallbiz/pkg/log"
	"github.com/yeisme/sharesmallbiz/pkg/metrics"
	"github.com/yeisme/sharesmallbiz/pkg/queue"
)

const maxCleanupErrorLen = 1024

// MediaService 媒体库聚合：数据库行与存储字节的一致性由这里维护.
type MediaService struct {
	db          *gorm.DB
	store       *media.Store
	events      *queue.Events
	maxAttempts int
}

// NewMediaService 创建媒体服务，events 可以为 nil.
func NewMediaService(db *gorm.DB, store *media.Store, events *queue.Events) *MediaService {
	attempts := configs.DefaultMediaCleanupAttempts
	if cfg := store.Config(); cfg != nil && cfg.MaxCleanupAttempts > 0 {
		attempts = cfg.MaxCleanupAttempts
	}

	return &MediaService{db: db, store: store, events: events, maxAttempts: attempts}
}

// Store 返回底层存储.
func (s *MediaService) Store() *media.Store { return s.store }

// MediaURL 返回对外地址：外部链接与 YouTube 直接使用原地址，其余走 /Media/{id}.
func MediaURL(m *model.Media) string {
	if m.StorageProvider.IsLink() {
		return m.URL
	}

	return "/Media/" + strconv.FormatUint(uint64(m.ID), 10)
}

// ThumbnailURL 返回缩略图地址，规则同 MediaURL.
func ThumbnailURL(m *model.Media) string {
	if m.StorageProvider.IsLink() {
		return m.URL
	}

	return "/Media/Thumbnail/" + strconv.FormatUint(uint64(m.ID), 10)
}

// CreateMedia 写入媒体行.
func (s *MediaService) CreateMedia(ctx context.Context, m *model.Media) error {
	if !m.MediaType.Valid() {
		return fmt.Errorf("%w: media type %q", ErrInvalidArgument, m.MediaType)
	}

	if !m.StorageProvider.Valid() {
		return fmt.Errorf("%w: storage provider %q", ErrInvalidArgument, m.StorageProvider)
	}

	// 截断到毫秒，保证 updated_at 在各数据库间往返后仍可用于并发比较
	now := time.Now().UTC().Truncate(time.Millisecond)
	m.CreatedAt, m.UpdatedAt = now, now

	if m.ModifiedID == "" {
		m.ModifiedID = m.CreatedID
	}

	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create media: %w", err)
	}

	s.events.MediaCreated(ctx, queue.MediaCreatedPayload{Media: mediaRef(m), Size: m.Size()})

	return nil
}

// GetMedia 按 ID 读取.
func (s *MediaService) GetMedia(ctx context.Context, id uint) (*model.Media, error) {
	var m model.Media
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFound(err, ErrMediaNotFound)
	}

	return &m, nil
}

// UpdateMedia 保存可编辑字段；updated_at 与读取时不一致或出现任何错误都返回 false.
func (s *MediaService) UpdateMedia(ctx context.Context, m *model.Media) bool {
	if err := s.save(ctx, m); err != nil {
		nlog.Logger().Warn().Err(err).Uint("media_id", m.ID).Msg("update media failed")
		return false
	}

	return true
}

// save 以 updated_at 作乐观锁写回全部可编辑字段.
func (s *MediaService) save(ctx context.Context, m *model.Media) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	if !now.After(m.UpdatedAt) {
		now = m.UpdatedAt.Add(time.Millisecond)
	}

	res := s.db.WithContext(ctx).Model(&model.Media{}).
		Where("id = ? AND updated_at = ?", m.ID, m.UpdatedAt).
		Updates(map[string]any{
			"file_name":        m.FileName,
			"media_type":       m.MediaType,
			"storage_provider": m.StorageProvider,
			"url":              m.URL,
			"content_type":     m.ContentType,
			"file_size":        m.FileSize,
			"description":      m.Description,
			"attribution":      m.Attribution,
			"storage_metadata": m.StorageMetadata,
			"post_id":          m.PostID,
			"comment_id":       m.CommentID,
			"modified_id":      m.ModifiedID,
			"updated_at":       now,
		})
	if res.Error != nil {
		return fmt.Errorf("update media %d: %w", m.ID, res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: media %d was modified concurrently", ErrConflict, m.ID)
	}

	m.UpdatedAt = now

	return nil
}

// Update 按请求修改媒体信息，URL 非空时切换为外部链接或 YouTube.
func (s *MediaService) Update(ctx context.Context, p *types.Principal, id uint, req types.UpdateMediaRequest) (*model.Media, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}

	m, err := s.GetMedia(ctx, id)
	if err != nil {
		return nil, err
	}

	if !p.CanModify(m.UserID) {
		return nil, ErrForbidden
	}

	if req.URL != nil && strings.TrimSpace(*req.URL) != "" {
		if err := s.switchLink(ctx, m, strings.TrimSpace(*req.URL)); err != nil {
			return nil, err
		}
	}

	if req.FileName != nil {
		m.FileName = media.SanitizeFileName(*req.FileName)
	}

	if req.Description != nil {
		m.Description = *req.Description
	}

	if req.Attribution != nil {
		m.Attribution = *req.Attribution
	}

	m.ModifiedID = p.UserID

	if err := s.save(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

// DeleteMedia 先删字节再删行. 行不存在返回 (false, nil)；
// 存储删除失败时行被标记为待清理并发布清理请求，返回错误.
func (s *MediaService) DeleteMedia(ctx context.Context, id uint) (bool, error) {
	m, err := s.GetMedia(ctx, id)
	if errors.Is(err, ErrMediaNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	err = s.store.DeleteFile(ctx, m)
	metrics.ObserveMedia("delete", m.StorageProvider.String(), err)

	if err != nil {
		s.markCleanupPending(ctx, m, err)
		return false, fmt.Errorf("delete media %d from %s: %w", m.ID, m.StorageProvider, err)
	}

	res := s.db.WithContext(ctx).Delete(&model.Media{}, m.ID)
	if res.Error != nil {
		return false, fmt.Errorf("delete media %d: %w", m.ID, res.Error)
	}

	if res.RowsAffected == 0 {
		return false, nil
	}

	s.events.MediaDeleted(ctx, queue.MediaDeletedPayload{Media: mediaRef(m)})

	return true, nil
}

// Delete 校验权限后删除.
func (s *MediaService) Delete(ctx context.Context, p *types.Principal, id uint) (bool, error) {
	if !p.Authenticated() {
		return false, ErrUnauthenticated
	}

	m, err := s.GetMedia(ctx, id)
	if errors.Is(err, ErrMediaNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	if !p.CanModify(m.UserID) {
		return false, ErrForbidden
	}

	return s.DeleteMedia(ctx, id)
}

// markCleanupPending 记录失败原因，行保留到延迟清理成功为止.
func (s *MediaService) markCleanupPending(ctx context.Context, m *model.Media, cause error) {
	msg := truncate(cause.Error(), maxCleanupErrorLen)

	err := s.db.WithContext(ctx).Model(&model.Media{}).Where("id = ?", m.ID).Updates(map[string]any{
		"cleanup_pending":  true,
		"cleanup_attempts": gorm.Expr("cleanup_attempts + 1"),
		"cleanup_error":    msg,
	}).Error
	if err != nil {
		nlog.Ctx(ctx).Error().Err(err).Uint("media_id", m.ID).Msg("mark media cleanup pending failed")
		return
	}

	m.CleanupPending = true
	m.CleanupAttempts++
	m.CleanupError = msg

	nlog.Ctx(ctx).Warn().Err(cause).Uint("media_id", m.ID).
		Str("provider", m.StorageProvider.String()).Msg("media storage delete failed, cleanup deferred")

	s.events.MediaCleanupRequested(ctx, queue.MediaCleanupRequestedPayload{
		Media:    mediaRef(m),
		Attempts: m.CleanupAttempts,
		Error:    msg,
	})
}

// CleanupMedia 重试一条待清理媒体. 行已不存在视为完成；行未标记待清理时不做任何事.
func (s *MediaService) CleanupMedia(ctx context.Context, id uint) (bool, error) {
	m, err := s.GetMedia(ctx, id)
	if errors.Is(err, ErrMediaNotFound) {
		return true, nil
	}

	if err != nil {
		return false, err
	}

	if !m.CleanupPending {
		return false, nil
	}

	return s.retryCleanup(ctx, m)
}

func (s *MediaService) retryCleanup(ctx context.Context, m *model.Media) (bool, error) {
	err := s.store.DeleteFile(ctx, m)
	metrics.ObserveMedia("cleanup", m.StorageProvider.String(), err)

	if err != nil {
		upd := s.db.WithContext(ctx).Model(&model.Media{}).Where("id = ?", m.ID).Updates(map[string]any{
			"cleanup_attempts": gorm.Expr("cleanup_attempts + 1"),
			"cleanup_error":    truncate(err.Error(), maxCleanupErrorLen),
		})
		if upd.Error != nil {
			return false, fmt.Errorf("record cleanup attempt for media %d: %w", m.ID, upd.Error)
		}

		m.CleanupAttempts++

		return false, err
	}

	if err := s.db.WithContext(ctx).Delete(&model.Media{}, m.ID).Error; err != nil {
		return false, fmt.Errorf("delete media %d: %w", m.ID, err)
	}

	s.events.MediaDeleted(ctx, queue.MediaDeletedPayload{Media: mediaRef(m), Deferred: true})

	return true, nil
}

// ProcessPendingCleanup 处理一批待清理媒体，超过最大重试次数的行保留并计入 GaveUp.
func (s *MediaService) ProcessPendingCleanup(ctx context.Context, batch int) (types.CleanupResult, error) {
	var res types.CleanupResult

	if batch <= 0 {
		batch = 50
	}

	var rows []model.Media

	err := s.db.WithContext(ctx).
		Where("cleanup_pending = ? AND cleanup_attempts < ?", true, s.maxAttempts).
		Order("updated_at ASC").Limit(batch).Find(&rows).Error
	if err != nil {
		return res, fmt.Errorf("list pending media cleanup: %w", err)
	}

	for i := range rows {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		m := &rows[i]
		res.Processed++

		ok, err := s.retryCleanup(ctx, m)
		switch {
		case ok:
			res.Deleted++
		case m.CleanupAttempts >= s.maxAttempts:
			res.GaveUp++

			nlog.Logger().Error().Err(err).Uint("media_id", m.ID).Int("attempts", m.CleanupAttempts).
				Msg("media cleanup gave up")
		default:
			res.Failed++

			nlog.Logger().Warn().Err(err).Uint("media_id", m.ID).Int("attempts", m.CleanupAttempts).
				Msg("media cleanup retry failed")
		}
	}

	return res, nil
}

// Upload 校验并写入文件，再登记媒体行；登记失败时删除已写入的字节.
func (s *MediaService) Upload(ctx context.Context, p *types.Principal, f *media.File, req types.UploadMediaRequest) (*model.Media, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}

	provider, ok := model.ParseStorageProvider(firstNonEmpty(req.StorageProvider, s.store.Config().DefaultProvider))
	if !ok {
		return nil, fmt.Errorf("%w: storage provider %q", ErrInvalidArgument, req.StorageProvider)
	}

	fileName := media.SanitizeFileName(firstNonEmpty(req.FileName, f.Name))

	location, err := s.store.UploadFile(ctx, f, provider, fileName)
	metrics.ObserveMedia("upload", provider.String(), err)

	if err != nil {
		return nil, err
	}

	mediaType := model.InferMediaType(f.ContentType)
	if t, ok := model.ParseMediaType(req.MediaType); ok {
		mediaType = t
	}

	size := f.Size
	m := &model.Media{
		FileName:        fileName,
		MediaType:       mediaType,
		StorageProvider: provider,
		URL:             location,
		ContentType:     f.ContentType,
		FileSize:        &size,
		Description:     req.Description,
		Attribution:     req.Attribution,
		UserID:          p.UserID,
		PostID:          req.PostID,
		CommentID:       req.CommentID,
		CreatedID:       p.UserID,
	}

	if err := s.CreateMedia(ctx, m); err != nil {
		if derr := s.store.DeleteFile(ctx, m); derr != nil {
			nlog.Logger().Warn().Err(derr).Str("url", location).Msg("remove orphaned upload failed")
		}

		return nil, err
	}

	return m, nil
}

// RegisterExternal 登记外部链接，不存储任何字节. YouTube 地址请使用 YouTubeService.
func (s *MediaService) RegisterExternal(ctx context.Context, p *types.Principal, req types.ExternalMediaRequest) (*model.Media, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}

	raw := strings.TrimSpace(req.URL)

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: url %q", ErrInvalidArgument, req.URL)
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = path.Base(u.Path)
	}

	if fileName == "" || fileName == "/" || fileName == "." {
		fileName = u.Host
	}

	mediaType, contentType := guessLinkType(u.Path)
	if t, ok := model.ParseMediaType(req.MediaType); ok {
		mediaType = t
		contentType = model.DefaultContentType(t)
	}

	var zero int64

	m := &model.Media{
		FileName:        fileName,
		MediaType:       mediaType,
		StorageProvider: model.ProviderExternal,
		URL:             raw,
		ContentType:     contentType,
		FileSize:        &zero,
		Description:     req.Description,
		Attribution:     req.Attribution,
		UserID:          p.UserID,
		PostID:          req.PostID,
		CommentID:       req.CommentID,
		CreatedID:       p.UserID,
	}

	if err := s.CreateMedia(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

// SwitchLink 把媒体改为指向新链接，原先持有的字节会被删除.
func (s *MediaService) SwitchLink(ctx context.Context, p *types.Principal, id uint, rawURL string) (*model.Media, error) {
	u := rawURL

	return s.Update(ctx, p, id, types.UpdateMediaRequest{URL: &u})
}

// switchLink 修改内存中的 m；字节删除失败时返回错误且不做任何修改.
func (s *MediaService) switchLink(ctx context.Context, m *model.Media, raw string) error {
	if videoID := youtube.ExtractVideoID(raw); videoID != "" {
		if !m.StorageProvider.IsLink() {
			if err := s.store.DeleteFile(ctx, m); err != nil {
				return fmt.Errorf("remove stored bytes of media %d: %w", m.ID, err)
			}
		}

		m.StorageProvider = model.ProviderYouTube
		m.MediaType = model.MediaTypeVideo
		m.URL = media.YouTubeEmbedURL(videoID)
		m.ContentType = model.DefaultContentType(model.MediaTypeVideo)
	} else {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: url %q", ErrInvalidArgument, raw)
		}

		if !m.StorageProvider.IsLink() {
			if err := s.store.DeleteFile(ctx, m); err != nil {
				return fmt.Errorf("remove stored bytes of media %d: %w", m.ID, err)
			}
		}

		m.StorageProvider = model.ProviderExternal
		m.URL = raw
		m.MediaType, m.ContentType = guessLinkType(u.Path)
	}

	var zero int64

	m.FileSize = &zero

	return nil
}

// Search 按文件名、描述、署名做子串匹配，按类型、提供者、用户精确过滤.
func (s *MediaService) Search(ctx context.Context, req types.MediaSearchRequest) (*types.PaginatedResult[model.Media], error) {
	page, size := types.ClampPage(req.PageNumber, req.PageSize)

	q := s.db.WithContext(ctx).Model(&model.Media{})

	if kw := strings.TrimSpace(req.Query); kw != "" {
		// 大小写是否敏感取决于数据库排序规则
		like := "%" + escapeLike(kw) + "%"
		q = q.Where("(file_name LIKE ? ESCAPE '!' OR description LIKE ? ESCAPE '!' OR attribution LIKE ? ESCAPE '!')",
			like, like, like)
	}

	if req.MediaType != "" {
		t, ok := model.ParseMediaType(req.MediaType)
		if !ok {
			return nil, fmt.Errorf("%w: media type %q", ErrInvalidArgument, req.MediaType)
		}

		q = q.Where("media_type = ?", t)
	}

	if req.StorageProvider != "" {
		sp, ok := model.ParseStorageProvider(req.StorageProvider)
		if !ok {
			return nil, fmt.Errorf("%w: storage provider %q", ErrInvalidArgument, req.StorageProvider)
		}

		q = q.Where("storage_provider = ?", sp)
	}

	if req.UserID != "" {
		q = q.Where("user_id = ?", req.UserID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count media: %w", err)
	}

	var rows []model.Media
	if err := q.Order("created_at DESC, id DESC").Offset(types.Offset(page, size)).Limit(size).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("search media: %w", err)
	}

	return types.NewPaginatedResult(rows, page, size, total), nil
}

// OpenMedia 打开原始字节.
func (s *MediaService) OpenMedia(ctx context.Context, id uint) (*model.Media, *media.Stream, error) {
	m, err := s.GetMedia(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	st, err := s.store.GetFileStream(ctx, m)
	if err != nil {
		return m, nil, err
	}

	return m, st, nil
}

// OpenThumbnail 打开缩略图，宽高为 0 时使用配置值.
func (s *MediaService) OpenThumbnail(ctx context.Context, id uint, width, height int) (*model.Media, *media.Stream, error) {
	m, err := s.GetMedia(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	st, err := s.store.GetThumbnailStream(ctx, m, width, height)
	if err != nil {
		return m, nil, err
	}

	return m, st, nil
}

func mediaRef(m *model.Media) queue.MediaRef {
	return queue.MediaRef{
		ID:              m.ID,
		StorageProvider: m.StorageProvider.String(),
		MediaType:       m.MediaType.String(),
		URL:             m.URL,
		FileName:        m.FileName,
		UserID:          m.UserID,
	}
}

// guessLinkType 由链接路径的扩展名推断类别，无法识别时按图片处理.
func guessLinkType(p string) (model.MediaType, string) {
	ct := mime.TypeByExtension(strings.ToLower(path.Ext(p)))
	if ct == "" {
		return model.MediaTypeImage, model.DefaultContentType(model.MediaTypeImage)
	}

	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	return model.InferMediaType(ct), ct
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	return ""
}

// truncate 截断到至多 n 字节，不拆分多字节字符.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}

var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
