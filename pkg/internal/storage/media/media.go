// Package media 实现媒体字节的存储后端.
//
// 每个 model.StorageProvider 对应一个 Provider 实现，Store 通过能力表选择实现：
//
//	store := media.NewStore(cfg, media.NewLocalProvider(cfg), media.NewExternalProvider(), media.NewYouTubeProvider())
//	url, err := store.UploadFile(ctx, file, model.ProviderLocalStorage, "logo.png")
//
// 未注册的提供者（如 AzureBlob）返回 ErrUnsupportedProvider.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/youtube"
	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	nlog "github.com/yeisme/sharesmallbiz/pkg/log"
)

var (
	// ErrUnsupportedProvider 没有为该提供者注册实现.
	ErrUnsupportedProvider = errors.New("unsupported storage provider")
	// ErrUnsupportedOperation 提供者不支持该操作，例如向外部链接上传字节.
	ErrUnsupportedOperation = errors.New("operation not supported by storage provider")
	// ErrFileNotFound 物理文件不存在.
	ErrFileNotFound = errors.New("media file not found")
)

// Provider 媒体存储后端. 接口是封闭的，只能由本包实现.
type Provider interface {
	// Kind 返回对应的提供者枚举.
	Kind() model.StorageProvider
	// Save 写入字节，返回写入 Media.URL 的位置.
	Save(ctx context.Context, f *File, storedName string) (string, error)
	// Delete 删除媒体持有的全部字节，不存在时视为成功.
	Delete(ctx context.Context, m *model.Media) error
	// Open 打开原始字节.
	Open(ctx context.Context, m *model.Media) (io.ReadCloser, error)

	sealed()
}

// thumbnailer 可生成缩略图的提供者.
type thumbnailer interface {
	Thumbnail(ctx context.Context, m *model.Media, width, height int) (io.ReadCloser, error)
}

// Stream 读流与其 Content-Type.
type Stream struct {
	io.ReadCloser

	ContentType string
	// Placeholder 为 true 时返回的是占位图标
	Placeholder bool
}

// Store 按提供者分发媒体操作.
type Store struct {
	cfg         *configs.MediaConfig
	providers   map[model.StorageProvider]Provider
	placeholder *placeholder
}

// NewStore 创建 Store，providers 中同一 Kind 后注册的覆盖先注册的.
func NewStore(cfg *configs.MediaConfig, providers ...Provider) *Store {
	s := &Store{
		cfg:         cfg,
		providers:   make(map[model.StorageProvider]Provider, len(providers)),
		placeholder: newPlaceholder(cfg.PlaceholderPath()),
	}

	for _, p := range providers {
		if p == nil {
			continue
		}

		s.providers[p.Kind()] = p
	}

	return s
}

// Provider 查找提供者实现.
func (s *Store) Provider(kind model.StorageProvider) (Provider, error) {
	p, ok := s.providers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, kind)
	}

	return p, nil
}

// Supports 判断提供者是否可用.
func (s *Store) Supports(kind model.StorageProvider) bool {
	_, ok := s.providers[kind]
	return ok
}

// Config 返回媒体配置.
func (s *Store) Config() *configs.MediaConfig {
	return s.cfg
}

// UploadFile 校验并写入文件，返回存储位置. 校验失败时不会写入任何字节.
func (s *Store) UploadFile(ctx context.Context, f *File, kind model.StorageProvider, fileName string) (string, error) {
	p, err := s.Provider(kind)
	if err != nil {
		return "", err
	}

	if kind.IsLink() {
		return "", fmt.Errorf("%w: upload to %s", ErrUnsupportedOperation, kind)
	}

	if fileName == "" {
		fileName = f.Name
	}

	if err := s.ValidateFile(f); err != nil {
		return "", err
	}

	// 落盘名可以由调用方指定，其扩展名同样受白名单约束
	if ext := filepath.Ext(SanitizeFileName(fileName)); !s.cfg.IsExtensionAllowed(ext) {
		return "", &ValidationError{Reasons: []string{fmt.Sprintf("stored name extension %q is not allowed", ext)}}
	}

	location, err := p.Save(ctx, f, StoredName(fileName))
	if err != nil {
		return "", fmt.Errorf("save media file: %w", err)
	}

	return location, nil
}

// DeleteFile 删除媒体持有的字节，外部链接与 YouTube 不做任何操作.
func (s *Store) DeleteFile(ctx context.Context, m *model.Media) error {
	p, err := s.Provider(m.StorageProvider)
	if err != nil {
		return err
	}

	return p.Delete(ctx, m)
}

// CreateThumbnail 为本地图片生成缩略图并返回路径，已存在时直接返回.
func (s *Store) CreateThumbnail(ctx context.Context, path string, width, height int) (string, error) {
	local, ok := s.providers[model.ProviderLocalStorage].(*LocalProvider)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedProvider, model.ProviderLocalStorage)
	}

	return local.CreateThumbnail(ctx, path, width, height)
}

// GetFileStream 打开媒体原始字节；外部链接返回占位图标.
func (s *Store) GetFileStream(ctx context.Context, m *model.Media) (*Stream, error) {
	if m.StorageProvider.IsLink() {
		return s.placeholder.open(), nil
	}

	p, err := s.Provider(m.StorageProvider)
	if err != nil {
		return nil, err
	}

	rc, err := p.Open(ctx, m)
	if err != nil {
		return nil, err
	}

	return &Stream{ReadCloser: rc, ContentType: contentTypeOf(m)}, nil
}

// GetThumbnailStream 打开缩略图；非图片或外部链接返回占位图标，生成失败时回退到原图.
func (s *Store) GetThumbnailStream(ctx context.Context, m *model.Media, width, height int) (*Stream, error) {
	if m.StorageProvider.IsLink() || m.MediaType != model.MediaTypeImage {
		return s.placeholder.open(), nil
	}

	if width <= 0 {
		width = s.cfg.ThumbnailWidth
	}

	if height <= 0 {
		height = s.cfg.ThumbnailHeight
	}

	p, err := s.Provider(m.StorageProvider)
	if err != nil {
		return nil, err
	}

	if t, ok := p.(thumbnailer); ok {
		rc, terr := t.Thumbnail(ctx, m, width, height)
		if terr == nil {
			return &Stream{ReadCloser: rc, ContentType: contentTypeOf(m)}, nil
		}

		nlog.Logger().Warn().Err(terr).Uint("media_id", m.ID).Msg("thumbnail generation failed, serving original")
	}

	return s.GetFileStream(ctx, m)
}

// IsYouTubeURL 判断是否为可识别的 YouTube 视频地址.
func IsYouTubeURL(raw string) bool {
	return youtube.ExtractVideoID(raw) != ""
}

// YouTubeEmbedURL 构造嵌入地址.
func YouTubeEmbedURL(videoID string) string {
	return youtube.EmbedURL(videoID)
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFileName 去掉路径与不安全字符.
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")

	if name == "" {
		return "file"
	}

	return name
}

// StoredName 生成抗冲突的存储文件名：{uuid}_{原文件名}.
func StoredName(fileName string) string {
	return uuid.NewString() + "_" + SanitizeFileName(fileName)
}

func contentTypeOf(m *model.Media) string {
	if m.ContentType != "" {
		return m.ContentType
	}

	return model.DefaultContentType(m.MediaType)
}
