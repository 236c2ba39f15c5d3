package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
)

const (
	dirPerm  fs.FileMode = 0o755
	filePerm fs.FileMode = 0o644
)

// LocalProvider 把媒体写入本地目录：
//
//	{root}/uploads/{uuid}_{name}
//	{root}/thumbnails/thumb_{w}x{h}_{uuid}_{name}
type LocalProvider struct {
	root       string
	uploads    string
	thumbnails string
	maxSize    int64

	group singleflight.Group
}

// NewLocalProvider 创建本地提供者.
func NewLocalProvider(cfg *configs.MediaConfig) *LocalProvider {
	return &LocalProvider{
		root:       absPath(cfg.RootDir),
		uploads:    absPath(cfg.UploadsPath()),
		thumbnails: absPath(cfg.ThumbnailsPath()),
		maxSize:    cfg.MaxFileSize,
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}

	return filepath.Clean(p)
}

func (p *LocalProvider) sealed() {}

// Kind 实现 Provider.
func (p *LocalProvider) Kind() model.StorageProvider { return model.ProviderLocalStorage }

// Save 写入 uploads 目录，实际字节数超过上限时删除半成品并报错.
func (p *LocalProvider) Save(ctx context.Context, f *File, storedName string) (string, error) {
	if err := os.MkdirAll(p.uploads, dirPerm); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}

	dst := filepath.Join(p.uploads, storedName)

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, filePerm)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	n, copyErr := io.Copy(out, io.LimitReader(readerWithContext(ctx, f.Reader), p.maxSize+1))
	closeErr := out.Close()

	if err := multierr.Append(copyErr, closeErr); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("write file: %w", err)
	}

	if n > p.maxSize {
		_ = os.Remove(dst)
		return "", &ValidationError{Reasons: []string{fmt.Sprintf("file size exceeds limit %d", p.maxSize)}}
	}

	return dst, nil
}

// Delete 删除原文件与所有尺寸的缩略图，文件不存在不算错误.
func (p *LocalProvider) Delete(ctx context.Context, m *model.Media) error {
	path, err := p.resolve(m.URL)
	if err != nil {
		return err
	}

	var errs error
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = multierr.Append(errs, fmt.Errorf("remove %s: %w", path, err))
	}

	thumbs, err := filepath.Glob(filepath.Join(p.thumbnails, "thumb_*_"+globEscape(filepath.Base(path))))
	if err != nil {
		return multierr.Append(errs, err)
	}

	for _, t := range thumbs {
		if err := os.Remove(t); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = multierr.Append(errs, fmt.Errorf("remove %s: %w", t, err))
		}
	}

	return errs
}

// Open 打开原文件.
func (p *LocalProvider) Open(ctx context.Context, m *model.Media) (io.ReadCloser, error) {
	path, err := p.resolve(m.URL)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filepath.Base(path))
	}

	return f, err
}

// Thumbnail 生成（或复用）缩略图并打开.
func (p *LocalProvider) Thumbnail(ctx context.Context, m *model.Media, width, height int) (io.ReadCloser, error) {
	path, err := p.resolve(m.URL)
	if err != nil {
		return nil, err
	}

	thumb, err := p.CreateThumbnail(ctx, path, width, height)
	if err != nil {
		return nil, err
	}

	return os.Open(thumb)
}

// CreateThumbnail 按比例缩放到 width x height 以内，结果以文件名和尺寸缓存.
// 同一缩略图的并发请求只会生成一次.
func (p *LocalProvider) CreateThumbnail(ctx context.Context, path string, width, height int) (string, error) {
	src, err := p.resolve(path)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("thumb_%dx%d_%s", width, height, filepath.Base(src))
	dst := filepath.Join(p.thumbnails, name)

	if _, err := os.Stat(dst); err == nil {
		return dst, nil
	}

	v, err, _ := p.group.Do(name, func() (any, error) {
		if _, err := os.Stat(dst); err == nil {
			return dst, nil
		}

		if err := os.MkdirAll(p.thumbnails, dirPerm); err != nil {
			return "", fmt.Errorf("create thumbnails dir: %w", err)
		}

		if err := writeThumbnail(ctx, src, dst, width, height); err != nil {
			return "", err
		}

		return dst, nil
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

// resolve 只允许访问根目录下的路径，相对路径按根目录解析.
func (p *LocalProvider) resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrFileNotFound)
	}

	abs := filepath.Clean(path)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(p.root, abs)
	}

	rel, err := filepath.Rel(p.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes media root", path)
	}

	return abs, nil
}

func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}

// ctxReader 在每次读取前检查 ctx.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(b []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	return c.r.Read(b)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	if ctx == nil {
		return r
	}

	return &ctxReader{ctx: ctx, r: r}
}
