package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
)

// ObjectStore AwsS3 提供者依赖的最小对象存储能力，由 storage/s3.Client 实现.
type ObjectStore interface {
	Bucket() string
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Remove(ctx context.Context, key string) error
}

// S3Provider 把媒体写入 S3 兼容的对象存储，Media.URL 形如 s3://bucket/uploads/{name}.
type S3Provider struct {
	store  ObjectStore
	prefix string
}

// NewS3Provider 创建 AwsS3 提供者，store 为 nil 时返回 nil（不注册）.
func NewS3Provider(store ObjectStore, prefix string) Provider {
	if store == nil {
		return nil
	}

	return &S3Provider{store: store, prefix: strings.Trim(prefix, "/")}
}

func (p *S3Provider) sealed() {}

// Kind 实现 Provider.
func (p *S3Provider) Kind() model.StorageProvider { return model.ProviderAwsS3 }

// Save 上传对象.
func (p *S3Provider) Save(ctx context.Context, f *File, storedName string) (string, error) {
	key := path.Join(p.prefix, storedName)
	if err := p.store.Put(ctx, key, f.Reader, f.Size, f.ContentType); err != nil {
		return "", err
	}

	return (&url.URL{Scheme: "s3", Host: p.store.Bucket(), Path: "/" + key}).String(), nil
}

// Delete 删除对象.
func (p *S3Provider) Delete(ctx context.Context, m *model.Media) error {
	key, err := p.key(m.URL)
	if err != nil {
		return err
	}

	return p.store.Remove(ctx, key)
}

// Open 读取对象.
func (p *S3Provider) Open(ctx context.Context, m *model.Media) (io.ReadCloser, error) {
	key, err := p.key(m.URL)
	if err != nil {
		return nil, err
	}

	rc, _, err := p.store.Open(ctx, key)

	return rc, err
}

// Thumbnail 在内存中缩放对象，不回写存储.
func (p *S3Provider) Thumbnail(ctx context.Context, m *model.Media, width, height int) (io.ReadCloser, error) {
	rc, err := p.Open(ctx, m)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return thumbnailBytes(rc, m.FileName, width, height)
}

func (p *S3Provider) key(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "s3" {
		return "", fmt.Errorf("invalid s3 media url %q", raw)
	}

	if u.Host != p.store.Bucket() {
		return "", fmt.Errorf("media url bucket %q does not match %q", u.Host, p.store.Bucket())
	}

	return strings.TrimPrefix(u.Path, "/"), nil
}
