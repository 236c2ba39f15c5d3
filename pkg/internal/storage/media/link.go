package media

import (
	"context"
	"fmt"
	"io"

	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
)

// linkProvider 外部链接类提供者不持有任何字节.
type linkProvider struct {
	kind model.StorageProvider
}

// NewExternalProvider 外部 URL（包括 Unsplash 图片）.
func NewExternalProvider() Provider {
	return &linkProvider{kind: model.ProviderExternal}
}

// NewYouTubeProvider YouTube 嵌入视频.
func NewYouTubeProvider() Provider {
	return &linkProvider{kind: model.ProviderYouTube}
}

func (p *linkProvider) sealed() {}

// Kind 实现 Provider.
func (p *linkProvider) Kind() model.StorageProvider { return p.kind }

// Save 链接不能上传字节.
func (p *linkProvider) Save(context.Context, *File, string) (string, error) {
	return "", fmt.Errorf("%w: upload to %s", ErrUnsupportedOperation, p.kind)
}

// Delete 无需清理.
func (p *linkProvider) Delete(context.Context, *model.Media) error {
	return nil
}

// Open 链接没有本地字节，由 Store 返回占位图标.
func (p *linkProvider) Open(context.Context, *model.Media) (io.ReadCloser, error) {
	return nil, fmt.Errorf("%w: open %s", ErrUnsupportedOperation, p.kind)
}
