package media

import (
	"bytes"
	"image/color"
	"image/png"
	"io"
	"os"
	"sync"

	"github.com/disintegration/imaging"
)

const placeholderSize = 128

// placeholder 非图片或外部媒体使用的静态图标. 配置文件缺失时使用内置的灰色方块.
type placeholder struct {
	path string

	once     sync.Once
	fallback []byte
}

func newPlaceholder(path string) *placeholder {
	return &placeholder{path: path}
}

func (p *placeholder) open() *Stream {
	if p.path != "" {
		if f, err := os.Open(p.path); err == nil {
			return &Stream{ReadCloser: f, ContentType: "image/png", Placeholder: true}
		}
	}

	p.once.Do(func() {
		img := imaging.New(placeholderSize, placeholderSize, color.NRGBA{R: 0xd0, G: 0xd4, B: 0xd9, A: 0xff})

		var buf bytes.Buffer
		_ = png.Encode(&buf, img)
		p.fallback = buf.Bytes()
	})

	return &Stream{ReadCloser: io.NopCloser(bytes.NewReader(p.fallback)), ContentType: "image/png", Placeholder: true}
}
