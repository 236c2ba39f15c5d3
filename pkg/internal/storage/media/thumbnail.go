package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // 注册解码器
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const thumbnailQuality = 85

// decodeImage 解码 jpeg/png/gif/webp，并按 EXIF 方向校正.
func decodeImage(r io.Reader, name string) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(name), ".webp") {
		img, err := webp.Decode(r)
		if err != nil {
			return nil, fmt.Errorf("decode webp: %w", err)
		}

		return img, nil
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return img, nil
}

// resize 保持宽高比，长边适配到边界框内；小图不放大.
func resize(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() <= width && b.Dy() <= height {
		return img
	}

	return imaging.Fit(img, width, height, imaging.Lanczos)
}

// encodeImage 按扩展名编码，未知格式使用 jpeg.
func encodeImage(w io.Writer, img image.Image, name string) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return png.Encode(w, img)
	case ".gif":
		return imaging.Encode(w, img, imaging.GIF)
	case ".webp":
		return webp.Encode(w, img, &webp.Options{Quality: thumbnailQuality})
	default:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: thumbnailQuality})
	}
}

// writeThumbnail 生成缩略图，先写临时文件再重命名，避免读到半成品.
func writeThumbnail(ctx context.Context, src, dst string, width, height int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source image: %w", err)
	}
	defer in.Close()

	img, err := decodeImage(in, src)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".thumb-*")
	if err != nil {
		return fmt.Errorf("create temp thumbnail: %w", err)
	}

	if err := encodeImage(tmp, resize(img, width, height), dst); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("encode thumbnail: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("publish thumbnail: %w", err)
	}

	return nil
}

// thumbnailBytes 在内存中生成缩略图，用于对象存储等无法缓存到本地的提供者.
func thumbnailBytes(r io.Reader, name string, width, height int) (io.ReadCloser, error) {
	img, err := decodeImage(r, name)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := encodeImage(&buf, resize(img, width, height), name); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return io.NopCloser(&buf), nil
}
