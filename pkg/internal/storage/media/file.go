package media

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen 内容探测读取的字节数.
const sniffLen = 3072

// File 待上传的文件.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// NewFile 构造 File，声明的 Content-Type 为空或为通用二进制时从内容探测.
func NewFile(name string, size int64, contentType string, r io.Reader) (*File, error) {
	f := &File{Name: name, Size: size, ContentType: strings.TrimSpace(contentType), Reader: r}

	if f.ContentType == "" || f.ContentType == "application/octet-stream" {
		if err := f.sniff(); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// FromMultipart 从 multipart 表单文件构造 File，调用方负责关闭返回的 closer.
func FromMultipart(fh *multipart.FileHeader) (*File, io.Closer, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open upload: %w", err)
	}

	f, err := NewFile(fh.Filename, fh.Size, fh.Header.Get("Content-Type"), src)
	if err != nil {
		_ = src.Close()
		return nil, nil, err
	}

	return f, src, nil
}

// sniff 读取文件头探测类型，并把已读部分拼回 Reader.
func (f *File) sniff() error {
	head := make([]byte, sniffLen)

	n, err := io.ReadFull(f.Reader, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("read upload header: %w", err)
	}

	head = head[:n]
	f.ContentType = mimetype.Detect(head).String()
	f.Reader = io.MultiReader(bytes.NewReader(head), f.Reader)

	return nil
}
