package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidFile 文件未通过校验.
var ErrInvalidFile = errors.New("invalid file")

// ValidationError 上传校验失败的原因列表.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "invalid file: " + strings.Join(e.Reasons, "; ")
}

// Is 使 errors.Is(err, ErrInvalidFile) 成立.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidFile
}

// ValidateFile 校验文件大小、扩展名与 Content-Type，三项必须全部通过.
func (s *Store) ValidateFile(f *File) error {
	if f == nil {
		return &ValidationError{Reasons: []string{"no file provided"}}
	}

	var reasons []string

	if f.Size > s.cfg.MaxFileSize {
		reasons = append(reasons, fmt.Sprintf("file size %d exceeds limit %d", f.Size, s.cfg.MaxFileSize))
	}

	if ext := filepath.Ext(f.Name); !s.cfg.IsExtensionAllowed(ext) {
		reasons = append(reasons, fmt.Sprintf("extension %q is not allowed", ext))
	}

	if !s.cfg.IsContentTypeAllowed(f.ContentType) {
		reasons = append(reasons, fmt.Sprintf("content type %q is not allowed", f.ContentType))
	}

	if len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}

	return nil
}
