// Package textutil 提供标题 slug 生成与纯文本到 HTML 的转换.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// EmptySlug 标题无法生成任何有效字符时使用.
const EmptySlug = "unknown"

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	invalidChars  = regexp.MustCompile(`[^a-z0-9-]`)
	dashRun       = regexp.MustCompile(`-{2,}`)
)

// GenerateSlug 生成 URL 安全的 slug：去除变音符号、转小写、空白替换为短横线.
// 输出只包含 [a-z0-9-]，没有首尾和连续短横线；结果为空时返回 "unknown".
func GenerateSlug(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	s, _, err := transform.String(t, title)
	if err != nil {
		s = title
	}

	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = invalidChars.ReplaceAllString(s, "")
	s = dashRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if s == "" {
		return EmptySlug
	}

	return s
}

// NewlineToBr 将换行转换为 <br />，兼容 \r\n.
func NewlineToBr(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")

	return strings.ReplaceAll(text, "\n", "<br />")
}
