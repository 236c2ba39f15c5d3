package textutil_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yeisme/sharesmallbiz/pkg/textutil"
)

var slugShape = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestGenerateSlug(t *testing.T) {
	cases := map[string]string{
		"Café — Déjà Vu!":         "cafe-deja-vu",
		"Hello World":             "hello-world",
		"  Leading and trailing ": "leading-and-trailing",
		"multiple    spaces\there": "multiple-spaces-here",
		"Ünïcödé Çhàrs":           "unicode-chars",
		"C# & Go 1.22":            "c-go-122",
		"---":                     "unknown",
		"":                        "unknown",
		"   ":                     "unknown",
		"\u0301\u0308":            "unknown",
		"日本語":                     "unknown",
	}

	for in, want := range cases {
		assert.Equal(t, want, textutil.GenerateSlug(in), "input %q", in)
	}
}

// TestGenerateSlugShape 任意输入的输出都满足 slug 格式.
func TestGenerateSlugShape(t *testing.T) {
	inputs := []string{
		"a--b", "-a-", "A B C", "émigré's café!!", "tabs\t\tand\nnewlines",
		"100% legit -- deal", "x", "ß straße", "ÀÉÎÕÜ",
	}

	for _, in := range inputs {
		got := textutil.GenerateSlug(in)
		if got == textutil.EmptySlug {
			continue
		}

		assert.Regexp(t, slugShape, got, "input %q", in)
	}
}

func TestNewlineToBr(t *testing.T) {
	assert.Equal(t, "", textutil.NewlineToBr(""))
	assert.Equal(t, "a<br />b<br />c", textutil.NewlineToBr("a\nb\r\nc"))
	assert.Equal(t, "single line", textutil.NewlineToBr("single line"))
}
