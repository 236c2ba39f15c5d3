// Package rule 用 go-playground/validator 校验请求体与配置，结构体标签为 rule.
//
// 错误字段使用 json（其次 form、mapstructure）标签中的名字，便于直接返回给客户端.
package rule

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// TagName 规则所在的结构体标签.
const TagName = "rule"

var (
	inst *validator.Validate
	once sync.Once
)

// slugPattern 与 textutil.GenerateSlug 的输出格式一致.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.SetTagName(TagName)
		v.RegisterTagNameFunc(fieldName)

		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
		v.RegisterAlias("post_sort", "omitempty,oneof=recent popular all Recent Popular All")

		inst = v
	})

	return inst
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form", "mapstructure"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			continue
		}

		if name != "" {
			return name
		}
	}

	return strings.ToLower(f.Name)
}

// ValidateStruct 校验结构体，失败时返回 validator.ValidationErrors，可交给 Errors 展开.
func ValidateStruct(s any) error {
	return engine().Struct(s)
}

// ValidateVar 按规则校验单个值，例如 ValidateVar(u, "url").
func ValidateVar(field any, tag string) error {
	return engine().Var(field, tag)
}

// ValidationErrors 字段名到失败规则的映射.
type ValidationErrors map[string]string

// Errors 展开校验错误，err 不是校验错误时返回 nil.
func Errors(err error) ValidationErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(ValidationErrors, len(verrs))
	for _, fe := range verrs {
		r := fe.Tag()
		if p := fe.Param(); p != "" {
			r += "=" + p
		}

		out[fe.Field()] = "failed on rule " + r
	}

	return out
}
