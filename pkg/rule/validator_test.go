package rule_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/sharesmallbiz/pkg/rule"
)

type signup struct {
	Name    string `json:"display_name" rule:"required,max=8"`
	Website string `form:"website"      rule:"omitempty,url"`
	Age     int    `rule:"gte=18"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, rule.ValidateStruct(signup{Name: "Ana", Website: "https://a.example", Age: 30}))

	err := rule.ValidateStruct(signup{Name: "", Website: "not a url", Age: 12})
	require.Error(t, err)

	assert.Equal(t, rule.ValidationErrors{
		"display_name": "failed on rule required",
		"website":      "failed on rule url",
		"age":          "failed on rule gte=18",
	}, rule.Errors(err))
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, rule.ValidateVar("owner@shop.example", "required,email"))
	assert.Error(t, rule.ValidateVar("owner", "required,email"))
}

func TestErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, rule.Errors(errors.New("boom")))
	assert.Nil(t, rule.Errors(nil))
}

type listing struct {
	Slug string `json:"slug" rule:"slug"`
	Sort string `json:"sort" rule:"post_sort"`
}

func TestSlugAndSortRules(t *testing.T) {
	require.NoError(t, rule.ValidateStruct(listing{Slug: "cafe-deja-vu", Sort: "popular"}))
	require.NoError(t, rule.ValidateStruct(listing{Slug: "a1", Sort: ""}))

	for _, tc := range []struct {
		name string
		in   listing
		key  string
	}{
		{"leading dash", listing{Slug: "-bad", Sort: "all"}, "slug"},
		{"double dash", listing{Slug: "bad--slug", Sort: "all"}, "slug"},
		{"upper case", listing{Slug: "Bad", Sort: "all"}, "slug"},
		{"unknown sort", listing{Slug: "ok", Sort: "oldest"}, "sort"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			errs := rule.Errors(rule.ValidateStruct(tc.in))
			assert.Contains(t, errs, tc.key)
		})
	}
}
