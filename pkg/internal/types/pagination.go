package types

import (
	"math"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPageNumber 保证 (page-1)*size 不溢出 int32.
	MaxPageNumber = math.MaxInt32 / MaxPageSize
)

// PostSort 帖子列表排序.
type PostSort string

const (
	SortRecent  PostSort = "Recent"  // Published 倒序
	SortPopular PostSort = "Popular" // PostViews 倒序
	SortAll     PostSort = "All"     // ID 倒序
)

// ParsePostSort 大小写不敏感，未知值按 Recent 处理.
func ParsePostSort(s string) PostSort {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "popular":
		return SortPopular
	case "all":
		return SortAll
	default:
		return SortRecent
	}
}

// ClampPage 页码 <=0 视为 1 且不超过 MaxPageNumber，页大小 <=0 视为 DefaultPageSize，且不超过 MaxPageSize.
func ClampPage(pageNumber, pageSize int) (int, int) {
	if pageNumber <= 0 {
		pageNumber = 1
	}

	if pageNumber > MaxPageNumber {
		pageNumber = MaxPageNumber
	}

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return pageNumber, pageSize
}

// Offset 返回分页偏移量.
func Offset(pageNumber, pageSize int) int {
	return (pageNumber - 1) * pageSize
}

// TotalPages 向上取整.
func TotalPages(totalCount int64, pageSize int) int {
	if pageSize <= 0 || totalCount <= 0 {
		return 0
	}

	return int((totalCount + int64(pageSize) - 1) / int64(pageSize))
}

// PaginatedResult 分页结果.
type PaginatedResult[T any] struct {
	Items       []T   `json:"items"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalCount  int64 `json:"total_count"`
	TotalPages  int   `json:"total_pages"`
}

// NewPaginatedResult 组装分页结果，Items 为 nil 时返回空切片.
func NewPaginatedResult[T any](items []T, pageNumber, pageSize int, totalCount int64) *PaginatedResult[T] {
	if items == nil {
		items = []T{}
	}

	return &PaginatedResult[T]{
		Items:       items,
		CurrentPage: pageNumber,
		PageSize:    pageSize,
		TotalCount:  totalCount,
		TotalPages:  TotalPages(totalCount, pageSize),
	}
}

// PageQuery 通用分页查询参数.
type PageQuery struct {
	PageNumber int    `form:"page"      json:"page"`
	PageSize   int    `form:"page_size" json:"page_size"`
	Sort       string `form:"sort"      json:"sort"      rule:"post_sort"`
}
