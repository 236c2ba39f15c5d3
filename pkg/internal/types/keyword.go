package types

// KeywordInput 创建或更新关键词.
type KeywordInput struct {
	Name        string `json:"name"        rule:"required,max=128"`
	Description string `json:"description" rule:"max=512"`
}

// ImportResult CSV 导入统计.
type ImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}
