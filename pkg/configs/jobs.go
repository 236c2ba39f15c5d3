package configs

import "github.com/spf13/viper"

// JobsConfig 后台任务配置.
type JobsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	MediaCleanup   string `mapstructure:"media_cleanup"`    // cron 表达式
	CleanupBatch   int    `mapstructure:"cleanup_batch"    rule:"min=1,max=1000"`
	KeywordRefresh string `mapstructure:"keyword_refresh"` // cron 表达式，预热关键词缓存
	KeywordTTL     int    `mapstructure:"keyword_ttl"      rule:"min=1"`   // 关键词缓存时间（分钟）
}

func (c *JobsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.media_cleanup", "*/10 * * * *")
	v.SetDefault("jobs.cleanup_batch", 50)
	v.SetDefault("jobs.keyword_refresh", "0 * * * *")
	v.SetDefault("jobs.keyword_ttl", 60)
}
