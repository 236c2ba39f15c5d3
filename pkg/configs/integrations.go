package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultYouTubeBaseURL  = "https://www.googleapis.com/youtube/v3"
	DefaultUnsplashBaseURL = "https://api.unsplash.com"
	DefaultHTTPTimeout     = 10 // 外部 API 超时（秒）
	DefaultMetadataTTL     = 30 // 外部元数据缓存时间（分钟）
)

// YouTubeConfig YouTube Data API 配置.
type YouTubeConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"     rule:"required,url"`
	Timeout     int    `mapstructure:"timeout"      rule:"min=1,max=120"`
	MetadataTTL int    `mapstructure:"metadata_ttl" rule:"min=0"`
}

// UnsplashConfig Unsplash API 配置.
type UnsplashConfig struct {
	AccessKey string `mapstructure:"access_key"`
	BaseURL   string `mapstructure:"base_url"   rule:"required,url"`
	Timeout   int    `mapstructure:"timeout"    rule:"min=1,max=120"`
	AppName   string `mapstructure:"app_name"`
}

// GetTimeoutDuration 返回外部调用超时.
func (c *YouTubeConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// GetMetadataTTL 返回元数据缓存时长.
func (c *YouTubeConfig) GetMetadataTTL() time.Duration {
	return time.Duration(c.MetadataTTL) * time.Minute
}

// GetTimeoutDuration 返回外部调用超时.
func (c *UnsplashConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c *YouTubeConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("youtube.api_key", "")
	v.SetDefault("youtube.base_url", DefaultYouTubeBaseURL)
	v.SetDefault("youtube.timeout", DefaultHTTPTimeout)
	v.SetDefault("youtube.metadata_ttl", DefaultMetadataTTL)
}

func (c *UnsplashConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("unsplash.access_key", "")
	v.SetDefault("unsplash.base_url", DefaultUnsplashBaseURL)
	v.SetDefault("unsplash.timeout", DefaultHTTPTimeout)
	v.SetDefault("unsplash.app_name", "sharesmallbiz")
}
