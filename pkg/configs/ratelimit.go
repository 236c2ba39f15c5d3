package configs

import "github.com/spf13/viper"

// RateLimitConfig 按客户端限流配置.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"   rule:"gte=0"`
	Burst   int     `mapstructure:"burst" rule:"gte=0"`
	// Key 限流维度：global、ip、header:<Header-Name>，请求头为空时退回 IP
	Key string `mapstructure:"key"`
	// SkipPaths 不限流的路径前缀，例如 /Media/ 与健康检查
	SkipPaths []string `mapstructure:"skip_paths"`
	// IdleMinutes 超过该时间未访问的客户端状态会被回收
	IdleMinutes int `mapstructure:"idle_minutes" rule:"gte=0"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 20.0)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.key", "ip")
	v.SetDefault("rate_limit.skip_paths", []string{"/api/v1/health", "/metrics"})
	v.SetDefault("rate_limit.idle_minutes", 10)
}
