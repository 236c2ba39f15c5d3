package configs

import "github.com/spf13/viper"

// MetricsConfig Prometheus 指标. 指标挂在 API 引擎的 Path 上.
type MetricsConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	Path           string            `mapstructure:"path"            rule:"startswith=/"`
	RuntimeMetrics bool              `mapstructure:"runtime_metrics"` // go 与 process 收集器
	Pprof          bool              `mapstructure:"pprof"`           // 同时暴露 /debug/pprof
	Labels         map[string]string `mapstructure:"labels"`          // 所有指标的常量标签
}

func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.runtime_metrics", true)
	v.SetDefault("metrics.pprof", false)
	v.SetDefault("metrics.labels", map[string]string{
		"service": "sharesmallbiz",
	})
}
