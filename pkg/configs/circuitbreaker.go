package configs

import (
	"time"

	"github.com/spf13/viper"
)

// CircuitBreakerConfig 熔断配置，同时用于入站 HTTP 与 YouTube/Unsplash 出站调用.
type CircuitBreakerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// FailureRate 统计窗口内失败比例达到该值时打开 [0,1]
	FailureRate float64 `mapstructure:"failure_rate"         rule:"gte=0,lte=1"`
	MinRequests uint32  `mapstructure:"min_requests"`
	// IntervalSeconds 关闭状态下清零计数的周期
	IntervalSeconds int `mapstructure:"interval_seconds"     rule:"gte=0"`
	// TimeoutSeconds 打开后多久进入半开
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"      rule:"gte=0"`
	MaxRequestsInHalf uint32 `mapstructure:"max_requests_in_half"`
}

// Interval 返回统计周期.
func (c *CircuitBreakerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// OpenTimeout 返回打开状态的持续时间.
func (c *CircuitBreakerConfig) OpenTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ShouldTrip 判断计数是否达到打开条件.
func (c *CircuitBreakerConfig) ShouldTrip(requests, failures uint32) bool {
	if requests == 0 || requests < c.MinRequests {
		return false
	}

	return float64(failures)/float64(requests) >= c.FailureRate
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.failure_rate", 0.5)
	v.SetDefault("circuit_breaker.min_requests", 20)
	v.SetDefault("circuit_breaker.interval_seconds", 60)
	v.SetDefault("circuit_breaker.timeout_seconds", 30)
	v.SetDefault("circuit_breaker.max_requests_in_half", 5)
}
