package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool              `mapstructure:"enabled"` // 总开关
	Media   MediaEventsConfig `mapstructure:"media"`
	Post    PostEventsConfig  `mapstructure:"post"`
}

// MediaEventsConfig 针对媒体库领域的事件开关。
type MediaEventsConfig struct {
	Created          bool `mapstructure:"created"`
	Deleted          bool `mapstructure:"deleted"`
	CleanupRequested bool `mapstructure:"cleanup_requested"`
}

// PostEventsConfig 针对讨论帖领域的事件开关。
type PostEventsConfig struct {
	Created   bool `mapstructure:"created"`
	Liked     bool `mapstructure:"liked"`
	Commented bool `mapstructure:"commented"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认启用事件系统
	v.SetDefault("events.enabled", true)

	// 清理请求驱动延迟删除，默认开启
	v.SetDefault("events.media.created", true)
	v.SetDefault("events.media.deleted", true)
	v.SetDefault("events.media.cleanup_requested", true)

	// 互动类事件量可能很大，默认关闭
	v.SetDefault("events.post.created", true)
	v.SetDefault("events.post.liked", false)
	v.SetDefault("events.post.commented", false)
}
