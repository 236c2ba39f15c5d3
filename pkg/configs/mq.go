package configs

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeNATS  MQType = "nats"
	MQTypeRedis MQType = "redis"
	// MQTypeGoChannel 进程内消息队列，适合单实例部署和测试.
	MQTypeGoChannel MQType = "gochannel"
)

// MQConfig 领域事件使用的消息队列.
type MQConfig struct {
	Type MQType `mapstructure:"type" rule:"oneof=nats redis gochannel"`
	// EnableMetrics 为 publisher/subscriber 增加 watermill 指标，需要同时开启 metrics.enabled
	EnableMetrics bool `mapstructure:"enable_metrics"`
	// BufferSize gochannel 与 redis 订阅通道的缓冲
	BufferSize int           `mapstructure:"buffer_size" rule:"min=1,max=100000"`
	NATS       MQNATSConfig  `mapstructure:"nats"`
	Redis      MQRedisConfig `mapstructure:"redis"`
}

// MQNATSConfig NATS 连接与 JetStream 设置.
type MQNATSConfig struct {
	URL         string   `mapstructure:"url"`
	ClusterURLs []string `mapstructure:"cluster_urls"`
	ClientName  string   `mapstructure:"client_name"`
	User        string   `mapstructure:"user"`
	Password    string   `mapstructure:"password"`
	// JWT 与 NKey 同时配置时使用 JWT 认证，只配置 NKey 时为 NKey 种子文件
	JWT  string `mapstructure:"jwt"`
	NKey string `mapstructure:"nkey"`

	MaxReconnects        int `mapstructure:"max_reconnects"         rule:"min=-1,max=1000"`
	ReconnectWaitSeconds int `mapstructure:"reconnect_wait_seconds" rule:"min=1,max=300"`

	JetStream bool `mapstructure:"jetstream"`
	// DurablePrefix 多实例共享同一前缀时，每条事件只被一个实例处理
	DurablePrefix  string `mapstructure:"durable_prefix"`
	AckWaitSeconds int    `mapstructure:"ack_wait_seconds" rule:"min=1,max=3600"`
}

// MQRedisConfig Redis Pub/Sub 设置. Pub/Sub 不持久化，离线期间的事件会丢失.
type MQRedisConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

// GetMQType 返回当前配置的消息队列类型.
func (c *MQConfig) GetMQType() MQType {
	return c.Type
}

// ServerURL 返回 NATS 连接串，配置了集群地址时使用集群.
func (c *MQNATSConfig) ServerURL() string {
	if len(c.ClusterURLs) > 0 {
		return strings.Join(c.ClusterURLs, ",")
	}

	return c.URL
}

// ReconnectWait 返回重连间隔.
func (c *MQNATSConfig) ReconnectWait() time.Duration {
	return time.Duration(c.ReconnectWaitSeconds) * time.Second
}

// AckWait 返回 JetStream 等待确认的时间.
func (c *MQNATSConfig) AckWait() time.Duration {
	return time.Duration(c.AckWaitSeconds) * time.Second
}

func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeGoChannel)
	v.SetDefault("mq.enable_metrics", true)
	v.SetDefault("mq.buffer_size", 256)

	v.SetDefault("mq.nats.url", "nats://localhost:4222")
	v.SetDefault("mq.nats.client_name", "sharesmallbiz")
	v.SetDefault("mq.nats.max_reconnects", 60)
	v.SetDefault("mq.nats.reconnect_wait_seconds", 2)
	v.SetDefault("mq.nats.jetstream", true)
	v.SetDefault("mq.nats.durable_prefix", "sharesmallbiz")
	v.SetDefault("mq.nats.ack_wait_seconds", 30)

	v.SetDefault("mq.redis.addr", "localhost:6379")
	v.SetDefault("mq.redis.db", 0)
}
