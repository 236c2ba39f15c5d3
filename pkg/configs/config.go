// Package configs 加载应用配置. 来源依次为默认值、配置文件（yaml、json、toml、dotenv）
// 与 SHARESMALLBIZ_ 前缀的环境变量，例如 SHARESMALLBIZ_DB_TYPE=postgres.
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yeisme/sharesmallbiz/pkg/rule"
)

// AppVersion 应用版本，构建时可通过 -ldflags 覆盖.
var AppVersion = "0.1.0"

// EnvPrefix 环境变量前缀.
const EnvPrefix = "SHARESMALLBIZ"

// AppConfig 全局配置.
type AppConfig struct {
	Server         ServerConfig         `mapstructure:"server"`
	Log            LogConfig            `mapstructure:"log"`
	DB             DBConfig             `mapstructure:"db"`
	KV             KVConfig             `mapstructure:"kv"`
	MQ             MQConfig             `mapstructure:"mq"`
	S3             S3Config             `mapstructure:"s3"`
	Metrics        MetricsConfig        `mapstructure:"metrics"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Events         EventsConfig         `mapstructure:"events"`
	Media          MediaConfig          `mapstructure:"media"`
	YouTube        YouTubeConfig        `mapstructure:"youtube"`
	Unsplash       UnsplashConfig       `mapstructure:"unsplash"`
	Jobs           JobsConfig           `mapstructure:"jobs"`
}

type defaulter interface {
	setDefaults(v *viper.Viper)
}

var (
	globalConfig AppConfig
	appViper     = viper.New()
)

// configExts 目录模式下按顺序查找 config.<ext>.
var configExts = []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

// InitConfig 从 path 加载配置. path 可以是文件，也可以是包含 config.* 的目录；
// 找不到配置文件时只使用默认值与环境变量. 加载后按 rule 标签校验.
func InitConfig(path string) error {
	v := viper.New()
	setAllDefaults(v)

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(path)
		v.AddConfigPath(filepath.Join(path, "configs"))

		for _, ext := range configExts {
			if f := filepath.Join(path, "config."+ext); fileExists(f) {
				v.SetConfigFile(f)
				break
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err := rule.ValidateStruct(&cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	globalConfig, appViper = cfg, v

	if cfg.Server.ReloadConfig && v.ConfigFileUsed() != "" {
		watch(v)
	}

	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// watch 配置文件变化时重新解析，校验失败的修改被丢弃.
// 日志包依赖 configs，这里只能写 stderr.
func watch(v *viper.Viper) {
	v.OnConfigChange(func(e fsnotify.Event) {
		var next AppConfig
		if err := v.Unmarshal(&next); err != nil {
			fmt.Fprintf(os.Stderr, "config reload %s: %v\n", e.Name, err)
			return
		}

		if err := rule.ValidateStruct(&next); err != nil {
			fmt.Fprintf(os.Stderr, "config reload %s rejected: %v\n", e.Name, err)
			return
		}

		globalConfig = next
		fmt.Fprintf(os.Stderr, "config reloaded from %s\n", e.Name)
	})
	v.WatchConfig()
}

func setAllDefaults(v *viper.Viper) {
	var c AppConfig

	for _, d := range []defaulter{
		&c.Server, &c.Log, &c.DB, &c.KV, &c.MQ, &c.S3, &c.Metrics, &c.Tracing,
		&c.RateLimit, &c.CircuitBreaker, &c.Auth, &c.Events, &c.Media,
		&c.YouTube, &c.Unsplash, &c.Jobs,
	} {
		d.setDefaults(v)
	}
}

// LoadDefaults 只加载默认值并设为全局配置，供测试与无配置文件的命令使用.
func LoadDefaults() *AppConfig {
	v := viper.New()
	setAllDefaults(v)

	var cfg AppConfig
	_ = v.Unmarshal(&cfg)

	globalConfig, appViper = cfg, v

	return &globalConfig
}

// GetConfig 返回全局配置.
func GetConfig() *AppConfig {
	return &globalConfig
}

// GetViper 返回最近一次加载使用的 viper 实例.
func GetViper() *viper.Viper {
	return appViper
}
