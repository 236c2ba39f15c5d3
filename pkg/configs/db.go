package configs

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DBType 数据库驱动名，别名在 Driver 中归一.
type DBType string

const (
	PostgreSQL DBType = "postgresql"
	Postgres   DBType = "postgres"
	Pg         DBType = "pg"
	MySQL      DBType = "mysql"
	MariaDB    DBType = "mariadb"
	SQLite     DBType = "sqlite"
)

// DBConfig 关系数据库. sqlite 只使用 Path，其余驱动使用网络字段.
type DBConfig struct {
	Type     DBType `mapstructure:"type"     rule:"oneof=postgresql postgres pg mysql mariadb sqlite"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"     rule:"min=0,max=65535"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
	// Path sqlite 文件，":memory:" 为内存库
	Path string `mapstructure:"path"`

	MaxOpenConns       int  `mapstructure:"max_open_conns"        rule:"min=0"`
	MaxIdleConns       int  `mapstructure:"max_idle_conns"        rule:"min=0"`
	ConnMaxLifetimeMin int  `mapstructure:"conn_max_lifetime_min" rule:"min=0"`
	SlowQueryMS        int  `mapstructure:"slow_query_ms"         rule:"min=0"`
	AutoMigrate        bool `mapstructure:"auto_migrate"`
}

// Driver 返回归一后的驱动名：postgres、mysql、sqlite，未知类型原样返回.
func (c *DBConfig) Driver() DBType {
	switch c.Type {
	case PostgreSQL, Postgres, Pg:
		return Postgres
	case MySQL, MariaDB:
		return MySQL
	default:
		return c.Type
	}
}

// ConnMaxLifetime 返回连接最长存活时间，0 为不限制.
func (c *DBConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeMin) * time.Minute
}

// SlowThreshold 返回慢查询阈值.
func (c *DBConfig) SlowThreshold() time.Duration {
	return time.Duration(c.SlowQueryMS) * time.Millisecond
}

// GetDSN 按驱动拼接连接串，不支持的类型返回空串.
func (c *DBConfig) GetDSN() string {
	switch c.Driver() {
	case Postgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
			Path:     "/" + c.Database,
			RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
		}

		return u.String()
	case MySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.User, c.Password, c.Host, c.Port, c.Database)
	case SQLite:
		path := c.Path
		if path == "" {
			path = c.Database + ".db"
		}

		if path == ":memory:" || strings.HasPrefix(path, "file:") {
			return path
		}

		return "file:" + path
	default:
		return ""
	}
}

// Target 日志中展示的连接目标，不含密码.
func (c *DBConfig) Target() string {
	if c.Driver() == SQLite {
		return c.GetDSN()
	}

	return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.Database)
}

func (c *DBConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("db.type", SQLite)
	v.SetDefault("db.path", "data/sharesmallbiz.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.database", "sharesmallbiz")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 0)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime_min", 30)
	v.SetDefault("db.slow_query_ms", 200)
	v.SetDefault("db.auto_migrate", true)
}
