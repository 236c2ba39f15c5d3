//go:build !no_sqlite && !cgo

package db

import (
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
)

// 纯 Go 驱动，外键约束通过 _pragma 打开.
func init() {
	RegisterDialectorFactory(configs.SQLite, func(dsn string) gorm.Dialector {
		if strings.HasPrefix(dsn, "file:") && !strings.Contains(dsn, "?") {
			dsn += "?_pragma=foreign_keys(1)"
		}

		return sqlite.Open(dsn)
	})
}
