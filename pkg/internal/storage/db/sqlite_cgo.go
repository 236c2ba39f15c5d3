//go:build !no_sqlite && cgo

package db

import (
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
)

// cgo 驱动.
func init() {
	RegisterDialectorFactory(configs.SQLite, func(dsn string) gorm.Dialector {
		if strings.HasPrefix(dsn, "file:") && !strings.Contains(dsn, "?") {
			dsn += "?_foreign_keys=on"
		}

		return sqlite.Open(dsn)
	})
}
