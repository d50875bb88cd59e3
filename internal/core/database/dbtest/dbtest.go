// Package dbtest 为测试提供落在临时目录的 sqlite 数据库
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"freelance-market/internal/core/database"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:             "sqlite",
		DSN:                filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:       4,
		MaxIdleConns:       4,
		ConnMaxLifetimeMin: 5,
		LogLevel:           "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
