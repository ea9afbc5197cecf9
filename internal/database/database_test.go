package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/Aceless34/PrintingQueue/internal/config"
)

func TestOpenSQLiteCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	db, err := Open(config.DatabaseConfig{Driver: DriverSQLite, Dir: dir}, logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
	})

	var foreignKeys int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&foreignKeys).Error)
	assert.Equal(t, 1, foreignKeys)

	var journal string
	require.NoError(t, db.Raw("PRAGMA journal_mode").Scan(&journal).Error)
	assert.Equal(t, "wal", journal)

	_, err = os.Stat(filepath.Join(dir, "printingqueue.db"))
	assert.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"}, logger.Silent)
	assert.ErrorContains(t, err, `unsupported database driver "oracle"`)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, LogLevel("debug"))
	assert.Equal(t, logger.Warn, LogLevel("info"))
	assert.Equal(t, logger.Error, LogLevel("error"))
	assert.Equal(t, logger.Silent, LogLevel(""))
}
