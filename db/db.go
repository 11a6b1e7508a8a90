package db

import (
	"strings"

	"github.com/blossom-os/softwarehub/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens the embedded store. Exactly one handle is constructed at
// process start and injected into every component that needs it.
func NewDB(uri string, logDBQueries bool) (*gorm.DB, error) {
	// _txlock=immediate avoids SQLITE_BUSY on concurrent writers
	if !strings.Contains(uri, "?") {
		uri = uri + "?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
	}

	gormConfig := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}
	if logDBQueries {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	gormDB, err := gorm.Open(sqlite.Open(uri), gormConfig)
	if err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection sidesteps lock contention
	sqlDB.SetMaxOpenConns(1)

	return gormDB, nil
}

func Stop(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to get sql db from gorm db")
		return err
	}

	return sqlDB.Close()
}
