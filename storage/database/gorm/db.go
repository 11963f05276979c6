package gormrepos

import (
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/storage/database"
)

// Open opens the sqlite database file at path and applies the migrations.
func Open(path string, debug bool) (*gorm.DB, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Warn
	}
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite database")
	}

	// sqlite works best with a single writer
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, errors.Wrap(err, "getting sql.DB")
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	// tables come from the same migrations as the other engines, not from AutoMigrate
	if err = database.Migrate(sqlDB, core.EngineSQLite); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return conn, nil
}

// Close closes the underlying sql.DB.
func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
