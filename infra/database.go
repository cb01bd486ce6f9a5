package infra

import (
	"errors"
	"time"

	"github.com/amirasaad/payconsole/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNoDatabase is returned when DATABASE_URL is empty.
var ErrNoDatabase = errors.New("DATABASE_URL is not set")

// NewDBConnection opens the console database. SQL is logged only in
// development.
func NewDBConnection(cfg *config.DB, appEnv string) (*gorm.DB, error) {
	if cfg == nil || cfg.Url == "" {
		return nil, ErrNoDatabase
	}

	logMode := logger.Silent
	if appEnv == "development" {
		logMode = logger.Info
	}

	connection, err := gorm.Open(postgres.Open(cfg.Url), &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return connection, nil
}
