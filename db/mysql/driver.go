package mysql

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds the DSN and pool limits. Zero limits fall back to defaults.
type Config struct {
	DSN     string
	MaxOpen int
	MaxIdle int
	MaxLife time.Duration
}

const (
	defaultMaxOpen = 20
	defaultMaxIdle = 5
	defaultMaxLife = 30 * time.Minute
)

// Open connects to MySQL and applies the pool limits. Driver errors are
// translated so callers can match gorm.ErrDuplicatedKey.
func Open(cfg Config) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("mysql: empty dsn")
	}
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               cfg.DSN,
		DefaultStringSize: 191, // fits utf8mb4 unique indexes
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(orDefault(cfg.MaxOpen, defaultMaxOpen))
	sqlDB.SetMaxIdleConns(orDefault(cfg.MaxIdle, defaultMaxIdle))
	if cfg.MaxLife > 0 {
		sqlDB.SetConnMaxLifetime(cfg.MaxLife)
	} else {
		sqlDB.SetConnMaxLifetime(defaultMaxLife)
	}
	return db, nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
