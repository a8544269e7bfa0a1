package sqlite

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fileParams turn on WAL and a busy timeout so the audit writer and
// request handlers do not trip over each other's locks.
const fileParams = "_journal_mode=WAL&_busy_timeout=5000"

func open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	return db, nil
}

// Open creates a GORM *DB backed by a SQLite file. Caller-supplied query
// parameters are kept as is.
func Open(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: empty path")
	}
	dsn := path
	if !strings.Contains(path, "?") {
		dsn = "file:" + path + "?" + fileParams
	}
	return open(dsn)
}

// OpenMemory creates a private in-memory database. Each call gets its own
// named database so parallel tests do not share rows.
func OpenMemory() (*gorm.DB, error) {
	db, err := open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one connection keeps the database alive and serialises writers
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
