package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Storage struct {
	Connection *gorm.DB
}

// NewSQLiteStorage - opens (or creates) the database at path; "file:...?mode=memory" DSNs are accepted as well.
func NewSQLiteStorage(path string) (*Storage, error) {
	if dir := filepath.Dir(path); dir != "." && !isDSN(path) {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("can't open database: %w", err)
		}
	}

	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	conn.Exec("PRAGMA journal_mode=WAL;")
	conn.Exec("PRAGMA synchronous=NORMAL;")
	conn.Exec("PRAGMA foreign_keys=ON;")
	conn.Exec("PRAGMA busy_timeout=5000;")

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("can't get database handle: %w", err)
	}

	// sqlite has a single writer; one connection also keeps an in-memory database alive
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Storage{Connection: conn}, nil
}

func (that *Storage) Close() error {
	sqlDB, err := that.Connection.DB()
	if err != nil {
		return fmt.Errorf("can't get database handle: %w", err)
	}

	return sqlDB.Close()
}

func isDSN(path string) bool {
	return strings.HasPrefix(path, "file:")
}
