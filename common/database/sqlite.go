package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/duaragha/cat-tracker-sub000/common/config"

	_ "modernc.org/sqlite"
)

// NewSQLiteDB opens the SQLite file named by cfg.SQLitePath, creating its
// directory when needed. One connection serializes writers.
func NewSQLiteDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open(config.DriverSQLite, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}
