package database

import (
	"database/sql"
	"fmt"

	"github.com/duaragha/cat-tracker-sub000/common/config"

	_ "github.com/lib/pq"
)

// NewPostgresDB opens a PostgreSQL connection pool.
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(config.DriverPostgres, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	if cfg.MaxLife > 0 {
		db.SetConnMaxLifetime(cfg.MaxLife)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Open picks PostgreSQL or SQLite from the config and returns the pool plus the driver name.
func Open(cfg *config.DatabaseConfig) (*sql.DB, string, error) {
	driver := cfg.Driver()
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case config.DriverPostgres:
		db, err = NewPostgresDB(cfg)
	default:
		db, err = NewSQLiteDB(cfg)
	}
	if err != nil {
		return nil, driver, err
	}
	return db, driver, nil
}

// Close closes the pool if it is non-nil.
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
