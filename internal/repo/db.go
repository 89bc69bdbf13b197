// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping for the pure-Go
// SQLite driver and schema migration.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-index-backend/internal/domain"
)

// Connection pool bounds. SQLite serializes writers regardless, so the pool
// mostly parallelizes readers (search and list traffic).
const (
	maxOpenConns    = 10
	maxIdleConns    = 10
	connMaxIdleTime = 5 * time.Minute
	connMaxLifetime = 30 * time.Minute
)

// startupPragmas tunes the database for one writer (the task scheduler) plus
// concurrent readers: WAL keeps readers off the writer's lock and the busy
// timeout absorbs the remaining contention.
var startupPragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA foreign_keys=ON;",
	"PRAGMA busy_timeout=5000;",
}

// OpenSQLite opens (or creates) the SQLite database at path, applies the
// startup PRAGMAs, installs query tracing, and bounds the connection pool.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early when the parent directory is missing; the driver's own
	// error for that case is the cryptic "out of memory (14)".
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	for _, pragma := range startupPragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("repo: apply %q: %w", pragma, err)
		}
	}

	// Query spans end up on the request trace alongside handler spans.
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	return db, nil
}

// AutoMigrate creates or updates the schema for all domain models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Index{},
		&domain.Document{},
		&domain.Task{},
		&domain.Idempotency{},
	)
}
