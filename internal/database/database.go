// Package database handles database connections and migrations.
package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/warmloop/warmloop/internal/database/migrations"
)

// New opens a SQLite database. The DSN is a plain file path or ":memory:";
// query parameters accepted by modernc.org/sqlite pass through unchanged.
func New(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; serialize through one connection so
	// concurrent allocation transactions queue instead of failing with BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate runs all pending schema migrations.
func Migrate(db *sql.DB, logger *slog.Logger) error {
	return migrations.Run(db, logger)
}

// SchemaVersion returns the latest applied migration timestamp and the total
// number of applied migrations.
func SchemaVersion(db *sql.DB) (string, int, error) {
	version, err := migrations.LatestVersion(db)
	if err != nil {
		return "", 0, err
	}
	count, err := migrations.Count(db)
	if err != nil {
		return "", 0, err
	}
	return version, count, nil
}
