package repository

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/warmloop/warmloop/internal/database/migrations"
	_ "modernc.org/sqlite"
)

// setupTestDB creates an in-memory SQLite database for testing.
// It runs migrations and returns a database connection that will be cleaned up
// when the test completes.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// setupTestRepos creates all repositories using a test database.
func setupTestRepos(t *testing.T) (*Repositories, *sql.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewRepositories(db), db
}

// insertTestAccount inserts an account row directly.
func insertTestAccount(t *testing.T, db *sql.DB, id, email string) {
	t.Helper()
	query := `
		INSERT INTO accounts (id, email, password_encrypted, created_at, updated_at)
		VALUES (?, ?, 'enc:secret', datetime('now'), datetime('now'))
	`
	if _, err := db.Exec(query, id, email); err != nil {
		t.Fatalf("failed to insert test account: %v", err)
	}
}

// insertTestProxy inserts a proxy row directly. created_at is offset by seq
// seconds so insertion order is observable in created_at ordering.
func insertTestProxy(t *testing.T, db *sql.DB, id, host string, port, seq int, active bool) {
	t.Helper()
	isActive := 0
	if active {
		isActive = 1
	}
	query := fmt.Sprintf(`
		INSERT INTO proxies (id, host, port, protocol, is_active, created_at, updated_at)
		VALUES (?, ?, ?, 'socks5', ?, datetime('now', '+%d seconds'), datetime('now'))
	`, seq)
	if _, err := db.Exec(query, id, host, port, isActive); err != nil {
		t.Fatalf("failed to insert test proxy: %v", err)
	}
}

// insertTestAssignment inserts an assignment row directly.
func insertTestAssignment(t *testing.T, db *sql.DB, id, accountID, proxyID string) {
	t.Helper()
	query := `
		INSERT INTO assignments (id, account_id, proxy_id, created_at)
		VALUES (?, ?, ?, datetime('now'))
	`
	if _, err := db.Exec(query, id, accountID, proxyID); err != nil {
		t.Fatalf("failed to insert test assignment: %v", err)
	}
}
