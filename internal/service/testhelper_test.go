package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/warmloop/warmloop/internal/crypto"
	"github.com/warmloop/warmloop/internal/database/migrations"
	"github.com/warmloop/warmloop/internal/models"
	"github.com/warmloop/warmloop/internal/repository"
	_ "modernc.org/sqlite"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

// setupTest creates repositories over an in-memory database plus a working
// encryptor.
func setupTest(t *testing.T) (*repository.Repositories, *crypto.Encryptor) {
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

	encryptor, err := crypto.NewEncryptor(testKey)
	if err != nil {
		t.Fatalf("failed to create encryptor: %v", err)
	}

	return repository.NewRepositories(db), encryptor
}

// testFixture bundles repositories with bulk creation helpers.
type testFixture struct {
	repos *repository.Repositories
}

// accounts creates one account per email and returns their IDs in input order.
func (fx *testFixture) accounts(t *testing.T, emails ...string) []string {
	t.Helper()

	ids := make([]string, len(emails))
	for i, email := range emails {
		ids[i] = createAccount(t, fx.repos, email).ID
	}
	return ids
}

// proxies creates one active proxy per host and returns their IDs in input
// order.
func (fx *testFixture) proxies(t *testing.T, hosts ...string) []string {
	t.Helper()

	ids := make([]string, len(hosts))
	for i, host := range hosts {
		ids[i] = createProxy(t, fx.repos, host).ID
	}
	return ids
}

// createAccount inserts an account through the repository and returns it.
func createAccount(t *testing.T, repos *repository.Repositories, email string) *models.Account {
	t.Helper()

	account := &models.Account{Email: email, PasswordEncrypted: "enc:pw"}
	if err := repos.Account.Create(context.Background(), account); err != nil {
		t.Fatalf("failed to create account %s: %v", email, err)
	}
	return account
}

// createProxy inserts an active proxy and returns it. Proxies created later
// rank earlier in allocation candidate order, matching insertion recency.
func createProxy(t *testing.T, repos *repository.Repositories, host string) *models.Proxy {
	t.Helper()

	proxy := &models.Proxy{Host: host, Port: 4000, IsActive: true}
	if err := repos.Proxy.Upsert(context.Background(), proxy); err != nil {
		t.Fatalf("failed to create proxy %s: %v", host, err)
	}
	return proxy
}
