package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/warmloop/warmloop/internal/models"
)

// SQLiteAccountRepository implements AccountRepository for SQLite.
type SQLiteAccountRepository struct {
	db *sql.DB
}

// NewSQLiteAccountRepository creates a new SQLite account repository.
func NewSQLiteAccountRepository(db *sql.DB) *SQLiteAccountRepository {
	return &SQLiteAccountRepository{db: db}
}

// Create creates a new account.
func (r *SQLiteAccountRepository) Create(ctx context.Context, account *models.Account) error {
	now := time.Now()
	if account.ID == "" {
		account.ID = ulid.Make().String()
	}
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_encrypted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		account.ID,
		account.Email,
		account.PasswordEncrypted,
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)

	return err
}

// GetByID retrieves an account by ID.
func (r *SQLiteAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_encrypted, created_at, updated_at
		FROM accounts
		WHERE id = ?
	`, id)

	return scanAccount(row)
}

// GetByEmail retrieves an account by email.
func (r *SQLiteAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_encrypted, created_at, updated_at
		FROM accounts
		WHERE email = ?
	`, email)

	return scanAccount(row)
}

// List returns all accounts, newest first.
func (r *SQLiteAccountRepository) List(ctx context.Context) ([]*models.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email, password_encrypted, created_at, updated_at
		FROM accounts
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var account models.Account
		var createdAt, updatedAt string

		if err := rows.Scan(
			&account.ID,
			&account.Email,
			&account.PasswordEncrypted,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, err
		}

		account.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		account.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		accounts = append(accounts, &account)
	}

	return accounts, rows.Err()
}

// Update updates an existing account.
func (r *SQLiteAccountRepository) Update(ctx context.Context, account *models.Account) error {
	account.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET
			email = ?,
			password_encrypted = ?,
			updated_at = ?
		WHERE id = ?
	`,
		account.Email,
		account.PasswordEncrypted,
		account.UpdatedAt.Format(time.RFC3339),
		account.ID,
	)

	return err
}

// Delete removes an account by ID, reporting whether a row existed.
func (r *SQLiteAccountRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// scanAccount scans a single row into an Account.
func scanAccount(row *sql.Row) (*models.Account, error) {
	var account models.Account
	var createdAt, updatedAt string

	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordEncrypted,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	account.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	account.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &account, nil
}
