package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/warmloop/warmloop/internal/models"
)

// SQLiteAssignmentRepository implements AssignmentRepository for SQLite.
type SQLiteAssignmentRepository struct {
	db *sql.DB
}

// NewSQLiteAssignmentRepository creates a new SQLite assignment repository.
func NewSQLiteAssignmentRepository(db *sql.DB) *SQLiteAssignmentRepository {
	return &SQLiteAssignmentRepository{db: db}
}

// InTx runs fn with an AllocationStore bound to a single transaction.
// The transaction commits only when fn returns nil.
func (r *SQLiteAssignmentRepository) InTx(ctx context.Context, fn func(AllocationStore) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin allocation tx: %w", err)
	}

	if err := fn(&txAllocationStore{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// ListViews returns all assignments joined with account and proxy identity,
// ordered by account email for stable output.
func (r *SQLiteAssignmentRepository) ListViews(ctx context.Context) ([]*models.AssignmentView, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.account_id, acc.email, a.proxy_id,
			   p.host, p.port, p.protocol, p.username, p.password_encrypted
		FROM assignments a
		JOIN accounts acc ON acc.id = a.account_id
		JOIN proxies p ON p.id = a.proxy_id
		ORDER BY acc.email ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*models.AssignmentView
	for rows.Next() {
		var view models.AssignmentView
		var protocol string
		var username, passwordEnc sql.NullString

		if err := rows.Scan(
			&view.AccountID,
			&view.Email,
			&view.ProxyID,
			&view.ProxyHost,
			&view.ProxyPort,
			&protocol,
			&username,
			&passwordEnc,
		); err != nil {
			return nil, err
		}

		view.ProxyProtocol = models.ProxyProtocol(protocol)
		if username.Valid {
			view.ProxyUsername = username.String
		}
		if passwordEnc.Valid {
			view.ProxyPasswordEncrypted = passwordEnc.String
		}
		views = append(views, &view)
	}

	return views, rows.Err()
}

// FindByProxy returns one assignment on the given proxy, or nil when the
// proxy has none.
func (r *SQLiteAssignmentRepository) FindByProxy(ctx context.Context, proxyID string) (*models.Assignment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, proxy_id, created_at
		FROM assignments
		WHERE proxy_id = ?
		LIMIT 1
	`, proxyID)

	var assignment models.Assignment
	var createdAt string

	err := row.Scan(&assignment.ID, &assignment.AccountID, &assignment.ProxyID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	assignment.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return &assignment, nil
}

// CountByProxy returns the number of live assignments on a proxy.
func (r *SQLiteAssignmentRepository) CountByProxy(ctx context.Context, proxyID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignments WHERE proxy_id = ?`,
		proxyID,
	).Scan(&count)

	return count, err
}

// ClearForAccount removes a single account's assignment, reporting whether
// one existed. Clearing an account with no assignment is not an error.
func (r *SQLiteAssignmentRepository) ClearForAccount(ctx context.Context, accountID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM assignments WHERE account_id = ?`,
		accountID,
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// txAllocationStore implements AllocationStore on top of one transaction.
type txAllocationStore struct {
	tx *sql.Tx
}

func (s *txAllocationStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	row := s.tx.QueryRowContext(ctx, `
		SELECT id, email, password_encrypted, created_at, updated_at
		FROM accounts
		WHERE id = ?
	`, id)

	return scanAccount(row)
}

func (s *txAllocationStore) ClearForAccounts(ctx context.Context, accountIDs []string) error {
	if len(accountIDs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(accountIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(accountIDs))
	for i, id := range accountIDs {
		args[i] = id
	}

	_, err := s.tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM assignments WHERE account_id IN (%s)`, placeholders),
		args...,
	)

	return err
}

func (s *txAllocationStore) CreateAssignment(ctx context.Context, accountID, proxyID string) (*models.Assignment, error) {
	assignment := &models.Assignment{
		ID:        ulid.Make().String(),
		AccountID: accountID,
		ProxyID:   proxyID,
		CreatedAt: time.Now(),
	}

	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO assignments (id, account_id, proxy_id, created_at)
		VALUES (?, ?, ?, ?)
	`,
		assignment.ID,
		assignment.AccountID,
		assignment.ProxyID,
		assignment.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}

	return assignment, nil
}
