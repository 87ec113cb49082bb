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

const proxyColumns = `p.id, p.host, p.port, p.username, p.password_encrypted,
	   p.country, p.protocol, p.is_active, p.last_checked,
	   p.created_at, p.updated_at,
	   (SELECT COUNT(*) FROM assignments a WHERE a.proxy_id = p.id) AS usage_count`

// SQLiteProxyRepository implements ProxyRepository for SQLite.
type SQLiteProxyRepository struct {
	db *sql.DB
}

// NewSQLiteProxyRepository creates a new SQLite proxy repository.
func NewSQLiteProxyRepository(db *sql.DB) *SQLiteProxyRepository {
	return &SQLiteProxyRepository{db: db}
}

// Upsert inserts a proxy or refreshes the existing row with the same
// host:port. The proxy's ID is updated to match the stored row.
func (r *SQLiteProxyRepository) Upsert(ctx context.Context, proxy *models.Proxy) error {
	now := time.Now()
	if proxy.ID == "" {
		proxy.ID = ulid.Make().String()
	}
	if proxy.Protocol == "" {
		proxy.Protocol = models.ProxyProtocolSOCKS5
	}
	proxy.CreatedAt = now
	proxy.UpdatedAt = now

	var lastChecked any
	if proxy.LastChecked != nil {
		lastChecked = proxy.LastChecked.Format(time.RFC3339)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO proxies (
			id, host, port, username, password_encrypted,
			country, protocol, is_active, last_checked,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(host, port) DO UPDATE SET
			username = excluded.username,
			password_encrypted = excluded.password_encrypted,
			country = excluded.country,
			protocol = excluded.protocol,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`,
		proxy.ID,
		proxy.Host,
		proxy.Port,
		nullable(proxy.Username),
		nullable(proxy.PasswordEncrypted),
		nullable(proxy.Country),
		string(proxy.Protocol),
		boolToInt(proxy.IsActive),
		lastChecked,
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		return err
	}

	// On conflict the insert's ID was discarded; read back the stored one.
	row := r.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM proxies WHERE host = ? AND port = ?`,
		proxy.Host, proxy.Port,
	)
	var createdAt string
	if err := row.Scan(&proxy.ID, &createdAt); err != nil {
		return err
	}
	proxy.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return nil
}

// GetByID retrieves a proxy by ID.
func (r *SQLiteProxyRepository) GetByID(ctx context.Context, id string) (*models.Proxy, error) {
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM proxies p WHERE p.id = ?
	`, proxyColumns), id)

	return scanProxyRow(row)
}

// ListActive returns active proxies, most recently added first.
func (r *SQLiteProxyRepository) ListActive(ctx context.Context, limit, offset int) ([]*models.Proxy, error) {
	return r.list(ctx, `WHERE p.is_active = 1`, limit, offset)
}

// List returns all proxies, most recently added first.
func (r *SQLiteProxyRepository) List(ctx context.Context, limit, offset int) ([]*models.Proxy, error) {
	return r.list(ctx, ``, limit, offset)
}

func (r *SQLiteProxyRepository) list(ctx context.Context, where string, limit, offset int) ([]*models.Proxy, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM proxies p
		%s
		ORDER BY p.created_at DESC, p.id DESC
	`, proxyColumns, where)

	args := []any{}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proxies []*models.Proxy
	for rows.Next() {
		proxy, err := scanProxy(rows)
		if err != nil {
			return nil, err
		}
		proxies = append(proxies, proxy)
	}

	return proxies, rows.Err()
}

// Update updates an existing proxy.
func (r *SQLiteProxyRepository) Update(ctx context.Context, proxy *models.Proxy) error {
	proxy.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		UPDATE proxies SET
			host = ?,
			port = ?,
			username = ?,
			password_encrypted = ?,
			country = ?,
			protocol = ?,
			is_active = ?,
			updated_at = ?
		WHERE id = ?
	`,
		proxy.Host,
		proxy.Port,
		nullable(proxy.Username),
		nullable(proxy.PasswordEncrypted),
		nullable(proxy.Country),
		string(proxy.Protocol),
		boolToInt(proxy.IsActive),
		proxy.UpdatedAt.Format(time.RFC3339),
		proxy.ID,
	)

	return err
}

// DeleteMany removes the given proxies, returning how many rows were deleted.
// Assignments referencing them are removed by the cascade.
func (r *SQLiteProxyRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM proxies WHERE id IN (%s)`, placeholders),
		args...,
	)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// MarkChecked records a health check result for a proxy.
func (r *SQLiteProxyRepository) MarkChecked(ctx context.Context, id string, checkedAt time.Time, active bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE proxies SET
			last_checked = ?,
			is_active = ?,
			updated_at = ?
		WHERE id = ?
	`,
		checkedAt.Format(time.RFC3339),
		boolToInt(active),
		time.Now().Format(time.RFC3339),
		id,
	)

	return err
}

// scanProxyRow scans a single row into a Proxy.
func scanProxyRow(row *sql.Row) (*models.Proxy, error) {
	proxy, err := scanProxyFields(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return proxy, err
}

// scanProxy scans the current result row into a Proxy.
func scanProxy(rows *sql.Rows) (*models.Proxy, error) {
	return scanProxyFields(rows.Scan)
}

func scanProxyFields(scan func(...any) error) (*models.Proxy, error) {
	var proxy models.Proxy
	var username, passwordEnc, country, lastChecked sql.NullString
	var protocol string
	var isActive int
	var createdAt, updatedAt string

	err := scan(
		&proxy.ID,
		&proxy.Host,
		&proxy.Port,
		&username,
		&passwordEnc,
		&country,
		&protocol,
		&isActive,
		&lastChecked,
		&createdAt,
		&updatedAt,
		&proxy.UsageCount,
	)
	if err != nil {
		return nil, err
	}

	if username.Valid {
		proxy.Username = username.String
	}
	if passwordEnc.Valid {
		proxy.PasswordEncrypted = passwordEnc.String
	}
	if country.Valid {
		proxy.Country = country.String
	}
	if lastChecked.Valid && lastChecked.String != "" {
		if t, err := time.Parse(time.RFC3339, lastChecked.String); err == nil {
			proxy.LastChecked = &t
		}
	}

	proxy.Protocol = models.ProxyProtocol(protocol)
	proxy.IsActive = isActive != 0
	proxy.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	proxy.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &proxy, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
