// Package repository defines repository interfaces for data access.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/warmloop/warmloop/internal/models"
)

// AccountRepository defines methods for mailbox account data access.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, id string) (bool, error)
}

// ProxyRepository defines methods for proxy data access.
// UsageCount on returned proxies is derived by counting live assignments.
type ProxyRepository interface {
	// Upsert inserts a proxy or, when one with the same host:port exists,
	// refreshes its mutable fields. The proxy's ID reflects the stored row.
	Upsert(ctx context.Context, proxy *models.Proxy) error
	GetByID(ctx context.Context, id string) (*models.Proxy, error)
	// ListActive returns active proxies, most recently added first
	// (id DESC as the stable tie-break), limited to limit when > 0.
	ListActive(ctx context.Context, limit, offset int) ([]*models.Proxy, error)
	List(ctx context.Context, limit, offset int) ([]*models.Proxy, error)
	Update(ctx context.Context, proxy *models.Proxy) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	// MarkChecked records a health check result, stamping last_checked and
	// flipping is_active when the checker decides the proxy is dead.
	MarkChecked(ctx context.Context, id string, checkedAt time.Time, active bool) error
}

// AllocationStore is the transaction-scoped view used inside one allocation
// run. Every call operates on the same underlying transaction.
type AllocationStore interface {
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	ClearForAccounts(ctx context.Context, accountIDs []string) error
	CreateAssignment(ctx context.Context, accountID, proxyID string) (*models.Assignment, error)
}

// AssignmentRepository defines methods for account-to-proxy assignment data
// access. InTx is the only write path used by allocation runs: either every
// cleared and created assignment commits, or none do.
type AssignmentRepository interface {
	InTx(ctx context.Context, fn func(AllocationStore) error) error
	ListViews(ctx context.Context) ([]*models.AssignmentView, error)
	FindByProxy(ctx context.Context, proxyID string) (*models.Assignment, error)
	CountByProxy(ctx context.Context, proxyID string) (int, error)
	// ClearForAccount removes a single account's assignment, reporting
	// whether one existed.
	ClearForAccount(ctx context.Context, accountID string) (bool, error)
}

// PipelineRepository defines methods for warmup pipeline data access.
type PipelineRepository interface {
	Create(ctx context.Context, pipeline *models.Pipeline) error
	GetByID(ctx context.Context, id string) (*models.Pipeline, error)
	List(ctx context.Context) ([]*models.Pipeline, error)
	// Update replaces the pipeline's name and entire node list.
	Update(ctx context.Context, pipeline *models.Pipeline) error
	Delete(ctx context.Context, id string) (bool, error)
}

// Repositories holds all repository instances.
type Repositories struct {
	Account    AccountRepository
	Proxy      ProxyRepository
	Assignment AssignmentRepository
	Pipeline   PipelineRepository
}

// NewRepositories creates all repository instances.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Account:    NewSQLiteAccountRepository(db),
		Proxy:      NewSQLiteProxyRepository(db),
		Assignment: NewSQLiteAssignmentRepository(db),
		Pipeline:   NewSQLitePipelineRepository(db),
	}
}
