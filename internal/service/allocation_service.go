package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/warmloop/warmloop/internal/crypto"
	"github.com/warmloop/warmloop/internal/models"
	"github.com/warmloop/warmloop/internal/repository"
)

// ErrNoCapacity is returned when an allocation run finds no active proxies.
var ErrNoCapacity = errors.New("no active proxies available")

// AllocationDefaults are the capacity bounds used when a request leaves
// them unset.
type AllocationDefaults struct {
	MaxProxies          int
	MaxAccountsPerProxy int
}

// Mapping is one account-to-proxy pairing produced by an allocation run.
type Mapping struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	ProxyID   string `json:"proxy_id"`
	ProxyHost string `json:"proxy_host"`
	ProxyPort int    `json:"proxy_port"`
}

// AllocationResult is the outcome of one allocation run.
type AllocationResult struct {
	Mappings []Mapping `json:"mappings"`
	// Skipped holds account IDs that could not be assigned, either
	// because every proxy was at capacity or the account is unknown.
	Skipped []string `json:"skipped,omitempty"`
}

// AllocationService distributes accounts across active proxies.
type AllocationService struct {
	repos     *repository.Repositories
	encryptor *crypto.Encryptor
	defaults  AllocationDefaults
	logger    *slog.Logger
}

// NewAllocationService creates a new allocation service.
func NewAllocationService(repos *repository.Repositories, encryptor *crypto.Encryptor, defaults AllocationDefaults, logger *slog.Logger) *AllocationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AllocationService{
		repos:     repos,
		encryptor: encryptor,
		defaults:  defaults,
		logger:    logger,
	}
}

// Allocate distributes the given accounts across up to maxProxies active
// proxies, at most maxAccountsPerProxy accounts each. Existing assignments
// for the requested accounts are replaced. Each account goes to the least
// loaded candidate proxy, counting only this run's placements; on a tie the
// earliest candidate wins, so a given input always produces the same
// distribution. The whole run is one transaction.
func (s *AllocationService) Allocate(ctx context.Context, accountIDs []string, maxProxies, maxAccountsPerProxy int) (*AllocationResult, error) {
	if maxProxies <= 0 {
		maxProxies = s.defaults.MaxProxies
	}
	if maxAccountsPerProxy <= 0 {
		maxAccountsPerProxy = s.defaults.MaxAccountsPerProxy
	}

	s.logger.Info("creating proxy mapping",
		"accounts", len(accountIDs),
		"max_proxies", maxProxies,
		"max_accounts_per_proxy", maxAccountsPerProxy)

	// Candidates are the most recently added active proxies.
	candidates, err := s.repos.Proxy.ListActive(ctx, maxProxies, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list active proxies: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrNoCapacity
	}

	result := &AllocationResult{}
	usage := make(map[string]int, len(candidates))

	err = s.repos.Assignment.InTx(ctx, func(store repository.AllocationStore) error {
		if err := store.ClearForAccounts(ctx, accountIDs); err != nil {
			return fmt.Errorf("failed to clear existing assignments: %w", err)
		}

		for _, accountID := range accountIDs {
			// Unknown accounts are skipped before a proxy is picked so
			// they never count against anyone's capacity.
			account, err := store.GetAccount(ctx, accountID)
			if err != nil {
				return fmt.Errorf("failed to load account %s: %w", accountID, err)
			}
			if account == nil {
				s.logger.Warn("account not found, skipping", "account_id", accountID)
				result.Skipped = append(result.Skipped, accountID)
				continue
			}

			selected := pickLeastLoaded(candidates, usage, maxAccountsPerProxy)
			if selected == nil {
				s.logger.Warn("all proxies at capacity, skipping account",
					"account_id", accountID)
				result.Skipped = append(result.Skipped, accountID)
				continue
			}

			if _, err := store.CreateAssignment(ctx, accountID, selected.ID); err != nil {
				return fmt.Errorf("failed to assign account %s: %w", accountID, err)
			}

			usage[selected.ID]++
			result.Mappings = append(result.Mappings, Mapping{
				AccountID: account.ID,
				Email:     account.Email,
				ProxyID:   selected.ID,
				ProxyHost: selected.Host,
				ProxyPort: selected.Port,
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("proxy mapping created",
		"mapped", len(result.Mappings), "skipped", len(result.Skipped))

	return result, nil
}

// pickLeastLoaded returns the candidate with the fewest placements from this
// run that still has capacity, preferring the earliest candidate on ties.
// It returns nil when every candidate is full.
func pickLeastLoaded(candidates []*models.Proxy, usage map[string]int, maxPerProxy int) *models.Proxy {
	var selected *models.Proxy
	minLoad := maxPerProxy

	for _, candidate := range candidates {
		load := usage[candidate.ID]
		if load < minLoad {
			selected = candidate
			minLoad = load
		}
	}

	return selected
}

// GetAssignments returns every live assignment with proxy credentials
// decrypted, ready for the session orchestrator.
func (s *AllocationService) GetAssignments(ctx context.Context) ([]*models.AssignmentView, error) {
	views, err := s.repos.Assignment.ListViews(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	for _, view := range views {
		password, err := s.encryptor.Decrypt(view.ProxyPasswordEncrypted)
		if err != nil {
			s.logger.Error("failed to decrypt proxy password",
				"account_id", view.AccountID, "proxy_id", view.ProxyID, "error", err)
			continue
		}
		view.ProxyPassword = password
	}

	return views, nil
}

// Unassign removes one account's assignment, reporting whether one existed.
// Removing a missing assignment is not an error.
func (s *AllocationService) Unassign(ctx context.Context, accountID string) (bool, error) {
	existed, err := s.repos.Assignment.ClearForAccount(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("failed to clear assignment: %w", err)
	}

	if existed {
		s.logger.Info("assignment removed", "account_id", accountID)
	}

	return existed, nil
}
