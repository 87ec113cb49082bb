package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/warmloop/warmloop/internal/crypto"
	"github.com/warmloop/warmloop/internal/models"
	"github.com/warmloop/warmloop/internal/proxysource"
	"github.com/warmloop/warmloop/internal/repository"
)

// ErrProxyNotFound is returned when a proxy does not exist.
var ErrProxyNotFound = errors.New("proxy not found")

// proxyFetcher is the part of the proxy source the service uses.
type proxyFetcher interface {
	GetProxies(ctx context.Context, country string, limit int) ([]proxysource.Endpoint, error)
	CreateSessionProxy(ctx context.Context, minutes int) (*proxysource.Endpoint, error)
}

// ProxyService manages the proxy pool: ingestion from the upstream source
// and manual CRUD.
type ProxyService struct {
	repos      *repository.Repositories
	source     proxyFetcher
	encryptor  *crypto.Encryptor
	fetchLimit int
	logger     *slog.Logger
}

// NewProxyService creates a new proxy service.
func NewProxyService(repos *repository.Repositories, source proxyFetcher, encryptor *crypto.Encryptor, fetchLimit int, logger *slog.Logger) *ProxyService {
	if fetchLimit <= 0 {
		fetchLimit = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProxyService{
		repos:      repos,
		source:     source,
		encryptor:  encryptor,
		fetchLimit: fetchLimit,
		logger:     logger,
	}
}

// Refresh pulls fresh endpoints from the upstream source and upserts them
// into the pool. Endpoints already known by host:port are refreshed in
// place. Returns the number of endpoints received.
func (s *ProxyService) Refresh(ctx context.Context, country string, limit int) (int, error) {
	if limit <= 0 || limit > s.fetchLimit {
		limit = s.fetchLimit
	}

	endpoints, err := s.source.GetProxies(ctx, country, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch proxies: %w", err)
	}

	for _, ep := range endpoints {
		proxy := &models.Proxy{
			Host:     ep.Host,
			Port:     ep.Port,
			Country:  ep.Country,
			Protocol: ep.Protocol,
			IsActive: true,
		}
		if err := s.repos.Proxy.Upsert(ctx, proxy); err != nil {
			return 0, fmt.Errorf("failed to store proxy %s:%d: %w", ep.Host, ep.Port, err)
		}
	}

	s.logger.Info("proxy pool refreshed", "country", country, "received", len(endpoints))

	return len(endpoints), nil
}

// Add inserts a proxy by hand. The password, when given, is encrypted
// before storage.
func (s *ProxyService) Add(ctx context.Context, proxy *models.Proxy, password string) (*models.Proxy, error) {
	if proxy.Host == "" || proxy.Port <= 0 {
		return nil, fmt.Errorf("host and port are required")
	}

	if password != "" {
		encrypted, err := s.encryptor.Encrypt(password)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt proxy password: %w", err)
		}
		proxy.PasswordEncrypted = encrypted
	}
	proxy.IsActive = true

	if err := s.repos.Proxy.Upsert(ctx, proxy); err != nil {
		return nil, fmt.Errorf("failed to store proxy: %w", err)
	}

	s.logger.Info("proxy added", "proxy_id", proxy.ID, "endpoint", proxy.Address())

	return proxy, nil
}

// Get returns a proxy by ID.
func (s *ProxyService) Get(ctx context.Context, id string) (*models.Proxy, error) {
	proxy, err := s.repos.Proxy.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get proxy: %w", err)
	}
	if proxy == nil {
		return nil, ErrProxyNotFound
	}
	return proxy, nil
}

// List returns proxies, most recently added first. activeOnly restricts
// the listing to proxies eligible for allocation.
func (s *ProxyService) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*models.Proxy, error) {
	if activeOnly {
		return s.repos.Proxy.ListActive(ctx, limit, offset)
	}
	return s.repos.Proxy.List(ctx, limit, offset)
}

// SetActive enables or disables a proxy for allocation.
func (s *ProxyService) SetActive(ctx context.Context, id string, active bool) (*models.Proxy, error) {
	proxy, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	proxy.IsActive = active
	if err := s.repos.Proxy.Update(ctx, proxy); err != nil {
		return nil, fmt.Errorf("failed to update proxy: %w", err)
	}

	s.logger.Info("proxy active state changed", "proxy_id", id, "active", active)

	return proxy, nil
}

// Delete removes proxies by ID, returning how many were deleted. Their
// assignments go with them.
func (s *ProxyService) Delete(ctx context.Context, ids []string) (int64, error) {
	deleted, err := s.repos.Proxy.DeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete proxies: %w", err)
	}

	s.logger.Info("proxies deleted", "requested", len(ids), "deleted", deleted)

	return deleted, nil
}

// Session requests a short-lived session proxy from the upstream source.
// The endpoint is handed straight back to the caller and never enters the
// pool.
func (s *ProxyService) Session(ctx context.Context, minutes int) (*proxysource.Endpoint, error) {
	endpoint, err := s.source.CreateSessionProxy(ctx, minutes)
	if err != nil {
		return nil, fmt.Errorf("failed to create session proxy: %w", err)
	}

	s.logger.Info("session proxy created", "host", endpoint.Host, "port", endpoint.Port)

	return endpoint, nil
}
