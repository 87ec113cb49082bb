// Package service contains the business logic layer.
package service

import (
	"fmt"
	"log/slog"

	"github.com/warmloop/warmloop/internal/config"
	"github.com/warmloop/warmloop/internal/crypto"
	"github.com/warmloop/warmloop/internal/gologin"
	"github.com/warmloop/warmloop/internal/proxysource"
	"github.com/warmloop/warmloop/internal/repository"
)

// Services holds all service instances.
type Services struct {
	Account    *AccountService
	Proxy      *ProxyService
	Allocation *AllocationService
	Pipeline   *PipelineService
	Profile    *ProfileService
}

// NewServices creates all service instances.
func NewServices(cfg *config.Config, repos *repository.Repositories, logger *slog.Logger) (*Services, error) {
	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	source := proxysource.NewClient(cfg.ProxySourceURL, cfg.UseMockSource, logger)
	gologinClient := gologin.NewClient(cfg.GoLoginAPIURL, cfg.GoLoginToken)

	return &Services{
		Account: NewAccountService(repos, encryptor, logger),
		Proxy:   NewProxyService(repos, source, encryptor, cfg.ProxyFetchLimit, logger),
		Allocation: NewAllocationService(repos, encryptor, AllocationDefaults{
			MaxProxies:          cfg.DefaultMaxProxies,
			MaxAccountsPerProxy: cfg.DefaultMaxAccountsPerProxy,
		}, logger),
		Pipeline: NewPipelineService(repos, logger),
		Profile:  NewProfileService(gologinClient, repos, encryptor, logger),
	}, nil
}
