package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/warmloop/warmloop/internal/crypto"
	"github.com/warmloop/warmloop/internal/gologin"
	"github.com/warmloop/warmloop/internal/repository"
)

// ProfileService fronts the GoLogin profile provisioning API. Profile
// documents pass through untouched except for proxy attachment, which
// writes the document's proxy block from the local pool.
type ProfileService struct {
	client    *gologin.Client
	repos     *repository.Repositories
	encryptor *crypto.Encryptor
	logger    *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(client *gologin.Client, repos *repository.Repositories, encryptor *crypto.Encryptor, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{client: client, repos: repos, encryptor: encryptor, logger: logger}
}

// List returns all provisioned profiles.
func (s *ProfileService) List(ctx context.Context) (*gologin.ProfileList, error) {
	return s.client.ListProfiles(ctx)
}

// Get returns one profile by ID.
func (s *ProfileService) Get(ctx context.Context, id string) (gologin.Profile, error) {
	return s.client.GetProfile(ctx, id)
}

// Create provisions a profile from the given document.
func (s *ProfileService) Create(ctx context.Context, doc gologin.Profile) (gologin.Profile, error) {
	created, err := s.client.CreateProfile(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.Info("profile created", "profile_id", created.ID(), "name", created.Name())

	return created, nil
}

// Update replaces a profile's document.
func (s *ProfileService) Update(ctx context.Context, id string, doc gologin.Profile) (gologin.Profile, error) {
	return s.client.UpdateProfile(ctx, id, doc)
}

// AttachProxy points a profile at a proxy from the local pool. The rest of
// the profile document is preserved.
func (s *ProfileService) AttachProxy(ctx context.Context, profileID, proxyID string) (gologin.Profile, error) {
	proxy, err := s.repos.Proxy.GetByID(ctx, proxyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get proxy: %w", err)
	}
	if proxy == nil {
		return nil, ErrProxyNotFound
	}

	password := ""
	if proxy.PasswordEncrypted != "" {
		password, err = s.encryptor.Decrypt(proxy.PasswordEncrypted)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt proxy password: %w", err)
		}
	}

	doc, err := s.client.GetProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	doc["proxy"] = map[string]any{
		"mode":     string(proxy.Protocol),
		"host":     proxy.Host,
		"port":     proxy.Port,
		"username": proxy.Username,
		"password": password,
	}

	updated, err := s.client.UpdateProfile(ctx, profileID, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("proxy attached to profile", "profile_id", profileID, "proxy_id", proxyID)

	return updated, nil
}

// Delete removes a profile.
func (s *ProfileService) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteProfile(ctx, id); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	s.logger.Info("profile deleted", "profile_id", id)

	return nil
}
