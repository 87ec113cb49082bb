package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/warmloop/warmloop/internal/crypto"
	"github.com/warmloop/warmloop/internal/models"
	"github.com/warmloop/warmloop/internal/repository"
)

var (
	// ErrAccountNotFound is returned when an account does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrEmailTaken is returned when an email is already registered.
	ErrEmailTaken = errors.New("email already registered")
)

// AccountService handles mailbox account management. Passwords are
// encrypted before they touch storage and never returned to callers.
type AccountService struct {
	repos     *repository.Repositories
	encryptor *crypto.Encryptor
	logger    *slog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(repos *repository.Repositories, encryptor *crypto.Encryptor, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{
		repos:     repos,
		encryptor: encryptor,
		logger:    logger,
	}
}

// Create registers a mailbox account.
func (s *AccountService) Create(ctx context.Context, email, password string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	existing, err := s.repos.Account.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	encrypted, err := s.encryptor.Encrypt(password)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt password: %w", err)
	}

	account := &models.Account{
		Email:             email,
		PasswordEncrypted: encrypted,
	}
	if err := s.repos.Account.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("account created", "account_id", account.ID, "email", email)

	return account, nil
}

// Get returns an account by ID.
func (s *AccountService) Get(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.repos.Account.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// List returns all accounts.
func (s *AccountService) List(ctx context.Context) ([]*models.Account, error) {
	return s.repos.Account.List(ctx)
}

// Update changes an account's email and, when newPassword is non-empty,
// its password.
func (s *AccountService) Update(ctx context.Context, id, email, newPassword string) (*models.Account, error) {
	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if email != "" {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != account.Email {
			existing, err := s.repos.Account.GetByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if existing != nil {
				return nil, ErrEmailTaken
			}
			account.Email = email
		}
	}

	if newPassword != "" {
		encrypted, err := s.encryptor.Encrypt(newPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt password: %w", err)
		}
		account.PasswordEncrypted = encrypted
	}

	if err := s.repos.Account.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	return account, nil
}

// Delete removes an account. Its assignment, if any, goes with it.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repos.Account.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if !deleted {
		return ErrAccountNotFound
	}

	s.logger.Info("account deleted", "account_id", id)

	return nil
}

// Password returns an account's decrypted password.
func (s *AccountService) Password(ctx context.Context, id string) (string, error) {
	account, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.encryptor.Decrypt(account.PasswordEncrypted)
}
