package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/warmloop/warmloop/internal/models"
	"github.com/warmloop/warmloop/internal/service"
)

// AccountsHandler handles mailbox account endpoints.
type AccountsHandler struct {
	svc *service.AccountService
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(svc *service.AccountService) *AccountsHandler {
	return &AccountsHandler{svc: svc}
}

// CreateAccountInput represents an account creation request.
type CreateAccountInput struct {
	Body struct {
		Email    string `json:"email" format:"email" doc:"Mailbox address"`
		Password string `json:"password" minLength:"1" doc:"Mailbox password, stored encrypted"`
	}
}

// AccountOutput represents a single account response.
type AccountOutput struct {
	Body *models.Account
}

// CreateAccount creates a mailbox account.
func (h *AccountsHandler) CreateAccount(ctx context.Context, input *CreateAccountInput) (*AccountOutput, error) {
	account, err := h.svc.Create(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return nil, huma.Error409Conflict("email already registered")
		}
		return nil, huma.Error500InternalServerError("failed to create account: " + err.Error())
	}
	return &AccountOutput{Body: account}, nil
}

// BulkCreateAccountsInput represents a bulk import request.
type BulkCreateAccountsInput struct {
	Body struct {
		Accounts []struct {
			Email    string `json:"email" format:"email" doc:"Mailbox address"`
			Password string `json:"password" minLength:"1" doc:"Mailbox password"`
		} `json:"accounts" minItems:"1" doc:"Accounts to import"`
	}
}

// BulkCreateAccountsOutput represents a bulk import result.
type BulkCreateAccountsOutput struct {
	Body struct {
		Created []*models.Account `json:"created" doc:"Accounts that were imported"`
		Errors  []string          `json:"errors,omitempty" doc:"Per-account failures"`
	}
}

// BulkCreateAccounts imports accounts, continuing past individual failures.
func (h *AccountsHandler) BulkCreateAccounts(ctx context.Context, input *BulkCreateAccountsInput) (*BulkCreateAccountsOutput, error) {
	out := &BulkCreateAccountsOutput{}
	out.Body.Created = []*models.Account{}
	for _, a := range input.Body.Accounts {
		account, err := h.svc.Create(ctx, a.Email, a.Password)
		if err != nil {
			out.Body.Errors = append(out.Body.Errors, fmt.Sprintf("%s: %v", a.Email, err))
			continue
		}
		out.Body.Created = append(out.Body.Created, account)
	}
	return out, nil
}

// GetAccountInput represents a single-account request.
type GetAccountInput struct {
	ID string `path:"id" doc:"Account ID"`
}

// GetAccount retrieves one account.
func (h *AccountsHandler) GetAccount(ctx context.Context, input *GetAccountInput) (*AccountOutput, error) {
	account, err := h.svc.Get(ctx, input.ID)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return nil, huma.Error404NotFound("account not found")
		}
		return nil, huma.Error500InternalServerError("failed to get account: " + err.Error())
	}
	return &AccountOutput{Body: account}, nil
}

// ListAccountsOutput represents the account listing.
type ListAccountsOutput struct {
	Body struct {
		Accounts []*models.Account `json:"accounts"`
	}
}

// ListAccounts returns all accounts.
func (h *AccountsHandler) ListAccounts(ctx context.Context, input *struct{}) (*ListAccountsOutput, error) {
	accounts, err := h.svc.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list accounts: " + err.Error())
	}
	out := &ListAccountsOutput{}
	out.Body.Accounts = accounts
	if out.Body.Accounts == nil {
		out.Body.Accounts = []*models.Account{}
	}
	return out, nil
}

// UpdateAccountInput represents an account update request.
type UpdateAccountInput struct {
	ID   string `path:"id" doc:"Account ID"`
	Body struct {
		Email    string `json:"email,omitempty" doc:"New mailbox address"`
		Password string `json:"password,omitempty" doc:"New password, re-encrypted when set"`
	}
}

// UpdateAccount updates an account's email or password.
func (h *AccountsHandler) UpdateAccount(ctx context.Context, input *UpdateAccountInput) (*AccountOutput, error) {
	account, err := h.svc.Update(ctx, input.ID, input.Body.Email, input.Body.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			return nil, huma.Error404NotFound("account not found")
		case errors.Is(err, service.ErrEmailTaken):
			return nil, huma.Error409Conflict("email already registered")
		}
		return nil, huma.Error500InternalServerError("failed to update account: " + err.Error())
	}
	return &AccountOutput{Body: account}, nil
}

// DeleteAccountInput represents an account deletion request.
type DeleteAccountInput struct {
	ID string `path:"id" doc:"Account ID"`
}

// DeleteAccount removes an account and its assignment.
func (h *AccountsHandler) DeleteAccount(ctx context.Context, input *DeleteAccountInput) (*struct{}, error) {
	if err := h.svc.Delete(ctx, input.ID); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return nil, huma.Error404NotFound("account not found")
		}
		return nil, huma.Error500InternalServerError("failed to delete account: " + err.Error())
	}
	return &struct{}{}, nil
}
