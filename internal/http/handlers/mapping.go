package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/warmloop/warmloop/internal/models"
	"github.com/warmloop/warmloop/internal/service"
)

// MappingHandler handles proxy-to-account mapping endpoints.
type MappingHandler struct {
	svc *service.AllocationService
}

// NewMappingHandler creates a new mapping handler.
func NewMappingHandler(svc *service.AllocationService) *MappingHandler {
	return &MappingHandler{svc: svc}
}

// CreateMappingInput represents a mapping request.
type CreateMappingInput struct {
	Body struct {
		AccountIDs          []string `json:"account_ids" minItems:"1" doc:"Accounts to assign proxies to"`
		MaxProxies          int      `json:"max_proxies,omitempty" doc:"Cap on distinct proxies used (0 = server default)"`
		MaxAccountsPerProxy int      `json:"max_accounts_per_proxy,omitempty" doc:"Cap on accounts per proxy (0 = server default)"`
	}
}

// CreateMappingOutput represents a mapping response.
type CreateMappingOutput struct {
	Body struct {
		Mappings []service.Mapping `json:"mappings" doc:"Assignments created by this run"`
		Skipped  []string          `json:"skipped,omitempty" doc:"Account IDs that could not be assigned"`
		Message  string            `json:"message" doc:"Human-readable summary"`
	}
}

// CreateMapping assigns proxies to the requested accounts, replacing any
// assignments those accounts already had.
func (h *MappingHandler) CreateMapping(ctx context.Context, input *CreateMappingInput) (*CreateMappingOutput, error) {
	result, err := h.svc.Allocate(ctx, input.Body.AccountIDs, input.Body.MaxProxies, input.Body.MaxAccountsPerProxy)
	if err != nil {
		if errors.Is(err, service.ErrNoCapacity) {
			return nil, huma.Error503ServiceUnavailable("no active proxies available")
		}
		return nil, huma.Error500InternalServerError("failed to create mapping: " + err.Error())
	}

	out := &CreateMappingOutput{}
	out.Body.Mappings = result.Mappings
	out.Body.Skipped = result.Skipped
	out.Body.Message = fmt.Sprintf("assigned %d of %d accounts", len(result.Mappings), len(input.Body.AccountIDs))
	return out, nil
}

// ListMappingsOutput represents the current assignment list.
type ListMappingsOutput struct {
	Body []*models.AssignmentView
}

// ListMappings returns every current assignment, ordered by account email.
func (h *MappingHandler) ListMappings(ctx context.Context, input *struct{}) (*ListMappingsOutput, error) {
	views, err := h.svc.GetAssignments(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list mappings: " + err.Error())
	}
	if views == nil {
		views = []*models.AssignmentView{}
	}
	return &ListMappingsOutput{Body: views}, nil
}

// DeleteMappingInput represents a mapping removal request.
type DeleteMappingInput struct {
	AccountID string `path:"accountId" doc:"Account ID"`
}

// DeleteMapping removes the assignment for one account.
func (h *MappingHandler) DeleteMapping(ctx context.Context, input *DeleteMappingInput) (*struct{}, error) {
	existed, err := h.svc.Unassign(ctx, input.AccountID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to delete mapping: " + err.Error())
	}
	if !existed {
		return nil, huma.Error404NotFound("no mapping for account")
	}
	return &struct{}{}, nil
}
