package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/warmloop/warmloop/internal/gologin"
	"github.com/warmloop/warmloop/internal/service"
)

// ProfilesHandler proxies browser fingerprint profile operations to the
// provisioning API. Profile documents pass through unmodified.
type ProfilesHandler struct {
	svc *service.ProfileService
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(svc *service.ProfileService) *ProfilesHandler {
	return &ProfilesHandler{svc: svc}
}

// ListProfilesOutput represents the upstream profile listing.
type ListProfilesOutput struct {
	Body gologin.ProfileList
}

// ListProfiles returns all fingerprint profiles.
func (h *ProfilesHandler) ListProfiles(ctx context.Context, input *struct{}) (*ListProfilesOutput, error) {
	list, err := h.svc.List(ctx)
	if err != nil {
		return nil, huma.Error502BadGateway("failed to list profiles: " + err.Error())
	}
	return &ListProfilesOutput{Body: *list}, nil
}

// GetProfileInput represents a single-profile request.
type GetProfileInput struct {
	ID string `path:"id" doc:"Profile ID"`
}

// ProfileOutput represents a single profile document.
type ProfileOutput struct {
	Body gologin.Profile
}

// GetProfile retrieves one fingerprint profile.
func (h *ProfilesHandler) GetProfile(ctx context.Context, input *GetProfileInput) (*ProfileOutput, error) {
	profile, err := h.svc.Get(ctx, input.ID)
	if err != nil {
		return nil, huma.Error502BadGateway("failed to get profile: " + err.Error())
	}
	return &ProfileOutput{Body: profile}, nil
}

// CreateProfileInput represents a profile creation request. The body is an
// opaque profile document; missing fingerprint fields are defaulted.
type CreateProfileInput struct {
	Body gologin.Profile
}

// CreateProfile creates a fingerprint profile upstream.
func (h *ProfilesHandler) CreateProfile(ctx context.Context, input *CreateProfileInput) (*ProfileOutput, error) {
	profile, err := h.svc.Create(ctx, input.Body)
	if err != nil {
		return nil, huma.Error502BadGateway("failed to create profile: " + err.Error())
	}
	return &ProfileOutput{Body: profile}, nil
}

// UpdateProfileInput represents a profile update request.
type UpdateProfileInput struct {
	ID   string `path:"id" doc:"Profile ID"`
	Body gologin.Profile
}

// UpdateProfile replaces a fingerprint profile upstream.
func (h *ProfilesHandler) UpdateProfile(ctx context.Context, input *UpdateProfileInput) (*ProfileOutput, error) {
	profile, err := h.svc.Update(ctx, input.ID, input.Body)
	if err != nil {
		return nil, huma.Error502BadGateway("failed to update profile: " + err.Error())
	}
	return &ProfileOutput{Body: profile}, nil
}

// AttachProfileProxyInput represents a proxy attachment request.
type AttachProfileProxyInput struct {
	ID   string `path:"id" doc:"Profile ID"`
	Body struct {
		ProxyID string `json:"proxy_id" minLength:"1" doc:"Proxy from the local pool"`
	}
}

// AttachProfileProxy points a fingerprint profile at a pool proxy.
func (h *ProfilesHandler) AttachProfileProxy(ctx context.Context, input *AttachProfileProxyInput) (*ProfileOutput, error) {
	profile, err := h.svc.AttachProxy(ctx, input.ID, input.Body.ProxyID)
	if err != nil {
		if errors.Is(err, service.ErrProxyNotFound) {
			return nil, huma.Error404NotFound("proxy not found")
		}
		return nil, huma.Error502BadGateway("failed to attach proxy: " + err.Error())
	}
	return &ProfileOutput{Body: profile}, nil
}

// DeleteProfileInput represents a profile deletion request.
type DeleteProfileInput struct {
	ID string `path:"id" doc:"Profile ID"`
}

// DeleteProfile removes a fingerprint profile upstream.
func (h *ProfilesHandler) DeleteProfile(ctx context.Context, input *DeleteProfileInput) (*struct{}, error) {
	if err := h.svc.Delete(ctx, input.ID); err != nil {
		return nil, huma.Error502BadGateway("failed to delete profile: " + err.Error())
	}
	return &struct{}{}, nil
}
