package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/warmloop/warmloop/internal/models"
	"github.com/warmloop/warmloop/internal/proxysource"
	"github.com/warmloop/warmloop/internal/service"
)

// ProxiesHandler handles proxy pool endpoints.
type ProxiesHandler struct {
	svc *service.ProxyService
}

// NewProxiesHandler creates a new proxies handler.
func NewProxiesHandler(svc *service.ProxyService) *ProxiesHandler {
	return &ProxiesHandler{svc: svc}
}

// FetchProxiesInput represents an upstream refresh request.
type FetchProxiesInput struct {
	Body struct {
		Country string `json:"country,omitempty" doc:"Two-letter region code passed upstream"`
		Limit   int    `json:"limit,omitempty" doc:"Endpoints to request (0 = server default)"`
	}
}

// FetchProxiesOutput represents an upstream refresh result.
type FetchProxiesOutput struct {
	Body struct {
		Fetched int    `json:"fetched" doc:"Endpoints received and upserted"`
		Message string `json:"message"`
	}
}

// FetchProxies pulls fresh endpoints from the upstream source into the pool.
func (h *ProxiesHandler) FetchProxies(ctx context.Context, input *FetchProxiesInput) (*FetchProxiesOutput, error) {
	fetched, err := h.svc.Refresh(ctx, input.Body.Country, input.Body.Limit)
	if err != nil {
		return nil, huma.Error502BadGateway("failed to fetch proxies: " + err.Error())
	}

	out := &FetchProxiesOutput{}
	out.Body.Fetched = fetched
	out.Body.Message = fmt.Sprintf("fetched %d proxies", fetched)
	return out, nil
}

// CreateProxyInput represents a manual proxy addition.
type CreateProxyInput struct {
	Body struct {
		Host     string `json:"host" minLength:"1" doc:"Proxy host"`
		Port     int    `json:"port" minimum:"1" maximum:"65535" doc:"Proxy port"`
		Username string `json:"username,omitempty" doc:"Proxy auth username"`
		Password string `json:"password,omitempty" doc:"Proxy auth password, stored encrypted"`
		Country  string `json:"country,omitempty" doc:"Two-letter region code"`
		Protocol string `json:"protocol,omitempty" doc:"http, https or socks5 (default socks5)"`
	}
}

// ProxyOutput represents a single proxy response.
type ProxyOutput struct {
	Body *models.Proxy
}

// CreateProxy adds a proxy to the pool by hand.
func (h *ProxiesHandler) CreateProxy(ctx context.Context, input *CreateProxyInput) (*ProxyOutput, error) {
	protocol := models.ProxyProtocol(input.Body.Protocol)
	if protocol == "" {
		protocol = models.ProxyProtocolSOCKS5
	}

	proxy, err := h.svc.Add(ctx, &models.Proxy{
		Host:     input.Body.Host,
		Port:     input.Body.Port,
		Username: input.Body.Username,
		Country:  input.Body.Country,
		Protocol: protocol,
		IsActive: true,
	}, input.Body.Password)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to add proxy: " + err.Error())
	}
	return &ProxyOutput{Body: proxy}, nil
}

// GetProxyInput represents a single-proxy request.
type GetProxyInput struct {
	ID string `path:"id" doc:"Proxy ID"`
}

// GetProxy retrieves one proxy.
func (h *ProxiesHandler) GetProxy(ctx context.Context, input *GetProxyInput) (*ProxyOutput, error) {
	proxy, err := h.svc.Get(ctx, input.ID)
	if err != nil {
		if errors.Is(err, service.ErrProxyNotFound) {
			return nil, huma.Error404NotFound("proxy not found")
		}
		return nil, huma.Error500InternalServerError("failed to get proxy: " + err.Error())
	}
	return &ProxyOutput{Body: proxy}, nil
}

// ListProxiesInput represents a proxy listing request.
type ListProxiesInput struct {
	Active bool `query:"active" doc:"Only return active proxies"`
	Limit  int  `query:"limit" doc:"Page size (0 = all)"`
	Offset int  `query:"offset" doc:"Page offset"`
}

// ListProxiesOutput represents the proxy listing.
type ListProxiesOutput struct {
	Body struct {
		Proxies []*models.Proxy `json:"proxies"`
	}
}

// ListProxies returns proxies in candidate order, newest first.
func (h *ProxiesHandler) ListProxies(ctx context.Context, input *ListProxiesInput) (*ListProxiesOutput, error) {
	proxies, err := h.svc.List(ctx, input.Active, input.Limit, input.Offset)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list proxies: " + err.Error())
	}
	out := &ListProxiesOutput{}
	out.Body.Proxies = proxies
	if out.Body.Proxies == nil {
		out.Body.Proxies = []*models.Proxy{}
	}
	return out, nil
}

// UpdateProxyInput represents an activation toggle.
type UpdateProxyInput struct {
	ID   string `path:"id" doc:"Proxy ID"`
	Body struct {
		IsActive bool `json:"is_active" doc:"Whether the proxy may receive assignments"`
	}
}

// UpdateProxy toggles a proxy's active flag.
func (h *ProxiesHandler) UpdateProxy(ctx context.Context, input *UpdateProxyInput) (*ProxyOutput, error) {
	proxy, err := h.svc.SetActive(ctx, input.ID, input.Body.IsActive)
	if err != nil {
		if errors.Is(err, service.ErrProxyNotFound) {
			return nil, huma.Error404NotFound("proxy not found")
		}
		return nil, huma.Error500InternalServerError("failed to update proxy: " + err.Error())
	}
	return &ProxyOutput{Body: proxy}, nil
}

// DeleteProxiesInput represents a bulk proxy deletion.
type DeleteProxiesInput struct {
	Body struct {
		IDs []string `json:"ids" minItems:"1" doc:"Proxy IDs to delete"`
	}
}

// DeleteProxiesOutput represents a bulk deletion result.
type DeleteProxiesOutput struct {
	Body struct {
		Deleted int64 `json:"deleted" doc:"Proxies actually removed"`
	}
}

// DeleteProxies removes proxies and their assignments.
func (h *ProxiesHandler) DeleteProxies(ctx context.Context, input *DeleteProxiesInput) (*DeleteProxiesOutput, error) {
	deleted, err := h.svc.Delete(ctx, input.Body.IDs)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to delete proxies: " + err.Error())
	}
	out := &DeleteProxiesOutput{}
	out.Body.Deleted = deleted
	return out, nil
}

// SessionProxyInput represents a session proxy request.
type SessionProxyInput struct {
	Body struct {
		Minutes int `json:"minutes,omitempty" doc:"Session lifetime in minutes (1-120)"`
	}
}

// SessionProxyOutput represents a short-lived session proxy.
type SessionProxyOutput struct {
	Body proxysource.Endpoint
}

// CreateSessionProxy requests a short-lived session proxy from the upstream
// source without adding it to the pool.
func (h *ProxiesHandler) CreateSessionProxy(ctx context.Context, input *SessionProxyInput) (*SessionProxyOutput, error) {
	endpoint, err := h.svc.Session(ctx, input.Body.Minutes)
	if err != nil {
		return nil, huma.Error502BadGateway("failed to create session proxy: " + err.Error())
	}
	return &SessionProxyOutput{Body: *endpoint}, nil
}
