// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"context"
	"database/sql"

	"github.com/warmloop/warmloop/internal/service"
	"github.com/warmloop/warmloop/internal/session"
	"github.com/warmloop/warmloop/internal/version"
)

// Handlers holds all handler instances.
type Handlers struct {
	Account  *AccountsHandler
	Proxy    *ProxiesHandler
	Mapping  *MappingHandler
	Browser  *BrowserHandler
	Pipeline *PipelinesHandler
	Profile  *ProfilesHandler

	db *sql.DB
}

// New creates all handler instances.
func New(svcs *service.Services, orch *session.Orchestrator, db *sql.DB) *Handlers {
	return &Handlers{
		Account:  NewAccountsHandler(svcs.Account),
		Proxy:    NewProxiesHandler(svcs.Proxy),
		Mapping:  NewMappingHandler(svcs.Allocation),
		Browser:  NewBrowserHandler(orch),
		Pipeline: NewPipelinesHandler(svcs.Pipeline),
		Profile:  NewProfilesHandler(svcs.Profile),
		db:       db,
	}
}

// HealthCheckOutput represents health check response.
type HealthCheckOutput struct {
	Body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
}

// HealthCheck returns the health status of the API.
func (h *Handlers) HealthCheck(ctx context.Context, input *struct{}) (*HealthCheckOutput, error) {
	out := &HealthCheckOutput{}
	out.Body.Status = "healthy"
	out.Body.Version = version.Get().Version
	return out, nil
}

// ProbeOutput is the response for Kubernetes probes.
type ProbeOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

// Livez reports process liveness.
func (h *Handlers) Livez(ctx context.Context, input *struct{}) (*ProbeOutput, error) {
	out := &ProbeOutput{}
	out.Body.Status = "ok"
	return out, nil
}

// Readyz reports readiness: the database must answer.
func (h *Handlers) Readyz(ctx context.Context, input *struct{}) (*ProbeOutput, error) {
	if err := h.db.PingContext(ctx); err != nil {
		return nil, err
	}
	out := &ProbeOutput{}
	out.Body.Status = "ok"
	return out, nil
}
