package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/warmloop/warmloop/internal/session"
)

// BrowserHandler handles browser session endpoints.
type BrowserHandler struct {
	orch *session.Orchestrator
}

// NewBrowserHandler creates a new browser handler.
func NewBrowserHandler(orch *session.Orchestrator) *BrowserHandler {
	return &BrowserHandler{orch: orch}
}

// OpenBrowsersOutput represents the result of a bulk open.
type OpenBrowsersOutput struct {
	Body struct {
		Count  int `json:"count" doc:"Sessions opened"`
		Failed int `json:"failed,omitempty" doc:"Accounts whose browser could not be opened"`
	}
}

// OpenBrowsers opens a browser session for every assigned account. Sessions
// already running are closed first so proxy changes always take effect.
func (h *BrowserHandler) OpenBrowsers(ctx context.Context, input *struct{}) (*OpenBrowsersOutput, error) {
	result, err := h.orch.OpenAll(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to open browsers: " + err.Error())
	}

	out := &OpenBrowsersOutput{}
	out.Body.Count = result.Opened
	out.Body.Failed = result.Failed
	return out, nil
}

// CloseBrowsersOutput represents the result of a bulk close.
type CloseBrowsersOutput struct {
	Body struct {
		Closed  int    `json:"closed" doc:"Sessions closed"`
		Message string `json:"message"`
	}
}

// CloseBrowsers closes every active browser session.
func (h *BrowserHandler) CloseBrowsers(ctx context.Context, input *struct{}) (*CloseBrowsersOutput, error) {
	closed := h.orch.CloseAll()

	out := &CloseBrowsersOutput{}
	out.Body.Closed = closed
	out.Body.Message = "all browser sessions closed"
	return out, nil
}

// BrowserStatsOutput represents session statistics.
type BrowserStatsOutput struct {
	Body struct {
		ActiveSessions int `json:"active_sessions" doc:"Browser sessions currently open"`
	}
}

// BrowserStats returns the number of active browser sessions.
func (h *BrowserHandler) BrowserStats(ctx context.Context, input *struct{}) (*BrowserStatsOutput, error) {
	out := &BrowserStatsOutput{}
	out.Body.ActiveSessions = h.orch.ActiveCount()
	return out, nil
}
