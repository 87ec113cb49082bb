package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/warmloop/warmloop/internal/browser"
	"github.com/warmloop/warmloop/internal/models"
)

// AssignmentSource supplies the current account-to-proxy assignments with
// proxy credentials already decrypted.
type AssignmentSource interface {
	GetAssignments(ctx context.Context) ([]*models.AssignmentView, error)
}

// OrchestratorConfig configures session opening.
type OrchestratorConfig struct {
	// LandingURL is loaded in every fresh session.
	LandingURL string
	// OpenTimeout bounds launching and first navigation per account.
	OpenTimeout time.Duration

	Headless   bool
	ChromePath string
}

// OpenResult reports the outcome of an OpenAll run.
type OpenResult struct {
	Opened int `json:"opened"`
	Failed int `json:"failed"`
}

// Orchestrator opens one browser session per assigned account and tears
// them down again. A failure on one account never aborts the others.
type Orchestrator struct {
	source   AssignmentSource
	driver   browser.Driver
	registry *Registry
	cfg      OrchestratorConfig
	logger   *slog.Logger
}

// NewOrchestrator creates a session orchestrator.
func NewOrchestrator(source AssignmentSource, driver browser.Driver, registry *Registry, cfg OrchestratorConfig, logger *slog.Logger) *Orchestrator {
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		source:   source,
		driver:   driver,
		registry: registry,
		cfg:      cfg,
		logger:   logger,
	}
}

// OpenAll closes every live session, then opens a fresh one for each
// current assignment. Accounts that fail to open are counted and logged;
// the rest proceed.
func (o *Orchestrator) OpenAll(ctx context.Context) (*OpenResult, error) {
	o.CloseAll()

	views, err := o.source.GetAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}

	result := &OpenResult{}
	for _, view := range views {
		if err := o.OpenOne(ctx, view); err != nil {
			result.Failed++
			o.logger.Error("failed to open session",
				"account_id", view.AccountID,
				"email", view.Email,
				"proxy", fmt.Sprintf("%s:%d", view.ProxyHost, view.ProxyPort),
				"error", err)
			continue
		}
		result.Opened++
	}

	o.logger.Info("session open run finished",
		"opened", result.Opened, "failed", result.Failed)

	return result, nil
}

// OpenOne opens a session for one assignment. The proxy and its credentials
// are wired into the browser before the landing page loads. When the account
// already has a live session the freshly launched browser is torn down and
// ErrAlreadyActive is returned.
func (o *Orchestrator) OpenOne(ctx context.Context, view *models.AssignmentView) error {
	openCtx, cancel := context.WithTimeout(ctx, o.cfg.OpenTimeout)
	defer cancel()

	opts := browser.LaunchOptions{
		ProxyAddress: fmt.Sprintf("%s:%d", view.ProxyHost, view.ProxyPort),
		Headless:     o.cfg.Headless,
		ChromePath:   o.cfg.ChromePath,
	}
	if view.ProxyUsername != "" {
		opts.ProxyCreds = &browser.Credentials{
			Username: view.ProxyUsername,
			Password: view.ProxyPassword,
		}
	}

	proc, err := o.driver.Launch(openCtx, opts)
	if err != nil {
		return fmt.Errorf("launch: %w", err)
	}

	page, err := proc.NewPage(openCtx)
	if err != nil {
		_ = proc.Close()
		return fmt.Errorf("new page: %w", err)
	}

	// Credentials are presented before any navigation so the proxy's auth
	// challenge never stalls the landing page.
	if view.ProxyUsername != "" {
		if err := page.Authenticate(openCtx, view.ProxyUsername, view.ProxyPassword); err != nil {
			_ = proc.Close()
			return fmt.Errorf("authenticate: %w", err)
		}
	}

	if err := page.Navigate(openCtx, o.cfg.LandingURL); err != nil {
		_ = proc.Close()
		return fmt.Errorf("navigate: %w", err)
	}

	s := &Session{
		AccountID: view.AccountID,
		Email:     view.Email,
		Process:   proc,
		Page:      page,
	}
	if err := o.registry.Register(s); err != nil {
		_ = proc.Close()
		return err
	}

	// Subscribed after Register and scoped to this session: a browser that
	// never won the registration must not evict the one that did, and a
	// browser that died before this point fires the callback immediately,
	// taking the dead entry right back out.
	accountID := view.AccountID
	proc.OnDisconnected(func() {
		if o.registry.UnregisterIf(accountID, s) {
			o.logger.Info("session browser disconnected", "account_id", accountID)
		}
	})

	o.logger.Info("session opened",
		"account_id", view.AccountID, "email", view.Email,
		"proxy", opts.ProxyAddress)

	return nil
}

// Close closes one account's session, reporting whether one existed.
func (o *Orchestrator) Close(accountID string) bool {
	s := o.registry.Unregister(accountID)
	if s == nil {
		return false
	}
	if err := s.Process.Close(); err != nil {
		o.logger.Debug("error closing session browser",
			"account_id", accountID, "error", err)
	}
	return true
}

// CloseAll closes every live session, best effort, and returns how many
// were closed.
func (o *Orchestrator) CloseAll() int {
	closed := 0
	for _, s := range o.registry.All() {
		if o.Close(s.AccountID) {
			closed++
		}
	}

	if closed > 0 {
		o.logger.Info("closed all sessions", "count", closed)
	}

	return closed
}

// ActiveCount returns the number of live sessions.
func (o *Orchestrator) ActiveCount() int {
	return o.registry.Count()
}
