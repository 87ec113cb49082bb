// Package session tracks live warmup browser sessions and orchestrates
// opening and closing them against the current proxy assignments.
package session

import (
	"errors"
	"sync"

	"github.com/warmloop/warmloop/internal/browser"
)

// ErrAlreadyActive is returned when registering a session for an account
// that already has one.
var ErrAlreadyActive = errors.New("account already has an active session")

// Session is one live browser session for an account.
type Session struct {
	AccountID string
	Email     string
	Process   browser.Process
	Page      browser.Page
}

// Registry tracks live sessions, at most one per account.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Register records a session for its account. It fails with
// ErrAlreadyActive when the account already has one; the caller keeps
// ownership of the rejected session's resources.
func (r *Registry) Register(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.AccountID]; exists {
		return ErrAlreadyActive
	}
	r.sessions[s.AccountID] = s

	return nil
}

// Unregister removes an account's session, returning it when one existed.
// Unregistering an unknown account is a no-op, so an explicit close and a
// disconnect callback can race without harm.
func (r *Registry) Unregister(accountID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.sessions[accountID]
	delete(r.sessions, accountID)

	return s
}

// UnregisterIf removes the account's entry only when it still holds s,
// reporting whether it did. A disconnect callback always belongs to one
// specific browser; when that browser lost the registration race, its
// callback must not evict the session that won it.
func (r *Registry) UnregisterIf(accountID string, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[accountID] != s {
		return false
	}
	delete(r.sessions, accountID)

	return true
}

// Get returns the account's session, or nil.
func (r *Registry) Get(accountID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sessions[accountID]
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// All returns a snapshot of the live sessions.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}

	return sessions
}
