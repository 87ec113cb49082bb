// Package models defines the domain models for the application.
package models

import (
	"fmt"
	"time"
)

// Account represents a mailbox account being warmed up.
// The password is stored encrypted; PasswordEncrypted never leaves the server.
type Account struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	PasswordEncrypted string    `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProxyProtocol is the proxy transport protocol.
type ProxyProtocol string

const (
	ProxyProtocolHTTP   ProxyProtocol = "http"
	ProxyProtocolHTTPS  ProxyProtocol = "https"
	ProxyProtocolSOCKS5 ProxyProtocol = "socks5"
)

// Proxy represents a residential proxy endpoint.
// UsageCount is derived from live assignments, never stored.
type Proxy struct {
	ID                string        `json:"id"`
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	Username          string        `json:"username,omitempty"`
	PasswordEncrypted string        `json:"-"`
	Country           string        `json:"country,omitempty"`
	Protocol          ProxyProtocol `json:"protocol"`
	IsActive          bool          `json:"is_active"`
	LastChecked       *time.Time    `json:"last_checked,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	UsageCount        int           `json:"usage_count"`
}

// Address returns the host:port form used for browser proxy flags.
func (p *Proxy) Address() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// Assignment pairs one account with one proxy. Each account has at most one
// live assignment; a proxy's live assignment count is bounded by the capacity
// policy of the allocation run that created it.
type Assignment struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	ProxyID   string    `json:"proxy_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AssignmentView is an assignment joined with account and proxy identity,
// as consumed by the session orchestrator and the mapping endpoints.
type AssignmentView struct {
	AccountID     string        `json:"account_id"`
	Email         string        `json:"email"`
	ProxyID       string        `json:"proxy_id"`
	ProxyHost     string        `json:"proxy_host"`
	ProxyPort     int           `json:"proxy_port"`
	ProxyProtocol ProxyProtocol `json:"proxy_protocol"`
	ProxyUsername string        `json:"proxy_username,omitempty"`
	// ProxyPasswordEncrypted is what the store holds; ProxyPassword is filled
	// in by the allocation service for the orchestrator and never serialized.
	ProxyPasswordEncrypted string `json:"-"`
	ProxyPassword          string `json:"-"`
}

// Pipeline is a user-authored ordered sequence of mailbox actions.
// Node metadata is an opaque document; the server never interprets it.
type Pipeline struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Nodes     []PipelineNode `json:"nodes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// PipelineNode is a single action step within a pipeline.
type PipelineNode struct {
	ID       string         `json:"id"`
	Action   string         `json:"action"`
	Position int            `json:"position"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Profile is a browser fingerprint profile managed by the provisioning API.
// Beyond the identity fields the payload is an opaque versioned document
// passed through unmodified.
type Profile struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Extra map[string]any `json:"-"`
}
