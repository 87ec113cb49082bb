package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/warmloop/warmloop/internal/version"
)

// NewHumaConfig creates the shared Huma configuration for the API.
func NewHumaConfig(baseURL string) huma.Config {
	cfg := huma.DefaultConfig("Warmloop API", version.Get().Version)
	cfg.Info.Description = "Email warmup orchestration: mailbox accounts, a residential proxy pool, proxy-to-account assignment and proxied browser sessions."

	if baseURL != "" {
		cfg.Servers = []*huma.Server{
			{URL: baseURL, Description: "API Server"},
		}
	}

	cfg.Tags = []*huma.Tag{
		{Name: "Health", Description: "Service health"},
		{Name: "Accounts", Description: "Mailbox account management"},
		{Name: "Proxies", Description: "Residential proxy pool"},
		{Name: "Mapping", Description: "Proxy-to-account assignment"},
		{Name: "Browser", Description: "Proxied browser sessions"},
		{Name: "Pipelines", Description: "Warmup action pipelines"},
		{Name: "Profiles", Description: "Browser fingerprint profiles"},
	}

	return cfg
}
