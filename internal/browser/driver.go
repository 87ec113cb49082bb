// Package browser abstracts launching and controlling browser instances so
// the session layer can run against a real Chromium or a test double.
package browser

import "context"

// Credentials are proxy credentials supplied to the browser before any
// navigation takes place.
type Credentials struct {
	Username string
	Password string
}

// LaunchOptions configures one browser process.
type LaunchOptions struct {
	// ProxyAddress is the host:port the browser routes traffic through.
	// Empty means a direct connection.
	ProxyAddress string
	// ProxyCreds, when set, are answered to the proxy's auth challenge.
	ProxyCreds *Credentials

	Headless     bool
	ChromePath   string
	WindowWidth  int
	WindowHeight int
	// ExtraFlags are passed to the browser process verbatim.
	ExtraFlags map[string]string
}

// Page is a single browser tab.
type Page interface {
	// Authenticate arms the proxy auth challenge handler. Must be called
	// before Navigate when the proxy requires credentials.
	Authenticate(ctx context.Context, username, password string) error
	// Navigate loads the URL and waits for the page load event.
	Navigate(ctx context.Context, url string) error
	Close() error
}

// Process is a running browser instance.
type Process interface {
	NewPage(ctx context.Context) (Page, error)
	// OnDisconnected registers a callback fired exactly once when the
	// browser goes away, whether closed by us or externally. Callbacks
	// registered after the disconnect fire immediately.
	OnDisconnected(fn func())
	Close() error
}

// Driver launches browser processes. The context bounds the launch and
// connection only; the returned Process stays alive until Close or the
// underlying browser dies, even after the context ends.
type Driver interface {
	Launch(ctx context.Context, opts LaunchOptions) (Process, error)
}
