package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/stealth"
)

// RodDriver launches Chromium via go-rod.
type RodDriver struct {
	logger *slog.Logger
}

// NewRodDriver creates a rod-backed browser driver.
func NewRodDriver(logger *slog.Logger) *RodDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &RodDriver{logger: logger}
}

// Launch starts a Chromium process. When proxy credentials are given the
// auth handler is armed before the process is handed to the caller, so the
// first navigation can already answer the proxy's challenge.
func (d *RodDriver) Launch(ctx context.Context, opts LaunchOptions) (Process, error) {
	l := launcher.New()

	if opts.ChromePath != "" {
		l = l.Bin(opts.ChromePath)
	}

	l = l.
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-infobars").
		Set("lang", "en-US,en")

	width, height := opts.WindowWidth, opts.WindowHeight
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 800
	}
	l = l.Set("window-size", fmt.Sprintf("%d,%d", width, height))

	for name, value := range opts.ExtraFlags {
		l = l.Set(flags.Flag(name), value)
	}

	if opts.ProxyAddress != "" {
		l = l.Proxy(opts.ProxyAddress)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	// The browser is bound to its own context: rod closes the CDP client
	// and the event stream when that context ends, so tying it to the
	// caller's launch context would tear the session down as soon as the
	// open call returns. ctx only bounds connecting.
	procCtx, procCancel := context.WithCancel(context.Background())
	b := rod.New().Context(procCtx).ControlURL(u)

	connected := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			procCancel()
		case <-connected:
		}
	}()
	err = b.Connect()
	close(connected)
	if err != nil {
		procCancel()
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	proc := &rodProcess{
		browser:  b,
		launcher: l,
		cancel:   procCancel,
		logger:   d.logger,
	}
	proc.watchDisconnect()

	if opts.ProxyAddress != "" && opts.ProxyCreds != nil {
		proc.armAuth(opts.ProxyCreds.Username, opts.ProxyCreds.Password)
	}

	return proc, nil
}

type rodProcess struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cancel   context.CancelFunc
	logger   *slog.Logger

	mu           sync.Mutex
	once         sync.Once
	disconnected bool
	authArmed    bool
	callbacks    []func()
}

// armAuth installs the proxy auth challenge handler once per process. The
// handler covers every page the browser opens.
func (p *rodProcess) armAuth(username, password string) {
	p.mu.Lock()
	if p.authArmed {
		p.mu.Unlock()
		return
	}
	p.authArmed = true
	p.mu.Unlock()

	waitAuth := p.browser.HandleAuth(username, password)
	go func() {
		if err := waitAuth(); err != nil {
			p.logger.Debug("proxy auth handler finished", "error", err)
		}
	}()
}

func (p *rodProcess) NewPage(ctx context.Context) (Page, error) {
	page, err := stealth.Page(p.browser)
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &rodPage{page: page, proc: p}, nil
}

func (p *rodProcess) OnDisconnected(fn func()) {
	p.mu.Lock()
	if p.disconnected {
		p.mu.Unlock()
		fn()
		return
	}
	p.callbacks = append(p.callbacks, fn)
	p.mu.Unlock()
}

func (p *rodProcess) Close() error {
	err := p.browser.Close()
	p.launcher.Kill()
	p.cancel()
	return err
}

func (p *rodProcess) watchDisconnect() {
	go p.watchEvents(p.browser.Event())
}

// watchEvents blocks until the event stream ends. The stream is bound to
// the process context, so it ends exactly when the CDP connection drops:
// our own Close, the process dying, or the window being closed by hand.
func (p *rodProcess) watchEvents(events <-chan *rod.Message) {
	for range events {
	}
	p.fireDisconnected()
}

func (p *rodProcess) fireDisconnected() {
	p.once.Do(func() {
		p.mu.Lock()
		p.disconnected = true
		callbacks := p.callbacks
		p.callbacks = nil
		p.mu.Unlock()

		for _, fn := range callbacks {
			fn()
		}
	})
}

type rodPage struct {
	page *rod.Page
	proc *rodProcess
}

func (p *rodPage) Authenticate(ctx context.Context, username, password string) error {
	p.proc.armAuth(username, password)
	return nil
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return page.WaitLoad()
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
