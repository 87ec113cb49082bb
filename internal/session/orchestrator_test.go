package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/warmloop/warmloop/internal/browser"
	"github.com/warmloop/warmloop/internal/models"
)

// fakeDriver launches fakeProcesses and can be told to fail for specific
// proxy addresses.
type fakeDriver struct {
	mu         sync.Mutex
	launched   []*fakeProcess
	failFor    map[string]error
	navFailFor map[string]error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		failFor:    make(map[string]error),
		navFailFor: make(map[string]error),
	}
}

func (d *fakeDriver) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Process, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err, ok := d.failFor[opts.ProxyAddress]; ok {
		return nil, err
	}

	proc := &fakeProcess{opts: opts, navErr: d.navFailFor[opts.ProxyAddress]}
	d.launched = append(d.launched, proc)
	return proc, nil
}

func (d *fakeDriver) openProcesses() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	open := 0
	for _, proc := range d.launched {
		if !proc.closed {
			open++
		}
	}
	return open
}

type fakeProcess struct {
	mu       sync.Mutex
	opts     browser.LaunchOptions
	closed   bool
	gone     bool
	navErr   error
	pages    int
	onGone   []func()
	goneOnce sync.Once
}

func (p *fakeProcess) NewPage(ctx context.Context) (browser.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages++
	return &fakePage{proc: p}, nil
}

func (p *fakeProcess) OnDisconnected(fn func()) {
	p.mu.Lock()
	if p.gone {
		p.mu.Unlock()
		fn()
		return
	}
	p.onGone = append(p.onGone, fn)
	p.mu.Unlock()
}

func (p *fakeProcess) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.disconnect()
	return nil
}

// disconnect simulates the browser going away, firing callbacks once.
func (p *fakeProcess) disconnect() {
	p.goneOnce.Do(func() {
		p.mu.Lock()
		p.gone = true
		callbacks := p.onGone
		p.mu.Unlock()
		for _, fn := range callbacks {
			fn()
		}
	})
}

type fakePage struct {
	proc     *fakeProcess
	authUser string
	authPass string
}

func (p *fakePage) Authenticate(ctx context.Context, username, password string) error {
	p.authUser = username
	p.authPass = password
	return nil
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	return p.proc.navErr
}

func (p *fakePage) Close() error { return nil }

// fakeSource serves a fixed assignment list.
type fakeSource struct {
	views []*models.AssignmentView
	err   error
}

func (s *fakeSource) GetAssignments(ctx context.Context) ([]*models.AssignmentView, error) {
	return s.views, s.err
}

func view(accountID, email, host string) *models.AssignmentView {
	return &models.AssignmentView{
		AccountID: accountID,
		Email:     email,
		ProxyID:   "prx-" + host,
		ProxyHost: host,
		ProxyPort: 4000,
	}
}

func newTestOrchestrator(source AssignmentSource, driver browser.Driver) (*Orchestrator, *Registry) {
	registry := NewRegistry()
	orch := NewOrchestrator(source, driver, registry, OrchestratorConfig{
		LandingURL: "https://accounts.google.com/signin",
	}, nil)
	return orch, registry
}

func TestOrchestratorOpenAll(t *testing.T) {
	driver := newFakeDriver()
	source := &fakeSource{views: []*models.AssignmentView{
		view("acc-1", "a@example.com", "10.0.0.1"),
		view("acc-2", "b@example.com", "10.0.0.2"),
	}}
	orch, _ := newTestOrchestrator(source, driver)

	result, err := orch.OpenAll(context.Background())
	if err != nil {
		t.Fatalf("OpenAll failed: %v", err)
	}
	if result.Opened != 2 || result.Failed != 0 {
		t.Errorf("result = %+v, want 2 opened, 0 failed", result)
	}
	if orch.ActiveCount() != 2 {
		t.Errorf("ActiveCount = %d, want 2", orch.ActiveCount())
	}
}

func TestOrchestratorOpenAll_FailureIsolation(t *testing.T) {
	driver := newFakeDriver()
	driver.failFor["10.0.0.2:4000"] = errors.New("proxy unreachable")

	source := &fakeSource{views: []*models.AssignmentView{
		view("acc-1", "a@example.com", "10.0.0.1"),
		view("acc-2", "b@example.com", "10.0.0.2"),
		view("acc-3", "c@example.com", "10.0.0.3"),
	}}
	orch, _ := newTestOrchestrator(source, driver)

	result, err := orch.OpenAll(context.Background())
	if err != nil {
		t.Fatalf("OpenAll failed: %v", err)
	}
	if result.Opened != 2 || result.Failed != 1 {
		t.Errorf("result = %+v, want 2 opened, 1 failed", result)
	}
	if orch.ActiveCount() != 2 {
		t.Errorf("ActiveCount = %d, want 2", orch.ActiveCount())
	}
}

func TestOrchestratorOpenAll_ClosesExistingFirst(t *testing.T) {
	driver := newFakeDriver()
	source := &fakeSource{views: []*models.AssignmentView{
		view("acc-1", "a@example.com", "10.0.0.1"),
	}}
	orch, _ := newTestOrchestrator(source, driver)

	if _, err := orch.OpenAll(context.Background()); err != nil {
		t.Fatalf("first OpenAll failed: %v", err)
	}
	if _, err := orch.OpenAll(context.Background()); err != nil {
		t.Fatalf("second OpenAll failed: %v", err)
	}

	// Two launches total, but only the second generation stays open.
	if len(driver.launched) != 2 {
		t.Errorf("launched = %d, want 2", len(driver.launched))
	}
	if driver.openProcesses() != 1 {
		t.Errorf("open processes = %d, want 1", driver.openProcesses())
	}
	if orch.ActiveCount() != 1 {
		t.Errorf("ActiveCount = %d, want 1", orch.ActiveCount())
	}
}

func TestOrchestratorOpenOne_ProxyCredentialsWired(t *testing.T) {
	driver := newFakeDriver()
	orch, _ := newTestOrchestrator(&fakeSource{}, driver)

	v := view("acc-1", "a@example.com", "10.0.0.1")
	v.ProxyUsername = "user"
	v.ProxyPassword = "secret"

	if err := orch.OpenOne(context.Background(), v); err != nil {
		t.Fatalf("OpenOne failed: %v", err)
	}

	opts := driver.launched[0].opts
	if opts.ProxyAddress != "10.0.0.1:4000" {
		t.Errorf("ProxyAddress = %q, want 10.0.0.1:4000", opts.ProxyAddress)
	}
	if opts.ProxyCreds == nil || opts.ProxyCreds.Username != "user" || opts.ProxyCreds.Password != "secret" {
		t.Errorf("ProxyCreds = %+v, want user/secret", opts.ProxyCreds)
	}
}

func TestOrchestratorOpenOne_AlreadyActiveClosesNewBrowser(t *testing.T) {
	driver := newFakeDriver()
	orch, registry := newTestOrchestrator(&fakeSource{}, driver)

	v := view("acc-1", "a@example.com", "10.0.0.1")
	if err := orch.OpenOne(context.Background(), v); err != nil {
		t.Fatalf("first OpenOne failed: %v", err)
	}

	err := orch.OpenOne(context.Background(), v)
	if !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("second OpenOne error = %v, want ErrAlreadyActive", err)
	}

	// The duplicate launch was torn down; the original stays.
	if driver.openProcesses() != 1 {
		t.Errorf("open processes = %d, want 1", driver.openProcesses())
	}
	if orch.ActiveCount() != 1 {
		t.Errorf("ActiveCount = %d, want 1", orch.ActiveCount())
	}

	// Closing the rejected browser must not evict the session that won.
	s := registry.Get("acc-1")
	if s == nil {
		t.Fatal("registry lost the original session")
	}
	if s.Process != browser.Process(driver.launched[0]) {
		t.Error("registered session does not own the original browser")
	}
}

func TestOrchestratorOpenOne_NavigateFailureClosesBrowser(t *testing.T) {
	driver := newFakeDriver()
	driver.navFailFor["10.0.0.1:4000"] = errors.New("net::ERR_TUNNEL_CONNECTION_FAILED")
	orch, _ := newTestOrchestrator(&fakeSource{}, driver)

	err := orch.OpenOne(context.Background(), view("acc-1", "a@example.com", "10.0.0.1"))
	if err == nil {
		t.Fatal("expected navigation failure to be surfaced")
	}

	// The half-opened browser was torn down and nothing was registered.
	if driver.openProcesses() != 0 {
		t.Errorf("open processes = %d, want 0", driver.openProcesses())
	}
	if orch.ActiveCount() != 0 {
		t.Errorf("ActiveCount = %d, want 0", orch.ActiveCount())
	}
}

func TestOrchestratorSessionOutlivesOpenContext(t *testing.T) {
	driver := newFakeDriver()
	orch, _ := newTestOrchestrator(&fakeSource{}, driver)

	ctx, cancel := context.WithCancel(context.Background())
	if err := orch.OpenOne(ctx, view("acc-1", "a@example.com", "10.0.0.1")); err != nil {
		t.Fatalf("OpenOne failed: %v", err)
	}

	// The open deadline expiring must not take the running session with it.
	cancel()

	if orch.ActiveCount() != 1 {
		t.Errorf("ActiveCount after cancel = %d, want 1", orch.ActiveCount())
	}
	if driver.openProcesses() != 1 {
		t.Errorf("open processes = %d, want 1", driver.openProcesses())
	}
}

func TestOrchestratorDisconnectRemovesSession(t *testing.T) {
	driver := newFakeDriver()
	orch, _ := newTestOrchestrator(&fakeSource{}, driver)

	if err := orch.OpenOne(context.Background(), view("acc-1", "a@example.com", "10.0.0.1")); err != nil {
		t.Fatalf("OpenOne failed: %v", err)
	}
	if orch.ActiveCount() != 1 {
		t.Fatalf("ActiveCount = %d, want 1", orch.ActiveCount())
	}

	// The user closes the browser window by hand.
	driver.launched[0].disconnect()

	if orch.ActiveCount() != 0 {
		t.Errorf("ActiveCount after disconnect = %d, want 0", orch.ActiveCount())
	}

	// A later explicit close of the same account is a no-op.
	if orch.Close("acc-1") {
		t.Error("Close after disconnect reported a session")
	}
}

func TestOrchestratorCloseAll(t *testing.T) {
	driver := newFakeDriver()
	source := &fakeSource{views: []*models.AssignmentView{
		view("acc-1", "a@example.com", "10.0.0.1"),
		view("acc-2", "b@example.com", "10.0.0.2"),
	}}
	orch, _ := newTestOrchestrator(source, driver)

	if _, err := orch.OpenAll(context.Background()); err != nil {
		t.Fatalf("OpenAll failed: %v", err)
	}

	closed := orch.CloseAll()
	if closed != 2 {
		t.Errorf("CloseAll = %d, want 2", closed)
	}
	if orch.ActiveCount() != 0 {
		t.Errorf("ActiveCount = %d, want 0", orch.ActiveCount())
	}
	if driver.openProcesses() != 0 {
		t.Errorf("open processes = %d, want 0", driver.openProcesses())
	}

	// Idempotent.
	if closed := orch.CloseAll(); closed != 0 {
		t.Errorf("second CloseAll = %d, want 0", closed)
	}
}

func TestOrchestratorOpenAll_SourceError(t *testing.T) {
	driver := newFakeDriver()
	orch, _ := newTestOrchestrator(&fakeSource{err: errors.New("db locked")}, driver)

	if _, err := orch.OpenAll(context.Background()); err == nil {
		t.Error("expected source error to be surfaced")
	}
}
