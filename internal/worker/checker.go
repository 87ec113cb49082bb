// Package worker runs the background proxy health checker.
package worker

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/warmloop/warmloop/internal/models"
	"github.com/warmloop/warmloop/internal/repository"
)

// dialFunc opens a TCP connection to a proxy endpoint.
type dialFunc func(network, address string, timeout time.Duration) (net.Conn, error)

// Checker periodically probes every active proxy and deactivates the ones
// that stop answering.
type Checker struct {
	proxyRepo   repository.ProxyRepository
	interval    time.Duration
	timeout     time.Duration
	concurrency int
	maxFailures int
	dial        dialFunc

	mu       sync.Mutex
	failures map[string]int

	stop chan struct{}
	wg   sync.WaitGroup

	logger *slog.Logger
}

// Config holds checker configuration.
type Config struct {
	Interval    time.Duration
	Timeout     time.Duration
	Concurrency int
	MaxFailures int
}

// New creates a new proxy checker.
func New(proxyRepo repository.ProxyRepository, cfg Config, logger *slog.Logger) *Checker {
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		proxyRepo:   proxyRepo,
		interval:    cfg.Interval,
		timeout:     cfg.Timeout,
		concurrency: cfg.Concurrency,
		maxFailures: cfg.MaxFailures,
		dial:        net.DialTimeout,
		failures:    make(map[string]int),
		stop:        make(chan struct{}),
		logger:      logger.With("component", "checker"),
	}
}

// Start begins the periodic check loop.
func (c *Checker) Start(ctx context.Context) {
	c.logger.Info("starting", "interval", c.interval, "concurrency", c.concurrency)

	c.wg.Add(1)
	go c.run(ctx)
}

// Stop gracefully stops the checker.
func (c *Checker) Stop() {
	c.logger.Info("stopping")
	close(c.stop)
	c.wg.Wait()
	c.logger.Info("stopped")
}

func (c *Checker) run(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll probes every active proxy once. Proxies that have failed
// maxFailures times in a row are deactivated.
func (c *Checker) CheckAll(ctx context.Context) {
	proxies, err := c.proxyRepo.ListActive(ctx, 0, 0)
	if err != nil {
		c.logger.Error("failed to list proxies", "error", err)
		return
	}
	if len(proxies) == 0 {
		return
	}

	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup
	for _, proxy := range proxies {
		wg.Add(1)
		sem <- struct{}{}
		go func(p *models.Proxy) {
			defer wg.Done()
			defer func() { <-sem }()
			c.checkOne(ctx, p)
		}(proxy)
	}
	wg.Wait()
}

func (c *Checker) checkOne(ctx context.Context, proxy *models.Proxy) {
	conn, err := c.dial("tcp", proxy.Address(), c.timeout)
	now := time.Now().UTC()

	if err == nil {
		conn.Close()
		c.mu.Lock()
		delete(c.failures, proxy.ID)
		c.mu.Unlock()

		if err := c.proxyRepo.MarkChecked(ctx, proxy.ID, now, true); err != nil {
			c.logger.Error("failed to record check", "proxy_id", proxy.ID, "error", err)
		}
		return
	}

	c.mu.Lock()
	c.failures[proxy.ID]++
	count := c.failures[proxy.ID]
	c.mu.Unlock()

	c.logger.Warn("proxy unreachable",
		"proxy_id", proxy.ID,
		"address", proxy.Address(),
		"failures", count,
		"error", err)

	// Still active until the failure streak hits the threshold; transient
	// upstream blips should not empty the pool.
	active := count < c.maxFailures
	if !active {
		c.mu.Lock()
		delete(c.failures, proxy.ID)
		c.mu.Unlock()
		c.logger.Info("proxy deactivated", "proxy_id", proxy.ID, "address", proxy.Address())
	}

	if err := c.proxyRepo.MarkChecked(ctx, proxy.ID, now, active); err != nil {
		c.logger.Error("failed to record check", "proxy_id", proxy.ID, "error", err)
	}
}
