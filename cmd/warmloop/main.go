// Package main is the entry point for the warmloop server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/warmloop/warmloop/internal/browser"
	"github.com/warmloop/warmloop/internal/config"
	"github.com/warmloop/warmloop/internal/database"
	"github.com/warmloop/warmloop/internal/http/handlers"
	"github.com/warmloop/warmloop/internal/http/mw"
	"github.com/warmloop/warmloop/internal/http/routes"
	"github.com/warmloop/warmloop/internal/logging"
	"github.com/warmloop/warmloop/internal/repository"
	"github.com/warmloop/warmloop/internal/service"
	"github.com/warmloop/warmloop/internal/session"
	"github.com/warmloop/warmloop/internal/version"
	"github.com/warmloop/warmloop/internal/worker"
)

func main() {
	logger := logging.SetDefault()

	v := version.Get()
	logger.Info("starting warmloop",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := database.Migrate(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	schemaVersion, applied, err := database.SchemaVersion(db)
	if err != nil {
		logger.Warn("failed to get schema version", "error", err)
	} else if schemaVersion != "" {
		logger.Info("database schema ready", "schema_version", schemaVersion, "migrations_applied", applied)
	}

	repos := repository.NewRepositories(db)

	services, err := service.NewServices(cfg, repos, logger)
	if err != nil {
		logger.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	// Browser sessions
	driver := browser.NewRodDriver(logger)
	registry := session.NewRegistry()
	orchestrator := session.NewOrchestrator(services.Allocation, driver, registry, session.OrchestratorConfig{
		LandingURL:  cfg.LandingURL,
		OpenTimeout: cfg.OpenTimeout,
		Headless:    cfg.BrowserHeadless,
		ChromePath:  cfg.ChromePath,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())

	// Background proxy health checker
	var checker *worker.Checker
	if cfg.CheckerEnabled {
		checker = worker.New(repos.Proxy, worker.Config{
			Interval:    cfg.CheckerInterval,
			Timeout:     cfg.CheckerTimeout,
			Concurrency: cfg.CheckerConcurrency,
			MaxFailures: cfg.CheckerMaxFailures,
		}, logger)
		checker.Start(ctx)
	}

	// Create router
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// Browser launches need far longer than normal requests
	router.Use(mw.Timeout(mw.TimeoutConfig{
		Default:          30 * time.Second,
		Extended:         5 * time.Minute,
		ExtendedPatterns: []string{"/browser/open", "/proxies/fetch"},
	}))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Use(middleware.RequestSize(1 * 1024 * 1024))
	router.Use(httprate.LimitByIP(100, time.Minute))
	router.Use(middleware.Throttle(50))

	api := humachi.New(router, routes.NewHumaConfig(cfg.BaseURL))

	h := handlers.New(services, orchestrator, db)
	routes.Register(api, h)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		<-sigChan

		logger.Info("shutting down server")

		closed := orchestrator.CloseAll()
		if closed > 0 {
			logger.Info("closed browser sessions", "count", closed)
		}

		cancel()
		if checker != nil {
			checker.Stop()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("starting server", "port", cfg.Port, "base_url", cfg.BaseURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
