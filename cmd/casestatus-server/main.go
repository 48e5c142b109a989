// Package main provides the entry point for the case-status server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/courtlens/casestatus-api/internal/api/handlers"
	"github.com/courtlens/casestatus-api/internal/cache"
	"github.com/courtlens/casestatus-api/internal/config"
	"github.com/courtlens/casestatus-api/internal/court"
	"github.com/courtlens/casestatus-api/internal/http/mw"
	"github.com/courtlens/casestatus-api/internal/logging"
	"github.com/courtlens/casestatus-api/internal/shutdown"
	"github.com/courtlens/casestatus-api/internal/solver"
	"github.com/courtlens/casestatus-api/internal/version"
)

func main() {
	// Load configuration first (logging config comes from env)
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger using slog-logfilter (respects LOG_LEVEL, LOG_FORMAT env vars)
	logger := logging.SetDefault()

	logger.Info("starting case-status server",
		"version", version.Get().Version,
		"port", cfg.Port,
		"court_base_url", cfg.CourtBaseURL,
		"max_attempts", cfg.MaxAttempts,
		"normalize_results", cfg.NormalizeResults,
		"solver_keys", len(cfg.SolverAPIKeys),
	)

	// Lookup cache backend
	var store cache.Store
	switch {
	case cfg.CacheTTL <= 0:
		store = cache.Disabled{}
	case cfg.CacheDB != "":
		sqliteStore, err := cache.NewSQLite(cfg.CacheDB, logger)
		if err != nil {
			logger.Error("failed to open cache database", "path", cfg.CacheDB, "error", err)
			os.Exit(1)
		}
		store = sqliteStore
	default:
		store = cache.NewMemory()
	}
	defer store.Close()
	logger.Info("lookup cache configured", "backend", store.Name(), "ttl", cfg.CacheTTL)

	// Captcha solver
	visionSolver := solver.NewVision(solver.VisionOptions{
		APIKeys: cfg.SolverAPIKeys,
		Model:   cfg.SolverModel,
		BaseURL: cfg.SolverBaseURL,
		Logger:  logger,
	})

	// Lookup pipeline
	fetcher := court.NewHTTPFetcher(cfg.RequestTimeout)
	normalizer := court.NewNormalizer(cfg.NormalizeResults, cfg.CourtBaseURL)
	orch := court.NewOrchestrator(court.OrchestratorOptions{
		Fetcher:     fetcher,
		Solver:      visionSolver,
		Store:       store,
		Normalizer:  normalizer,
		StatusURL:   cfg.StatusPageURL(),
		AjaxURL:     cfg.AjaxURL(),
		MaxAttempts: cfg.MaxAttempts,
		BackoffBase: cfg.BackoffBase,
		CacheTTL:    cfg.CacheTTL,
		Logger:      logger,
	})

	// Handlers
	healthHandler := handlers.NewHealthHandler(store)
	lookupHandler := handlers.NewLookupHandler(orch, cfg.NormalizeResults, logger)

	// Idle monitor (for scale-to-zero deployments)
	idle := shutdown.NewIdleMonitor(shutdown.IdleMonitorConfig{
		Timeout: cfg.IdleTimeout,
		Logger:  logger,
	})
	idle.Start()
	defer idle.Stop()

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// One lookup can take several full retry cycles plus backoff.
	r.Use(middleware.Timeout(time.Duration(cfg.MaxAttempts)*cfg.RequestTimeout + 60*time.Second))
	r.Use(idle.Middleware)
	r.Use(mw.CacheControl(mw.DefaultCacheConfig()))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{mw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Create Huma API
	humaConfig := huma.DefaultConfig("Case Status API", version.Get().Version)
	humaConfig.Info.Description = "Captcha-gated court case-status lookup service"
	api := humachi.New(r, humaConfig)

	// Register health endpoint (not rate limited)
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns health status, version, uptime, and cache backend",
		Tags:        []string{"Health"},
	}, func(ctx context.Context, input *struct{}) (*handlers.HealthOutput, error) {
		resp := healthHandler.Handle(ctx)
		return &handlers.HealthOutput{Body: *resp}, nil
	})

	// Lookup route gets its own router so rate limiting never throttles
	// health probes. One lookup can burn several solver calls, so the
	// per-IP limit protects solver quota.
	lookupRouter := chi.NewRouter()
	if cfg.RateLimitRPM > 0 {
		lookupRouter.Use(httprate.LimitByIP(cfg.RateLimitRPM, time.Minute))
	}

	lookupAPI := humachi.New(lookupRouter, humaConfig)
	huma.Register(lookupAPI, huma.Operation{
		OperationID:   "caseDetails",
		Method:        http.MethodPost,
		Path:          "/api/case-details",
		Summary:       "Look up case status by diary number",
		Description:   "Resolves a diary number against the court site, solving its captcha transparently",
		Tags:          []string{"Lookup"},
		DefaultStatus: http.StatusOK,
	}, lookupHandler.Handle)

	// Mount lookup routes on main router
	r.Mount("/", lookupRouter)

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(cfg.MaxAttempts)*cfg.RequestTimeout + 90*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal or idle shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		logger.Info("signal received, shutting down server...")
	case <-idle.ShutdownChan():
		logger.Info("idle timeout reached, shutting down server...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}
