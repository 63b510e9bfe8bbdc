// Package api provides the HTTP API for Pollution Trends.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/pollutiontrends/pollutiontrends/internal/api/handler"
	"github.com/pollutiontrends/pollutiontrends/internal/api/middleware"
	"github.com/pollutiontrends/pollutiontrends/internal/dataset"
	"github.com/pollutiontrends/pollutiontrends/internal/plot"
	"github.com/pollutiontrends/pollutiontrends/internal/provider/resilience"
	"github.com/pollutiontrends/pollutiontrends/internal/trends"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version       string
	BuildTime     string
	Logger        zerolog.Logger
	ServiceName   string
	Metrics       *middleware.Metrics
	DatasetSource string
	Repository    dataset.Repository
	TrendsService *trends.Service
	Renderer      *plot.Renderer
	Registry      *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "pollution-trends-api"
	}

	registry := cfg.Registry
	if registry == nil {
		registry = resilience.GlobalRegistry
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DatasetSource, cfg.Repository, registry)
	trendsHandler := handler.NewTrendsHandler(cfg.TrendsService, cfg.Renderer)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Selection and fetch are cheap lookups - standard rate limiting
		r.With(standardRateLimit).Post("/cities:select", trendsHandler.SelectCities)
		r.With(standardRateLimit).Post("/records:fetch", trendsHandler.FetchRecords)

		// Analysis and plotting are compute/IO heavy - strict rate limiting
		r.With(expensiveRateLimit).Post("/trends:analyze", trendsHandler.AnalyzeTrends)
		r.With(expensiveRateLimit).Post("/trends:plot", trendsHandler.PlotTrends)
	})

	return r
}
