// Package api provides the HTTP API of the export console.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mtaprecip/mtaprecip/internal/api/handler"
	"github.com/mtaprecip/mtaprecip/internal/api/middleware"
	"github.com/mtaprecip/mtaprecip/internal/auth"
	"github.com/mtaprecip/mtaprecip/internal/catalog"
	"github.com/mtaprecip/mtaprecip/internal/provider/resilience"
	"github.com/mtaprecip/mtaprecip/internal/session"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger

	// HTTPMetrics records OpenTelemetry request metrics (optional).
	HTTPMetrics *middleware.Metrics

	// Gatherer backs /metrics (optional; /metrics is not mounted without it).
	Gatherer prometheus.Gatherer

	Catalog  *catalog.Catalog
	Sessions *session.Manager
	Tokens   *auth.TokenService
	Registry *resilience.Registry
	Locator  handler.ReportLocator

	// ExportRateLimit overrides middleware.ExportRateLimit when non-zero.
	ExportRateLimit middleware.RateLimitConfig

	// RequireTLS rejects plain HTTP behind a load balancer.
	RequireTLS bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))

	exportLimit := cfg.ExportRateLimit
	if exportLimit.RequestLimit == 0 {
		exportLimit = middleware.ExportRateLimit
	}

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Registry:  cfg.Registry,
		Sessions:  cfg.Sessions,
	})
	catalogHandler := handler.NewCatalogHandler(cfg.Catalog)
	sessionHandler := handler.NewSessionHandler(handler.SessionConfig{
		Sessions: cfg.Sessions,
		Tokens:   cfg.Tokens,
		Locator:  cfg.Locator,
		Logger:   cfg.Logger,
	})

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.With(middleware.RateLimitByIP(middleware.StandardRateLimit)).
			Get("/catalog/regions", catalogHandler.ListRegions)

		r.Route("/sessions", func(r chi.Router) {
			r.With(middleware.RateLimitByIP(middleware.SessionCreateRateLimit)).
				Post("/", sessionHandler.CreateSession)

			r.Route("/{sessionId}", func(r chi.Router) {
				r.Use(middleware.SessionAuth(cfg.Tokens))
				r.Use(middleware.RequireJSON)
				r.Use(middleware.RateLimitBySession(middleware.StandardRateLimit))

				r.Get("/", sessionHandler.GetSession)
				r.Delete("/", sessionHandler.DeleteSession)

				r.Put("/date", sessionHandler.SetDate)
				r.Put("/hour", sessionHandler.SetHour)
				r.Put("/minute", sessionHandler.SetMinute)

				r.Post("/stations/toggle", sessionHandler.ToggleStation)
				r.Post("/regions/{regionCode}/toggle", sessionHandler.ToggleRegion)
				r.Post("/selection/all", sessionHandler.SelectAll)
				r.Delete("/selection", sessionHandler.ClearSelection)

				r.Get("/request", sessionHandler.PreviewRequest)
				r.With(middleware.RateLimitBySession(exportLimit)).
					Post("/export", sessionHandler.Export)
			})
		})
	})

	return r
}
