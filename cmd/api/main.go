// Package main provides the entrypoint for the MTA precipitation export
// console API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/mtaprecip/mtaprecip/internal/api"
	"github.com/mtaprecip/mtaprecip/internal/api/middleware"
	"github.com/mtaprecip/mtaprecip/internal/auth"
	"github.com/mtaprecip/mtaprecip/internal/catalog"
	"github.com/mtaprecip/mtaprecip/internal/config"
	"github.com/mtaprecip/mtaprecip/internal/observability"
	"github.com/mtaprecip/mtaprecip/internal/provider/resilience"
	"github.com/mtaprecip/mtaprecip/internal/report/floodapi"
	"github.com/mtaprecip/mtaprecip/internal/session"
	"github.com/mtaprecip/mtaprecip/internal/telemetry"
	"github.com/mtaprecip/mtaprecip/internal/timewindow"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "mtaprecip-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = log.Level(cfg.LogLevel)

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Bool("dotenv", cfg.DotEnvLoaded).
		Msg("starting MTA precipitation export console")

	if cfg.UsesDevSigningKey() {
		log.Warn().Msg("using default session signing key - not secure for production")
	}

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()
	if tp.Enabled() {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics(tp.Meters())
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	metrics := observability.NewMetrics()

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("failed to load station catalog")
	}
	log.Info().
		Int("regions", len(cat.Regions())).
		Int("stations", cat.Len()).
		Msg("station catalog loaded")

	registry := resilience.NewRegistry()
	reports := floodapi.NewClient(floodapi.ClientConfig{
		BaseURL:    cfg.Report.BaseURL,
		Timeout:    cfg.Report.Timeout,
		MaxRetries: cfg.Report.MaxRetries,
		Registry:   registry,
		Logger:     log,
	})
	log.Info().
		Str("base_url", cfg.Report.BaseURL).
		Dur("timeout", cfg.Report.Timeout).
		Msg("report backend client initialized")

	sessions := session.NewManager(session.Config{
		Catalog:       cat,
		Resolver:      timewindow.NewResolver(timewindow.Config{Location: cfg.Location}),
		Generator:     reports,
		Metrics:       metrics,
		IdleTTL:       cfg.Session.IdleTTL,
		SweepInterval: cfg.Session.SweepInterval,
		Logger:        log,
	})
	if err := sessions.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start session sweeper")
	}
	defer sessions.Stop()

	tokens := auth.NewTokenService(auth.TokenConfig{
		SigningKey: cfg.Session.SigningKey,
		Issuer:     "mtaprecip",
		Audience:   "export-console",
		Expiry:     cfg.Session.TokenExpiry,
	})

	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		HTTPMetrics: httpMetrics,
		Gatherer:    prometheus.DefaultGatherer,
		Catalog:     cat,
		Sessions:    sessions,
		Tokens:      tokens,
		Registry:    registry,
		Locator:     reports,
		ExportRateLimit: middleware.RateLimitConfig{
			RequestLimit: cfg.ExportsPerMinute,
			WindowLength: time.Minute,
		},
		RequireTLS: cfg.RequireTLS,
	})

	// Exports wait on the backend, retries included, before the
	// workbook is written.
	writeTimeout := cfg.Report.Timeout*time.Duration(cfg.Report.MaxRetries+1) + 15*time.Second

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Dur("write_timeout", writeTimeout).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// In-flight exports get the full backend timeout to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}
