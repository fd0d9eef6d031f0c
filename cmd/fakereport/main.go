// Package main runs a local stand-in for the precipitation report backend so
// the export console can be exercised without NOAA data access.
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

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mtaprecip/mtaprecip/internal/api/middleware"
	"github.com/mtaprecip/mtaprecip/internal/catalog"
	"github.com/mtaprecip/mtaprecip/internal/report/fakebackend"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
		With().
		Timestamp().
		Str("service", "mtaprecip-fakereport").
		Str("version", Version).
		Logger()

	port := os.Getenv("FAKEREPORT_PORT")
	if port == "" {
		port = "8000"
	}

	loc, err := time.LoadLocation(getenvDefault("REPORT_TIMEZONE", "America/New_York"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REPORT_TIMEZONE")
	}

	var cat *catalog.Catalog
	if path := os.Getenv("CATALOG_PATH"); path != "" {
		cat, err = catalog.Load(path)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load station catalog")
	}

	failWith := os.Getenv("FAKEREPORT_FAIL_WITH")
	if failWith != "" {
		log.Warn().Str("detail", failWith).Msg("every report request will fail")
	}

	backend := fakebackend.NewHandler(fakebackend.Config{
		Catalog:  cat,
		Location: loc,
		FailWith: failWith,
		Logger:   log,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Mount("/", backend.Routes())

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("build_time", BuildTime).
			Msg("stand-in report backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server stopped")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
