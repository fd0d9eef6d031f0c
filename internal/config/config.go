// Package config reads the export console configuration from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// DevSigningKey is used for session tokens outside production when no key
// is configured.
const DevSigningKey = "local-dev-signing-key-change-in-production"

// ErrMissingSigningKey is returned in production without SESSION_SIGNING_KEY.
var ErrMissingSigningKey = errors.New("SESSION_SIGNING_KEY is required in production")

// Config is the full application configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel zerolog.Level

	Report    ReportConfig
	Session   SessionConfig
	Telemetry TelemetryConfig

	// Location is the operator time zone that defines "today".
	Location *time.Location

	// CatalogPath overrides the built-in station catalog when set.
	CatalogPath string

	// ExportsPerMinute limits export requests per session.
	ExportsPerMinute int

	// RequireTLS rejects requests that did not arrive over HTTPS.
	RequireTLS bool

	// DotEnvLoaded reports whether a .env file was read.
	DotEnvLoaded bool
}

// ReportConfig configures the report backend client.
type ReportConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries uint64
}

// SessionConfig configures operator sessions.
type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
	SigningKey    string
	TokenExpiry   time.Duration
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	SampleRatio  float64
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// UsesDevSigningKey reports whether the insecure development key is in use.
func (c *Config) UsesDevSigningKey() bool {
	return c.Session.SigningKey == DevSigningKey
}

// Load reads configuration from the environment. Variables already set take
// precedence over those in .env.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := godotenv.Load(); err == nil {
		cfg.DotEnvLoaded = true
	}

	var errs []error
	cfg.Port = getenvDefault("APP_PORT", "8080")
	cfg.Env = getenvDefault("APP_ENV", "development")

	level, err := zerolog.ParseLevel(strings.ToLower(getenvDefault("LOG_LEVEL", "info")))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL: %w", err))
	}
	cfg.LogLevel = level

	cfg.Report.BaseURL = getenvDefault("REPORT_BASE_URL", "http://localhost:8000")
	cfg.Report.Timeout = getenvDuration("REPORT_TIMEOUT", 30*time.Second, &errs)
	if retries := getenvInt("REPORT_MAX_RETRIES", 2, &errs); retries < 0 {
		errs = append(errs, errors.New("invalid REPORT_MAX_RETRIES: must not be negative"))
	} else {
		cfg.Report.MaxRetries = uint64(retries)
	}

	tz := getenvDefault("REPORT_TIMEZONE", "America/New_York")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid REPORT_TIMEZONE: %w", err))
	}
	cfg.Location = loc

	cfg.CatalogPath = os.Getenv("CATALOG_PATH")
	cfg.ExportsPerMinute = getenvInt("EXPORT_RATE_LIMIT", 6, &errs)
	if cfg.ExportsPerMinute <= 0 {
		errs = append(errs, errors.New("invalid EXPORT_RATE_LIMIT: must be positive"))
	}

	cfg.RequireTLS = os.Getenv("REQUIRE_TLS") == "true"

	cfg.Session.IdleTTL = getenvDuration("SESSION_IDLE_TTL", 2*time.Hour, &errs)
	cfg.Session.SweepInterval = getenvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute, &errs)
	cfg.Session.TokenExpiry = getenvDuration("SESSION_TOKEN_EXPIRY", 12*time.Hour, &errs)
	cfg.Session.SigningKey = os.Getenv("SESSION_SIGNING_KEY")
	if cfg.Session.SigningKey == "" {
		if cfg.IsProduction() {
			errs = append(errs, ErrMissingSigningKey)
		}
		cfg.Session.SigningKey = DevSigningKey
	}

	cfg.Telemetry.Enabled = os.Getenv("OTEL_ENABLED") == "true"
	cfg.Telemetry.OTLPEndpoint = getenvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	cfg.Telemetry.SampleRatio = 1
	if v := os.Getenv("OTEL_SAMPLE_RATIO"); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil || ratio < 0 || ratio > 1 {
			errs = append(errs, fmt.Errorf("invalid OTEL_SAMPLE_RATIO: %q", v))
		} else {
			cfg.Telemetry.SampleRatio = ratio
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return d
}
