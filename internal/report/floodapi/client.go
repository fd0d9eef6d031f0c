// Package floodapi is the client for the precipitation report backend's
// /api/report endpoint.
package floodapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/mtaprecip/mtaprecip/internal/provider/resilience"
	"github.com/mtaprecip/mtaprecip/internal/report"
)

const (
	// ProviderName identifies the report backend in the provider registry.
	ProviderName = "report-backend"

	// DefaultBaseURL is where the backend listens in local development.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout bounds a single report generation call.
	DefaultTimeout = 30 * time.Second

	// ReportPath is the backend endpoint path.
	ReportPath = "/api/report"

	// maxPayloadBytes caps the workbook size read into memory.
	maxPayloadBytes = 64 << 20

	// maxMessageLen caps server error text passed on to operators.
	maxMessageLen = 500
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the report backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client built from Timeout and MaxRetries.
	HTTPClient HTTPDoer

	// Timeout is the per-call timeout (optional, defaults to 30s).
	Timeout time.Duration

	// MaxRetries is the number of retries on 5xx and network errors.
	MaxRetries uint64

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches generated workbooks from the report backend.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// NewClient creates a new report backend client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.MaxRetries = cfg.MaxRetries
		clientCfg.Registry = cfg.Registry
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tracer:     otel.Tracer("github.com/mtaprecip/mtaprecip/internal/report/floodapi"),
		logger:     cfg.Logger.With().Str("provider", ProviderName).Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// URL returns the full backend URL for req without sending anything.
func (c *Client) URL(req report.Request) string {
	return c.baseURL + ReportPath + "?" + req.Query().Encode()
}

// Generate requests the workbook for req. Failures are *report.Error values
// wrapping ErrUnavailable, ErrRejected or ErrMalformedPayload.
func (c *Client) Generate(ctx context.Context, req report.Request) (*report.Document, error) {
	ctx, span := c.tracer.Start(ctx, "floodapi.Generate", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("report.date", req.Date.String()),
		attribute.String("report.time", req.Time),
		attribute.String("report.scope", string(req.Scope.Kind)),
		attribute.Int("report.station_count", req.StationCount),
	)

	doc, err := c.generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("report.bytes", doc.Size()))
	return doc, nil
}

func (c *Client) generate(ctx context.Context, req report.Request) (*report.Document, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(req), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", report.ContentTypeXLSX)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	c.logger.Debug().
		Str("date", req.Date.String()).
		Str("time", req.Time).
		Str("scope", string(req.Scope.Kind)).
		Int("station_count", req.StationCount).
		Msg("requesting report")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("report backend unreachable")
		return nil, &report.Error{Err: report.ErrUnavailable}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		c.logger.Warn().Err(err).Int("status", resp.StatusCode).Msg("reading report body failed")
		return nil, &report.Error{StatusCode: resp.StatusCode, Err: report.ErrUnavailable}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(body)
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("message", msg).
			Dur("duration", time.Since(start)).
			Msg("report backend rejected request")
		return nil, &report.Error{StatusCode: resp.StatusCode, Message: msg, Err: report.ErrRejected}
	}

	summary, err := report.InspectWorkbook(body)
	if err != nil {
		c.logger.Warn().Err(err).
			Str("content_type", resp.Header.Get("Content-Type")).
			Int("bytes", len(body)).
			Msg("report payload is not a workbook")
		return nil, &report.Error{StatusCode: resp.StatusCode, Err: report.ErrMalformedPayload}
	}

	c.logger.Info().
		Str("filename", req.Filename()).
		Int("bytes", len(body)).
		Int("rows", summary.Stations).
		Dur("duration", time.Since(start)).
		Msg("report received")

	return &report.Document{
		Filename:    req.Filename(),
		ContentType: report.ContentTypeXLSX,
		Data:        body,
	}, nil
}

// errorResponse is the backend's JSON error shape. detail is a string for
// handled errors and a list of objects for request validation errors.
type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

type validationDetail struct {
	Msg string `json:"msg"`
}

// errorMessage extracts the operator-facing text from an error body, which
// may be JSON with a detail field or plain text.
func errorMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}

	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && len(er.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(er.Detail, &detail); err == nil {
			return truncate(strings.TrimSpace(detail))
		}
		var details []validationDetail
		if err := json.Unmarshal(er.Detail, &details); err == nil && len(details) > 0 {
			return truncate(details[0].Msg)
		}
	}

	return truncate(text)
}

// truncate caps s at maxMessageLen bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
