package floodapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtaprecip/mtaprecip/internal/catalog"
	"github.com/mtaprecip/mtaprecip/internal/provider/resilience"
	"github.com/mtaprecip/mtaprecip/internal/report"
	"github.com/mtaprecip/mtaprecip/internal/report/floodapi"
	"github.com/mtaprecip/mtaprecip/internal/timewindow"
)

func bronxRequest(t *testing.T) report.Request {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	bronx, _ := cat.Region("Bx")
	keys := make([]catalog.StationKey, 0, bronx.Len())
	for _, s := range bronx.Stations {
		keys = append(keys, s.Key())
	}
	return report.Build(timewindow.Date{Year: 2021, Month: time.August, Day: 31}, "22", "00", keys, cat)
}

func workbook(t *testing.T) []byte {
	t.Helper()
	data, err := report.WriteWorkbook("2021-08-31", "22:00", []report.Row{
		{Station: "Fordham Rd", Lines: "B D", Borough: "Bronx", RiskLevel: "LOW"},
	})
	require.NoError(t, err)
	return data
}

func newClient(url string) *floodapi.Client {
	return floodapi.NewClient(floodapi.ClientConfig{
		BaseURL:    url,
		HTTPClient: http.DefaultClient,
		Logger:     zerolog.Nop(),
	})
}

func TestClient_Generate_Success(t *testing.T) {
	data := workbook(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, floodapi.ReportPath, r.URL.Path)
		assert.Equal(t, "xlsx", r.URL.Query().Get("format"))
		assert.Equal(t, "2021-08-31", r.URL.Query().Get("date"))
		assert.Equal(t, "22:00", r.URL.Query().Get("time"))
		assert.Equal(t, "Bronx", r.URL.Query().Get("borough"))
		assert.False(t, r.URL.Query().Has("stations"))

		w.Header().Set("Content-Type", report.ContentTypeXLSX)
		_, _ = w.Write(data)
	}))
	defer server.Close()

	doc, err := newClient(server.URL).Generate(context.Background(), bronxRequest(t))
	require.NoError(t, err)
	assert.Equal(t, "mta_precp_2021-08-31.xlsx", doc.Filename)
	assert.Equal(t, report.ContentTypeXLSX, doc.ContentType)
	assert.Equal(t, data, doc.Data)
}

func TestClient_Generate_ServerText(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "plain text", status: http.StatusInternalServerError, body: "archive unavailable", want: "archive unavailable"},
		{name: "detail string", status: http.StatusBadRequest, body: `{"detail":"Date must be on or after 2021-01-01."}`, want: "Date must be on or after 2021-01-01."},
		{name: "detail list", status: http.StatusUnprocessableEntity, body: `{"detail":[{"loc":["query","format"],"msg":"value is not a valid enumeration member"}]}`, want: "value is not a valid enumeration member"},
		{name: "empty body", status: http.StatusServiceUnavailable, body: "", want: ""},
		{name: "json without detail", status: http.StatusBadGateway, body: `{"error":"bad"}`, want: `{"error":"bad"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newClient(server.URL).Generate(context.Background(), bronxRequest(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, report.ErrRejected)

			var re *report.Error
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.status, re.StatusCode)
			assert.Equal(t, tt.want, re.Message)
		})
	}
}

func TestClient_Generate_LongMessageTruncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer server.Close()

	_, err := newClient(server.URL).Generate(context.Background(), bronxRequest(t))
	assert.Len(t, report.ServerMessage(err), 500)
}

func TestClient_Generate_LongMultibyteMessageKeepsRunes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		// 2-byte runes offset by one byte so the 500-byte cap lands mid-rune.
		_, _ = w.Write([]byte("x" + strings.Repeat("é", 300)))
	}))
	defer server.Close()

	_, err := newClient(server.URL).Generate(context.Background(), bronxRequest(t))
	msg := report.ServerMessage(err)
	assert.True(t, utf8.ValidString(msg))
	assert.Len(t, msg, 499)
	assert.True(t, strings.HasPrefix(msg, "xéé"))
}

func TestClient_Generate_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	_, err := newClient(server.URL).Generate(context.Background(), bronxRequest(t))
	assert.ErrorIs(t, err, report.ErrMalformedPayload)
	assert.Empty(t, report.ServerMessage(err))
}

func TestClient_Generate_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newClient(url).Generate(context.Background(), bronxRequest(t))
	assert.ErrorIs(t, err, report.ErrUnavailable)
}

func TestClient_Generate_ResilientDefaults(t *testing.T) {
	var attempts atomic.Int32
	data := workbook(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(data)
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	client := floodapi.NewClient(floodapi.ClientConfig{
		BaseURL:    server.URL + "/",
		Timeout:    2 * time.Second,
		MaxRetries: 1,
		Registry:   registry,
		Logger:     zerolog.Nop(),
	})

	doc, err := client.Generate(context.Background(), bronxRequest(t))
	require.NoError(t, err)
	assert.Equal(t, data, doc.Data)
	assert.Equal(t, int32(2), attempts.Load())

	health := registry.GetHealth(floodapi.ProviderName)
	require.NotNil(t, health)
	assert.NotNil(t, health.LastSuccessAt)
}

func TestClient_Generate_ServerTextSurvivesBreakerTrip(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("archive unavailable"))
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	cb := resilience.DefaultCircuitBreakerConfig(floodapi.ProviderName)
	httpClient := resilience.NewClient(resilience.ClientConfig{
		Name:            floodapi.ProviderName,
		Timeout:         2 * time.Second,
		MaxRetries:      2,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     20 * time.Millisecond,
		CircuitBreaker:  &cb,
		Registry:        registry,
	})
	client := floodapi.NewClient(floodapi.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: httpClient,
		Logger:     zerolog.Nop(),
	})

	reached := 0
	for i := 0; i < 3; i++ {
		before := hits.Load()
		_, err := client.Generate(context.Background(), bronxRequest(t))
		require.Error(t, err)
		if hits.Load() > before {
			reached++
			assert.ErrorIs(t, err, report.ErrRejected, "call %d", i+1)
			assert.Equal(t, "archive unavailable", report.ServerMessage(err), "call %d", i+1)
		} else {
			assert.ErrorIs(t, err, report.ErrUnavailable, "call %d", i+1)
		}
	}
	assert.Equal(t, 2, reached, "breaker should open during the second call")
}

func TestClient_URL(t *testing.T) {
	client := newClient("http://reports.internal:8000/")
	url := client.URL(bronxRequest(t))
	assert.Equal(t, "http://reports.internal:8000/api/report?borough=Bronx&date=2021-08-31&format=xlsx&time=22%3A00", url)
	assert.Equal(t, floodapi.ProviderName, client.Name())
}
