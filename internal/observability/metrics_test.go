package observability_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtaprecip/mtaprecip/internal/observability"
)

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := observability.NewMetricsForTesting()
	b := observability.NewMetricsForTesting()

	a.Exports.WithLabelValues(observability.OutcomeSucceeded, "region").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Exports.WithLabelValues(observability.OutcomeSucceeded, "region")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Exports.WithLabelValues(observability.OutcomeSucceeded, "region")))
}

func TestMetrics_Register(t *testing.T) {
	m := observability.NewMetricsForTesting()
	reg := prometheus.NewRegistry()

	require.NoError(t, reg.Register(m.Exports))
	require.NoError(t, reg.Register(m.SessionsActive))

	m.SessionsActive.Set(3)
	m.Exports.WithLabelValues(observability.OutcomeFailed, "all").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "mtaprecip_exports_total")
	assert.Contains(t, names, "mtaprecip_sessions_active")
}
