package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.SessionsCreated.WithLabelValues("sse").Inc()
	m.SessionsCreated.WithLabelValues("sse").Inc()
	m.SessionsClosed.WithLabelValues("sse").Inc()
	m.RecordRejection("host-mismatch")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsCreated.WithLabelValues("sse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsClosed.WithLabelValues("sse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthRejections.WithLabelValues("host-mismatch")))
}

func TestMetricsHandlerServesRegistry(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.SessionsCreated.WithLabelValues("streamable-http").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mcp_confluent_sessions_created_total")
}

func TestMetricsInstancesAreIndependent(t *testing.T) {
	t.Parallel()

	a := NewMetrics()
	b := NewMetrics()
	a.RecordRejection("key-missing")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.AuthRejections.WithLabelValues("key-missing")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.AuthRejections.WithLabelValues("key-missing")))
}
