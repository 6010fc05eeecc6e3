package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_DomainCounters(t *testing.T) {
	m := New()

	m.Transition("confirm", true)
	m.Transition("confirm", false)
	m.Transition("confirm", false)
	m.Conflict()
	m.IntegrityBlocked("pet")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("confirm", "applied")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("confirm", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.integrityBlocks.WithLabelValues("pet")))
}

func TestMetrics_HandlerExposesHTTPSeries(t *testing.T) {
	m := New()
	m.ObserveRequest("get", "/appointments/{id}", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `pet_clinic_http_requests_total{method="GET",route="/appointments/{id}",status="200"} 1`), body)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = New()
		_ = New()
	})
}
