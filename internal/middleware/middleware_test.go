package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pet-clinic-appointments/internal/platform/logger"
	"pet-clinic-appointments/internal/platform/metrics"
	"pet-clinic-appointments/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier map[string]auth.Claims

func (f fakeVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	c, ok := f[token]
	if !ok {
		return auth.Claims{}, errors.New("bad token")
	}
	return c, nil
}

// echoCaller escribe el subject y roles vistos por el handler.
var echoCaller = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	c := Caller(r.Context())
	if c == nil {
		_, _ = w.Write([]byte("anon"))
		return
	}
	_, _ = w.Write([]byte(c.Subject + "|" + strings.Join(c.Roles, ",")))
})

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthContext_DevHeaders(t *testing.T) {
	h := AuthContext(nil, logger.Nop())(echoCaller)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderDebugUserID, " ana ")
	req.Header.Set(HeaderDebugRoles, "operator, ,admin")
	assert.Equal(t, "ana|operator,admin", serve(h, req).Body.String())

	assert.Equal(t, "anon", serve(h, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String())
}

func TestAuthContext_Verifier(t *testing.T) {
	h := AuthContext(fakeVerifier{"good": {Subject: "bob", Roles: []string{"operator"}}}, logger.Nop())(echoCaller)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer good")
	assert.Equal(t, "bob|operator", serve(h, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	assert.Equal(t, "anon", serve(h, req).Body.String(), "invalid tokens leave the request anonymous")

	// con verifier configurado los headers de debug se ignoran
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderDebugUserID, "root")
	assert.Equal(t, "anon", serve(h, req).Body.String())
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken("abc"))
	assert.Equal(t, "", bearerToken(""))
}

func TestRateLimiter_PerCaller(t *testing.T) {
	l := NewRateLimiter(1, 2)
	frozen := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return frozen }

	assert.True(t, l.Allow("sub:ana"))
	assert.True(t, l.Allow("sub:ana"))
	assert.False(t, l.Allow("sub:ana"), "burst exhausted")
	assert.True(t, l.Allow("sub:bob"), "buckets are per caller")

	frozen = frozen.Add(time.Second)
	assert.True(t, l.Allow("sub:ana"), "one token refilled after a second")
}

func TestRateLimiter_Middleware429(t *testing.T) {
	l := NewRateLimiter(0.001, 1)
	h := AuthContext(nil, nil)(l.Middleware(echoCaller))

	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(HeaderDebugUserID, "ana")
		return r
	}
	assert.Equal(t, http.StatusOK, serve(h, req()).Code)

	rec := serve(h, req())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}

func TestRecover_ReturnsJSON500AndLogs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: logger.Debug, Format: logger.FormatJSON, Output: &buf})

	h := Recover(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/pets", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "boom")
}

func TestRequestLogger_WritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: logger.Info, Format: logger.FormatJSON, Output: &buf})

	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	serve(h, httptest.NewRequest(http.MethodPost, "/owners", nil))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, `"status":201`)
	assert.Contains(t, out, `"path":"/owners"`)
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/pets/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	serve(r, httptest.NewRequest(http.MethodGet, "/pets/123", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/pets/456", nil))

	n, err := testutil.GatherAndCount(m.Registry(), "pet_clinic_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "both requests share the /pets/{id} series")
}
