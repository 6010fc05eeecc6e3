package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iam(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != verifyPath || r.Header.Get("X-Api-Key") != "svc-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch body["token"] {
		case "good":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"user_id": "ana", "email": "ana@x.com", "roles": []string{"operator", " "},
			})
		case "broken":
			w.WriteHeader(http.StatusBadGateway)
		case "anon":
			_ = json.NewEncoder(w).Encode(map[string]any{"email": "x@x.com"})
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerify(t *testing.T) {
	srv := iam(t)
	v, err := New(Config{BaseURL: srv.URL, APIKey: "svc-key"})
	require.NoError(t, err)

	c, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "ana", c.Subject)
	assert.Equal(t, []string{"operator"}, c.Roles)

	_, err = v.Verify(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = v.Verify(context.Background(), "broken")
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = v.Verify(context.Background(), "anon")
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = v.Verify(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerify_WrongAPIKeyIsUnauthorized(t *testing.T) {
	srv := iam(t)
	v, err := New(Config{BaseURL: srv.URL, APIKey: "other"})
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), "good")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestNew_RequiresURLAndKey(t *testing.T) {
	_, err := New(Config{BaseURL: "http://iam"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
