package respond

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pet-clinic-appointments/internal/platform/apperr"
	"pet-clinic-appointments/internal/platform/logger"
)

func TestError_MapsKindAndHidesInternal(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", apperr.Validation("invalid status"), http.StatusBadRequest, "invalid status"},
		{"conflict", apperr.Conflict("Pet has 1 active appointment(s)"), http.StatusConflict, "Pet has 1 active appointment(s)"},
		{"raw", errors.New("dial tcp: refused"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.New(logger.Options{Level: logger.Debug, Format: logger.FormatJSON, Output: &buf})

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
			Error(rec, req, log, tc.err)

			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid body: %v", err)
			}
			if body["error"] != tc.message {
				t.Fatalf("error = %q, want %q", body["error"], tc.message)
			}
			if !strings.Contains(buf.String(), `"path":"/appointments"`) {
				t.Fatalf("expected request context in log, got %q", buf.String())
			}
		})
	}
}
