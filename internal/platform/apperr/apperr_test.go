package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf_WrappedAndPlainErrors(t *testing.T) {
	wrapped := fmt.Errorf("confirm: %w", Validation("appointment is already confirmed"))
	if got := KindOf(wrapped); got != KindValidation {
		t.Fatalf("expected validation, got %q", got)
	}
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Fatalf("expected internal for plain error, got %q", got)
	}
	if got := KindOf(nil); got != "" {
		t.Fatalf("expected empty kind for nil, got %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:      http.StatusBadRequest,
		KindUnauthenticated: http.StatusUnauthorized,
		KindForbidden:       http.StatusForbidden,
		KindNotFound:        http.StatusNotFound,
		KindConflict:        http.StatusConflict,
		KindInternal:        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := HTTPStatus(kind); got != want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestPublicMessage_HidesInternalDetail(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"))
	if got := PublicMessage(err); got != "internal" {
		t.Fatalf("expected generic message, got %q", got)
	}
	if got := PublicMessage(errors.New("raw")); got != "internal" {
		t.Fatalf("expected generic message for raw error, got %q", got)
	}
	if got := PublicMessage(Conflict("Pet has 1 active appointment(s)")); got != "Pet has 1 active appointment(s)" {
		t.Fatalf("unexpected message %q", got)
	}
	if !errors.Is(err, err.Err) {
		t.Fatalf("expected Unwrap to expose cause")
	}
}
