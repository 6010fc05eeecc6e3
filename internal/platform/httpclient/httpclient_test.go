package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDoJSON_SendsBodyAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/echo" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "k" {
			t.Errorf("missing header, got %q", got)
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{"got": in["say"]})
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/", 0)
	if err != nil {
		t.Fatal(err)
	}

	var out struct {
		Got string `json:"got"`
	}
	if err := c.DoJSON(context.Background(), http.MethodPost, "echo", map[string]string{"X-Api-Key": "k"}, map[string]string{"say": "hola"}, &out); err != nil {
		t.Fatal(err)
	}
	if out.Got != "hola" {
		t.Fatalf("got %q", out.Got)
	}
}

func TestDoJSON_Non2xxIsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, _ := New(srv.URL, 0)
	err := c.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil, nil)
	if StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}

func TestNew_RejectsBadURLAndRelativeWithoutBase(t *testing.T) {
	if _, err := New("::bad", 0); err == nil {
		t.Fatal("expected error for invalid base url")
	}
	c, _ := New("", 0)
	if err := c.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil, nil); err == nil {
		t.Fatal("expected error for relative path without base url")
	}
}
