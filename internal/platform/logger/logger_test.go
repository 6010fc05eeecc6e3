package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNew_JSONIncludesBaseAndCallFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: Debug, Format: FormatJSON, App: "pet-clinic", Output: &buf})

	log.With(map[string]any{"request_id": "r-1"}).Info("appointment created", map[string]any{
		"appointment_id": "a-1",
		"":               "ignored",
		"error":          errors.New("boom"),
	})

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected json line, got %q: %v", buf.String(), err)
	}

	for k, want := range map[string]string{
		"app":            "pet-clinic",
		"request_id":     "r-1",
		"appointment_id": "a-1",
		"msg":            "appointment created",
		"level":          "info",
		"error":          "boom",
	} {
		if got, _ := entry[k].(string); got != want {
			t.Errorf("field %q = %q, want %q", k, got, want)
		}
	}
	if _, ok := entry["ts"]; !ok {
		t.Errorf("expected ts field")
	}
	if _, ok := entry[""]; ok {
		t.Errorf("empty keys must be dropped")
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: Warn, Format: FormatText, Output: &buf})

	log.Info("hidden", nil)
	log.Warn("shown", nil)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line must be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("expected warn line, got %q", out)
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	if ParseLevel(" WARNING ") != Warn {
		t.Fatalf("expected warn")
	}
	if ParseLevel("nope") != Info {
		t.Fatalf("expected info fallback")
	}
	if ParseFormat("JSON") != FormatJSON || ParseFormat("") != FormatText {
		t.Fatalf("unexpected format parsing")
	}
}
