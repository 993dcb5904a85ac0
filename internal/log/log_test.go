package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestNew_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentWorker, Output: &buf})
	logger.WithComponent(ComponentSavings).Info("hello", FieldOwner, "alice")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if line[FieldComponent] != ComponentSavings || line[FieldOwner] != "alice" {
		t.Errorf("unexpected line %v", line)
	}
	if strings.Count(buf.String(), `"component"`) != 1 {
		t.Errorf("component should appear once: %s", buf.String())
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &buf})

	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusNotFound)
		}))))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/budgets?year=2025", nil))

	out := buf.String()
	for _, want := range []string{"level=WARN", "status_code=404", "request_id=req-1", "path=/api/budgets"} {
		if !strings.Contains(out, want) {
			t.Errorf("access log %q missing %q", out, want)
		}
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected fallback logger %+v", l)
	}
}

func TestFromContextUsesDefaultLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		defaultLogger.Store(nil)
		slog.SetDefault(prev)
	})

	var buf bytes.Buffer
	SetDefault(New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentWorker, Output: &buf}))

	fields := NewFields().WithOperation(OpRefresh).WithPeriod("alice", 2025, 3).WithError(errors.New("boom"))
	FromContext(context.Background()).WithComponent(ComponentSavings).Info("refreshed", fields.ToSlice()...)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if line[FieldComponent] != ComponentSavings || line[FieldOperation] != OpRefresh || line[FieldError] != "boom" {
		t.Errorf("unexpected line %v", line)
	}
	if strings.Count(buf.String(), `"component"`) != 1 {
		t.Errorf("component should appear once: %s", buf.String())
	}
}
