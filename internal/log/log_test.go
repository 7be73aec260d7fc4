package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentDataset, Output: &buf})

	logger.Info("Dataset loaded", FieldRows, 42)
	logger.WithComponent(ComponentStorage).Warn("slow")

	out := buf.String()
	if !strings.Contains(out, "component=dataset") || !strings.Contains(out, "rows=42") {
		t.Errorf("missing fields in %q", out)
	}
	if !strings.Contains(out, "component=storage") {
		t.Errorf("WithComponent not applied: %q", out)
	}
}

func TestNewContextAndFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Output: &buf}).With(FieldRequestID, "req-1")

	ctx := NewContext(context.Background(), logger)
	FromContext(ctx).Info("inside")

	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Errorf("request id not propagated: %q", buf.String())
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("expected fallback logger")
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Output: &buf}))
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/api/figures?country=X", nil)
	sl.LogHTTPEnd(ctx, req, http.StatusInternalServerError, 3, "10.0.0.1")
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("5xx should log at error: %q", buf.String())
	}

	buf.Reset()
	sl.LogInteraction(ctx, "update", "TestLand", 2020, 2021, 1, 2, 3, time.Millisecond)
	for _, want := range []string{"event=update", "country=TestLand", "bars=2", "active_cells=3"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("missing %q in %q", want, buf.String())
		}
	}

	buf.Reset()
	sl.LogError(ctx, "publish failed", errors.New("boom"), OpPublish, nil)
	if !strings.Contains(buf.String(), "error=boom") {
		t.Errorf("missing error in %q", buf.String())
	}
}
