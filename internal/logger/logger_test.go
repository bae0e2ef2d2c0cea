package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, rec)
	}
	return out
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarn, "triarb", nil)
	ctx := context.Background()

	log.Debug(ctx, "debug message")
	log.Info(ctx, "info message")
	log.Warn(ctx, "warn message", "symbol", "ETHBTC")
	log.Error(ctx, "error message")

	recs := decodeLines(t, &buf)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0]["msg"] != "warn message" {
		t.Errorf("expected warn message first, got %v", recs[0]["msg"])
	}
	if recs[0]["symbol"] != "ETHBTC" {
		t.Errorf("expected symbol attribute, got %v", recs[0]["symbol"])
	}
	if recs[0]["service"] != "triarb" {
		t.Errorf("expected service attribute, got %v", recs[0]["service"])
	}
	if file, _ := recs[0]["file"].(string); !strings.HasPrefix(file, "logger/logger_test.go:") {
		t.Errorf("expected caller file logger/logger_test.go, got %q", file)
	}
}

func TestLogger_TraceID(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelDebug, "", func(ctx context.Context) string { return "abc123" })

	log.Info(context.Background(), "with trace")

	recs := decodeLines(t, &buf)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0]["trace_id"] != "abc123" {
		t.Errorf("expected trace_id abc123, got %v", recs[0]["trace_id"])
	}
	if _, ok := recs[0]["service"]; ok {
		t.Errorf("expected no service attribute when name is empty")
	}
}

func TestOtelTraceID_NoSpan(t *testing.T) {
	if id := OtelTraceID(context.Background()); id != "" {
		t.Errorf("expected empty trace id, got %q", id)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
