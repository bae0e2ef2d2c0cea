package health

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/triarb/internal/logger"
)

func newTestServer() *Server {
	return NewServer(0, "test", logger.New(io.Discard, logger.LevelError, "test", nil))
}

func TestHealth_Endpoints(t *testing.T) {
	tests := []struct {
		name       string
		healthy    bool
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "live_always_ok", healthy: false, path: "/live", wantStatus: http.StatusOK, wantBody: "alive"},
		{name: "ready_when_healthy", healthy: true, path: "/ready", wantStatus: http.StatusOK, wantBody: "ready"},
		{name: "not_ready_when_unhealthy", healthy: false, path: "/ready", wantStatus: http.StatusServiceUnavailable, wantBody: "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			s.RegisterCheck("binance", func(ctx context.Context) (bool, string) {
				return tt.healthy, "probe"
			})

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestHealth_DegradedReport(t *testing.T) {
	s := newTestServer()
	s.RegisterCheck("binance", func(ctx context.Context) (bool, string) { return true, "" })
	s.RegisterCheck("last_scan", func(ctx context.Context) (bool, string) { return false, "scan failed" })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var status Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "degraded" || status.Version != "test" {
		t.Errorf("unexpected status %+v", status)
	}
	if c := status.Checks["last_scan"]; c.Healthy || c.Message != "scan failed" {
		t.Errorf("unexpected last_scan check %+v", c)
	}
}
