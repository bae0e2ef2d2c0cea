package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/fd1az/triarb/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/triarb/business/pricing/domain"
	"github.com/fd1az/triarb/internal/apperror"
	"github.com/fd1az/triarb/internal/server"
)

type mockLogger struct {
	mu      sync.Mutex
	errors  []string
	errArgs [][]any
}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
	m.errArgs = append(m.errArgs, args)
}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

type stubScanner struct {
	result *domain.ScanResult
	err    error
}

func (s stubScanner) Shared(ctx context.Context) (*domain.ScanResult, error) {
	return s.result, s.err
}

func sampleResult(t *testing.T) *domain.ScanResult {
	t.Helper()
	tr := domain.Triple{I: 0, J: 1, K: 2, Symbols: [3]pricingDomain.Symbol{"ETHBTC", "BNBBTC", "BNBETH"}}
	opp, err := domain.Evaluate(tr, [3]float64{0.05, 0.004, 0.085})
	if err != nil || opp == nil {
		t.Fatalf("expected opportunity, got %v, %v", opp, err)
	}
	r := domain.NewScanResult()
	r.Logs = append(r.Logs, domain.ProcessingEntry(tr))
	r.Opportunities = append(r.Opportunities, opp)
	return r
}

func TestHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name        string
		scanner     stubScanner
		wantStatus  int
		wantType    string
		wantBody    string
		wantErrLogs int
	}{
		{
			name:       "scan_ok",
			scanner:    stubScanner{result: sampleResult(t)},
			wantStatus: http.StatusOK,
			wantType:   "application/json; charset=utf-8",
			wantBody:   `{"opportunities":[{"buy":"ETHBTC -> BNBBTC -> BNBETH","profit":"6.25 %"}],"logs":["Processing: ETHBTC, BNBBTC, BNBETH"]}`,
		},
		{
			name:       "empty_scan",
			scanner:    stubScanner{result: domain.NewScanResult()},
			wantStatus: http.StatusOK,
			wantType:   "application/json; charset=utf-8",
			wantBody:   `{"opportunities":[],"logs":[]}`,
		},
		{
			name:        "no_symbols",
			scanner:     stubScanner{err: apperror.New(apperror.CodeNoSymbolsFound)},
			wantStatus:  http.StatusInternalServerError,
			wantType:    "text/plain; charset=utf-8",
			wantBody:    "Server error",
			wantErrLogs: 1,
		},
		{
			name:        "cancelled",
			scanner:     stubScanner{err: context.Canceled},
			wantStatus:  http.StatusInternalServerError,
			wantType:    "text/plain; charset=utf-8",
			wantBody:    "Server error",
			wantErrLogs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &mockLogger{}
			h := NewHandler(tt.scanner, log)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/arbitrage", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.wantType {
				t.Errorf("expected content type %q, got %q", tt.wantType, got)
			}
			if got := rec.Body.String(); got != tt.wantBody {
				t.Errorf("unexpected body\n got: %s\nwant: %s", got, tt.wantBody)
			}
			if len(log.errors) != tt.wantErrLogs {
				t.Errorf("expected %d error logs, got %d", tt.wantErrLogs, len(log.errors))
			}
		})
	}
}

func TestHandler_RegisteredOnServer(t *testing.T) {
	log := &mockLogger{}
	srv := server.New(server.Config{Port: 0}, log)
	NewHandler(stubScanner{result: domain.NewScanResult()}, log).Register(srv)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/arbitrage", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Error("expected CORS header from the server middleware")
	}
	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["opportunities"]; !ok {
		t.Error("expected opportunities key")
	}

	post, err := http.Post(ts.URL+"/api/arbitrage", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for POST, got %d", post.StatusCode)
	}
}

func TestHandler_LogsWrappedAppErrorFields(t *testing.T) {
	cause := apperror.New(apperror.CodeNoSymbolsFound, apperror.WithContext("empty catalog"))

	tests := []struct {
		name string
		err  error
	}{
		{name: "direct", err: cause},
		{name: "wrapped", err: fmt.Errorf("shared scan: %w", cause)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &mockLogger{}
			h := NewHandler(stubScanner{err: tt.err}, log)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/arbitrage", nil))

			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", rec.Code)
			}
			if len(log.errArgs) != 1 {
				t.Fatalf("expected one error log, got %d", len(log.errArgs))
			}
			args := log.errArgs[0]
			if len(args) < 2 || args[0] != "code" || args[1] != string(apperror.CodeNoSymbolsFound) {
				t.Errorf("expected code fields in log args, got %v", args)
			}
		})
	}
}
