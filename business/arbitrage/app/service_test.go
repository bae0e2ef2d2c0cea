package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fd1az/triarb/business/arbitrage/domain"
	"github.com/fd1az/triarb/internal/apperror"
)

// gatedRunner blocks every scan until release is closed.
type gatedRunner struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
}

func newGatedRunner() *gatedRunner {
	return &gatedRunner{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (r *gatedRunner) Scan(ctx context.Context, reporter Reporter) (*domain.ScanResult, error) {
	r.calls.Add(1)
	r.started <- struct{}{}
	<-r.release
	if r.err != nil {
		return nil, r.err
	}
	info := domain.ScanInfo{ScanID: "s1", CatalogSize: 3, Triples: 1}
	_ = reporter.Start(ctx, info)
	_ = reporter.Stop(domain.ScanSummary{ScanInfo: info, Processed: 1})
	return domain.NewScanResult(), nil
}

func TestScanService_SharedCollapsesConcurrentCallers(t *testing.T) {
	runner := newGatedRunner()
	svc := NewScanService(runner, &mockLogger{})

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*domain.ScanResult, callers)
	errs := make([]error, callers)

	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.Shared(context.Background())
		}()
	}

	<-runner.started
	// let the remaining callers join the in-flight scan
	time.Sleep(50 * time.Millisecond)
	close(runner.release)
	wg.Wait()

	if got := runner.calls.Load(); got != 1 {
		t.Errorf("expected one scan, got %d", got)
	}
	for i := range callers {
		if errs[i] != nil {
			t.Errorf("caller %d: unexpected error %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Errorf("caller %d: expected the shared result", i)
		}
	}
}

func TestScanService_SharedCallerCancelDoesNotStopScan(t *testing.T) {
	runner := newGatedRunner()
	svc := NewScanService(runner, &mockLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Shared(ctx)
		done <- err
	}()

	<-runner.started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected caller to see context.Canceled, got %v", err)
	}

	close(runner.release)

	deadline := time.After(time.Second)
	for {
		if _, ok := svc.LastSummary(); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("detached scan never finished")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestScanService_HealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		run         bool
		runErr      error
		wantHealthy bool
		wantMsg     string
	}{
		{name: "no_scan_yet", wantHealthy: true, wantMsg: "no scan yet"},
		{name: "last_scan_ok", run: true, wantHealthy: true, wantMsg: "last scan s1"},
		{
			name:        "last_scan_failed",
			run:         true,
			runErr:      apperror.New(apperror.CodeNoSymbolsFound),
			wantHealthy: false,
			wantMsg:     "last scan failed",
		},
		{name: "cancelled_is_healthy", run: true, runErr: context.Canceled, wantHealthy: true, wantMsg: "no scan yet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newGatedRunner()
			runner.err = tt.runErr
			close(runner.release)
			svc := NewScanService(runner, &mockLogger{})

			if tt.run {
				_, _ = svc.Run(context.Background(), nil)
			}

			healthy, msg := svc.HealthCheck(context.Background())
			if healthy != tt.wantHealthy {
				t.Errorf("expected healthy=%v, got %v (%s)", tt.wantHealthy, healthy, msg)
			}
			if !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("expected message containing %q, got %q", tt.wantMsg, msg)
			}
		})
	}
}

func TestScanService_RunForwardsToReporter(t *testing.T) {
	runner := newGatedRunner()
	close(runner.release)
	svc := NewScanService(runner, &mockLogger{})
	reporter := &recordingReporter{}

	if _, err := svc.Run(context.Background(), reporter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reporter.started) != 1 || len(reporter.stopped) != 1 {
		t.Errorf("expected reporter to receive start and stop")
	}
	sum, ok := svc.LastSummary()
	if !ok || sum.ScanID != "s1" {
		t.Errorf("expected last summary s1, got %+v", sum)
	}
}
