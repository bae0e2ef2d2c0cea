package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/fd1az/triarb/business/arbitrage/domain"
	"github.com/fd1az/triarb/internal/logger"
)

const sharedScanKey = "scan"

// ScanRunner runs one scan.
type ScanRunner interface {
	Scan(ctx context.Context, reporter Reporter) (*domain.ScanResult, error)
}

// ScanService fronts the scanner for the entry points and remembers how the
// last scan went.
type ScanService struct {
	runner ScanRunner
	log    logger.LoggerInterface
	group  singleflight.Group

	mu      sync.RWMutex
	last    *domain.ScanSummary
	lastErr error
}

// NewScanService creates a ScanService.
func NewScanService(runner ScanRunner, log logger.LoggerInterface) *ScanService {
	return &ScanService{runner: runner, log: log}
}

// Run starts a dedicated scan bound to ctx.
func (s *ScanService) Run(ctx context.Context, reporter Reporter) (*domain.ScanResult, error) {
	if reporter == nil {
		reporter = nopReporter{}
	}
	result, err := s.runner.Scan(ctx, &summaryRecorder{next: reporter, svc: s})
	if err != nil {
		s.setLastErr(err)
	}
	return result, err
}

// Shared joins the scan already running for another caller, or starts one.
// The scan itself is detached from ctx so that one caller going away does not
// cut it short for the others; ctx only bounds how long this caller waits.
func (s *ScanService) Shared(ctx context.Context) (*domain.ScanResult, error) {
	ch := s.group.DoChan(sharedScanKey, func() (any, error) {
		return s.Run(context.WithoutCancel(ctx), nil)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		result, ok := res.Val.(*domain.ScanResult)
		if !ok {
			return nil, fmt.Errorf("unexpected scan result %T", res.Val)
		}
		if res.Shared {
			s.log.Debug(ctx, "joined running scan")
		}
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// LastSummary returns the summary of the most recent scan that got past
// catalog loading.
func (s *ScanService) LastSummary() (domain.ScanSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return domain.ScanSummary{}, false
	}
	return *s.last, true
}

// HealthCheck reports unhealthy when the most recent scan failed outright.
// Cancelled scans do not count as failures.
func (s *ScanService) HealthCheck(ctx context.Context) (bool, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case s.lastErr != nil && !isCancellation(s.lastErr):
		return false, "last scan failed: " + s.lastErr.Error()
	case s.last == nil:
		return true, "no scan yet"
	default:
		return true, fmt.Sprintf("last scan %s: %d triples, %d opportunities",
			s.last.ScanID, s.last.Processed, s.last.Opportunities)
	}
}

func (s *ScanService) setLastErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

func (s *ScanService) setLast(summary domain.ScanSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &summary
	s.lastErr = nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// summaryRecorder forwards to the caller's reporter and keeps the summary.
type summaryRecorder struct {
	next Reporter
	svc  *ScanService
}

func (r *summaryRecorder) Start(ctx context.Context, info domain.ScanInfo) error {
	return r.next.Start(ctx, info)
}

func (r *summaryRecorder) Trace(entry domain.TraceEntry) { r.next.Trace(entry) }

func (r *summaryRecorder) Report(opp *domain.Opportunity) { r.next.Report(opp) }

func (r *summaryRecorder) Stop(summary domain.ScanSummary) error {
	r.svc.setLast(summary)
	return r.next.Stop(summary)
}
