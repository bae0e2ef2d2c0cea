package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triarb/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/triarb/business/pricing/domain"
	"github.com/fd1az/triarb/internal/apperror"
)

type mockLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnings = append(m.warnings, msg)
}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

type staticCatalog struct {
	symbols pricingDomain.Catalog
	err     error
}

func (c staticCatalog) Catalog(ctx context.Context) (pricingDomain.Catalog, error) {
	return c.symbols, c.err
}

func catalogOf(names ...string) pricingDomain.Catalog {
	out := make(pricingDomain.Catalog, len(names))
	for i, n := range names {
		out[i] = pricingDomain.Symbol(n)
	}
	return out
}

// fakeQuotes serves fixed prices. Symbols in failOnce fail on their first
// request only. delay, when set, is applied before answering.
type fakeQuotes struct {
	prices   map[pricingDomain.Symbol]float64
	delay    func(pricingDomain.Symbol) time.Duration
	onFetch  func(ctx context.Context, symbol pricingDomain.Symbol) error
	failOnce map[pricingDomain.Symbol]bool

	mu    sync.Mutex
	calls map[pricingDomain.Symbol]int

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (f *fakeQuotes) Fetch(ctx context.Context, symbol pricingDomain.Symbol) (pricingDomain.Quote, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		prev := f.maxInFlight.Load()
		if cur <= prev || f.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}

	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[pricingDomain.Symbol]int{}
	}
	f.calls[symbol]++
	n := f.calls[symbol]
	f.mu.Unlock()

	if f.onFetch != nil {
		if err := f.onFetch(ctx, symbol); err != nil {
			return pricingDomain.Quote{}, err
		}
	}

	if f.delay != nil {
		select {
		case <-time.After(f.delay(symbol)):
		case <-ctx.Done():
			return pricingDomain.Quote{}, ctx.Err()
		}
	}

	if f.failOnce[symbol] && n == 1 {
		return pricingDomain.Quote{}, apperror.New(apperror.CodeQuoteUnavailable,
			apperror.WithMessage("No price data for "+string(symbol)))
	}

	p, ok := f.prices[symbol]
	if !ok {
		p = 1
	}
	return pricingDomain.Quote{Symbol: symbol, Price: decimal.NewFromFloat(p), Attempts: 1, FetchedAt: time.Now()}, nil
}

// recordingReporter keeps every callback it receives.
type recordingReporter struct {
	started  []domain.ScanInfo
	traces   []domain.TraceEntry
	reports  []*domain.Opportunity
	stopped  []domain.ScanSummary
	startErr error
}

func (r *recordingReporter) Start(ctx context.Context, info domain.ScanInfo) error {
	r.started = append(r.started, info)
	return r.startErr
}

func (r *recordingReporter) Trace(entry domain.TraceEntry) { r.traces = append(r.traces, entry) }

func (r *recordingReporter) Report(opp *domain.Opportunity) { r.reports = append(r.reports, opp) }

func (r *recordingReporter) Stop(summary domain.ScanSummary) error {
	r.stopped = append(r.stopped, summary)
	return nil
}
