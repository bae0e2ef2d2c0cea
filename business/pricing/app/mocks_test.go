package app

import (
	"context"
	"sync"
	"time"

	"github.com/fd1az/triarb/business/pricing/domain"
)

type mockLogger struct {
	mu       sync.Mutex
	warnings []string
	errors   []string
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
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

// scriptedResponse is one canned answer from scriptedSource.
type scriptedResponse struct {
	raw string
	err error
}

// scriptedSource replays responses in order, repeating the last one.
type scriptedSource struct {
	mu        sync.Mutex
	responses []scriptedResponse
	calls     int
}

func (s *scriptedSource) TickerPrice(ctx context.Context, symbol domain.Symbol) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	r := s.responses[idx]
	return r.raw, r.err
}

// recordingSleeper records requested waits without blocking.
type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.waits = append(r.waits, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recordingSleeper) count(d time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, w := range r.waits {
		if w == d {
			n++
		}
	}
	return n
}

type fakeInstruments struct {
	instruments []domain.Instrument
	err         error
	calls       int
}

func (f *fakeInstruments) Instruments(ctx context.Context) ([]domain.Instrument, error) {
	f.calls++
	return f.instruments, f.err
}
