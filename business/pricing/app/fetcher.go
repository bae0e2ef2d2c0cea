package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/triarb/business/pricing/domain"
	"github.com/fd1az/triarb/internal/apperror"
	"github.com/fd1az/triarb/internal/logger"
)

// FetcherConfig controls retry and pacing of price fetches.
type FetcherConfig struct {
	// MaxAttempts counts every attempt, the first included.
	MaxAttempts int
	// PaceDelay is waited before every attempt.
	PaceDelay time.Duration
	// Cooldown is waited between a failed attempt and the next one.
	Cooldown time.Duration
}

// DefaultFetcherConfig returns 3 attempts, 100ms pacing and a 1s cooldown.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		MaxAttempts: 3,
		PaceDelay:   100 * time.Millisecond,
		Cooldown:    time.Second,
	}
}

// Sleeper blocks for d or until ctx is done, returning ctx.Err() in the latter case.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the default Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FetcherOption configures a PriceFetcher.
type FetcherOption func(*PriceFetcher)

// WithSleeper replaces the wait used for pacing and cooldowns.
func WithSleeper(s Sleeper) FetcherOption {
	return func(f *PriceFetcher) {
		f.sleep = s
	}
}

// WithClock replaces the clock stamping Quote.FetchedAt.
func WithClock(now func() time.Time) FetcherOption {
	return func(f *PriceFetcher) {
		f.now = now
	}
}

// WithMeterProvider sets the provider for fetch counters.
func WithMeterProvider(mp metric.MeterProvider) FetcherOption {
	return func(f *PriceFetcher) {
		f.metrics = newFetchMetrics(mp)
	}
}

// PriceFetcher fetches a single symbol's price with bounded retries.
// It is safe for concurrent use.
type PriceFetcher struct {
	source  PriceSource
	cfg     FetcherConfig
	log     logger.LoggerInterface
	sleep   Sleeper
	now     func() time.Time
	metrics fetchMetrics
}

// NewPriceFetcher creates a PriceFetcher. MaxAttempts below 1 is treated as 1.
func NewPriceFetcher(source PriceSource, cfg FetcherConfig, log logger.LoggerInterface, opts ...FetcherOption) *PriceFetcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	f := &PriceFetcher{
		source: source,
		cfg:    cfg,
		log:    log,
		sleep:  ContextSleep,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.metrics.attempts == nil {
		f.metrics = newFetchMetrics(nil)
	}
	return f
}

// Fetch returns the current price of symbol.
//
// Every attempt is preceded by the pace delay; failed attempts are followed
// by the cooldown unless they were the last. After MaxAttempts failures the
// error is QUOTE_UNAVAILABLE when the last failure was a missing price and
// UPSTREAM_ERROR otherwise. Context cancellation is returned as is.
func (f *PriceFetcher) Fetch(ctx context.Context, symbol domain.Symbol) (domain.Quote, error) {
	attrs := metric.WithAttributes(attribute.String("symbol", string(symbol)))

	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := f.sleep(ctx, f.cfg.Cooldown); err != nil {
				return domain.Quote{}, err
			}
		}
		if err := f.sleep(ctx, f.cfg.PaceDelay); err != nil {
			return domain.Quote{}, err
		}

		f.metrics.attempts.Add(ctx, 1, attrs)
		price, err := f.attempt(ctx, symbol)
		if err == nil {
			return domain.Quote{
				Symbol:    symbol,
				Price:     price,
				Attempts:  attempt,
				FetchedAt: f.now(),
			}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Quote{}, ctxErr
		}

		lastErr = err
		if left := f.cfg.MaxAttempts - attempt; left > 0 {
			f.metrics.retries.Add(ctx, 1, attrs)
			f.log.Warn(ctx, "retrying price fetch",
				"symbol", symbol,
				"retries_left", left,
				"error", apperror.Reason(err))
		}
	}

	f.metrics.failures.Add(ctx, 1, attrs)
	f.log.Error(ctx, "price fetch failed",
		"symbol", symbol,
		"attempts", f.cfg.MaxAttempts,
		"error", apperror.Reason(lastErr))

	// attempt only yields QUOTE_UNAVAILABLE or UPSTREAM_ERROR, so the last
	// failure already carries the reported class.
	return domain.Quote{}, lastErr
}

func (f *PriceFetcher) attempt(ctx context.Context, symbol domain.Symbol) (price decimal.Decimal, err error) {
	raw, err := f.source.TickerPrice(ctx, symbol)
	if err != nil {
		return price, apperror.New(apperror.CodeUpstreamError,
			apperror.WithMessage(fmt.Sprintf("Price request for %s failed", symbol)),
			apperror.WithCause(err))
	}

	if strings.TrimSpace(raw) == "" {
		return price, apperror.New(apperror.CodeQuoteUnavailable,
			apperror.WithMessage(fmt.Sprintf("No price data for %s", symbol)))
	}

	price, err = domain.ParsePrice(raw)
	if err != nil {
		return price, apperror.New(apperror.CodeUpstreamError,
			apperror.WithMessage(fmt.Sprintf("Unreadable price for %s", symbol)),
			apperror.WithCause(err))
	}
	return price, nil
}
