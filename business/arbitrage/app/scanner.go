package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/fd1az/triarb/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/triarb/business/pricing/domain"
	"github.com/fd1az/triarb/internal/apm"
	"github.com/fd1az/triarb/internal/apperror"
	"github.com/fd1az/triarb/internal/logger"
)

// ScannerConfig bounds scan concurrency.
type ScannerConfig struct {
	// Workers is the number of triples in flight at once. 1 is sequential.
	Workers int
	// MaxInFlightFetches caps outstanding price fetches across all triples.
	MaxInFlightFetches int64
}

// DefaultScannerConfig returns 4 workers and 12 in-flight fetches.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{Workers: 4, MaxInFlightFetches: 12}
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithScanMeterProvider sets the provider for scan metrics.
func WithScanMeterProvider(mp metric.MeterProvider) ScannerOption {
	return func(s *Scanner) {
		s.metrics = newScanMetrics(mp)
	}
}

// WithIDGenerator replaces the scan id generator.
func WithIDGenerator(fn func() string) ScannerOption {
	return func(s *Scanner) {
		s.newID = fn
	}
}

// Scanner walks every triple of the catalog and evaluates its cycles.
type Scanner struct {
	catalog CatalogProvider
	quotes  QuoteFetcher
	cfg     ScannerConfig
	log     logger.LoggerInterface
	tracer  apm.Tracer
	metrics scanMetrics
	newID   func() string
}

// NewScanner creates a Scanner. Non-positive limits are raised to 1.
func NewScanner(catalog CatalogProvider, quotes QuoteFetcher, cfg ScannerConfig, log logger.LoggerInterface, opts ...ScannerOption) *Scanner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.MaxInFlightFetches < 1 {
		cfg.MaxInFlightFetches = 1
	}

	s := &Scanner{
		catalog: catalog,
		quotes:  quotes,
		cfg:     cfg,
		log:     log,
		tracer:  apm.NewTracer(meterName),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics.triples == nil {
		s.metrics = newScanMetrics(nil)
	}
	return s
}

type tripleOutcome struct {
	triple domain.Triple
	opp    *domain.Opportunity
	err    error
}

// Scan runs one full scan. reporter may be nil.
//
// The catalog is fetched once; a failing or empty catalog returns
// NO_SYMBOLS_FOUND. Per-triple failures become error trace entries and never
// abort the scan. Results follow triple generation order whatever the fetch
// completion order. If ctx is cancelled, the triples already started are
// drained and the partial result is returned with the context error.
func (s *Scanner) Scan(ctx context.Context, reporter Reporter) (*domain.ScanResult, error) {
	if reporter == nil {
		reporter = nopReporter{}
	}

	info := domain.ScanInfo{ScanID: s.newID(), StartedAt: time.Now()}

	ctx, span := s.tracer.StartSpanFromContext(ctx, "arbitrage.scan")
	defer span.End()
	span.SetAttributes(attribute.String("scan.id", info.ScanID))

	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		err = apperror.New(apperror.CodeNoSymbolsFound,
			apperror.WithContext("catalog unavailable"),
			apperror.WithCause(err))
		span.NoticeError(err)
		return nil, err
	}
	if len(catalog) == 0 {
		err = apperror.New(apperror.CodeNoSymbolsFound, apperror.WithContext("empty catalog"))
		span.NoticeError(err)
		return nil, err
	}

	info.CatalogSize = len(catalog)
	info.Triples = domain.TripleCount(len(catalog))
	span.SetAttributes(
		attribute.Int("scan.catalog_size", info.CatalogSize),
		attribute.Int64("scan.triples", int64(info.Triples)),
	)

	s.log.Info(ctx, "scan started",
		"scan_id", info.ScanID,
		"symbols", info.CatalogSize,
		"triples", info.Triples,
		"workers", s.cfg.Workers,
		"max_in_flight_fetches", s.cfg.MaxInFlightFetches)

	if err := reporter.Start(ctx, info); err != nil {
		s.log.Warn(ctx, "reporter start failed", "scan_id", info.ScanID, "error", err)
	}

	result := domain.NewScanResult()
	summary := domain.ScanSummary{ScanInfo: info}

	for out := range s.outcomes(ctx, catalog) {
		s.record(ctx, result, &summary, out, reporter)
	}

	summary.Duration = time.Since(info.StartedAt)
	summary.Err = ctx.Err()

	s.metrics.duration.Record(ctx, summary.Duration.Seconds())
	span.SetAttributes(
		attribute.Int("scan.processed", summary.Processed),
		attribute.Int("scan.failed", summary.Failed),
		attribute.Int("scan.opportunities", summary.Opportunities),
	)
	span.NoticeError(summary.Err)

	if err := reporter.Stop(summary); err != nil {
		s.log.Warn(ctx, "reporter stop failed", "scan_id", info.ScanID, "error", err)
	}

	s.log.Info(ctx, "scan finished",
		"scan_id", info.ScanID,
		"processed", summary.Processed,
		"failed", summary.Failed,
		"opportunities", summary.Opportunities,
		"duration", summary.Duration,
		"cancelled", summary.Err != nil)

	return result, summary.Err
}

// outcomes starts up to Workers triples at a time and yields their outcomes
// in generation order. Each triple gets a buffered channel that is queued
// before the triple starts, so the consumer reads them back in order.
func (s *Scanner) outcomes(ctx context.Context, catalog pricingDomain.Catalog) <-chan tripleOutcome {
	pending := make(chan chan tripleOutcome, s.cfg.Workers)
	slots := make(chan struct{}, s.cfg.Workers)
	fetches := semaphore.NewWeighted(s.cfg.MaxInFlightFetches)

	go func() {
		defer close(pending)
		for t := range domain.Triples(catalog) {
			if ctx.Err() != nil {
				return
			}
			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				return
			}

			ch := make(chan tripleOutcome, 1)
			pending <- ch
			go func() {
				defer func() { <-slots }()
				ch <- s.processTriple(ctx, t, fetches)
			}()
		}
	}()

	ordered := make(chan tripleOutcome)
	go func() {
		defer close(ordered)
		for ch := range pending {
			ordered <- <-ch
		}
	}()
	return ordered
}

// processTriple fetches the three prices concurrently and evaluates them.
// The first fetch failure cancels the other two.
func (s *Scanner) processTriple(ctx context.Context, t domain.Triple, fetches *semaphore.Weighted) tripleOutcome {
	var prices [3]float64

	g, gctx := errgroup.WithContext(ctx)
	for i, symbol := range t.Symbols {
		g.Go(func() error {
			if err := fetches.Acquire(gctx, 1); err != nil {
				return err
			}
			defer fetches.Release(1)

			q, err := s.quotes.Fetch(gctx, symbol)
			if err != nil {
				return err
			}
			prices[i] = q.Float64()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return tripleOutcome{triple: t, err: err}
	}

	opp, err := domain.Evaluate(t, prices)
	return tripleOutcome{triple: t, opp: opp, err: err}
}

func (s *Scanner) record(ctx context.Context, result *domain.ScanResult, summary *domain.ScanSummary, out tripleOutcome, reporter Reporter) {
	entry := domain.ProcessingEntry(out.triple)
	result.Logs = append(result.Logs, entry)
	reporter.Trace(entry)
	summary.Processed++

	s.log.Debug(ctx, "triple processed", "scan_id", summary.ScanID, "triple", out.triple.String())

	if out.err != nil {
		reason := failureReason(out.err)
		entry := domain.ErrorEntry(out.triple, reason)
		result.Logs = append(result.Logs, entry)
		reporter.Trace(entry)
		summary.Failed++

		s.metrics.triples.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
		s.log.Warn(ctx, "triple failed",
			"scan_id", summary.ScanID,
			"triple", out.triple.String(),
			"code", string(apperror.GetCode(out.err)),
			"reason", reason)
		return
	}

	s.metrics.triples.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "ok")))
	if out.opp == nil {
		return
	}

	result.Opportunities = append(result.Opportunities, out.opp)
	reporter.Report(out.opp)
	summary.Opportunities++
	s.metrics.opportunities.Add(ctx, 1)

	s.log.Info(ctx, "opportunity found",
		"scan_id", summary.ScanID,
		"buy", out.opp.Buy(),
		"profit", out.opp.ProfitText(),
		"direction", string(out.opp.Direction))
}

func failureReason(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperror.Reason(apperror.New(apperror.CodeScanCancelled, apperror.WithCause(err)))
	}
	return apperror.Reason(err)
}
