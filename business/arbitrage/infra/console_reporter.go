// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fd1az/triarb/business/arbitrage/domain"
)

// ConsoleReporter prints scan progress as plain lines.
type ConsoleReporter struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// ConsoleOption configures a ConsoleReporter.
type ConsoleOption func(*ConsoleReporter)

// WithWriter redirects output. Defaults to stdout.
func WithWriter(w io.Writer) ConsoleOption {
	return func(r *ConsoleReporter) {
		r.out = w
	}
}

// WithTrace prints every trace entry, not only errors.
func WithTrace(verbose bool) ConsoleOption {
	return func(r *ConsoleReporter) {
		r.verbose = verbose
	}
}

// NewConsoleReporter creates a new ConsoleReporter.
func NewConsoleReporter(opts ...ConsoleOption) *ConsoleReporter {
	r := &ConsoleReporter{out: os.Stdout, verbose: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start prints the scan header.
func (r *ConsoleReporter) Start(ctx context.Context, info domain.ScanInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintf(r.out, "Scanning %d symbols (%d triples)\n", info.CatalogSize, info.Triples)
	return err
}

// Trace prints one trace line.
func (r *ConsoleReporter) Trace(entry domain.TraceEntry) {
	if !r.verbose && entry.Kind != domain.TraceError {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, entry.String())
}

// Report prints an opportunity.
func (r *ConsoleReporter) Report(opp *domain.Opportunity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "Arbitrage: %s - Potential Profit: %s\n", opp.Buy(), opp.ProfitText())
}

// Stop prints the scan summary.
func (r *ConsoleReporter) Stop(summary domain.ScanSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := "completed"
	if !summary.Completed() {
		status = "stopped early"
	}
	_, err := fmt.Fprintf(r.out, "Scan %s: %d/%d triples, %d failed, %d opportunities in %s\n",
		status, summary.Processed, summary.Triples, summary.Failed, summary.Opportunities,
		summary.Duration.Round(time.Millisecond))
	return err
}
