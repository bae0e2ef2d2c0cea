// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"

	"github.com/fd1az/triarb/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/triarb/business/pricing/domain"
)

// CatalogProvider supplies the ordered symbol catalog for a scan.
type CatalogProvider interface {
	Catalog(ctx context.Context) (pricingDomain.Catalog, error)
}

// QuoteFetcher fetches one symbol's price, retrying internally.
type QuoteFetcher interface {
	Fetch(ctx context.Context, symbol pricingDomain.Symbol) (pricingDomain.Quote, error)
}

// Reporter receives scan progress. Calls for one scan come from a single
// goroutine, in triple generation order.
type Reporter interface {
	// Start is called once the catalog is known.
	Start(ctx context.Context, info domain.ScanInfo) error

	// Trace receives every trace entry as it is appended.
	Trace(entry domain.TraceEntry)

	// Report receives every opportunity as it is appended.
	Report(opp *domain.Opportunity)

	// Stop is called when the scan ends, including on cancellation.
	Stop(summary domain.ScanSummary) error
}

type nopReporter struct{}

func (nopReporter) Start(context.Context, domain.ScanInfo) error { return nil }
func (nopReporter) Trace(domain.TraceEntry)                      {}
func (nopReporter) Report(*domain.Opportunity)                   {}
func (nopReporter) Stop(domain.ScanSummary) error                { return nil }
