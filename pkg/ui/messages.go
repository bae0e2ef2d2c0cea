package ui

import "github.com/fd1az/triarb/business/arbitrage/domain"

// Message types for TUI updates

// ScanStartedMsg is sent once the catalog is loaded and triples are known.
type ScanStartedMsg struct {
	Info domain.ScanInfo
}

// TraceMsg carries one trace entry, in generation order.
type TraceMsg struct {
	Entry domain.TraceEntry
}

// OpportunityMsg is sent when an arbitrage opportunity is detected.
type OpportunityMsg struct {
	Opportunity *domain.Opportunity
}

// ScanFinishedMsg is sent when a scan ends, completed or not.
type ScanFinishedMsg struct {
	Summary domain.ScanSummary
}

// ErrorMsg is sent when a scan could not run at all.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}
