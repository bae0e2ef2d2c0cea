package domain

import "time"

// TraceKind distinguishes trace entries.
type TraceKind int

const (
	TraceProcessing TraceKind = iota
	TraceError
)

// TraceEntry is one line of the scan's work log.
type TraceEntry struct {
	Kind   TraceKind
	Triple Triple
	Reason string
}

// ProcessingEntry records that t was visited.
func ProcessingEntry(t Triple) TraceEntry {
	return TraceEntry{Kind: TraceProcessing, Triple: t}
}

// ErrorEntry records that t failed with reason.
func ErrorEntry(t Triple, reason string) TraceEntry {
	return TraceEntry{Kind: TraceError, Triple: t, Reason: reason}
}

// String renders "Processing: A, B, C" or "Error processing pairs A, B, C: reason".
func (e TraceEntry) String() string {
	if e.Kind == TraceError {
		return "Error processing pairs " + e.Triple.String() + ": " + e.Reason
	}
	return "Processing: " + e.Triple.String()
}

// MarshalText makes entries encode as plain JSON strings.
func (e TraceEntry) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// ScanResult is the outcome of one scan. Both lists follow triple generation
// order.
type ScanResult struct {
	Opportunities []*Opportunity
	Logs          []TraceEntry
}

// NewScanResult returns an empty result.
func NewScanResult() *ScanResult {
	return &ScanResult{
		Opportunities: []*Opportunity{},
		Logs:          []TraceEntry{},
	}
}

type scanResultJSON struct {
	Opportunities []*Opportunity `json:"opportunities"`
	Logs          []TraceEntry   `json:"logs"`
}

// MarshalJSON emits {"opportunities": [...], "logs": [...]} with both arrays
// always present.
func (r *ScanResult) MarshalJSON() ([]byte, error) {
	out := scanResultJSON{Opportunities: r.Opportunities, Logs: r.Logs}
	if out.Opportunities == nil {
		out.Opportunities = []*Opportunity{}
	}
	if out.Logs == nil {
		out.Logs = []TraceEntry{}
	}
	return marshalJSON(out)
}

// ScanInfo describes a scan about to start.
type ScanInfo struct {
	ScanID      string
	CatalogSize int
	Triples     uint64
	StartedAt   time.Time
}

// ScanSummary aggregates the counters of a finished (or aborted) scan.
type ScanSummary struct {
	ScanInfo
	Processed     int
	Failed        int
	Opportunities int
	Duration      time.Duration
	Err           error
}

// Completed reports whether every triple was visited.
func (s ScanSummary) Completed() bool {
	return s.Err == nil && uint64(s.Processed) == s.Triples
}
