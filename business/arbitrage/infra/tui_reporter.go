package infra

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/triarb/business/arbitrage/domain"
	"github.com/fd1az/triarb/pkg/ui"
)

// Sender delivers messages to a running Bubble Tea program.
type Sender interface {
	Send(msg tea.Msg)
}

// TUIReporter forwards scan progress to the terminal UI.
type TUIReporter struct {
	program Sender
}

// NewTUIReporter creates a TUIReporter bound to program.
func NewTUIReporter(program Sender) *TUIReporter {
	return &TUIReporter{program: program}
}

// Start announces the scan to the UI.
func (r *TUIReporter) Start(ctx context.Context, info domain.ScanInfo) error {
	r.program.Send(ui.ScanStartedMsg{Info: info})
	return nil
}

// Trace forwards a trace entry.
func (r *TUIReporter) Trace(entry domain.TraceEntry) {
	r.program.Send(ui.TraceMsg{Entry: entry})
}

// Report forwards an opportunity.
func (r *TUIReporter) Report(opp *domain.Opportunity) {
	r.program.Send(ui.OpportunityMsg{Opportunity: opp})
}

// Stop forwards the final summary.
func (r *TUIReporter) Stop(summary domain.ScanSummary) error {
	r.program.Send(ui.ScanFinishedMsg{Summary: summary})
	return nil
}
