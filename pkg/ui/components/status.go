package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ScanState is the lifecycle state shown in the status bar.
type ScanState string

const (
	StateIdle     ScanState = "idle"
	StateLoading  ScanState = "loading catalog"
	StateScanning ScanState = "scanning"
	StateDone     ScanState = "done"
	StateStopped  ScanState = "stopped"
	StateFailed   ScanState = "failed"
)

// ScanStatus describes the current scan.
type ScanStatus struct {
	State   ScanState
	ScanID  string
	Elapsed time.Duration
}

// StatusComponent renders the scan status line.
type StatusComponent struct {
	status ScanStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{status: ScanStatus{State: StateIdle}}
}

// Update replaces the shown status.
func (s *StatusComponent) Update(status ScanStatus) {
	s.status = status
}

// Status returns the shown status.
func (s *StatusComponent) Status() ScanStatus {
	return s.status
}

// View renders the status component. indicator is drawn before the state
// while a scan is active.
func (s *StatusComponent) View(indicator string) string {
	var style lipgloss.Style
	switch s.status.State {
	case StateDone:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	case StateFailed, StateStopped:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	case StateLoading, StateScanning:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	default:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	}
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	state := string(s.status.State)
	if indicator != "" && (s.status.State == StateLoading || s.status.State == StateScanning) {
		state = indicator + " " + state
	}

	parts := []string{style.Render(state)}
	if s.status.ScanID != "" {
		parts = append(parts, muted.Render("scan "+shortID(s.status.ScanID)))
	}
	if s.status.Elapsed > 0 {
		parts = append(parts, muted.Render(fmt.Sprintf("elapsed %s", s.status.Elapsed.Round(time.Second))))
	}
	return strings.Join(parts, "  │  ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
