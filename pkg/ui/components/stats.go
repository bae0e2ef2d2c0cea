package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Stats holds statistics for display.
type Stats struct {
	Scans         int
	Symbols       int
	Triples       uint64
	Processed     int
	Failed        int
	Opportunities int
	BestProfit    decimal.Decimal
	Elapsed       time.Duration
}

// Rate returns triples processed per second.
func (s Stats) Rate() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Processed) / s.Elapsed.Seconds()
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// Stats returns the current statistics.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	failedDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Failed))
	if s.stats.Failed > 0 {
		failedDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Failed))
	}

	best := "-"
	if s.stats.Opportunities > 0 {
		best = s.stats.BestProfit.StringFixed(2) + " %"
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Symbols: %s  │  Triples: %s  │  Processed: %s  │  Failed: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Symbols)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Triples)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Processed)),
			failedDisplay,
		) +
		fmt.Sprintf("Opportunities: %s  │  Best: %s  │  Rate: %s  │  Scans: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Opportunities)),
			valueStyle.Render(best),
			valueStyle.Render(fmt.Sprintf("%.1f/s", s.stats.Rate())),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Scans)),
		)
}
