// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// OpportunityRow represents an opportunity in the list.
type OpportunityRow struct {
	Scan      int
	Buy       string
	Direction string
	Profit    decimal.Decimal
}

// OpportunitiesComponent renders the opportunities list, best first.
type OpportunitiesComponent struct {
	rows    []OpportunityRow
	maxRows int
	visible int
	offset  int
}

// NewOpportunitiesComponent creates a new opportunities component keeping at
// most maxRows rows and showing visible of them.
func NewOpportunitiesComponent(maxRows, visible int) *OpportunitiesComponent {
	return &OpportunitiesComponent{
		rows:    make([]OpportunityRow, 0),
		maxRows: maxRows,
		visible: visible,
	}
}

// Add inserts row keeping the list sorted by descending profit. Rows with
// equal profit keep arrival order. The lowest rows fall off past maxRows.
func (o *OpportunitiesComponent) Add(row OpportunityRow) {
	i := len(o.rows)
	for i > 0 && row.Profit.GreaterThan(o.rows[i-1].Profit) {
		i--
	}
	o.rows = append(o.rows, OpportunityRow{})
	copy(o.rows[i+1:], o.rows[i:])
	o.rows[i] = row

	if len(o.rows) > o.maxRows {
		o.rows = o.rows[:o.maxRows]
	}
}

// Rows returns the stored rows, best first.
func (o *OpportunitiesComponent) Rows() []OpportunityRow {
	return o.rows
}

// Len returns the number of stored rows.
func (o *OpportunitiesComponent) Len() int {
	return len(o.rows)
}

// Clear clears all opportunities.
func (o *OpportunitiesComponent) Clear() {
	o.rows = make([]OpportunityRow, 0)
	o.offset = 0
}

func (o *OpportunitiesComponent) ScrollUp() {
	if o.offset > 0 {
		o.offset--
	}
}

func (o *OpportunitiesComponent) ScrollDown() {
	if o.offset < len(o.rows)-o.visible {
		o.offset++
	}
}

// View renders the opportunities component.
func (o *OpportunitiesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	profitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("OPPORTUNITIES (%d)", len(o.rows))))
	b.WriteString("\n\n")

	if len(o.rows) == 0 {
		b.WriteString(mutedStyle.Render("No opportunities detected yet..."))
		return b.String()
	}

	end := min(o.offset+o.visible, len(o.rows))
	for _, row := range o.rows[o.offset:end] {
		fmt.Fprintf(&b, "%s  %-36s %s\n",
			profitStyle.Render(fmt.Sprintf("%8s %%", row.Profit.StringFixed(2))),
			row.Buy,
			mutedStyle.Render(fmt.Sprintf("%s #%d", row.Direction, row.Scan)),
		)
	}
	if len(o.rows) > o.visible {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d-%d of %d", o.offset+1, end, len(o.rows))))
	}

	return strings.TrimRight(b.String(), "\n")
}
