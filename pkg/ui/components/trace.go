package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TraceLine is one rendered trace entry.
type TraceLine struct {
	Text  string
	Error bool
}

// TraceComponent keeps the tail of the scan trace.
type TraceComponent struct {
	lines   []TraceLine
	maxRows int
}

// NewTraceComponent creates a trace log keeping the last maxRows lines.
func NewTraceComponent(maxRows int) *TraceComponent {
	return &TraceComponent{
		lines:   make([]TraceLine, 0, maxRows),
		maxRows: maxRows,
	}
}

// Add appends a line, dropping the oldest past maxRows.
func (t *TraceComponent) Add(line TraceLine) {
	t.lines = append(t.lines, line)
	if len(t.lines) > t.maxRows {
		t.lines = t.lines[len(t.lines)-t.maxRows:]
	}
}

// Lines returns the retained lines, oldest first.
func (t *TraceComponent) Lines() []TraceLine {
	return t.lines
}

// Clear drops every line.
func (t *TraceComponent) Clear() {
	t.lines = t.lines[:0]
}

// View renders the trace component.
func (t *TraceComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var b strings.Builder
	b.WriteString(headerStyle.Render("PROCESSING LOG"))
	b.WriteString("\n\n")

	if len(t.lines) == 0 {
		b.WriteString(mutedStyle.Render("  Waiting for the first triple..."))
		return b.String()
	}

	for i, line := range t.lines {
		if line.Error {
			b.WriteString(errorStyle.Render("  " + line.Text))
		} else {
			b.WriteString(mutedStyle.Render("  " + line.Text))
		}
		if i < len(t.lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
