package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/triarb/business/arbitrage/domain"
	"github.com/fd1az/triarb/pkg/ui/components"
)

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseStartup   Phase = "startup"   // Loading the catalog
	PhaseDashboard Phase = "dashboard" // Main dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

const (
	maxErrors        = 3
	maxOpportunities = 200
	visibleRows      = 12
	traceRows        = 12
)

// ScanFunc runs one scan to completion, reporting through the program.
type ScanFunc func() error

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	opportunities *components.OpportunitiesComponent
	trace         *components.TraceComponent
	stats         *components.StatsComponent
	status        *components.StatusComponent
	spinner       spinner.Model
	progress      progress.Model
	help          help.Model
	keys          KeyMap

	scan ScanFunc

	// Phase state
	phase        Phase
	welcomeStart time.Time

	// State
	quitting  bool
	scanning  bool
	width     int
	height    int
	info      domain.ScanInfo
	scanStart time.Time
	scans     int
	errors    []ErrorEntry
}

// New creates a new TUI model. scan is started when the welcome screen
// completes and again on every rescan.
func New(scan ScanFunc) Model {
	return Model{
		opportunities: components.NewOpportunitiesComponent(maxOpportunities, visibleRows),
		trace:         components.NewTraceComponent(traceRows),
		stats:         components.NewStatsComponent(),
		status:        components.NewStatusComponent(),
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(AccentStyle)),
		progress:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(60)),
		help:          help.New(),
		keys:          DefaultKeyMap(),
		scan:          scan,
		phase:         PhaseWelcome,
		welcomeStart:  time.Now(),
		errors:        make([]ErrorEntry, 0, maxErrors),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// scanCmd runs the scan off the update loop. Progress arrives through the
// reporter; only a scan that never started comes back as a message.
func scanCmd(scan ScanFunc) tea.Cmd {
	return func() tea.Msg {
		if scan == nil {
			return nil
		}
		err := scan()
		if err == nil || errors.Is(err, context.Canceled) {
			return nil
		}
		return ErrorMsg{Error: err}
	}
}

func (m Model) startScan() (Model, tea.Cmd) {
	if m.scanning {
		return m, nil
	}
	m.scanning = true
	m.scans++
	m.scanStart = time.Now()
	if m.phase == PhaseWelcome {
		m.phase = PhaseStartup
	}
	m.status.Update(components.ScanStatus{State: components.StateLoading})
	return m, tea.Batch(m.spinner.Tick, scanCmd(m.scan))
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Always allow quit
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		// During welcome phase, any other key skips ahead
		if m.phase == PhaseWelcome {
			return m.startScan()
		}
		switch {
		case key.Matches(msg, m.keys.Rescan):
			return m.startScan()
		case key.Matches(msg, m.keys.Clear):
			m.opportunities.Clear()
			m.trace.Clear()
			m.errors = m.errors[:0]
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.opportunities.ScrollUp()
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.opportunities.ScrollDown()
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = max(10, min(msg.Width-20, 80))

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			var cmd tea.Cmd
			m, cmd = m.startScan()
			return m, tea.Batch(cmd, tickCmd())
		}
		if m.scanning {
			st := m.status.Status()
			st.Elapsed = time.Since(m.scanStart)
			m.status.Update(st)
			m.refreshStats()
		}
		return m, tickCmd()

	case spinner.TickMsg:
		if !m.scanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ScanStartedMsg:
		m.phase = PhaseDashboard
		m.info = msg.Info
		m.trace.Clear()
		m.status.Update(components.ScanStatus{State: components.StateScanning, ScanID: msg.Info.ScanID})
		m.stats.Update(components.Stats{
			Scans:   m.scans,
			Symbols: msg.Info.CatalogSize,
			Triples: msg.Info.Triples,
		})

	case TraceMsg:
		st := m.stats.Stats()
		if msg.Entry.Kind == domain.TraceError {
			st.Failed++
		} else {
			st.Processed++
		}
		m.stats.Update(st)
		m.trace.Add(components.TraceLine{Text: msg.Entry.String(), Error: msg.Entry.Kind == domain.TraceError})

	case OpportunityMsg:
		if msg.Opportunity != nil {
			opp := msg.Opportunity
			m.opportunities.Add(components.OpportunityRow{
				Scan:      m.scans,
				Buy:       opp.Buy(),
				Direction: opp.Direction.String(),
				Profit:    opp.Profit,
			})
			st := m.stats.Stats()
			if st.Opportunities == 0 || opp.Profit.GreaterThan(st.BestProfit) {
				st.BestProfit = opp.Profit
			}
			st.Opportunities++
			m.stats.Update(st)
		}

	case ScanFinishedMsg:
		m.scanning = false
		state := components.StateDone
		if !msg.Summary.Completed() {
			state = components.StateStopped
		}
		m.status.Update(components.ScanStatus{State: state, ScanID: msg.Summary.ScanID, Elapsed: msg.Summary.Duration})
		st := m.stats.Stats()
		st.Processed = msg.Summary.Processed
		st.Failed = msg.Summary.Failed
		st.Opportunities = msg.Summary.Opportunities
		st.Elapsed = msg.Summary.Duration
		m.stats.Update(st)

	case ErrorMsg:
		m.scanning = false
		m.phase = PhaseDashboard
		m.status.Update(components.ScanStatus{State: components.StateFailed})
		m.errors = append(m.errors, ErrorEntry{
			Message:   msg.Error.Error(),
			Timestamp: time.Now(),
		})
		if len(m.errors) > maxErrors {
			m.errors = m.errors[len(m.errors)-maxErrors:]
		}
	}

	return m, nil
}

func (m *Model) refreshStats() {
	st := m.stats.Stats()
	st.Elapsed = time.Since(m.scanStart)
	m.stats.Update(st)
}

// Percent returns the share of triples visited in the current scan.
func (m Model) Percent() float64 {
	if m.info.Triples == 0 {
		return 0
	}
	return min(1, float64(m.stats.Stats().Processed)/float64(m.info.Triples))
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		return m.renderStartupScreen()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" Triangular Arbitrage Scanner "))
	b.WriteString("\n\n")

	b.WriteString(m.status.View(m.spinner.View()))
	b.WriteString("\n\n")

	st := m.stats.Stats()
	b.WriteString(m.progress.ViewAs(m.Percent()))
	b.WriteString(MutedValue.Render(fmt.Sprintf("  %d/%d", st.Processed, m.info.Triples)))
	b.WriteString("\n\n")

	leftCol := m.opportunities.View()
	rightCol := m.trace.View()

	if m.width > 120 {
		left := BoxStyle.Width(m.width/2 - 2).Render(leftCol)
		right := BoxStyle.Width(m.width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		width := max(m.width-4, 40)
		b.WriteString(BoxStyle.Width(width).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width).Render(rightCol))
	}
	b.WriteString("\n\n")

	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		b.WriteString(ErrorHeaderStyle.Render("ERRORS"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(ErrorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	elapsed := time.Since(m.welcomeStart)
	dots := strings.Repeat(".", int(elapsed.Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")

	logo := `
   ████████╗██████╗ ██╗ █████╗ ██████╗ ██████╗
   ╚══██╔══╝██╔══██╗██║██╔══██╗██╔══██╗██╔══██╗
      ██║   ██████╔╝██║███████║██████╔╝██████╔╝
      ██║   ██╔══██╗██║██╔══██║██╔══██╗██╔══██╗
      ██║   ██║  ██║██║██║  ██║██║  ██║██████╔╝
      ╚═╝   ╚═╝  ╚═╝╚═╝╚═╝  ╚═╝╚═╝  ╚═╝╚═════╝
`
	sb.WriteString(LogoStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render("        T R I A N G U L A R   A R B I T R A G E"))
	sb.WriteString("\n\n\n")
	sb.WriteString(AccentStyle.Render("           every pair, every cycle, one pass"))
	sb.WriteString("\n\n\n")
	sb.WriteString(PositiveValue.Render(fmt.Sprintf("                 Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("          Press any key to skip, or wait..."))
	sb.WriteString("\n")

	return sb.String()
}

// renderStartupScreen is shown while the catalog loads.
func (m Model) renderStartupScreen() string {
	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(LogoStyle.Render("  Triangular Arbitrage Scanner"))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("  %s Loading exchange catalog...\n", m.spinner.View()))
	sb.WriteString("\n")
	elapsed := time.Since(m.scanStart).Round(time.Second)
	sb.WriteString(MutedValue.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n")
	return sb.String()
}
