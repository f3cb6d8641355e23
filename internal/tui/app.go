// Package tui provides an interactive terminal dashboard for a streaming run.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Geun-Oh/lvlstat/internal/buffer"
	"github.com/Geun-Oh/lvlstat/internal/entry"
	"github.com/Geun-Oh/lvlstat/internal/monitor"
	"github.com/Geun-Oh/lvlstat/internal/sink"
	"github.com/Geun-Oh/lvlstat/internal/stream"
)

// --- Styles ---

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#353533"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4444")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#44AAFF"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6600")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// --- Messages ---

// ReportMsg delivers a periodic report to the TUI.
type ReportMsg sink.Report

// TickMsg triggers periodic UI updates.
type TickMsg time.Time

// DoneMsg signals the streaming run has finished.
type DoneMsg struct {
	Result stream.Result
	Err    error
}

// --- Model ---

// Model is the bubbletea model for the dashboard.
type Model struct {
	width  int
	height int
	keys   keyMap

	Source string
	Rate   *monitor.RateDetector
	Recent *buffer.Ring

	last    ReportMsg
	reports int
	spiking bool
	rate    float64

	done bool
	err  error
}

// NewModel creates a dashboard for the file at sourceName. rate and recent
// may be nil.
func NewModel(sourceName string, rate *monitor.RateDetector, recent *buffer.Ring) Model {
	return Model{
		keys:   defaultKeyMap(),
		Source: sourceName,
		Rate:   rate,
		Recent: recent,
	}
}

// Init starts the tick timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), tea.WindowSize())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil

	case ReportMsg:
		m.last = msg
		m.reports++
		return m, nil

	case TickMsg:
		if m.Rate != nil {
			m.rate = m.Rate.CurrentRate()
			m.spiking = m.Rate.Spiking()
		}
		return m, tickCmd()

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		if msg.Err != nil {
			return m, tea.Quit
		}
		m.last = ReportMsg{
			RunID:     msg.Result.RunID,
			Time:      time.Now(),
			Snapshot:  msg.Result.Snapshot,
			Lines:     msg.Result.Lines,
			Discarded: msg.Result.Discarded,
		}
		m.err = msg.Result.TaskErr
		return m, nil
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var sb strings.Builder

	// Title bar.
	title := titleStyle.Render(fmt.Sprintf(" lvlstat: %s ", m.Source))
	status := "▶ RUNNING"
	if m.done {
		status = "✔ DONE"
	}
	statusText := statusBarStyle.Render(fmt.Sprintf(" %s  %d reports ", status, m.reports))
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(statusText)
	if gap < 0 {
		gap = 0
	}
	sb.WriteString(title + statusBarStyle.Render(strings.Repeat(" ", gap)) + statusText)
	sb.WriteString("\n\n")

	if m.err != nil {
		sb.WriteString(errorStyle.Render("error: " + m.err.Error()))
		sb.WriteString("\n\n")
	}

	// Level counts.
	sb.WriteString(m.renderCounts(m.width - 20))
	sb.WriteString("\n")

	// Recent records.
	used := 4 + len(entry.Levels) + 2 + 2
	if m.err != nil {
		used += 2
	}
	if n := m.height - used; n > 0 && m.Recent != nil {
		sb.WriteString(dimStyle.Render("recent"))
		sb.WriteString("\n")
		for _, rec := range m.Recent.Last(n - 1) {
			sb.WriteString(formatRecord(rec, m.width))
			sb.WriteString("\n")
		}
	}

	// Stats bar.
	statsLine := fmt.Sprintf(" Rate: %s %.1f/s │ Lines: %d │ Discarded: %d",
		renderRateBar(m.rate, 10), m.rate, m.last.Lines, m.last.Discarded)
	if m.spiking {
		statsLine += " │ " + highlightStyle.Render("SPIKE")
	}
	if !m.last.Time.IsZero() {
		statsLine += fmt.Sprintf(" │ Updated: %s", m.last.Time.Format("15:04:05"))
	}
	sb.WriteString("\n")
	sb.WriteString(statusBarStyle.Render(padRight(statsLine, m.width)))
	sb.WriteString("\n")

	// Help bar.
	sb.WriteString(helpStyle.Render(m.keys.helpLine()))

	return sb.String()
}

// --- Helpers ---

// renderCounts draws one bar per level, scaled to the largest count.
func (m Model) renderCounts(width int) string {
	if width < 10 {
		width = 10
	}
	snap := m.last.Snapshot
	var peak int
	for _, n := range snap {
		peak = max(peak, n)
	}

	var sb strings.Builder
	for _, level := range entry.Levels {
		n := snap[level.String()]
		filled := 0
		if peak > 0 {
			filled = n * width / peak
		}
		bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
		sb.WriteString(levelStyle(level).Render(fmt.Sprintf(" %-8s %s %d", level, bar, n)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatRecord(rec entry.Record, width int) string {
	return levelStyle(rec.Level).Render(truncate(rec.Format(), width))
}

func levelStyle(l entry.Level) lipgloss.Style {
	switch l {
	case entry.LevelError:
		return errorStyle
	case entry.LevelWarning:
		return warnStyle
	case entry.LevelInfo:
		return infoStyle
	default:
		return dimStyle
	}
}

func renderRateBar(rate float64, width int) string {
	maxRate := 200.0 // scale: 200 lines/s = full bar
	filled := int(rate / maxRate * float64(width))
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	if len([]rune(s)) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-1]) + "…"
}

func padRight(s string, width int) string {
	if lipgloss.Width(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-lipgloss.Width(s))
}
