package sink

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ReportPrefix starts every text report line.
const ReportPrefix = "[ASYNC STATS]"

var (
	prefixStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	levelStyles = map[string]lipgloss.Style{
		"ERROR":   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")).Bold(true),
		"WARNING": lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00")),
		"INFO":    lipgloss.NewStyle().Foreground(lipgloss.Color("#44AAFF")),
	}
)

// TerminalSink writes reports as "[ASYNC STATS] {ERROR: 1, INFO: 2}" lines,
// optionally coloured by level.
type TerminalSink struct {
	w     io.Writer
	color bool
}

// NewTerminalSink creates a sink that writes to w (stdout when nil).
func NewTerminalSink(w io.Writer, color bool) *TerminalSink {
	if w == nil {
		w = os.Stdout
	}
	return &TerminalSink{w: w, color: color}
}

// Write outputs a formatted report.
func (s *TerminalSink) Write(r *Report) error {
	if !s.color {
		_, err := fmt.Fprintf(s.w, "%s %s\n", ReportPrefix, r.Snapshot)
		return err
	}

	keys := make([]string, 0, len(r.Snapshot))
	for k := range r.Snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		label := k
		if style, ok := levelStyles[k]; ok {
			label = style.Render(k)
		}
		parts = append(parts, fmt.Sprintf("%s: %d", label, r.Snapshot[k]))
	}
	_, err := fmt.Fprintf(s.w, "%s {%s}\n", prefixStyle.Render(ReportPrefix), strings.Join(parts, ", "))
	return err
}

// Flush is a no-op for terminal output.
func (s *TerminalSink) Flush() error { return nil }

// Close is a no-op for terminal output.
func (s *TerminalSink) Close() error { return nil }

// Name returns the sink identifier.
func (s *TerminalSink) Name() string { return "terminal" }
