package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Geun-Oh/lvlstat/internal/sink"
	"github.com/Geun-Oh/lvlstat/internal/stream"
)

// programSender is the part of *tea.Program the sink needs.
type programSender interface {
	Send(msg tea.Msg)
}

// Sink forwards reports to a running dashboard.
type Sink struct {
	p programSender
}

// NewSink returns a sink that delivers each report as a ReportMsg.
func NewSink(p programSender) *Sink {
	return &Sink{p: p}
}

func (s *Sink) Write(r *sink.Report) error {
	s.p.Send(ReportMsg(*r))
	return nil
}

func (s *Sink) Flush() error { return nil }
func (s *Sink) Close() error { return nil }
func (s *Sink) Name() string { return "tui" }

// RunConfig holds configuration for a dashboard run.
type RunConfig struct {
	Path    string
	Options stream.Options
}

// Run starts the dashboard alongside a streaming run over cfg.Path and
// blocks until the user quits. Quitting early cancels the run; the final
// result is still returned.
func Run(ctx context.Context, cfg *RunConfig) (stream.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := cfg.Options
	model := NewModel(cfg.Path, opts.Rate, opts.Recent)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	opts.Sinks = append(append([]sink.Sink(nil), opts.Sinks...), NewSink(program))
	agg := stream.New(opts)

	var (
		wg     sync.WaitGroup
		res    stream.Result
		runErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, runErr = agg.Run(ctx, cfg.Path)
		program.Send(DoneMsg{Result: res, Err: runErr})
	}()

	_, err := program.Run()

	// Stop the run if the user quit first, then wait for its result.
	cancel()
	wg.Wait()

	if runErr != nil {
		return res, runErr
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return res, fmt.Errorf("tui: %w", err)
	}
	return res, nil
}
