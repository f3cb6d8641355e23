// Package stream runs a bounded "tail -f" session over one log file: a
// reader goroutine counts levels of newly appended lines while a reporter
// goroutine periodically publishes snapshots of the counts.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Geun-Oh/lvlstat/internal/buffer"
	"github.com/Geun-Oh/lvlstat/internal/logging"
	"github.com/Geun-Oh/lvlstat/internal/monitor"
	"github.com/Geun-Oh/lvlstat/internal/sink"
	"github.com/Geun-Oh/lvlstat/internal/source"
)

// DefaultReportInterval is used when Options.ReportInterval is unset.
const DefaultReportInterval = 5 * time.Second

// ErrAlreadyRun is returned by Run on an aggregator that has already run.
var ErrAlreadyRun = errors.New("stream: aggregator already ran")

// State is the lifecycle phase of an Aggregator.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Options configure a streaming run.
type Options struct {
	RunDuration    time.Duration // zero stops as soon as both tasks are launched
	ReportInterval time.Duration
	PollInterval   time.Duration
	Sinks          []sink.Sink
	Logger         *slog.Logger

	// Optional observers fed by the reader.
	Rate   *monitor.RateDetector
	Recent *buffer.Ring
}

// Result is what a finished run returns.
type Result struct {
	RunID     string
	Snapshot  monitor.Snapshot
	Elapsed   time.Duration
	Lines     uint64
	Discarded uint64

	// TaskErr collects reader and reporter failures. They never abort a run.
	TaskErr error
}

// Aggregator owns the counter of a single streaming run.
type Aggregator struct {
	opts    Options
	logger  *slog.Logger
	runID   string
	started atomic.Bool
	state   atomic.Int32
}

// New creates an aggregator in the idle state.
func New(opts Options) *Aggregator {
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = DefaultReportInterval
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = source.DefaultPollInterval
	}
	if opts.RunDuration < 0 {
		opts.RunDuration = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	runID := uuid.NewString()
	return &Aggregator{
		opts:   opts,
		logger: logger.With("run_id", runID),
		runID:  runID,
	}
}

// RunID identifies this run in logs and JSON reports.
func (a *Aggregator) RunID() string {
	return a.runID
}

// State returns the current lifecycle state.
func (a *Aggregator) State() State {
	return State(a.state.Load())
}

// Run follows path for the configured duration, or until ctx is cancelled,
// and returns the final counts.
//
// If path cannot be opened, Run returns an error wrapping
// source.ErrFileAccess before any goroutine starts. Otherwise it always
// returns a Result; reader and reporter failures are reported in
// Result.TaskErr.
func (a *Aggregator) Run(ctx context.Context, path string) (Result, error) {
	if !a.started.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyRun
	}

	follower, err := source.OpenFollower(path, a.opts.PollInterval)
	if err != nil {
		a.started.Store(false)
		return Result{}, fmt.Errorf("stream: %w", err)
	}

	start := time.Now()
	counter := monitor.NewCounter()
	stats := monitor.NewStats()

	// Cancelling runCtx is the stop signal. Only this function calls stop.
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		taskErr error
	)
	collect := func(err error) {
		if err == nil {
			return
		}
		a.logger.Warn("task failed", "err", err)
		mu.Lock()
		taskErr = multierr.Append(taskErr, err)
		mu.Unlock()
	}

	a.setState(StateRunning)
	a.logger.Info("streaming started",
		"path", path,
		"run_duration", a.opts.RunDuration,
		"report_interval", a.opts.ReportInterval,
		"poll_interval", a.opts.PollInterval,
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		collect(a.read(runCtx, follower, counter, stats))
	}()
	go func() {
		defer wg.Done()
		collect(a.report(runCtx, counter, stats))
	}()

	timer := time.NewTimer(a.opts.RunDuration)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		a.logger.Info("streaming cancelled", "err", ctx.Err())
	}

	a.setState(StateStopping)
	stop()
	wg.Wait()

	for _, s := range a.opts.Sinks {
		if err := s.Flush(); err != nil {
			collect(fmt.Errorf("flush %s: %w", s.Name(), err))
		}
	}

	res := Result{
		RunID:     a.runID,
		Snapshot:  counter.Snapshot(),
		Elapsed:   time.Since(start),
		Lines:     stats.Total(),
		Discarded: stats.Discarded(),
		TaskErr:   taskErr,
	}
	a.setState(StateDone)
	a.logger.Info("streaming finished", "counts", res.Snapshot.String(), "elapsed", res.Elapsed)
	return res, nil
}

func (a *Aggregator) setState(s State) {
	a.state.Store(int32(s))
}

// recoverTask turns a panic inside a task into an error.
func recoverTask(name string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: panic: %v", name, r)
	}
}
