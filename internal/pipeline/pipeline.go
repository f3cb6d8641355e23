// Package pipeline counts levels over a finite file: Source → Parser → Counter.
//
// Two strategies are offered. RunSync folds lines one by one on the calling
// goroutine; RunThreaded loads the file and parses it on a bounded worker
// pool before folding the results in file order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Geun-Oh/lvlstat/internal/logging"
	"github.com/Geun-Oh/lvlstat/internal/monitor"
	"github.com/Geun-Oh/lvlstat/internal/parser"
	"github.com/Geun-Oh/lvlstat/internal/source"
)

// Config holds pipeline configuration.
type Config struct {
	Source  source.Source
	Workers int // threaded mode only; defaults to DefaultWorkers
	Logger  *slog.Logger
}

// DefaultWorkers is the worker pool size used when Config.Workers is unset.
const DefaultWorkers = 4

// Result is the outcome of one scan.
type Result struct {
	Snapshot  monitor.Snapshot
	Lines     uint64
	Parsed    uint64
	Discarded uint64
	Elapsed   time.Duration
}

// RunSync reads the source to the end on the calling goroutine.
func RunSync(ctx context.Context, cfg *Config) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}

	res, elapsed, err := logging.Timed(cfg.Logger, "RunSync", func() (Result, error) {
		ch, err := cfg.Source.Start(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("pipeline: start source: %w", err)
		}

		counter := monitor.NewCounter()
		recorder := monitor.WithCallLogging(counter, debugLogger(cfg.Logger))
		stats := monitor.NewStats()
		for l := range ch {
			stats.RecordLine()
			rec, err := parser.Parse(l.Text)
			if err != nil {
				stats.RecordDiscarded()
				cfg.Logger.Debug("discarding malformed line", "seq", l.Seq, "err", err)
				continue
			}
			stats.RecordParsed()
			recorder.Increment(rec.Level.String())
		}
		if err := cfg.Source.Err(); err != nil {
			return Result{}, fmt.Errorf("pipeline: read %s: %w", cfg.Source.Name(), err)
		}

		return newResult(counter.Snapshot(), stats), nil
	})
	res.Elapsed = elapsed
	return res, err
}

// RunThreaded loads every line, parses them on cfg.Workers goroutines and
// folds the parsed records in file order.
func RunThreaded(ctx context.Context, cfg *Config) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	res, elapsed, err := logging.Timed(cfg.Logger, "RunThreaded", func() (Result, error) {
		lines, err := collect(ctx, cfg.Source)
		if err != nil {
			return Result{}, err
		}

		parsed, err := parseAll(ctx, lines, workers)
		if err != nil {
			return Result{}, fmt.Errorf("pipeline: parse: %w", err)
		}

		counter := monitor.NewCounter()
		stats := monitor.NewStats()
		for i, p := range parsed {
			stats.RecordLine()
			if p == nil {
				stats.RecordDiscarded()
				cfg.Logger.Debug("discarding malformed line", "seq", lines[i].Seq)
				continue
			}
			stats.RecordParsed()
			counter.Increment(p.Level.String())
		}

		return newResult(counter.Snapshot(), stats), nil
	})
	res.Elapsed = elapsed
	return res, err
}

func collect(ctx context.Context, src source.Source) ([]source.Line, error) {
	ch, err := src.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: start source: %w", err)
	}
	var lines []source.Line
	for l := range ch {
		lines = append(lines, l)
	}
	if err := src.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: read %s: %w", src.Name(), err)
	}
	return lines, nil
}

func newResult(snap monitor.Snapshot, stats *monitor.Stats) Result {
	return Result{
		Snapshot:  snap,
		Lines:     stats.Total(),
		Parsed:    stats.Parsed(),
		Discarded: stats.Discarded(),
	}
}

// debugLogger returns logger only when debug records would be emitted.
func debugLogger(logger *slog.Logger) *slog.Logger {
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		return logger
	}
	return nil
}

func (c *Config) validate() error {
	if c == nil || c.Source == nil {
		return errors.New("pipeline: source is required")
	}
	if c.Logger == nil {
		c.Logger = logging.Discard()
	}
	return nil
}
