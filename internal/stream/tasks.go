package stream

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Geun-Oh/lvlstat/internal/monitor"
	"github.com/Geun-Oh/lvlstat/internal/parser"
	"github.com/Geun-Oh/lvlstat/internal/sink"
	"github.com/Geun-Oh/lvlstat/internal/source"
)

// read pulls lines from the follower and counts their levels until ctx is
// cancelled. It owns the follower and closes it on return.
func (a *Aggregator) read(ctx context.Context, f *source.Follower, counter *monitor.Counter, stats *monitor.Stats) (err error) {
	defer recoverTask("reader", &err)
	defer f.Close()

	var recorder monitor.Recorder = counter
	if a.logger.Enabled(ctx, slog.LevelDebug) {
		recorder = monitor.WithCallLogging(counter, a.logger)
	}

	for {
		line, err := f.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reader: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}

		stats.RecordLine()
		rec, err := parser.Parse(line)
		if err != nil {
			stats.RecordDiscarded()
			a.logger.Debug("discarding malformed line", "err", err)
			continue
		}
		stats.RecordParsed()
		recorder.Increment(rec.Level.String())

		if a.opts.Rate != nil {
			a.opts.Rate.Record()
		}
		if a.opts.Recent != nil {
			a.opts.Recent.Push(rec)
		}
	}
}

// report publishes a snapshot every report interval until ctx is cancelled.
// A sink failure ends the reporter; the reader keeps running.
func (a *Aggregator) report(ctx context.Context, counter *monitor.Counter, stats *monitor.Stats) (err error) {
	defer recoverTask("reporter", &err)

	ticker := time.NewTicker(a.opts.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}

			r := &sink.Report{
				RunID:     a.runID,
				Time:      now,
				Snapshot:  counter.Snapshot(),
				Lines:     stats.Total(),
				Discarded: stats.Discarded(),
			}
			a.logger.Info(sink.ReportPrefix, "counts", r.Snapshot.String())

			for _, s := range a.opts.Sinks {
				if err := s.Write(r); err != nil {
					return fmt.Errorf("reporter: write to %s: %w", s.Name(), err)
				}
			}
		}
	}
}
