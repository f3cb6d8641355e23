package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Geun-Oh/lvlstat/internal/buffer"
	"github.com/Geun-Oh/lvlstat/internal/config"
	"github.com/Geun-Oh/lvlstat/internal/logging"
	"github.com/Geun-Oh/lvlstat/internal/monitor"
	"github.com/Geun-Oh/lvlstat/internal/pipeline"
	"github.com/Geun-Oh/lvlstat/internal/sink"
	"github.com/Geun-Oh/lvlstat/internal/source"
	"github.com/Geun-Oh/lvlstat/internal/stream"
	"github.com/Geun-Oh/lvlstat/internal/tui"
)

type options struct {
	logFile       string
	configPath    string
	mode          string
	workers       int
	runtime       int
	statsInterval int
	pollInterval  time.Duration
	format        string
	logFormat     string
	reportFile    string
	tui           bool
	verbose       bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "lvlstat",
		Short: "lvlstat counts log lines by level",
		Long: `lvlstat counts INFO, WARNING and ERROR lines of a "[timestamp] [LEVEL] message" log.
It scans a whole file synchronously or on a worker pool, or follows a live
file like "tail -f" for a bounded time and prints periodic reports.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, &opts)
			if err != nil {
				return err
			}
			return execute(cmd.Context(), cfg, &opts, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVar(&opts.logFile, "log-file", "", "path to the log file")
	f.StringVar(&opts.configPath, "config", "", "config file (TOML, or YAML by extension)")
	f.StringVar(&opts.mode, "mode", defaults.Mode, "analysis mode: sync, threaded or async")
	f.IntVar(&opts.workers, "workers", defaults.Workers, "worker count for threaded mode")
	f.IntVar(&opts.runtime, "runtime", int(defaults.Runtime/time.Second), "streaming run time in seconds (async)")
	f.IntVar(&opts.statsInterval, "stats-interval", int(defaults.StatsInterval/time.Second), "seconds between reports (async)")
	f.DurationVar(&opts.pollInterval, "poll-interval", defaults.PollInterval, "wait between reads at end of file (async)")
	f.StringVar(&opts.format, "format", defaults.Format, "output format: text or json")
	f.StringVar(&opts.logFormat, "log-format", defaults.LogFormat, "diagnostic log format on stderr: text or json")
	f.StringVar(&opts.reportFile, "report-file", "", "also append async reports to this file")
	f.BoolVar(&opts.tui, "tui", false, "show a live dashboard (async)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	_ = cmd.MarkFlagRequired("log-file")

	return cmd
}

// resolveConfig layers explicitly set flags over the config file.
func resolveConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}

	f := cmd.Flags()
	if f.Changed("mode") {
		cfg.Mode = opts.mode
	}
	if f.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if f.Changed("runtime") {
		cfg.Runtime = time.Duration(opts.runtime) * time.Second
	}
	if f.Changed("stats-interval") {
		cfg.StatsInterval = time.Duration(opts.statsInterval) * time.Second
	}
	if f.Changed("poll-interval") {
		cfg.PollInterval = opts.pollInterval
	}
	if f.Changed("format") {
		cfg.Format = opts.format
	}
	if f.Changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	if opts.tui && cfg.Mode != config.ModeAsync {
		return config.Config{}, fmt.Errorf("--tui requires --mode async")
	}
	return cfg, nil
}

var banners = map[string]string{
	config.ModeSync:     "=== SYNC MODE ===",
	config.ModeThreaded: "=== THREADED MODE ===",
	config.ModeAsync:    "=== ASYNC MODE (streaming) ===",
}

func execute(ctx context.Context, cfg config.Config, opts *options, stdout, stderr io.Writer) error {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(stderr, level, cfg.LogFormat)

	// Nothing is printed or created before the log file is known to be readable.
	if err := source.CheckReadable(opts.logFile); err != nil {
		return err
	}
	if cfg.Format == "text" {
		fmt.Fprintln(stdout, banners[cfg.Mode])
	}

	switch cfg.Mode {
	case config.ModeThreaded:
		return runThreaded(ctx, cfg, opts, logger, stdout)
	case config.ModeAsync:
		return runAsync(ctx, cfg, opts, logger, stdout, stderr)
	default:
		return runSync(ctx, opts, cfg.Format, logger, stdout)
	}
}

func runSync(ctx context.Context, opts *options, format string, logger *slog.Logger, stdout io.Writer) error {
	res, err := pipeline.RunSync(ctx, &pipeline.Config{
		Source: source.NewFileSource(opts.logFile),
		Logger: logger,
	})
	if err != nil {
		return err
	}
	return printSummary(stdout, format, summary{
		Mode:      config.ModeSync,
		ModeLine:  "sync",
		Snapshot:  res.Snapshot,
		Lines:     res.Lines,
		Discarded: res.Discarded,
		Elapsed:   res.Elapsed,
	})
}

func runThreaded(ctx context.Context, cfg config.Config, opts *options, logger *slog.Logger, stdout io.Writer) error {
	res, err := pipeline.RunThreaded(ctx, &pipeline.Config{
		Source:  source.NewFileSource(opts.logFile),
		Workers: cfg.Workers,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	return printSummary(stdout, cfg.Format, summary{
		Mode:      config.ModeThreaded,
		ModeLine:  fmt.Sprintf("threaded (workers=%d)", cfg.Workers),
		Workers:   cfg.Workers,
		Snapshot:  res.Snapshot,
		Lines:     res.Lines,
		Discarded: res.Discarded,
		Elapsed:   res.Elapsed,
	})
}

func runAsync(ctx context.Context, cfg config.Config, opts *options, logger *slog.Logger, stdout, stderr io.Writer) error {
	streamOpts := stream.Options{
		RunDuration:    cfg.Runtime,
		ReportInterval: cfg.StatsInterval,
		PollInterval:   cfg.PollInterval,
		Logger:         logger,
	}

	if opts.reportFile != "" {
		fs, err := sink.NewFileSink(opts.reportFile, cfg.Format)
		if err != nil {
			return err
		}
		defer fs.Close()
		streamOpts.Sinks = append(streamOpts.Sinks, fs)
	}

	var (
		res stream.Result
		err error
	)
	if opts.tui {
		streamOpts.Rate = monitor.NewRateDetector(10*time.Second, 3)
		streamOpts.Recent = buffer.NewRing(buffer.DefaultCapacity)
		res, err = tui.Run(ctx, &tui.RunConfig{Path: opts.logFile, Options: streamOpts})
	} else {
		streamOpts.Sinks = append(streamOpts.Sinks, sink.New(cfg.Format, stdout, stdout == io.Writer(os.Stdout)))
		res, err = stream.New(streamOpts).Run(ctx, opts.logFile)
	}
	if err != nil {
		return err
	}
	if res.TaskErr != nil {
		fmt.Fprintf(stderr, "lvlstat: warning: %v\n", res.TaskErr)
	}

	s := summary{
		Mode:      config.ModeAsync,
		ModeLine:  "async (streaming)",
		RunID:     res.RunID,
		Snapshot:  res.Snapshot,
		Lines:     res.Lines,
		Discarded: res.Discarded,
		Elapsed:   res.Elapsed,
		final:     true,
	}
	return printSummary(stdout, cfg.Format, s)
}

// summary is the closing output of every mode.
type summary struct {
	Mode      string           `json:"mode"`
	RunID     string           `json:"run_id,omitempty"`
	Workers   int              `json:"workers,omitempty"`
	Snapshot  monitor.Snapshot `json:"counts"`
	Lines     uint64           `json:"lines"`
	Discarded uint64           `json:"discarded"`
	Elapsed   time.Duration    `json:"-"`
	Seconds   float64          `json:"elapsed_seconds"`

	ModeLine string `json:"-"`
	final    bool
}

func printSummary(w io.Writer, format string, s summary) error {
	if format == "json" {
		s.Seconds = s.Elapsed.Seconds()
		if s.Snapshot == nil {
			s.Snapshot = monitor.Snapshot{}
		}
		return json.NewEncoder(w).Encode(s)
	}

	statsLabel, timeLabel := "Stats", "Elapsed"
	if s.final {
		statsLabel, timeLabel = "Final stats", "Total runtime"
	}
	fmt.Fprintf(w, "Mode: %s\n", s.ModeLine)
	fmt.Fprintf(w, "%s: %s\n", statsLabel, s.Snapshot)
	fmt.Fprintf(w, "Lines: %d (discarded %d)\n", s.Lines, s.Discarded)
	_, err := fmt.Fprintf(w, "%s: %.4f s\n", timeLabel, s.Elapsed.Seconds())
	return err
}
