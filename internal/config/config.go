// Package config loads lvlstat defaults from a TOML or YAML file.
//
// A missing file is not an error: Load returns Default(). Values present in
// the file replace the defaults; command-line flags set explicitly replace
// both, which is the caller's job.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Modes accepted by Config.Mode.
const (
	ModeSync     = "sync"
	ModeThreaded = "threaded"
	ModeAsync    = "async"
)

const (
	defaultConfigPath    = "~/.config/lvlstat/config.toml"
	defaultWorkers       = 4
	defaultRuntime       = 15 * time.Second
	defaultStatsInterval = 5 * time.Second
	defaultPollInterval  = 500 * time.Millisecond
	defaultFormat        = "text"
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
)

// Config holds run settings shared by every mode.
type Config struct {
	Mode          string
	Workers       int
	Runtime       time.Duration
	StatsInterval time.Duration
	PollInterval  time.Duration
	Format        string
	LogLevel      string
	LogFormat     string
}

// raw mirrors the on-disk layout. Pointers distinguish unset keys from zero.
type raw struct {
	Mode                 string `toml:"mode" yaml:"mode"`
	Workers              *int   `toml:"workers" yaml:"workers"`
	RuntimeSeconds       *int   `toml:"runtime_seconds" yaml:"runtime_seconds"`
	StatsIntervalSeconds *int   `toml:"stats_interval_seconds" yaml:"stats_interval_seconds"`
	PollInterval         string `toml:"poll_interval" yaml:"poll_interval"`
	Format               string `toml:"format" yaml:"format"`
	LogLevel             string `toml:"log_level" yaml:"log_level"`
	LogFormat            string `toml:"log_format" yaml:"log_format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Mode:          ModeSync,
		Workers:       defaultWorkers,
		Runtime:       defaultRuntime,
		StatsInterval: defaultStatsInterval,
		PollInterval:  defaultPollInterval,
		Format:        defaultFormat,
		LogLevel:      defaultLogLevel,
		LogFormat:     defaultLogFormat,
	}
}

// Load reads the config at path, or at ~/.config/lvlstat/config.toml when
// path is empty. Files ending in .yaml or .yml are parsed as YAML, anything
// else as TOML.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var r raw
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &r)
	default:
		err = toml.Unmarshal(data, &r)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := r.apply(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (r raw) apply(cfg *Config) error {
	if v := strings.TrimSpace(r.Mode); v != "" {
		cfg.Mode = strings.ToLower(v)
	}
	if r.Workers != nil {
		cfg.Workers = *r.Workers
	}
	if r.RuntimeSeconds != nil {
		cfg.Runtime = time.Duration(*r.RuntimeSeconds) * time.Second
	}
	if r.StatsIntervalSeconds != nil {
		cfg.StatsInterval = time.Duration(*r.StatsIntervalSeconds) * time.Second
	}
	if v := strings.TrimSpace(r.PollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse config: poll_interval: %w", err)
		}
		cfg.PollInterval = d
	}
	if v := strings.TrimSpace(r.Format); v != "" {
		cfg.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(r.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(r.LogFormat); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeSync, ModeThreaded, ModeAsync:
	default:
		return fmt.Errorf("invalid mode %q (want sync, threaded or async)", c.Mode)
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q (want text or json)", c.Format)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", c.LogFormat)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Runtime < 0 {
		return fmt.Errorf("runtime must not be negative, got %s", c.Runtime)
	}
	if c.StatsInterval <= 0 {
		return fmt.Errorf("stats interval must be positive, got %s", c.StatsInterval)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
