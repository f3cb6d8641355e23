package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Geun-Oh/lvlstat/internal/source"
)

const scenarioA = "" +
	"[2025-11-18 12:00:00] [INFO] service started\n" +
	"[2025-11-18 12:00:01] [ERROR] Something happened\n" +
	"garbage without brackets\n" +
	"[2025-11-18 12:00:02] [INFO] request served\n"

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRoot_Modes(t *testing.T) {
	path := writeLog(t, scenarioA)

	tests := []struct {
		name   string
		args   []string
		banner string
		mode   string
	}{
		{"sync", []string{"--mode", "sync"}, "=== SYNC MODE ===", "Mode: sync"},
		{"threaded", []string{"--mode", "threaded", "--workers", "2"}, "=== THREADED MODE ===", "Mode: threaded (workers=2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execCmd(t, append([]string{"--log-file", path}, tt.args...)...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.banner)
			assert.Contains(t, out, tt.mode)
			assert.Contains(t, out, "Stats: {ERROR: 1, INFO: 2}")
			assert.Contains(t, out, "Lines: 4 (discarded 1)")
			assert.Regexp(t, `Elapsed: \d+\.\d{4} s`, out)
		})
	}
}

func TestRoot_AsyncZeroRuntime(t *testing.T) {
	path := writeLog(t, scenarioA)

	out, _, err := execCmd(t, "--log-file", path, "--mode", "async", "--runtime", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "=== ASYNC MODE (streaming) ===")
	assert.Contains(t, out, "Final stats: {}")
	assert.Regexp(t, `Total runtime: \d+\.\d{4} s`, out)
}

func TestRoot_JSONSummary(t *testing.T) {
	path := writeLog(t, scenarioA)

	out, _, err := execCmd(t, "--log-file", path, "--format", "json")
	require.NoError(t, err)

	var got struct {
		Mode      string         `json:"mode"`
		Counts    map[string]int `json:"counts"`
		Lines     uint64         `json:"lines"`
		Discarded uint64         `json:"discarded"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "sync", got.Mode)
	assert.Equal(t, map[string]int{"INFO": 2, "ERROR": 1}, got.Counts)
	assert.Equal(t, uint64(4), got.Lines)
	assert.Equal(t, uint64(1), got.Discarded)
}

func TestRoot_ConfigFileAndFlagPrecedence(t *testing.T) {
	path := writeLog(t, scenarioA)
	cfgPath := filepath.Join(t.TempDir(), "lvlstat.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("mode: threaded\nworkers: 3\n"), 0o600))

	out, _, err := execCmd(t, "--log-file", path, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Mode: threaded (workers=3)")

	out, _, err = execCmd(t, "--log-file", path, "--config", cfgPath, "--mode", "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "=== SYNC MODE ===")
}

func TestRoot_ReportFile(t *testing.T) {
	path := writeLog(t, "")
	report := filepath.Join(t.TempDir(), "reports.jsonl")

	_, _, err := execCmd(t, "--log-file", path, "--mode", "async", "--runtime", "0", "--report-file", report)
	require.NoError(t, err)
	_, err = os.Stat(report)
	assert.NoError(t, err)
}

func TestRoot_Errors(t *testing.T) {
	path := writeLog(t, scenarioA)
	missing := filepath.Join(t.TempDir(), "missing.log")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"log file required", []string{}, `required flag(s) "log-file" not set`},
		{"unknown mode", []string{"--log-file", path, "--mode", "parallel"}, "invalid mode"},
		{"zero workers", []string{"--log-file", path, "--workers", "0"}, "workers must be positive"},
		{"tui needs async", []string{"--log-file", path, "--tui"}, "--tui requires --mode async"},
		{"unknown flag", []string{"--log-file", path, "--nope"}, "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execCmd(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	for _, mode := range []string{"sync", "threaded", "async"} {
		t.Run("missing file "+mode, func(t *testing.T) {
			report := filepath.Join(t.TempDir(), "reports.txt")
			out, _, err := execCmd(t, "--log-file", missing, "--mode", mode, "--report-file", report)
			require.ErrorIs(t, err, source.ErrFileAccess)
			assert.Empty(t, out)
			_, statErr := os.Stat(report)
			assert.ErrorIs(t, statErr, os.ErrNotExist, "report file must not be created")
		})
	}
}

func TestRoot_BannerComesFirst(t *testing.T) {
	path := writeLog(t, scenarioA)

	for mode, banner := range banners {
		t.Run(mode, func(t *testing.T) {
			out, _, err := execCmd(t, "--log-file", path, "--mode", mode, "--runtime", "0")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out, banner+"\n"), "output starts with %q, got %q", banner, out)
		})
	}
}

func TestRoot_LogFormat(t *testing.T) {
	path := writeLog(t, scenarioA)

	_, stderr, err := execCmd(t, "--log-file", path, "--log-format", "json")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"service":"lvlstat"`)
	assert.Contains(t, stderr, `"msg":"function finished"`)

	_, stderr, err = execCmd(t, "--log-file", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "msg=\"function finished\"")

	_, _, err = execCmd(t, "--log-file", path, "--log-format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log format")
}
