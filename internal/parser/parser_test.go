package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Geun-Oh/lvlstat/internal/entry"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want entry.Record
	}{
		{
			name: "error line",
			line: "[2025-11-18 12:00:01] [ERROR] Something happened",
			want: entry.Record{Timestamp: "2025-11-18 12:00:01", Level: entry.LevelError, Message: "Something happened"},
		},
		{
			name: "warning with wide spacing",
			line: "[t1]   [WARNING]\tdisk almost full",
			want: entry.Record{Timestamp: "t1", Level: entry.LevelWarning, Message: "disk almost full"},
		},
		{
			name: "message containing brackets",
			line: "[2025-01-01 00:00:00] [INFO] [worker-3] started",
			want: entry.Record{Timestamp: "2025-01-01 00:00:00", Level: entry.LevelInfo, Message: "[worker-3] started"},
		},
		{
			name: "crlf line ending",
			line: "[ts] [INFO] windows\r",
			want: entry.Record{Timestamp: "ts", Level: entry.LevelInfo, Message: "windows"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_InvalidFormat(t *testing.T) {
	lines := []string{
		"",
		"not a log line",
		"[2025-01-01 00:00:00] [DEBUG] unsupported level",
		"[2025-01-01 00:00:00] [info] lowercase level",
		"[2025-01-01 00:00:00] [INFO]",
		"[2025-01-01 00:00:00] [INFO] ",
		"[2025-01-01 00:00:00][INFO] no separator",
		"[] [INFO] empty timestamp",
		"  [2025-01-01 00:00:00] [INFO] leading space",
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			_, err := Parse(line)
			require.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestParse_Deterministic(t *testing.T) {
	line := "[ts] [ERROR] boom"
	first, err := Parse(line)
	require.NoError(t, err)
	second, err := Parse(line)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompilePattern(t *testing.T) {
	regexStr, fields, err := compilePattern(`%{LEVEL} %{MESSAGE:msg}`)
	require.NoError(t, err)
	assert.Equal(t, `(?:INFO|WARNING|ERROR) (.+)`, regexStr)
	assert.Equal(t, []string{"msg"}, fields)

	_, _, err = compilePattern(`%{NOPE:x}`)
	assert.ErrorContains(t, err, "unknown pattern token")
}
