// Package entry defines the Level and Record types shared by every lvlstat mode.
package entry

import (
	"fmt"
)

// Level represents log severity levels.
type Level int

const (
	LevelUnknown Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// Levels lists the recognised levels in ascending severity.
var Levels = []Level{LevelInfo, LevelWarning, LevelError}

// String returns the label used as a counter key.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts an exact level label to a Level.
// Unlike free-form detection, labels are case-sensitive: "info" is LevelUnknown.
func ParseLevel(s string) Level {
	switch s {
	case "INFO":
		return LevelInfo
	case "WARNING":
		return LevelWarning
	case "ERROR":
		return LevelError
	default:
		return LevelUnknown
	}
}

// Record is a successfully parsed log line. It is never mutated after parsing.
type Record struct {
	Timestamp string // free-form, as written in the file
	Level     Level
	Message   string
}

// Format returns the record in its on-disk form.
func (r Record) Format() string {
	return fmt.Sprintf("[%s] [%s] %s", r.Timestamp, r.Level, r.Message)
}
