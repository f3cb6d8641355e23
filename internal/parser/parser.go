// Package parser turns raw log lines into entry.Record values.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Geun-Oh/lvlstat/internal/entry"
)

// ErrInvalidFormat is returned when a line does not match the bracketed-fields layout.
var ErrInvalidFormat = errors.New("invalid log line format")

// tokens are the named patterns available to linePattern.
var tokens = map[string]string{
	"TIMESTAMP": `.+?`,
	"LEVEL":     `INFO|WARNING|ERROR`,
	"MESSAGE":   `.+`,
}

// linePattern matches lines such as:
//
//	[2025-11-18 12:00:01] [ERROR] Something happened
const linePattern = `^\[%{TIMESTAMP:timestamp}\]\s+\[%{LEVEL:level}\]\s+%{MESSAGE:message}$`

var (
	lineRegex  *regexp.Regexp
	fieldIndex map[string]int
)

func init() {
	regexStr, fieldNames, err := compilePattern(linePattern)
	if err != nil {
		panic(err)
	}
	lineRegex = regexp.MustCompile(regexStr)
	fieldIndex = make(map[string]int, len(fieldNames))
	for i, name := range fieldNames {
		fieldIndex[name] = i + 1
	}
}

// Parse extracts timestamp, level and message from a single line.
// A trailing carriage return is ignored. Lines that do not match return an
// error wrapping ErrInvalidFormat; no field is ever defaulted.
func Parse(line string) (entry.Record, error) {
	line = strings.TrimSuffix(line, "\r")
	matches := lineRegex.FindStringSubmatch(line)
	if matches == nil {
		return entry.Record{}, fmt.Errorf("%w: %q", ErrInvalidFormat, line)
	}

	return entry.Record{
		Timestamp: matches[fieldIndex["timestamp"]],
		Level:     entry.ParseLevel(matches[fieldIndex["level"]]),
		Message:   matches[fieldIndex["message"]],
	}, nil
}

// compilePattern converts %{TOKEN:field} references to regex capture groups.
// %{TOKEN:field} → (regex_for_TOKEN)
// %{TOKEN} → (?:regex_for_TOKEN)
func compilePattern(pattern string) (string, []string, error) {
	var fieldNames []string
	result := pattern

	tokenRe := regexp.MustCompile(`%\{(\w+)(?::(\w+))?\}`)
	for _, m := range tokenRe.FindAllStringSubmatch(pattern, -1) {
		fullMatch, tokenName, fieldName := m[0], m[1], m[2]

		tokenRegex, ok := tokens[tokenName]
		if !ok {
			return "", nil, fmt.Errorf("unknown pattern token: %s", tokenName)
		}

		var replacement string
		if fieldName != "" {
			replacement = fmt.Sprintf("(%s)", tokenRegex)
			fieldNames = append(fieldNames, fieldName)
		} else {
			// Non-capturing groups do not shift submatch indexes.
			replacement = fmt.Sprintf("(?:%s)", tokenRegex)
		}

		result = strings.Replace(result, fullMatch, replacement, 1)
	}

	return result, fieldNames, nil
}
