// Package source reads raw log lines from a file, either once from start to
// end (FileSource) or continuously as the file grows (Follower).
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrFileAccess is returned when the log file cannot be opened for reading.
var ErrFileAccess = errors.New("cannot access log file")

// Line is one raw line read from a source.
type Line struct {
	Text string
	Seq  uint64 // 1-based position in the source
}

// Source reads log data from an input and emits Line values on a channel.
type Source interface {
	// Start begins reading from the source. The returned channel receives
	// lines until the source is exhausted or ctx is cancelled, and is always
	// closed by the implementation.
	Start(ctx context.Context) (<-chan Line, error)

	// Err reports a read failure once the channel has been closed.
	Err() error

	// Name returns a human-readable identifier for this source.
	Name() string
}

// CheckReadable opens and closes path, returning an error wrapping
// ErrFileAccess when it cannot be read.
func CheckReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFileAccess, path, err)
	}
	return f.Close()
}
