package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// DefaultPollInterval is how long Next waits before re-reading when no
// complete line is available.
const DefaultPollInterval = 500 * time.Millisecond

// Follower yields lines appended to a file after it was opened, like tail -f.
//
// The read offset starts at end-of-file and only moves forward. Truncation
// and rotation of the underlying file are not detected.
type Follower struct {
	path    string
	file    *os.File
	reader  *bufio.Reader
	poll    time.Duration
	pending strings.Builder // partial line awaiting its newline
}

// OpenFollower opens path and positions the cursor at its current end.
// A non-positive poll falls back to DefaultPollInterval.
func OpenFollower(path string, poll time.Duration) (*Follower, error) {
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFileAccess, path, err)
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: seek %s: %w", ErrFileAccess, path, err)
	}

	return &Follower{
		path:   path,
		file:   f,
		reader: bufio.NewReaderSize(f, 64*1024),
		poll:   poll,
	}, nil
}

// Name returns the follower identifier.
func (f *Follower) Name() string {
	return fmt.Sprintf("follow:%s", f.path)
}

// Next blocks until a complete line has been appended and returns it without
// its line terminator. While no complete line is available it sleeps for the
// poll interval between reads. It returns ctx.Err() once ctx is done and
// never returns io.EOF.
func (f *Follower) Next(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		chunk, err := f.reader.ReadString('\n')
		f.pending.WriteString(chunk)
		if err == nil {
			line := strings.TrimSuffix(f.pending.String(), "\n")
			line = strings.TrimSuffix(line, "\r")
			f.pending.Reset()
			return line, nil
		}
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read %s: %w", f.Name(), err)
		}

		timer := time.NewTimer(f.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}

// Close releases the file handle.
func (f *Follower) Close() error {
	return f.file.Close()
}
