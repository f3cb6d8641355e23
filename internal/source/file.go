package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// FileSource reads every line of a finite file once. Lines have no length
// limit; a final line without a newline is still returned.
type FileSource struct {
	path string
	seq  atomic.Uint64

	mu  sync.Mutex
	err error
}

// NewFileSource creates a source that reads path from start to end.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the source identifier.
func (s *FileSource) Name() string {
	return fmt.Sprintf("file:%s", s.path)
}

// Start opens the file and returns a channel of lines.
func (s *FileSource) Start(ctx context.Context) (<-chan Line, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFileAccess, s.path, err)
	}

	ch := make(chan Line, 256)

	go func() {
		defer close(ch)
		defer f.Close()

		reader := bufio.NewReaderSize(f, 64*1024)
		for {
			text, err := reader.ReadString('\n')
			if text != "" {
				text = strings.TrimSuffix(strings.TrimSuffix(text, "\n"), "\r")
				line := Line{Text: text, Seq: s.seq.Add(1)}
				select {
				case <-ctx.Done():
					s.setErr(ctx.Err())
					return
				case ch <- line:
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.setErr(fmt.Errorf("read %s: %w", s.path, err))
				}
				return
			}
		}
	}()

	return ch, nil
}

// Err returns the error that ended reading early, if any.
// It is only meaningful after the channel returned by Start is closed.
func (s *FileSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *FileSource) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
