package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Geun-Oh/lvlstat/internal/entry"
	"github.com/Geun-Oh/lvlstat/internal/parser"
	"github.com/Geun-Oh/lvlstat/internal/source"
)

// parseAll parses lines on at most workers goroutines. The result has one
// slot per line, nil where the line was malformed.
func parseAll(ctx context.Context, lines []source.Line, workers int) ([]*entry.Record, error) {
	out := make([]*entry.Record, len(lines))
	if len(lines) == 0 {
		return out, nil
	}

	chunk := (len(lines) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(lines); start += chunk {
		start := start
		end := min(start+chunk, len(lines))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				rec, err := parser.Parse(lines[i].Text)
				if err != nil {
					continue
				}
				out[i] = &rec
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
