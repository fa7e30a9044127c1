package evaluate

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/rdump/internal/filectx"
)

// Candidate is one file handed to the evaluator by the walker, already
// past the pre-filter.
type Candidate struct {
	FC  *filectx.FileContext
	Ext string
}

// Options configures a single parallel evaluation run.
type Options struct {
	ThreadCount int // worker count; <=0 defaults to 1
}

// Run evaluates root against every candidate concurrently, bounded by
// opts.ThreadCount, and returns the matching FileContexts sorted
// lexicographically by path (spec.md §4.8 "deterministic output order").
// Every recoverable per-file error surfaced along the way is collected
// into warnings, in no particular order.
func Run(ctx context.Context, root Compiled, candidates []Candidate, opts Options) ([]*filectx.FileContext, []FileWarning) {
	limit := opts.ThreadCount
	if limit <= 0 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	var matched []*filectx.FileContext
	var warnings []FileWarning

	warn := func(w FileWarning) {
		mu.Lock()
		warnings = append(warnings, w)
		mu.Unlock()
	}

	for _, c := range candidates {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			ok, _ := root.Eval(c.FC, c.Ext, warn)
			if ok {
				mu.Lock()
				matched = append(matched, c.FC)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() // per-file errors never fail the group; only context cancellation would

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Path < matched[j].Path
	})
	return matched, warnings
}
