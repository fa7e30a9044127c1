// Package rdumplog is the warning sink the walker and evaluator write to
// for recoverable, per-file problems. It is deliberately just a
// mutex-guarded io.Writer, in the same spirit as the teacher's own debug
// sink — but instantiable rather than global, since a library serving
// concurrent independent searches can't share one process-wide writer.
package rdumplog

import (
	"fmt"
	"io"
	"sync"
)

// Sink serializes writes from many goroutines to a single io.Writer.
// Warnings are never interleaved with a query's actual results — the
// public API keeps them on a separate channel entirely (spec.md §6).
type Sink struct {
	mu sync.Mutex
	w  io.Writer
}

// New wraps w. A nil w makes every write a no-op, for "warnings
// discarded" callers.
func New(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Printf writes a formatted warning line. Safe for concurrent use.
func (s *Sink) Printf(format string, args ...any) {
	if s == nil || s.w == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

// Warn writes err's message prefixed with [rdump]. Convenience wrapper
// around Printf for the common case of logging a single error.
func (s *Sink) Warn(err error) {
	s.Printf("[rdump] %v\n", err)
}
