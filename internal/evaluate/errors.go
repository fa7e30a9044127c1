package evaluate

import (
	"errors"
	"io/fs"

	"github.com/standardbeagle/rdump/internal/filectx"
)

// FileWarningKind names the per-file recoverable error categories
// spec.md §5 lists as "never aborts the query". An error that fits none
// of the specific kinds is reported as ReadFailed.
type FileWarningKind string

const (
	ReadFailed       FileWarningKind = "read_failed"
	NotUTF8          FileWarningKind = "not_utf8"
	FileVanished     FileWarningKind = "file_vanished"
	PermissionDenied FileWarningKind = "permission_denied"
	TooLarge         FileWarningKind = "too_large"
)

// FileWarning is emitted once per recoverable per-file error encountered
// while evaluating a predicate, and once per file dropped outright for an
// irrecoverable one. It is the payload behind search_iter's error channel
// (spec.md §6).
type FileWarning struct {
	Path string
	Kind FileWarningKind
	Key  string // predicate key being evaluated, empty for walk-stage warnings
	Err  error
}

func (w FileWarning) Error() string {
	return w.Path + ": " + string(w.Kind) + ": " + w.Err.Error()
}

// classify identifies which of spec.md's five recoverable per-file kinds
// a content-loading error represents. Every predicate-level error is one
// of these: the predicate that hit it degrades to false and evaluation
// of the rest of the tree continues (spec.md §5).
func classify(err error) FileWarningKind {
	var tooLarge *filectx.ErrTooLarge
	switch {
	case errors.Is(err, filectx.ErrNotUTF8):
		return NotUTF8
	case errors.As(err, &tooLarge):
		return TooLarge
	case errors.Is(err, fs.ErrNotExist):
		return FileVanished
	case errors.Is(err, fs.ErrPermission):
		return PermissionDenied
	default:
		return ReadFailed
	}
}
