// Package walk implements the parallel filesystem walker: a worker-pool
// traversal that applies ignore semantics and hidden-file/depth rules
// before a path ever reaches the evaluator (spec.md §4.4 "Walker").
// Traversal is parallel, not async — each directory is its own
// errgroup-bounded task, matching the teacher's own structured-
// concurrency idiom rather than an event loop.
package walk

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/rdump/internal/evaluate"
	"github.com/standardbeagle/rdump/internal/ignore"
)

// Options configures one walk.
type Options struct {
	Root          string
	HonorIgnore   bool // apply ignoreSet plus each directory's ignore files; false ("no_ignore") applies only ignore.DefaultPatterns, and not to dotfiles when IncludeHidden is set
	IncludeHidden bool
	MaxDepth      int // 0 means unlimited; Root itself is depth 0
	ThreadCount   int
}

// Entry is one discovered regular file.
type Entry struct {
	Path string // absolute, symlink-resolved
	Info os.FileInfo
}

// Run traverses opts.Root and calls emit for every regular file that
// survives ignore/hidden/depth filtering. emit and warn may be called
// concurrently from multiple goroutines and must synchronize themselves.
func Run(ctx context.Context, opts Options, ignoreSet *ignore.Set, emit func(Entry), warn func(evaluate.FileWarning)) error {
	limit := opts.ThreadCount
	if limit <= 0 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	guard := newCycleGuard()

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return err
	}
	if real, err := filepath.EvalSymlinks(root); err == nil {
		guard.visit(xxhash.Sum64String(real))
	}
	defaults := ignore.New()

	var walkDir func(dir string, depth int, localIgnore *ignore.Set) error
	walkDir = func(dir string, depth int, localIgnore *ignore.Set) error {
		select {
		case <-gctx.Done():
			return gctx.Err()
		default:
		}
		if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
			return nil
		}

		// dir's own .gitignore/.rdumpignore apply to its entries (files
		// and subdirectories alike), so load them before filtering, and
		// carry the composed set down into any subdirectory recursion.
		if opts.HonorIgnore && localIgnore != nil {
			var err error
			localIgnore, err = localIgnore.WithGitignore(dir)
			if err != nil {
				warn(dirWarning(dir, err))
			}
			localIgnore, err = localIgnore.WithRdumpIgnore(dir)
			if err != nil {
				warn(dirWarning(dir, err))
			}
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			warn(dirWarning(dir, err))
			return nil
		}

		for _, de := range entries {
			name := de.Name()
			if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
				continue
			}

			full := filepath.Join(dir, name)
			rel, relErr := filepath.Rel(root, full)
			if relErr != nil {
				rel = full
			}
			rel = filepath.ToSlash(rel)
			isDir := de.IsDir()
			if de.Type()&os.ModeSymlink != 0 {
				target, err := os.Stat(full)
				if err != nil {
					warn(dirWarning(full, err))
					continue
				}
				isDir = target.IsDir()
			}

			if opts.HonorIgnore {
				if localIgnore != nil && localIgnore.Match(rel, isDir) {
					continue
				}
			} else if !(opts.IncludeHidden && strings.HasPrefix(name, ".")) && defaults.Match(rel, isDir) {
				continue
			}

			if isDir {
				real, err := filepath.EvalSymlinks(full)
				if err != nil {
					warn(dirWarning(full, err))
					continue
				}
				if !guard.visit(xxhash.Sum64String(real)) {
					continue // already visited: symlink cycle
				}
				sub := full
				nextDepth := depth + 1
				nextIgnore := localIgnore
				g.Go(func() error { return walkDir(sub, nextDepth, nextIgnore) })
				continue
			}

			info, err := os.Stat(full)
			if err != nil {
				warn(dirWarning(full, err))
				continue
			}
			if !info.Mode().IsRegular() {
				continue
			}
			path := full
			if real, err := filepath.EvalSymlinks(full); err == nil {
				path = real
			}
			emit(Entry{Path: path, Info: info})
		}
		return nil
	}

	g.Go(func() error { return walkDir(root, 0, ignoreSet) })
	return g.Wait()
}

func dirWarning(path string, err error) evaluate.FileWarning {
	kind := evaluate.ReadFailed
	if os.IsNotExist(err) {
		kind = evaluate.FileVanished
	} else if os.IsPermission(err) {
		kind = evaluate.PermissionDenied
	}
	return evaluate.FileWarning{Path: path, Kind: kind, Err: err}
}
