// Package rdump is the public surface of the query core: parse an RQL
// query, walk a root directory applying ignore semantics, and evaluate
// the query against every file that survives, tree-sitter-aware
// predicates included.
package rdump

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/standardbeagle/rdump/internal/evaluate"
	"github.com/standardbeagle/rdump/internal/filectx"
	"github.com/standardbeagle/rdump/internal/ignore"
	"github.com/standardbeagle/rdump/internal/optimize"
	"github.com/standardbeagle/rdump/internal/predicate"
	"github.com/standardbeagle/rdump/internal/prefilter"
	"github.com/standardbeagle/rdump/internal/profiles"
	"github.com/standardbeagle/rdump/internal/rdumpconfig"
	"github.com/standardbeagle/rdump/internal/rdumplog"
	"github.com/standardbeagle/rdump/internal/rql"
	"github.com/standardbeagle/rdump/internal/rqlast"
	"github.com/standardbeagle/rdump/internal/semantic"
	"github.com/standardbeagle/rdump/internal/walk"
)

// SearchOptions configures one search (spec.md §6 "Public API").
type SearchOptions struct {
	Root        string
	Presets     []string
	PresetSet   rdumpconfig.PresetRegistry // nil means "no presets known"
	NoIgnore    bool
	Hidden      bool
	MaxDepth    int
	SQLDialect  string
	ThreadCount int // 0 falls back to Config.DefaultThreadCount, then runtime.NumCPU()

	// Config supplies the defaults MaxDepth/ThreadCount/SQLDialect fall
	// back to when left zero-valued. Nil means rdumpconfig.Default().
	Config *rdumpconfig.RdumpConfig

	// WarnSink receives every recoverable per-file warning as it's
	// produced, in addition to whatever Search/SearchIter already return.
	// Nil discards them (rdumplog.Sink is nil-receiver safe).
	WarnSink *rdumplog.Sink
}

// Match is one positional hit inside a matched file.
type Match struct {
	StartLine   int
	EndLine     int
	StartColumn int
	EndColumn   int
	ByteStart   int
	ByteEnd     int
	Text        string
}

// SearchResult is one file that satisfied the query.
type SearchResult struct {
	Path    string
	Matches []Match
	Content string
}

// QueryErrorKind names one of the five fatal, query-wide failure modes
// (spec.md §5). These are reported once, before any file is evaluated.
type QueryErrorKind string

const (
	QuerySyntaxError       QueryErrorKind = "syntax_error"
	QueryUnknownPredicate  QueryErrorKind = "unknown_predicate"
	QueryInvalidValue      QueryErrorKind = "invalid_value"
	QueryUnknownPreset     QueryErrorKind = "unknown_preset"
	QueryRootNotFound      QueryErrorKind = "root_not_found"
)

// QueryError wraps a fatal, query-wide failure.
type QueryError struct {
	Kind QueryErrorKind
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// FileErrorKind names one of the five recoverable per-file failure modes
// (spec.md §5). The predicate that hit one of these evaluates to false
// and the rest of the query still runs for that file; the search as a
// whole is never aborted.
type FileErrorKind string

const (
	FileReadFailed       FileErrorKind = "read_failed"
	FileNotUTF8          FileErrorKind = "not_utf8"
	FileVanished         FileErrorKind = "file_vanished"
	FilePermissionDenied FileErrorKind = "permission_denied"
	FileTooLarge         FileErrorKind = "too_large"
)

// FileError is one recoverable per-file problem, surfaced through
// SearchIter's error channel (spec.md §6).
type FileError struct {
	Path string
	Kind FileErrorKind
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Search runs query against opts.Root and returns every matching file,
// sorted lexicographically by path. Any failure before a file is ever
// touched is a *QueryError.
func Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	plan, err := prepare(query, opts)
	if err != nil {
		return nil, err
	}

	matched, _ := runSearch(ctx, plan)

	results := make([]SearchResult, 0, len(matched))
	for _, fc := range matched {
		results = append(results, toResult(fc))
	}
	return results, nil
}

// SearchIter runs query the same way Search does but delivers results and
// recoverable per-file errors over channels instead of a slice. The whole
// search runs to completion first; then every per-file error is sent on
// the error channel, followed by every result, in path order. Both
// channels are closed once everything is sent or ctx is cancelled.
func SearchIter(ctx context.Context, query string, opts SearchOptions) (<-chan SearchResult, <-chan FileError, error) {
	plan, err := prepare(query, opts)
	if err != nil {
		return nil, nil, err
	}

	results := make(chan SearchResult)
	failures := make(chan FileError)

	go func() {
		defer close(results)
		defer close(failures)

		matched, warnings := runSearch(ctx, plan)
		for _, w := range warnings {
			select {
			case failures <- FileError{Path: w.Path, Kind: FileErrorKind(w.Kind), Err: w.Err}:
			case <-ctx.Done():
				return
			}
		}
		for _, fc := range matched {
			select {
			case results <- toResult(fc):
			case <-ctx.Done():
				return
			}
		}
	}()

	return results, failures, nil
}

// plan is everything prepare resolves once, before the walk starts.
type plan struct {
	root        string
	opts        SearchOptions
	cfg         rdumpconfig.RdumpConfig
	ignoreSet   *ignore.Set
	compiledAST evaluate.Compiled
	cheap       prefilter.CheapEval
	ast         rqlast.Node
}

func prepare(query string, opts SearchOptions) (*plan, error) {
	cfg := rdumpconfig.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if opts.SQLDialect == "" {
		opts.SQLDialect = cfg.DefaultSQLDialect
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = cfg.DefaultMaxDepth
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, &QueryError{Kind: QueryRootNotFound, Err: err}
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is not a directory", root)
		}
		return nil, &QueryError{Kind: QueryRootNotFound, Err: err}
	}

	presetSet := opts.PresetSet
	if presetSet == nil {
		presetSet = rdumpconfig.MapPresetRegistry{}
	}
	fragments := make([]string, 0, len(opts.Presets)+1)
	for _, name := range opts.Presets {
		frag, ok := presetSet.Resolve(name)
		if !ok {
			return nil, &QueryError{Kind: QueryUnknownPreset, Err: fmt.Errorf("unknown preset %q", name)}
		}
		fragments = append(fragments, frag)
	}
	fragments = append(fragments, query)
	combined := rdumpconfig.Combine(fragments...)

	node, err := rql.Parse(combined)
	if err != nil {
		return nil, &QueryError{Kind: QuerySyntaxError, Err: err}
	}

	profileReg, err := profiles.Builtin()
	if err != nil {
		return nil, &QueryError{Kind: QueryInvalidValue, Err: err}
	}
	semEngine := semantic.New(profileReg)
	predReg := predicate.NewRegistry(semEngine)

	optimized := optimize.Optimize(node, func(key string) (int, bool) {
		d, ok := predReg.Lookup(key)
		if !ok {
			return 0, false
		}
		return d.Cost, true
	})

	compiledTree, err := evaluate.Compile(optimized, predReg)
	if err != nil {
		return nil, classifyQueryErr(err)
	}

	cheap, err := prefilter.Prepare(optimized, predReg)
	if err != nil {
		return nil, classifyQueryErr(err)
	}

	// .gitignore/.rdumpignore layers are composed root-down as the walk
	// descends into each directory (internal/walk), since rules are
	// scoped to the subtree they're found in rather than global.
	ignoreSet := ignore.New()

	return &plan{
		root:        root,
		opts:        opts,
		cfg:         cfg,
		ignoreSet:   ignoreSet,
		compiledAST: compiledTree,
		cheap:       cheap,
		ast:         optimized,
	}, nil
}

func classifyQueryErr(err error) *QueryError {
	switch err.(type) {
	case *predicate.UnknownPredicateError:
		return &QueryError{Kind: QueryUnknownPredicate, Err: err}
	case *predicate.InvalidValueError:
		return &QueryError{Kind: QueryInvalidValue, Err: err}
	default:
		return &QueryError{Kind: QueryInvalidValue, Err: err}
	}
}

func runSearch(ctx context.Context, p *plan) ([]*filectx.FileContext, []evaluate.FileWarning) {
	threads := p.opts.ThreadCount
	if threads <= 0 {
		threads = p.cfg.DefaultThreadCount
	}
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	var mu sync.Mutex
	var candidates []evaluate.Candidate
	var warnings []evaluate.FileWarning

	emit := func(e walk.Entry) {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(e.Path), "."))
		meta := filectx.Metadata{Size: e.Info.Size(), ModTime: e.Info.ModTime(), Mode: e.Info.Mode()}
		fc := filectx.New(e.Path, meta, filectx.FromDisk(e.Path, meta.Size))

		if !prefilter.MightMatch(p.ast, fc, ext, p.cheap) {
			return
		}
		mu.Lock()
		candidates = append(candidates, evaluate.Candidate{FC: fc, Ext: ext})
		mu.Unlock()
	}
	warn := func(w evaluate.FileWarning) {
		p.opts.WarnSink.Warn(w)
		mu.Lock()
		warnings = append(warnings, w)
		mu.Unlock()
	}

	walkOpts := walk.Options{
		Root:          p.root,
		HonorIgnore:   !p.opts.NoIgnore,
		IncludeHidden: p.opts.Hidden,
		MaxDepth:      p.opts.MaxDepth,
		ThreadCount:   threads,
	}
	_ = walk.Run(ctx, walkOpts, p.ignoreSet, emit, warn)

	matched, evalWarnings := evaluate.Run(ctx, p.compiledAST, candidates, evaluate.Options{ThreadCount: threads})
	for _, w := range evalWarnings {
		p.opts.WarnSink.Warn(w)
	}
	warnings = append(warnings, evalWarnings...)
	return matched, warnings
}

func toResult(fc *filectx.FileContext) SearchResult {
	content, _ := fc.Content()

	var matches []Match
	for _, m := range fc.Matches() {
		end := m.ByteOffset + m.ByteLength
		var text string
		if m.ByteOffset >= 0 && end <= len(content) {
			text = content[m.ByteOffset:end]
		}
		matches = append(matches, Match{
			StartLine:   m.Line,
			EndLine:     m.Line,
			StartColumn: m.Column,
			EndColumn:   m.Column,
			ByteStart:   m.ByteOffset,
			ByteEnd:     end,
			Text:        text,
		})
	}
	return SearchResult{Path: fc.Path, Matches: matches, Content: content}
}
