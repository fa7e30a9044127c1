// Package filectx defines FileContext, the per-file carrier that flows
// through the pre-filter and evaluator stages with lazily-loaded content
// and parse trees (spec.md §3, "FileContext").
package filectx

import (
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Metadata is populated once, at walk time, from a single stat call.
type Metadata struct {
	Size    int64
	ModTime time.Time
	Mode    fs.FileMode
}

// Match is a positional hit a predicate chooses to report. Ordering within
// a file is insertion order; de-duplication is not required (spec.md §3).
type Match struct {
	Line       int // 1-indexed
	Column     int // 0-indexed
	ByteOffset int
	ByteLength int
}

// MaxContentSize bounds how large a file's content is allowed to grow in
// memory once loaded. Files over the cap are treated as a recoverable
// per-file error (TooLarge) rather than silently truncated.
const MaxContentSize = 100 * 1024 * 1024 // 100 MiB, spec.md §5 "recommended"

// ErrNotUTF8 is returned by Content when the file's bytes don't decode as
// UTF-8. Content-requesting predicates treat this as "no match", not as a
// query-aborting failure.
var ErrNotUTF8 = fmt.Errorf("file content is not valid UTF-8")

// ErrTooLarge is returned by Content when the file exceeds MaxContentSize.
type ErrTooLarge struct {
	Size  int64
	Limit int64
}

func (e *ErrTooLarge) Error() string {
	return fmt.Sprintf("file size %d exceeds cap %d", e.Size, e.Limit)
}

// FileContext is created by the walker once per discovered path and is
// owned by exactly one goroutine at a time (spec.md §5). Its lazy fields
// use Cell so that in the rare case a context is handed to more than one
// goroutine, at most one load/parse happens.
type FileContext struct {
	Path     string // canonical, symlink-resolved
	Metadata Metadata

	content Cell[string]
	loadFn  func() (string, error)

	treesMu sync.Mutex
	trees   map[string]*Cell[*tree_sitter.Tree]

	matchesMu sync.Mutex
	matches   []Match
}

// New creates a FileContext for path. loadFn performs the actual file read
// and is invoked at most once, the first time Content is called.
func New(path string, meta Metadata, loadFn func() (string, error)) *FileContext {
	return &FileContext{
		Path:     path,
		Metadata: meta,
		loadFn:   loadFn,
		trees:    make(map[string]*Cell[*tree_sitter.Tree]),
	}
}

// FromDisk builds a loadFn that reads path from the filesystem and applies
// the UTF-8 and size-cap checks every content-requesting predicate expects.
func FromDisk(path string, size int64) func() (string, error) {
	return func() (string, error) {
		if size > MaxContentSize {
			return "", &ErrTooLarge{Size: size, Limit: MaxContentSize}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		if !utf8.Valid(data) {
			return "", ErrNotUTF8
		}
		return string(data), nil
	}
}

// Content returns the file's text, reading it from disk at most once
// across every predicate evaluated for this file (spec.md invariant).
func (fc *FileContext) Content() (string, error) {
	return fc.content.Get(fc.loadFn)
}

// ParseTree returns the parse tree for the named language profile,
// building it at most once via parseFn. parseFn receives the file's
// already-loaded content.
func (fc *FileContext) ParseTree(profile string, parseFn func(content string) (*tree_sitter.Tree, error)) (*tree_sitter.Tree, error) {
	content, err := fc.Content()
	if err != nil {
		return nil, err
	}

	fc.treesMu.Lock()
	cell, ok := fc.trees[profile]
	if !ok {
		cell = &Cell[*tree_sitter.Tree]{}
		fc.trees[profile] = cell
	}
	fc.treesMu.Unlock()

	return cell.Get(func() (*tree_sitter.Tree, error) {
		return parseFn(content)
	})
}

// AddMatch appends a positional hit. Safe to call from any goroutine,
// though in practice only the single goroutine owning this FileContext
// during evaluation ever calls it.
func (fc *FileContext) AddMatch(m Match) {
	fc.matchesMu.Lock()
	fc.matches = append(fc.matches, m)
	fc.matchesMu.Unlock()
}

// Matches returns the accumulated positional hits, in insertion order.
func (fc *FileContext) Matches() []Match {
	fc.matchesMu.Lock()
	defer fc.matchesMu.Unlock()
	out := make([]Match, len(fc.matches))
	copy(out, fc.matches)
	return out
}
