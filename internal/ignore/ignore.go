// Package ignore implements the walker's path-exclusion semantics:
// built-in defaults, a collaborator-supplied user-level ignore file,
// .gitignore, and .rdumpignore, composed in ascending precedence
// (spec.md §3 "Ignore semantics").
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// rule is one parsed line of an ignore file.
type rule struct {
	pattern  string
	negate   bool
	dirOnly  bool
	anchored bool // leading "/": match only from the ignore file's root
}

// Set is a composed, precedence-ordered stack of ignore rule sources.
// Rules from sources added later take precedence over earlier ones when
// both match the same path (spec.md: builtin < user-level < .gitignore
// root-down < .rdumpignore).
type Set struct {
	layers [][]rule
}

// DefaultPatterns are excluded regardless of any ignore file, matching
// the teacher's own baked-in exclusion list for build and VCS artifacts.
var DefaultPatterns = []string{
	".git/", "node_modules/", "target/", "dist/", "build/",
	".idea/", ".vscode/", "*.pyc", "__pycache__/", ".DS_Store",
}

// New builds a Set seeded with DefaultPatterns as its lowest-precedence
// layer.
func New() *Set {
	return &Set{layers: [][]rule{parseLines(DefaultPatterns)}}
}

// WithUserLevel returns a new Set with a layer of rules above the
// defaults but below any repository-local ignore file. Pass nil
// patterns for "no user-level ignore file configured", which returns s
// unchanged.
func (s *Set) WithUserLevel(patterns []string) *Set {
	if len(patterns) == 0 {
		return s
	}
	return s.withLayer(parseLines(patterns))
}

// WithGitignore returns a new Set with dir's .gitignore, if present,
// appended as the next layer. Callers walking root-down call this once
// per directory on their way in, so deeper .gitignore files naturally
// land in later, higher-precedence layers scoped to that subtree only.
func (s *Set) WithGitignore(dir string) (*Set, error) {
	return s.withFile(filepath.Join(dir, ".gitignore"))
}

// WithRdumpIgnore returns a new Set with dir's .rdumpignore appended.
// .rdumpignore always outranks every .gitignore layer, so callers apply
// it after WithGitignore for the same directory.
func (s *Set) WithRdumpIgnore(dir string) (*Set, error) {
	return s.withFile(filepath.Join(dir, ".rdumpignore"))
}

func (s *Set) withFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return s, err
	}
	return s.withLayer(parseLines(lines)), nil
}

// withLayer returns a new Set with layer appended, leaving s and its
// layers slice untouched so concurrent walkers can each hold their own
// branch of the composition without racing.
func (s *Set) withLayer(layer []rule) *Set {
	if len(layer) == 0 {
		return s
	}
	layers := make([][]rule, len(s.layers)+1)
	copy(layers, s.layers)
	layers[len(s.layers)] = layer
	return &Set{layers: layers}
}

func parseLines(lines []string) []rule {
	var rules []rule
	for _, line := range lines {
		line = strings.TrimRight(line, "\r\n")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		rules = append(rules, parseRule(trimmed))
	}
	return rules
}

func parseRule(line string) rule {
	r := rule{}
	if strings.HasPrefix(line, "!") {
		r.negate = true
		line = line[1:]
	}
	if strings.HasPrefix(line, "/") {
		r.anchored = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	r.pattern = line
	return r
}

// Match reports whether relPath (slash-separated, relative to the walk
// root) should be ignored. isDir tells directory-only rules whether they
// apply. Later layers, and later rules within a layer, win ties — this
// is what lets .rdumpignore's "!keep.me" override a broader .gitignore
// exclusion.
func (s *Set) Match(relPath string, isDir bool) bool {
	ignored := false
	for _, layer := range s.layers {
		for _, r := range layer {
			var matched bool
			if r.dirOnly {
				// A directory-only rule excludes the directory itself
				// and everything beneath it, at whatever depth it's
				// found.
				matched = dirOnlyMatch(r, relPath, isDir)
			} else {
				matched = fileRuleMatch(r, relPath)
			}
			if matched {
				ignored = !r.negate
			}
		}
	}
	return ignored
}

// dirOnlyMatch reports whether relPath is the directory r.pattern names,
// or lies anywhere beneath it. r.pattern may itself contain "/" for a
// multi-segment directory name. Matching relPath itself (rather than a
// descendant of it) requires isDir — a file merely sharing the
// directory's name never triggers a dir-only rule.
func dirOnlyMatch(r rule, relPath string, isDir bool) bool {
	patParts := strings.Split(r.pattern, "/")
	parts := strings.Split(relPath, "/")
	n := len(patParts)
	maxStart := len(parts) - n
	if maxStart < 0 {
		return false
	}
	if r.anchored {
		maxStart = 0
	}
	for start := 0; start <= maxStart; start++ {
		isWholePath := start+n == len(parts)
		if isWholePath && !isDir {
			continue
		}
		candidate := strings.Join(parts[start:start+n], "/")
		if globMatch(r.pattern, candidate) {
			return true
		}
	}
	return false
}

func fileRuleMatch(r rule, relPath string) bool {
	if globMatch(r.pattern, relPath) {
		return true
	}
	if r.anchored {
		return false
	}
	// Unanchored patterns match at any path depth, per gitignore
	// semantics, so also try every suffix of the path.
	parts := strings.Split(relPath, "/")
	for i := 1; i < len(parts); i++ {
		if globMatch(r.pattern, strings.Join(parts[i:], "/")) {
			return true
		}
	}
	return false
}

func globMatch(pattern, path string) bool {
	if !strings.ContainsAny(pattern, "*?[") {
		return pattern == path
	}
	matched, err := doublestar.Match(pattern, path)
	return err == nil && matched
}
