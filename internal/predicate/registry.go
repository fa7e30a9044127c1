// Package predicate is the capability surface spec.md calls the
// "Predicate Registry": an immutable table from predicate key (plus
// aliases) to a cost tier and a compiler that turns one query's
// `key:value` text into a closure over a FileContext. Compiling once per
// query, rather than re-parsing the value on every file, is what lets
// content predicates pay their regex-compilation cost a single time
// (spec.md §4, "one-time-per-query compilation").
package predicate

import (
	"fmt"
	"sort"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/rdump/internal/filectx"
)

// Cost tiers, ascending, matching the optimizer's reordering buckets
// (spec.md §4 "cost-aware optimization").
const (
	CostPath           = 1
	CostStat           = 10
	CostContent        = 100
	CostSemantic       = 500
	CostSemanticWalk   = 1000
)

// EvalFunc is a compiled, per-query-instance predicate evaluator. ext is
// the file's lowercase extension without the leading dot.
type EvalFunc func(fc *filectx.FileContext, ext string) (bool, error)

// CompileFunc builds an EvalFunc bound to one query's literal value.
// Returning an error here — not from the resulting EvalFunc — is what
// makes a malformed value (bad regex, bad unit suffix) a query-wide
// InvalidValue error rather than a per-file failure (spec.md §5).
type CompileFunc func(value string) (EvalFunc, error)

// Descriptor is one entry in the registry.
type Descriptor struct {
	Key         string
	Aliases     []string
	Cost        int
	Description string
	Compile     CompileFunc
}

// Registry is the full, immutable set of known predicates, keyed by
// every name (canonical key and aliases) it can be invoked under.
type Registry struct {
	byName map[string]*Descriptor
	keys   []string // canonical keys only, sorted, for suggestions
}

// NewRegistry builds the built-in predicate table. semantics supplies
// the per-language query lookups that back every tree-sitter-derived
// predicate key.
func NewRegistry(semantics SemanticEvaluator) *Registry {
	r := &Registry{byName: make(map[string]*Descriptor)}

	for _, d := range pathPredicates() {
		r.add(d)
	}
	for _, d := range statPredicates() {
		r.add(d)
	}
	for _, d := range contentPredicates() {
		r.add(d)
	}
	for _, d := range semanticPredicates(semantics) {
		r.add(d)
	}

	sort.Strings(r.keys)
	return r
}

func (r *Registry) add(d *Descriptor) {
	r.byName[d.Key] = d
	for _, alias := range d.Aliases {
		r.byName[alias] = d
	}
	r.keys = append(r.keys, d.Key)
}

// Lookup resolves a predicate key or alias as written in a query.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Suggest returns the closest known canonical key to name by
// Jaro-Winkler similarity, for UnknownPredicate error messages
// ("did you mean %q?"). Returns "" if nothing is close enough to be
// worth suggesting.
func (r *Registry) Suggest(name string) string {
	best := ""
	var bestScore float32 = 0.70 // below this, a suggestion is more confusing than helpful
	for _, key := range r.keys {
		score, err := edlib.StringsSimilarity(name, key, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			best = key
		}
	}
	return best
}

// UnknownPredicateError is returned by Lookup failures bubbled up through
// query compilation.
type UnknownPredicateError struct {
	Key        string
	Suggestion string
}

func (e *UnknownPredicateError) Error() string {
	if e.Suggestion == "" {
		return fmt.Sprintf("unknown predicate %q", e.Key)
	}
	return fmt.Sprintf("unknown predicate %q (did you mean %q?)", e.Key, e.Suggestion)
}

// InvalidValueError is returned when a predicate's value fails to parse
// at compile time (bad regex, bad size/date unit, ...).
type InvalidValueError struct {
	Key   string
	Value string
	Err   error
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %q for predicate %q: %v", e.Value, e.Key, e.Err)
}

func (e *InvalidValueError) Unwrap() error {
	return e.Err
}
