package prefilter

import (
	"github.com/standardbeagle/rdump/internal/filectx"
	"github.com/standardbeagle/rdump/internal/predicate"
	"github.com/standardbeagle/rdump/internal/rqlast"
)

// Prepare compiles every path- or stat-derived predicate leaf in n
// against reg, once, and returns a CheapEval that answers those leaves
// directly by AST node identity. Content- and semantic-derived
// predicates are left undecided (MightMatch treats them as "true").
//
// Compile errors for a cheap predicate here are the same query-wide
// failures full compilation would hit later; Prepare surfaces them early
// so a bad query never starts walking the filesystem at all.
func Prepare(n rqlast.Node, reg *predicate.Registry) (CheapEval, error) {
	compiled := make(map[*rqlast.Predicate]predicate.EvalFunc)

	var visitErr error
	rqlast.Walk(n, func(node rqlast.Node) {
		if visitErr != nil {
			return
		}
		p, ok := node.(*rqlast.Predicate)
		if !ok {
			return
		}
		desc, ok := reg.Lookup(p.Key)
		if !ok {
			visitErr = &predicate.UnknownPredicateError{Key: p.Key, Suggestion: reg.Suggest(p.Key)}
			return
		}
		if desc.Cost > predicate.CostStat {
			return
		}
		fn, err := desc.Compile(p.Value)
		if err != nil {
			visitErr = err
			return
		}
		compiled[p] = fn
	})
	if visitErr != nil {
		return nil, visitErr
	}

	cheap := func(p *rqlast.Predicate, fc *filectx.FileContext, ext string) (bool, bool) {
		fn, ok := compiled[p]
		if !ok {
			return false, false
		}
		value, _ := fn(fc, ext) // path/stat predicates never error
		return value, true
	}
	return cheap, nil
}
