// Package evaluate turns an optimized RQL AST into a tree of compiled
// closures and runs them over a stream of FileContexts in parallel. And's
// false-left short-circuit is mandatory, matching spec.md's evaluator
// invariants (§4.8); Or always evaluates both operands so that a true
// disjunct on either side still contributes its positional matches.
package evaluate

import (
	"github.com/standardbeagle/rdump/internal/filectx"
	"github.com/standardbeagle/rdump/internal/predicate"
	"github.com/standardbeagle/rdump/internal/rqlast"
)

// Compiled is one node of the compiled evaluation tree, returned by
// Compile and consumed by Run. Unlike rqlast.Node it is specific to a
// single query instance: predicate leaves close over their already-
// parsed value (a compiled regexp, a parsed size comparator, ...).
type Compiled interface {
	Eval(fc *filectx.FileContext, ext string, warn func(FileWarning)) (bool, error)
}

type andNode struct{ left, right Compiled }

func (n *andNode) Eval(fc *filectx.FileContext, ext string, warn func(FileWarning)) (bool, error) {
	l, err := n.left.Eval(fc, ext, warn)
	if err != nil {
		return false, err
	}
	if !l {
		return false, nil
	}
	return n.right.Eval(fc, ext, warn)
}

type orNode struct{ left, right Compiled }

// Eval always evaluates both operands, unlike andNode. Skipping the right
// side once the left is already true would also skip any positional
// matches the right side's predicate would have recorded against fc —
// and a query like "func:add | func:subtract" is expected to report a
// match for every disjunct that's true, not just the first one reached.
func (n *orNode) Eval(fc *filectx.FileContext, ext string, warn func(FileWarning)) (bool, error) {
	l, err := n.left.Eval(fc, ext, warn)
	if err != nil {
		return false, err
	}
	r, err := n.right.Eval(fc, ext, warn)
	if err != nil {
		return false, err
	}
	return l || r, nil
}

type notNode struct{ child Compiled }

func (n *notNode) Eval(fc *filectx.FileContext, ext string, warn func(FileWarning)) (bool, error) {
	v, err := n.child.Eval(fc, ext, warn)
	if err != nil {
		return false, err
	}
	return !v, nil
}

type predNode struct {
	key string
	fn  predicate.EvalFunc
}

func (n *predNode) Eval(fc *filectx.FileContext, ext string, warn func(FileWarning)) (bool, error) {
	ok, err := n.fn(fc, ext)
	if err != nil {
		warn(FileWarning{Path: fc.Path, Kind: classify(err), Key: n.key, Err: err})
		return false, nil
	}
	return ok, nil
}

// Compile resolves every predicate leaf of an optimized AST against reg,
// producing a tree ready to run per-file. Compile errors here are
// query-wide and fatal (UnknownPredicate, InvalidValue) — surfaced once,
// before any file is evaluated (spec.md §5).
func Compile(n rqlast.Node, reg *predicate.Registry) (Compiled, error) {
	switch t := n.(type) {
	case *rqlast.Predicate:
		desc, ok := reg.Lookup(t.Key)
		if !ok {
			return nil, &predicate.UnknownPredicateError{Key: t.Key, Suggestion: reg.Suggest(t.Key)}
		}
		fn, err := desc.Compile(t.Value)
		if err != nil {
			return nil, err
		}
		return &predNode{key: t.Key, fn: fn}, nil

	case *rqlast.And:
		left, err := Compile(t.Left, reg)
		if err != nil {
			return nil, err
		}
		right, err := Compile(t.Right, reg)
		if err != nil {
			return nil, err
		}
		return &andNode{left, right}, nil

	case *rqlast.Or:
		left, err := Compile(t.Left, reg)
		if err != nil {
			return nil, err
		}
		right, err := Compile(t.Right, reg)
		if err != nil {
			return nil, err
		}
		return &orNode{left, right}, nil

	case *rqlast.Not:
		child, err := Compile(t.Child, reg)
		if err != nil {
			return nil, err
		}
		return &notNode{child}, nil

	default:
		panic("evaluate: unknown rqlast.Node type")
	}
}
