// Package prefilter implements the walker's cheap early-rejection pass:
// a conservative evaluation of the query AST that only trusts
// path-derived and stat-derived predicates, treating every other
// predicate as "true" (spec.md §4.5 "Pre-filter"). This can only ever
// produce false negatives of the *rejection*, never of the match — a
// file the pre-filter lets through might still fail full evaluation, but
// a file it rejects could never have matched.
package prefilter

import (
	"github.com/standardbeagle/rdump/internal/filectx"
	"github.com/standardbeagle/rdump/internal/rqlast"
)

// CheapEval reports whether key is one the pre-filter can evaluate
// directly (path- or stat-derived). Everything else is conservatively
// "might match".
type CheapEval func(p *rqlast.Predicate, fc *filectx.FileContext, ext string) (value bool, known bool)

// MightMatch conservatively evaluates n against fc. It must never return
// false for a file full evaluation would accept — the critical subtlety
// is Not: a predicate the pre-filter can't decide stays "true" even
// underneath a Not, rather than being naively inverted to "false", since
// inverting an unknown would wrongly reject files where the real content
// predicate turns out false.
func MightMatch(n rqlast.Node, fc *filectx.FileContext, ext string, cheap CheapEval) bool {
	switch t := n.(type) {
	case *rqlast.Predicate:
		if value, known := cheap(t, fc, ext); known {
			return value
		}
		return true

	case *rqlast.And:
		return MightMatch(t.Left, fc, ext, cheap) && MightMatch(t.Right, fc, ext, cheap)

	case *rqlast.Or:
		return MightMatch(t.Left, fc, ext, cheap) || MightMatch(t.Right, fc, ext, cheap)

	case *rqlast.Not:
		return mightMatchUnderNot(t.Child, fc, ext, cheap)

	default:
		return true
	}
}

// mightMatchUnderNot evaluates a Not's child conservatively in a way
// that, once inverted, still over-approximates "might match". A plain
// recursive MightMatch call would wrongly turn "unknown, treated as
// true" into "false" once negated — so known path/stat predicates invert
// normally, but anything undecidable stays true on the outside of the
// Not too.
func mightMatchUnderNot(n rqlast.Node, fc *filectx.FileContext, ext string, cheap CheapEval) bool {
	switch t := n.(type) {
	case *rqlast.Predicate:
		if value, known := cheap(t, fc, ext); known {
			return !value
		}
		return true

	case *rqlast.And:
		// !(a & b) == !a | !b
		return mightMatchUnderNot(t.Left, fc, ext, cheap) || mightMatchUnderNot(t.Right, fc, ext, cheap)

	case *rqlast.Or:
		// !(a | b) == !a & !b
		return mightMatchUnderNot(t.Left, fc, ext, cheap) && mightMatchUnderNot(t.Right, fc, ext, cheap)

	case *rqlast.Not:
		return MightMatch(t.Child, fc, ext, cheap)

	default:
		return true
	}
}
