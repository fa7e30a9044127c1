// Package optimize rewrites a parsed RQL AST so cheaper predicates run
// before expensive ones, without changing what the query matches.
package optimize

import "github.com/standardbeagle/rdump/internal/rqlast"

// unknownCost is returned for predicate keys the cost function doesn't
// recognize. The optimizer doesn't validate keys — it just needs *some*
// cost to sort by — so unknown keys sort last, deferring the inevitable
// UnknownPredicate failure in the evaluator for as long as possible.
const unknownCost = 1 << 30

// CostFunc returns the cost tier for a predicate key. The registry is the
// only real implementation; tests supply fakes.
type CostFunc func(key string) (cost int, ok bool)

// Optimize returns a new AST equivalent to n (same truth value for every
// predicate assignment) with And/Or children reordered by ascending
// min_cost. It never mutates n.
func Optimize(n rqlast.Node, cost CostFunc) rqlast.Node {
	optimized, _ := rewrite(n, cost)
	return optimized
}

// rewrite returns the rewritten node and its min_cost.
func rewrite(n rqlast.Node, cost CostFunc) (rqlast.Node, int) {
	switch t := n.(type) {
	case *rqlast.Predicate:
		return t, predicateCost(t, cost)

	case *rqlast.Not:
		child, c := rewrite(t.Child, cost)
		return &rqlast.Not{Child: child}, c

	case *rqlast.And:
		children, costs := flattenAnd(t, cost)
		sortByCost(children, costs)
		return rebuildAnd(children), min(costs)

	case *rqlast.Or:
		children, costs := flattenOr(t, cost)
		sortByCost(children, costs)
		return rebuildOr(children), min(costs)

	default:
		return n, unknownCost
	}
}

func predicateCost(p *rqlast.Predicate, cost CostFunc) int {
	if c, ok := cost(p.Key); ok {
		return c
	}
	return unknownCost
}

// flattenAnd collects every child of a chain of nested And nodes (as
// parsed left-associatively) into a flat, rewritten list. Flattening lets
// the optimizer reorder across the whole conjunction rather than just a
// single And's two children.
func flattenAnd(n *rqlast.And, cost CostFunc) ([]rqlast.Node, []int) {
	var children []rqlast.Node
	var costs []int
	var collect func(node rqlast.Node)
	collect = func(node rqlast.Node) {
		if and, ok := node.(*rqlast.And); ok {
			collect(and.Left)
			collect(and.Right)
			return
		}
		rewritten, c := rewrite(node, cost)
		children = append(children, rewritten)
		costs = append(costs, c)
	}
	collect(n)
	return children, costs
}

func flattenOr(n *rqlast.Or, cost CostFunc) ([]rqlast.Node, []int) {
	var children []rqlast.Node
	var costs []int
	var collect func(node rqlast.Node)
	collect = func(node rqlast.Node) {
		if or, ok := node.(*rqlast.Or); ok {
			collect(or.Left)
			collect(or.Right)
			return
		}
		rewritten, c := rewrite(node, cost)
		children = append(children, rewritten)
		costs = append(costs, c)
	}
	collect(n)
	return children, costs
}

// sortByCost is a stable ascending sort so equal-cost predicates keep
// their original relative order — reordering is for performance, not for
// reshuffling user-equivalent clauses arbitrarily.
func sortByCost(children []rqlast.Node, costs []int) {
	type pair struct {
		node rqlast.Node
		cost int
	}
	pairs := make([]pair, len(children))
	for i := range children {
		pairs[i] = pair{children[i], costs[i]}
	}
	for i := 1; i < len(pairs); i++ {
		j := i
		for j > 0 && pairs[j-1].cost > pairs[j].cost {
			pairs[j-1], pairs[j] = pairs[j], pairs[j-1]
			j--
		}
	}
	for i, p := range pairs {
		children[i] = p.node
		costs[i] = p.cost
	}
}

func rebuildAnd(children []rqlast.Node) rqlast.Node {
	node := children[0]
	for _, c := range children[1:] {
		node = &rqlast.And{Left: node, Right: c}
	}
	return node
}

func rebuildOr(children []rqlast.Node) rqlast.Node {
	node := children[0]
	for _, c := range children[1:] {
		node = &rqlast.Or{Left: node, Right: c}
	}
	return node
}

func min(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
