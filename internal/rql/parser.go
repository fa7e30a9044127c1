// Package rql implements the RQL (Rdump Query Language) parser: a small
// boolean predicate grammar (AND/OR/NOT, parentheses, quoted or bare
// values) compiled with participle and converted into the immutable
// rqlast.Node tree consumed by the optimizer and evaluator.
package rql

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/rdump/internal/rqlast"
)

// Parse compiles a query string into an AST or returns a *SyntaxError.
// It does not validate predicate keys against the registry; that check
// happens during optimization/evaluation, per the query language contract.
func Parse(query string) (rqlast.Node, error) {
	ast, err := rqlParser.ParseString("", query)
	if err != nil {
		return nil, newSyntaxError(query, err)
	}
	node, err := convertOr(query, ast.Expr)
	if err != nil {
		return nil, err
	}
	return node, nil
}

func convertOr(q string, n *orAST) (rqlast.Node, error) {
	node, err := convertAnd(q, n.Left)
	if err != nil {
		return nil, err
	}
	for _, tail := range n.Rest {
		right, err := convertAnd(q, tail.Term)
		if err != nil {
			return nil, err
		}
		node = &rqlast.Or{Left: node, Right: right}
	}
	return node, nil
}

func convertAnd(q string, n *andAST) (rqlast.Node, error) {
	node, err := convertNot(q, n.Left)
	if err != nil {
		return nil, err
	}
	for _, tail := range n.Rest {
		right, err := convertNot(q, tail.Term)
		if err != nil {
			return nil, err
		}
		node = &rqlast.And{Left: node, Right: right}
	}
	return node, nil
}

func convertNot(q string, n *notAST) (rqlast.Node, error) {
	switch {
	case n.Negated != nil:
		child, err := convertNot(q, n.Negated)
		if err != nil {
			return nil, err
		}
		return &rqlast.Not{Child: child}, nil
	case n.Group != nil:
		return convertOr(q, n.Group)
	default:
		return convertPredicate(q, n.Pred)
	}
}

func convertPredicate(q string, p *predAST) (rqlast.Node, error) {
	value, err := unquote(p.Raw)
	if err != nil {
		return nil, &SyntaxError{
			Position: p.Pos.Offset + 1,
			Expected: err.Error(),
			Query:    q,
		}
	}
	return &rqlast.Predicate{
		Key:   strings.ToLower(p.Key),
		Value: value,
	}, nil
}

// unquote strips surrounding quotes and resolves backslash escapes for
// quoted values. Bare values (no leading quote) pass through unchanged,
// including a leading '/' that a predicate may later interpret as the
// start of a regex delimiter — the parser treats it as an ordinary bare
// value and never applies quote processing to it.
func unquote(raw string) (string, error) {
	if len(raw) < 2 {
		return raw, nil
	}
	quote := raw[0]
	if (quote != '\'' && quote != '"') || raw[len(raw)-1] != quote {
		return raw, nil
	}
	body := raw[1 : len(raw)-1]
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i == len(body)-1 {
			b.WriteByte(c)
			continue
		}
		next := body[i+1]
		switch next {
		case '\\', '\'', '"':
			b.WriteByte(next)
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		default:
			return "", fmt.Errorf("unknown escape '\\%c' in quoted value", next)
		}
		i++
	}
	return b.String(), nil
}

// String renders an AST back to RQL text; a nil node renders as "".
func String(n rqlast.Node) string {
	if n == nil {
		return ""
	}
	return fmt.Sprint(n)
}
