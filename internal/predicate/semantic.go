package predicate

import (
	"github.com/standardbeagle/rdump/internal/filectx"
)

// SemanticEvaluator is the capability internal/semantic.Engine provides.
// Kept as an interface here so the predicate package never imports
// tree-sitter directly — it only needs "evaluate this key against this
// file".
type SemanticEvaluator interface {
	Evaluate(fc *filectx.FileContext, ext, predicateKey, value string) (bool, error)
}

// semanticKeys is every predicate key any built-in language profile may
// define a query for (spec.md §4.6). A key a given file's profile
// doesn't implement is a silent miss, handled inside Evaluate itself —
// the registry entry exists uniformly across languages.
var semanticKeys = []string{
	"def", "func", "method", "class", "struct", "interface", "enum", "trait",
	"impl", "type", "macro", "import", "call", "comment", "str",
	"component", "element", "hook", "customhook", "prop",
}

func semanticPredicates(sem SemanticEvaluator) []*Descriptor {
	descriptors := make([]*Descriptor, 0, len(semanticKeys))
	for _, key := range semanticKeys {
		cost := CostSemantic
		if key == "comment" || key == "str" {
			cost = CostSemanticWalk // free-text search over comment/string captures
		}
		descriptors = append(descriptors, &Descriptor{
			Key:         key,
			Cost:        cost,
			Description: "tree-sitter semantic match for " + key,
			Compile: func(value string) (EvalFunc, error) {
				return func(fc *filectx.FileContext, ext string) (bool, error) {
					return sem.Evaluate(fc, ext, key, value)
				}, nil
			},
		})
	}
	return descriptors
}
