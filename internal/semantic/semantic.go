// Package semantic evaluates the tree-sitter-backed predicate keys
// (func, class, struct, comment, str, and friends, spec.md §4.6/§4.7)
// against a FileContext's lazily-parsed tree. It is the one predicate
// family whose evaluation depends on a language profile; every other
// family lives in internal/predicate.
package semantic

import (
	"fmt"
	"regexp"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/rdump/internal/filectx"
	"github.com/standardbeagle/rdump/internal/profiles"
)

// Engine runs compiled profile queries against a file's parse tree and
// reports whether a given predicate key/value pair matches.
type Engine struct {
	registry *profiles.Registry

	parsersMu sync.Mutex
	parsers   map[string]*sync.Pool // profile name -> pool of *tree_sitter.Parser
}

// New builds an Engine over the given profile registry.
func New(registry *profiles.Registry) *Engine {
	return &Engine{
		registry: registry,
		parsers:  make(map[string]*sync.Pool),
	}
}

// Supported reports whether ext has a language profile at all. For an
// unsupported extension every semantic predicate resolves to false
// without a parse.
func (e *Engine) Supported(ext string) bool {
	_, ok := e.registry.ForExtension(ext)
	return ok
}

// Evaluate runs the query registered for predicateKey against fc's parse
// tree and reports whether any capture's text matches value. A value of
// "." is the wildcard: any capture at all satisfies it (spec.md §4.7).
//
// An unsupported profile or predicate key is a silent miss (false, nil),
// never an error — spec.md is explicit that "no profile for this
// extension" and "no query for this predicate" both resolve to false.
func (e *Engine) Evaluate(fc *filectx.FileContext, ext, predicateKey, value string) (bool, error) {
	profile, ok := e.registry.ForExtension(ext)
	if !ok {
		return false, nil
	}
	query, ok := profile.Queries[predicateKey]
	if !ok {
		return false, nil
	}

	content, err := fc.Content()
	if err != nil {
		// Non-UTF8/unreadable/too-large: returned to the evaluator's
		// predicate node, which reports it as a per-file warning and
		// treats this predicate as false.
		return false, err
	}

	tree, err := fc.ParseTree(profile.Name, func(src string) (*tree_sitter.Tree, error) {
		return e.parse(profile, src)
	})
	if err != nil {
		return false, nil // parse failure: silent miss, not query-fatal
	}

	return e.match(fc, tree, []byte(content), profile, predicateKey, query, value)
}

func (e *Engine) parse(profile *profiles.Profile, src string) (*tree_sitter.Tree, error) {
	pool := e.poolFor(profile)
	parser, _ := pool.Get().(*tree_sitter.Parser)
	if parser == nil {
		parser = tree_sitter.NewParser()
		if err := parser.SetLanguage(profile.Language); err != nil {
			return nil, err
		}
	}
	defer pool.Put(parser)

	tree := parser.Parse([]byte(src), nil)
	if tree == nil {
		return nil, fmt.Errorf("semantic: %s: parse returned nil tree", profile.Name)
	}
	return tree, nil
}

func (e *Engine) poolFor(profile *profiles.Profile) *sync.Pool {
	e.parsersMu.Lock()
	defer e.parsersMu.Unlock()
	pool, ok := e.parsers[profile.Name]
	if !ok {
		pool = &sync.Pool{}
		e.parsers[profile.Name] = pool
	}
	return pool
}

func (e *Engine) match(fc *filectx.FileContext, tree *tree_sitter.Tree, content []byte, profile *profiles.Profile, predicateKey string, query *tree_sitter.Query, value string) (bool, error) {
	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	matches := cursor.Matches(query, tree.RootNode(), content)
	found := false

	for {
		m := matches.Next()
		if m == nil {
			break
		}
		for _, c := range m.Captures {
			node := c.Node
			text := string(content[node.StartByte():node.EndByte()])

			if !capturePasses(profile.Name, predicateKey, text) {
				continue
			}
			if !valueMatches(predicateKey, value, text) {
				continue
			}

			start := node.StartPosition()
			fc.AddMatch(filectx.Match{
				Line:       int(start.Row) + 1,
				Column:     int(start.Column),
				ByteOffset: int(node.StartByte()),
				ByteLength: int(node.EndByte() - node.StartByte()),
			})
			found = true
		}
	}
	return found, nil
}

// valueMatches applies the wildcard rule ("." matches any capture) plus,
// for comment/str captures only, a stemmed-substring fallback so
// "authenticate" also matches a comment containing "authentication".
// Every other predicate key requires an exact match.
func valueMatches(predicateKey, value, text string) bool {
	if value == "." {
		return true
	}
	if value == text {
		return true
	}
	switch predicateKey {
	case "comment", "str":
		return commentStemmer.stemmedContains(value, text)
	default:
		return false
	}
}

var hookNamePattern = regexp.MustCompile(`^use[A-Z]`)

// builtinReactHooks is the fixed set of hooks React itself ships. A call
// whose callee matches the use[A-Z] convention but isn't one of these is
// a "customhook" rather than a "hook" (spec.md §4.6, JS/TS profile
// extras).
var builtinReactHooks = map[string]bool{
	"useState": true, "useEffect": true, "useContext": true,
	"useReducer": true, "useCallback": true, "useMemo": true,
	"useRef": true, "useLayoutEffect": true, "useImperativeHandle": true,
	"useDebugValue": true, "useTransition": true, "useDeferredValue": true,
	"useId": true, "useSyncExternalStore": true, "useInsertionEffect": true,
}

// capturePasses applies any predicate-specific filtering beyond the raw
// query match. Only the JS/TS hook/customhook pair need this: the query
// itself can't distinguish them, since tree-sitter's query language has
// no portable way to express a naming convention.
func capturePasses(profileName, predicateKey, text string) bool {
	isJSFamily := profileName == "javascript" || profileName == "typescript"
	switch predicateKey {
	case "hook":
		if !isJSFamily {
			return true
		}
		return builtinReactHooks[text]
	case "customhook":
		if !isJSFamily {
			return true
		}
		return hookNamePattern.MatchString(text) && !builtinReactHooks[text]
	default:
		return true
	}
}
