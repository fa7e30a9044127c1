// Package profiles holds the compiled-in language profiles: the binding
// between a file extension, a tree-sitter grammar, and a table of
// pre-compiled grammar queries keyed by semantic predicate name (spec.md
// §3 "Language profile"). Each profile's extension list and query source
// is data (internal/profiles/data/*.toml), not Go source — this is the
// language-profile *registry* spec.md §6 says is "consumed at
// initialization", not the config-file surface the core explicitly leaves
// to a host collaborator.
package profiles

import (
	"embed"
	"fmt"
	"strings"
	"unsafe"

	"github.com/pelletier/go-toml/v2"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

//go:embed data/*.toml
var dataFS embed.FS

// Profile binds a set of extensions to a grammar and its compiled
// semantic-predicate queries. Queries not present for a profile mean that
// predicate is unsupported for this language (spec.md §3).
type Profile struct {
	Name       string
	Extensions []string
	Language   *tree_sitter.Language
	Queries    map[string]*tree_sitter.Query
}

type profileData struct {
	Name       string            `toml:"name"`
	Extensions []string          `toml:"extensions"`
	Queries    map[string]string `toml:"queries"`
}

// languageFactories maps a profile's data-file name to the grammar binding
// that compiles its queries. This is the one piece that must stay in Go
// source: tree-sitter grammars are cgo-backed, not data.
var languageFactories = map[string]func() unsafe.Pointer{
	"go":         func() unsafe.Pointer { return tree_sitter_go.Language() },
	"javascript": func() unsafe.Pointer { return tree_sitter_javascript.Language() },
	"typescript": func() unsafe.Pointer { return tree_sitter_typescript.LanguageTypescript() },
	"python":     func() unsafe.Pointer { return tree_sitter_python.Language() },
	"rust":       func() unsafe.Pointer { return tree_sitter_rust.Language() },
	"java":       func() unsafe.Pointer { return tree_sitter_java.Language() },
	"cpp":        func() unsafe.Pointer { return tree_sitter_cpp.Language() },
	"csharp":     func() unsafe.Pointer { return tree_sitter_csharp.Language() },
	"php":        func() unsafe.Pointer { return tree_sitter_php.LanguagePHP() },
	"zig":        func() unsafe.Pointer { return tree_sitter_zig.Language() },
}

// Registry resolves a file extension (case-insensitive, no leading dot) to
// its language profile.
type Registry struct {
	byExt map[string]*Profile
	all   []*Profile
}

// Builtin compiles every profile embedded under data/*.toml. Compilation
// failure for a profile is a fatal configuration error, reported once at
// startup — not surfaced per-query (spec.md §4.7 "Pre-compilation").
func Builtin() (*Registry, error) {
	entries, err := dataFS.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("profiles: reading embedded data: %w", err)
	}

	reg := &Registry{byExt: make(map[string]*Profile)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		raw, err := dataFS.ReadFile("data/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("profiles: reading %s: %w", entry.Name(), err)
		}

		var pd profileData
		if err := toml.Unmarshal(raw, &pd); err != nil {
			return nil, fmt.Errorf("profiles: decoding %s: %w", entry.Name(), err)
		}

		profile, err := compile(pd)
		if err != nil {
			return nil, fmt.Errorf("profiles: compiling %s: %w", pd.Name, err)
		}
		reg.all = append(reg.all, profile)
		for _, ext := range profile.Extensions {
			reg.byExt[strings.ToLower(ext)] = profile
		}
	}
	return reg, nil
}

func compile(pd profileData) (*Profile, error) {
	factory, ok := languageFactories[pd.Name]
	if !ok {
		return nil, fmt.Errorf("no grammar binding registered for profile %q", pd.Name)
	}
	language := tree_sitter.NewLanguage(factory())

	queries := make(map[string]*tree_sitter.Query, len(pd.Queries))
	for key, src := range pd.Queries {
		q, _ := tree_sitter.NewQuery(language, src)
		// The go-tree-sitter binding can return a typed-nil error on
		// success; checking the query pointer itself is the reliable
		// signal the teacher's own setup code relies on too.
		if q == nil {
			return nil, fmt.Errorf("predicate %q: query failed to compile: %s", key, src)
		}
		queries[key] = q
	}

	return &Profile{
		Name:       pd.Name,
		Extensions: pd.Extensions,
		Language:   language,
		Queries:    queries,
	}, nil
}

// ForExtension returns the profile whose extension list contains ext
// (case-insensitive, no leading dot).
func (r *Registry) ForExtension(ext string) (*Profile, bool) {
	p, ok := r.byExt[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return p, ok
}

// All returns every compiled profile, for diagnostics and tests.
func (r *Registry) All() []*Profile {
	return r.all
}
