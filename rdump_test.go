package rdump

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/rdump/internal/rdumpconfig"
	"github.com/standardbeagle/rdump/internal/rdumplog"
)

func writeFixtureF1(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"main.rs":      "fn main() {}",
		"lib.rs":       `pub fn add(a:i32,b:i32)->i32{a+b} pub fn subtract(a:i32,b:i32)->i32{a-b}`,
		"src/utils.rs": `pub fn helper()->String{"x".to_string()}`,
		".gitignore":   "ignored.rs\n",
		"ignored.rs":   "fn main() {}",
	}
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func paths(results []SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = filepath.Base(r.Path)
	}
	sort.Strings(out)
	return out
}

func TestSearchExtRsDefaultHonorsGitignore(t *testing.T) {
	root := writeFixtureF1(t)
	results, err := Search(context.Background(), "ext:rs", SearchOptions{Root: root})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"lib.rs", "main.rs", "utils.rs"}, paths(results))
	for _, r := range results {
		assert.Empty(t, r.Matches)
	}
}

func TestSearchExtRsNoIgnoreIncludesIgnoredFile(t *testing.T) {
	root := writeFixtureF1(t)
	results, err := Search(context.Background(), "ext:rs", SearchOptions{Root: root, NoIgnore: true})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, []string{"ignored.rs", "lib.rs", "main.rs", "utils.rs"}, paths(results))
}

func TestSearchFuncMainMatchesSingleFileWithPosition(t *testing.T) {
	root := writeFixtureF1(t)
	results, err := Search(context.Background(), "func:main", SearchOptions{Root: root})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "main.rs", filepath.Base(results[0].Path))
	require.Len(t, results[0].Matches, 1)
	assert.Equal(t, 1, results[0].Matches[0].StartLine)
	assert.Equal(t, "main", results[0].Matches[0].Text)
	assert.Contains(t, results[0].Content, "fn main")
}

func TestSearchFuncAddOrSubtractMatchesBothOnSameFile(t *testing.T) {
	root := writeFixtureF1(t)
	results, err := Search(context.Background(), "func:add | func:subtract", SearchOptions{Root: root})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "lib.rs", filepath.Base(results[0].Path))
	require.Len(t, results[0].Matches, 2)
	assert.Equal(t, 1, results[0].Matches[0].StartLine)
	assert.Equal(t, 1, results[0].Matches[1].StartLine)
}

func TestSearchOptimizerEquivalenceRegardlessOfOperandOrder(t *testing.T) {
	root := writeFixtureF1(t)
	a, err := Search(context.Background(), "func:main & ext:rs", SearchOptions{Root: root})
	require.NoError(t, err)
	b, err := Search(context.Background(), "ext:rs & func:main", SearchOptions{Root: root})
	require.NoError(t, err)
	assert.Equal(t, paths(a), paths(b))
}

func TestSearchExcludesSrcSubdirectory(t *testing.T) {
	root := writeFixtureF1(t)
	results, err := Search(context.Background(), `ext:rs & !path:src`, SearchOptions{Root: root})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"lib.rs", "main.rs"}, paths(results))
}

func TestSearchTooLargeFileSurfacesInSearchIterFailures(t *testing.T) {
	root := t.TempDir()
	data := make([]byte, 101*1024*1024)
	copy(data, []byte("fn main(){}"))
	for i := len("fn main(){}"); i < len(data); i++ {
		data[i] = ' '
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.rs"), data, 0o644))

	results, failures, err := SearchIter(context.Background(), "func:main", SearchOptions{Root: root})
	require.NoError(t, err)

	var collected []SearchResult
	var collectedErrs []FileError
	for results != nil || failures != nil {
		select {
		case r, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			collected = append(collected, r)
		case f, ok := <-failures:
			if !ok {
				failures = nil
				continue
			}
			collectedErrs = append(collectedErrs, f)
		}
	}

	assert.Empty(t, collected)
	require.Len(t, collectedErrs, 1)
	assert.Equal(t, FileTooLarge, collectedErrs[0].Kind)
}

func TestSearchRootNotFoundIsQueryError(t *testing.T) {
	_, err := Search(context.Background(), "ext:rs", SearchOptions{Root: "/no/such/directory/at/all"})
	require.Error(t, err)
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, QueryRootNotFound, qerr.Kind)
}

func TestSearchUnknownPredicateIsQueryError(t *testing.T) {
	root := t.TempDir()
	_, err := Search(context.Background(), "bogus:x", SearchOptions{Root: root})
	require.Error(t, err)
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, QueryUnknownPredicate, qerr.Kind)
}

func TestSearchSyntaxErrorIsQueryError(t *testing.T) {
	root := t.TempDir()
	_, err := Search(context.Background(), "ext:rs &", SearchOptions{Root: root})
	require.Error(t, err)
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, QuerySyntaxError, qerr.Kind)
}

func TestSearchUnknownPresetIsQueryError(t *testing.T) {
	root := t.TempDir()
	_, err := Search(context.Background(), "ext:rs", SearchOptions{Root: root, Presets: []string{"nope"}})
	require.Error(t, err)
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, QueryUnknownPreset, qerr.Kind)
}

func TestSearchWithPresetCombinesAsAnd(t *testing.T) {
	root := writeFixtureF1(t)
	presets := rdumpconfig.MapPresetRegistry{"rust-only": "ext:rs"}
	results, err := Search(context.Background(), "func:main", SearchOptions{
		Root: root, Presets: []string{"rust-only"}, PresetSet: presets,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "main.rs", filepath.Base(results[0].Path))
}

func TestSearchUsesConfigDefaultThreadCountWhenOptionsLeaveItZero(t *testing.T) {
	root := writeFixtureF1(t)
	cfg := rdumpconfig.RdumpConfig{DefaultThreadCount: 2}
	results, err := Search(context.Background(), "ext:rs", SearchOptions{Root: root, Config: &cfg})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchRoutesWarningsThroughWarnSink(t *testing.T) {
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.MkdirAll(locked, 0o000))
	defer os.Chmod(locked, 0o755)
	if os.Getuid() == 0 {
		t.Skip("running as root: permission bits are not enforced")
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.rs"), []byte("fn main(){}"), 0o644))

	var buf strings.Builder
	var mu sync.Mutex
	sink := rdumplog.New(writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return buf.Write(p)
	}))

	_, err := Search(context.Background(), "ext:rs", SearchOptions{Root: root, WarnSink: sink})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, buf.String(), "[rdump] ")
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func TestSearchMaxDepthOnlyEmitsFilesDirectlyUnderRoot(t *testing.T) {
	root := t.TempDir()
	for rel, content := range map[string]string{
		"top.rs":          "fn main() {}",
		"one/mid.rs":      "fn main() {}",
		"one/two/deep.rs": "fn main() {}",
	} {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	results, err := Search(context.Background(), "ext:rs", SearchOptions{Root: root, MaxDepth: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"top.rs"}, paths(results))
}
