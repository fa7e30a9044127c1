package profiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinCompilesEveryEmbeddedProfile(t *testing.T) {
	reg, err := Builtin()
	require.NoError(t, err)
	assert.Len(t, reg.All(), 10) // cpp, csharp, go, java, javascript, php, python, rust, typescript, zig
}

func TestForExtensionResolvesKnownExtension(t *testing.T) {
	reg, err := Builtin()
	require.NoError(t, err)

	p, ok := reg.ForExtension("go")
	require.True(t, ok)
	assert.Equal(t, "go", p.Name)
	assert.Contains(t, p.Queries, "func")
	assert.Contains(t, p.Queries, "comment")
}

func TestForExtensionIsCaseInsensitiveAndAcceptsLeadingDot(t *testing.T) {
	reg, err := Builtin()
	require.NoError(t, err)

	p1, ok1 := reg.ForExtension("GO")
	p2, ok2 := reg.ForExtension(".go")
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Same(t, p1, p2)
}

func TestForExtensionUnknownReturnsFalse(t *testing.T) {
	reg, err := Builtin()
	require.NoError(t, err)
	_, ok := reg.ForExtension("cobol")
	assert.False(t, ok)
}

func TestEveryProfileExposesCommonPredicateKeys(t *testing.T) {
	reg, err := Builtin()
	require.NoError(t, err)

	for _, p := range reg.All() {
		assert.Contains(t, p.Queries, "comment", "profile %s missing comment query", p.Name)
		assert.Contains(t, p.Queries, "def", "profile %s missing def query", p.Name)
		assert.NotEmpty(t, p.Extensions, "profile %s has no extensions", p.Name)
		assert.NotNil(t, p.Language, "profile %s has no compiled language", p.Name)
	}
}
