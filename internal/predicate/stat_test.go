package predicate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/rdump/internal/filectx"
)

func fcWithMeta(meta filectx.Metadata) *filectx.FileContext {
	return filectx.New("f.go", meta, func() (string, error) { return "", nil })
}

func TestSizeComparisonWithUnits(t *testing.T) {
	fn, err := descriptorFor(t, statPredicates(), "size").Compile(">10kb")
	require.NoError(t, err)

	ok, err := fn(fcWithMeta(filectx.Metadata{Size: 20 * 1024}), "go")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fn(fcWithMeta(filectx.Metadata{Size: 5 * 1024}), "go")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSizeDefaultUnitIsBytes(t *testing.T) {
	fn, err := descriptorFor(t, statPredicates(), "size").Compile("=100")
	require.NoError(t, err)

	ok, err := fn(fcWithMeta(filectx.Metadata{Size: 100}), "go")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSizeRejectsUnrecognizedValue(t *testing.T) {
	_, err := descriptorFor(t, statPredicates(), "size").Compile("huge")
	require.Error(t, err)
	var iv *InvalidValueError
	require.ErrorAs(t, err, &iv)
}

func TestModifiedRelativeAge(t *testing.T) {
	fn, err := descriptorFor(t, statPredicates(), "modified").Compile(">7d")
	require.NoError(t, err)

	old := time.Now().Add(-10 * 24 * time.Hour)
	ok, err := fn(fcWithMeta(filectx.Metadata{ModTime: old}), "go")
	require.NoError(t, err)
	assert.True(t, ok)

	recent := time.Now().Add(-1 * time.Hour)
	ok, err = fn(fcWithMeta(filectx.Metadata{ModTime: recent}), "go")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestModifiedExactDateMatchesWholeDay(t *testing.T) {
	fn, err := descriptorFor(t, statPredicates(), "modified").Compile("2024-01-15")
	require.NoError(t, err)

	within := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
	ok, err := fn(fcWithMeta(filectx.Metadata{ModTime: within}), "go")
	require.NoError(t, err)
	assert.True(t, ok)

	outside := time.Date(2024, 1, 16, 0, 0, 1, 0, time.UTC)
	ok, err = fn(fcWithMeta(filectx.Metadata{ModTime: outside}), "go")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestModifiedRejectsGarbage(t *testing.T) {
	_, err := descriptorFor(t, statPredicates(), "modified").Compile("yesterdayish")
	require.Error(t, err)
}
