package evaluate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/rdump/internal/filectx"
	"github.com/standardbeagle/rdump/internal/predicate"
	"github.com/standardbeagle/rdump/internal/rqlast"
)

// recordingNode tracks whether it was evaluated, to prove short-circuit
// boundaries. result/err are returned verbatim from Eval.
type recordingNode struct {
	called bool
	result bool
	err    error
}

func (n *recordingNode) Eval(fc *filectx.FileContext, ext string, warn func(FileWarning)) (bool, error) {
	n.called = true
	return n.result, n.err
}

func TestAndShortCircuitsOnFalseLeft(t *testing.T) {
	left := &recordingNode{result: false}
	right := &recordingNode{result: true}
	n := &andNode{left: left, right: right}

	ok, err := n.Eval(nil, "go", func(FileWarning) {})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, left.called)
	assert.False(t, right.called)
}

func TestAndEvaluatesRightWhenLeftTrue(t *testing.T) {
	left := &recordingNode{result: true}
	right := &recordingNode{result: true}
	n := &andNode{left: left, right: right}

	ok, err := n.Eval(nil, "go", func(FileWarning) {})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, right.called)
}

func TestAndPropagatesLeftError(t *testing.T) {
	boom := errors.New("boom")
	left := &recordingNode{err: boom}
	right := &recordingNode{result: true}
	n := &andNode{left: left, right: right}

	_, err := n.Eval(nil, "go", func(FileWarning) {})
	assert.Equal(t, boom, err)
	assert.False(t, right.called)
}

func TestOrEvaluatesBothSidesEvenWhenLeftAlreadyTrue(t *testing.T) {
	left := &recordingNode{result: true}
	right := &recordingNode{result: false}
	n := &orNode{left: left, right: right}

	ok, err := n.Eval(nil, "go", func(FileWarning) {})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, right.called) // unlike And, Or never skips a side: a
	// true left alone must not suppress matches the right side would add
}

func TestOrPropagatesRightError(t *testing.T) {
	boom := errors.New("boom")
	left := &recordingNode{result: true}
	right := &recordingNode{err: boom}
	n := &orNode{left: left, right: right}

	_, err := n.Eval(nil, "go", func(FileWarning) {})
	assert.Equal(t, boom, err)
}

func TestOrEvaluatesRightWhenLeftFalse(t *testing.T) {
	left := &recordingNode{result: false}
	right := &recordingNode{result: true}
	n := &orNode{left: left, right: right}

	ok, err := n.Eval(nil, "go", func(FileWarning) {})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, right.called)
}

func TestNotInvertsChild(t *testing.T) {
	child := &recordingNode{result: true}
	n := &notNode{child: child}

	ok, err := n.Eval(nil, "go", func(FileWarning) {})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPredNodeIgnoresContentLoadErrorForPathPredicate(t *testing.T) {
	reg := predicate.NewRegistry(stubSemantics{})
	compiled, err := Compile(&rqlast.Predicate{Key: "ext", Value: "go"}, reg)
	require.NoError(t, err)

	var warnings []FileWarning
	fc := filectx.New("/nonexistent/path.go", filectx.Metadata{}, func() (string, error) {
		return "", errors.New("no such file")
	})

	ok, err := compiled.Eval(fc, "go", func(w FileWarning) { warnings = append(warnings, w) })
	require.NoError(t, err)
	assert.True(t, ok) // "ext" never touches Content, so this should match cleanly
	assert.Empty(t, warnings)
}

func TestCompileUnknownPredicateFails(t *testing.T) {
	reg := predicate.NewRegistry(stubSemantics{})
	_, err := Compile(&rqlast.Predicate{Key: "nope", Value: "x"}, reg)
	var unknown *predicate.UnknownPredicateError
	require.ErrorAs(t, err, &unknown)
}

func TestCompileBuildsAndOrNotTree(t *testing.T) {
	reg := predicate.NewRegistry(stubSemantics{})
	ast := &rqlast.And{
		Left:  &rqlast.Predicate{Key: "ext", Value: "go"},
		Right: &rqlast.Not{Child: &rqlast.Predicate{Key: "ext", Value: "py"}},
	}
	compiled, err := Compile(ast, reg)
	require.NoError(t, err)
	require.IsType(t, &andNode{}, compiled)
}

type stubSemantics struct{}

func (stubSemantics) Evaluate(fc *filectx.FileContext, ext, predicateKey, value string) (bool, error) {
	return false, nil
}
