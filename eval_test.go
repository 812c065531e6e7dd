package nodegraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateUnconnectedInput(t *testing.T) {
	g := New()
	q := g.AddNode(passthrough(7.0))
	in := firstInput(t, g, q)

	v, err := g.EvaluateInput(in)
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)

	_, err = g.EvaluateInput(InputID{})
	assert.ErrorIs(t, err, ErrInputNotFound)
}

func TestEvaluatePullsThroughChain(t *testing.T) {
	g := New()
	p := g.AddNode(source(3.0))
	double := g.AddNode(&stubNode{
		inputs:   []string{"in"},
		defaults: map[string]Value{"in": 0.0},
		outputs:  []string{"out"},
		eval: func(inputs map[string]Value, _ string) (Value, error) {
			return inputs["in"].(float64) * 2, nil
		},
	})
	require.True(t, g.ConnectNodeToInput(p, firstInput(t, g, double)))

	v, err := g.EvaluateOutput(firstOutput(t, g, double))
	require.NoError(t, err)
	assert.Equal(t, 6.0, v)
}

func TestMemoizationComputesAtMostOnce(t *testing.T) {
	g := New()
	src := source(1.0)
	p := g.AddNode(src)
	pOut := firstOutput(t, g, p)

	// A diamond: both of q's inputs pull p's single output.
	q := g.AddNode(&stubNode{
		inputs:   []string{"a", "b"},
		defaults: map[string]Value{"a": 0.0, "b": 0.0},
		outputs:  []string{"out"},
		eval: func(inputs map[string]Value, _ string) (Value, error) {
			return inputs["a"].(float64) + inputs["b"].(float64), nil
		},
	})
	n, _ := g.Node(q)
	require.True(t, g.ConnectOutputToInput(pOut, n.Inputs()[0]))
	require.True(t, g.ConnectOutputToInput(pOut, n.Inputs()[1]))

	qOut := firstOutput(t, g, q)
	v, err := g.EvaluateOutput(qOut)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
	assert.Equal(t, 1, src.evalCalls, "diamond must not recompute the shared ancestor")

	// Repeated pulls inside the same cache epoch never hit the hooks.
	qStub, _ := g.Node(q)
	before := qStub.Data.(*stubNode).evalCalls
	for range 5 {
		v, err = g.EvaluateOutput(qOut)
		require.NoError(t, err)
		assert.Equal(t, 2.0, v)
	}
	assert.Equal(t, 1, src.evalCalls)
	assert.Equal(t, before, qStub.Data.(*stubNode).evalCalls)
}

func TestEvaluationFailFast(t *testing.T) {
	g := New()
	boom := errors.New("bad parameter")
	failing := g.AddNode(&stubNode{
		outputs: []string{"out"},
		eval: func(map[string]Value, string) (Value, error) {
			return nil, boom
		},
	})
	downstream := g.AddNode(&stubNode{
		inputs:   []string{"a", "b"},
		defaults: map[string]Value{"a": 0.0, "b": 0.0},
		outputs:  []string{"out"},
		eval: func(inputs map[string]Value, _ string) (Value, error) {
			return inputs["a"], nil
		},
	})
	n, _ := g.Node(downstream)
	require.True(t, g.ConnectNodeToInput(failing, n.Inputs()[0]))

	// The first failing input aborts the whole evaluation, unchanged.
	_, err := g.EvaluateOutput(firstOutput(t, g, downstream))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, n.Data.(*stubNode).evalCalls, "downstream hook must not run")
	_, cached := g.CachedOutput(firstOutput(t, g, downstream))
	assert.False(t, cached, "failed evaluations are not memoized")
}

func TestSetInputValueInvalidatesDownstream(t *testing.T) {
	g := New()
	p := g.AddNode(passthrough(1.0))
	q := g.AddNode(passthrough(nil))
	require.True(t, g.ConnectNodeToInput(p, firstInput(t, g, q)))

	qOut := firstOutput(t, g, q)
	v, err := g.EvaluateOutput(qOut)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	require.NoError(t, g.SetInputValue(firstInput(t, g, p), 9.0))
	v, err = g.EvaluateOutput(qOut)
	require.NoError(t, err)
	assert.Equal(t, 9.0, v, "edit must reach downstream through eviction")

	assert.ErrorIs(t, g.SetInputValue(InputID{}, 0.0), ErrInputNotFound)
}

// Growing a node's interface is as much a structural change as shrinking it:
// a memoized value must not survive an AddInput/InsertInput/AddOutput on the
// owner or anything upstream of it.
func TestGrowingInterfaceInvalidatesCache(t *testing.T) {
	arity := &stubNode{
		outputs: []string{"out"},
		eval: func(inputs map[string]Value, _ string) (Value, error) {
			return float64(len(inputs)), nil
		},
	}

	g := New()
	p := g.AddNode(arity)
	q := g.AddNode(passthrough(nil))
	require.True(t, g.ConnectNodeToInput(p, firstInput(t, g, q)))

	pOut := firstOutput(t, g, p)
	qOut := firstOutput(t, g, q)

	v, err := g.EvaluateOutput(qOut)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
	assert.Equal(t, 2, g.CachedOutputCount())

	_, err = g.AddInput(p, "a", 1.0)
	require.NoError(t, err)
	assert.Equal(t, 0, g.CachedOutputCount(), "the owner's cone is evicted")

	v, err = g.EvaluateOutput(qOut)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v, "the re-pull sees the new input")

	_, err = g.InsertInput(p, "b", 1.0, 0)
	require.NoError(t, err)
	_, ok := g.CachedOutput(qOut)
	assert.False(t, ok)
	v, err = g.EvaluateOutput(qOut)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	_, err = g.AddOutput(p, "extra")
	require.NoError(t, err)
	_, ok = g.CachedOutput(pOut)
	assert.False(t, ok)
	_, ok = g.CachedOutput(qOut)
	assert.False(t, ok)
}

func TestCacheCoherenceAfterRemoveNode(t *testing.T) {
	g := New()
	p := g.AddNode(source(1.0))
	mid := g.AddNode(passthrough(nil))
	leaf := g.AddNode(passthrough(nil))
	require.True(t, g.ConnectNodeToInput(p, firstInput(t, g, mid)))
	require.True(t, g.ConnectNodeToInput(mid, firstInput(t, g, leaf)))

	pOut := firstOutput(t, g, p)
	midOut := firstOutput(t, g, mid)
	leafOut := firstOutput(t, g, leaf)

	_, err := g.EvaluateOutput(leafOut)
	require.NoError(t, err)
	for _, out := range []OutputID{pOut, midOut, leafOut} {
		_, ok := g.CachedOutput(out)
		require.True(t, ok)
	}

	_, _, err = g.RemoveNode(p)
	require.NoError(t, err)

	// p's own entry and its whole pre-removal descendant cone are gone.
	_, ok := g.CachedOutput(pOut)
	assert.False(t, ok)
	_, ok = g.CachedOutput(midOut)
	assert.False(t, ok)
	_, ok = g.CachedOutput(leafOut)
	assert.False(t, ok)
}

func TestClearCacheResetsScene(t *testing.T) {
	g := New()
	scene := &recordingScene{}
	g.SetScene(scene)

	p := g.AddNode(source(1.0))
	out := firstOutput(t, g, p)
	_, err := g.EvaluateOutput(out)
	require.NoError(t, err)
	_, ok := g.CachedOutput(out)
	require.True(t, ok)

	g.ClearCache()
	_, ok = g.CachedOutput(out)
	assert.False(t, ok)
	assert.Equal(t, 1, scene.resets)

	// Topology survives a cache clear.
	_, ok = g.Node(p)
	assert.True(t, ok)
}

type recordingScene struct{ resets int }

func (s *recordingScene) Reset() { s.resets++ }

// TestProducerConsumerScenario is the end-to-end check: P feeds Q, Q's value
// tracks P's input, and closing the loop back into P is rejected.
func TestProducerConsumerScenario(t *testing.T) {
	g := New()
	p := g.AddNode(passthrough(2.0))
	q := g.AddNode(&stubNode{
		inputs:   []string{"in"},
		defaults: map[string]Value{"in": 0.0},
		outputs:  []string{"out"},
		eval: func(inputs map[string]Value, _ string) (Value, error) {
			return inputs["in"].(float64) + 100, nil
		},
	})

	pOut := firstOutput(t, g, p)
	qIn := firstInput(t, g, q)
	qOut := firstOutput(t, g, q)
	pIn := firstInput(t, g, p)

	require.True(t, g.ConnectOutputToInput(pOut, qIn))

	v, err := g.EvaluateOutput(qOut)
	require.NoError(t, err)
	assert.Equal(t, 102.0, v)

	require.NoError(t, g.SetInputValue(pIn, 40.0))
	v, err = g.EvaluateOutput(qOut)
	require.NoError(t, err)
	assert.Equal(t, 140.0, v)

	// Wiring Q's output back into P would close a cycle.
	assert.False(t, g.ConnectOutputToInput(qOut, pIn))
	_, connected := g.InputParent(pIn)
	assert.False(t, connected)
}
