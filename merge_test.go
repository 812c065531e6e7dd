package nodegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClonePreservesIDsAndEdges(t *testing.T) {
	g := New()
	ids := chain(t, g, 3)

	c := g.Clone()
	assert.Equal(t, g.NodeCount(), c.NodeCount())
	for _, id := range ids {
		_, ok := c.Node(id)
		assert.True(t, ok, "ids survive the clone")
	}
	in := firstInput(t, c, ids[1])
	out, connected := c.InputParent(in)
	require.True(t, connected)
	assert.Equal(t, firstOutput(t, c, ids[0]), out)

	// Clones diverge independently.
	_, _, err := c.RemoveNode(ids[0])
	require.NoError(t, err)
	_, ok := g.Node(ids[0])
	assert.True(t, ok)
}

func TestNewFromNodes(t *testing.T) {
	g := New()
	ids := chain(t, g, 4)

	sub := g.NewFromNodes([]NodeID{ids[1], ids[2]})
	assert.Equal(t, 2, sub.NodeCount())

	_, ok := sub.Node(ids[0])
	assert.False(t, ok)
	_, ok = sub.Node(ids[3])
	assert.False(t, ok)
	_, ok = sub.Node(ids[1])
	assert.True(t, ok)

	// The edge internal to the kept set survives; boundary edges are gone.
	in1 := firstInput(t, sub, ids[1])
	_, connected := sub.InputParent(in1)
	assert.False(t, connected, "edge to the dropped node is severed")

	in2 := firstInput(t, sub, ids[2])
	out, connected := sub.InputParent(in2)
	require.True(t, connected)
	assert.Equal(t, firstOutput(t, sub, ids[1]), out)

	// The source graph is untouched.
	assert.Equal(t, 4, g.NodeCount())
}

// TestMergeRoundTrip follows the split-and-fold use the operation exists for:
// extract the kept set S twice from the same graph (ids preserved both
// times), then fold one extraction into the other. Every member of S moves
// and every edge internal to S is reconstructed under the fresh ids.
func TestMergeRoundTrip(t *testing.T) {
	g := New()
	ids := chain(t, g, 4)
	kept := []NodeID{ids[1], ids[2]}

	a := g.NewFromNodes(kept)
	b := g.NewFromNodes(kept)

	moved := b.Merge(a)

	require.Len(t, moved, len(kept))
	for _, oldID := range kept {
		newID, ok := moved[oldID]
		require.True(t, ok, "every kept node yields a new id")
		_, live := b.Node(newID)
		assert.True(t, live)
		assert.NotEqual(t, oldID, newID)
	}

	// The edge ids[1] -> ids[2] internal to S was reconstructed between the
	// moved copies.
	in := firstInput(t, b, moved[ids[2]])
	out, connected := b.InputParent(in)
	require.True(t, connected)
	assert.Equal(t, firstOutput(t, b, moved[ids[1]]), out)

	// a gave its nodes up; b holds both its own copy of S and the moved one.
	assert.Equal(t, 0, a.NodeCount())
	assert.Equal(t, 2*len(kept), b.NodeCount())
}

// Edges inside the moved set must be rebuilt no matter which endpoint the
// fold reaches first: removing an already-moved producer severs its edges in
// the source graph before the consumer's inputs are visited.
func TestMergeRebuildsEdgesRegardlessOfOrder(t *testing.T) {
	t.Run("producer moved first", func(t *testing.T) {
		g := New()
		ids := chain(t, g, 3)
		a := g.NewFromNodes(ids)
		b := g.NewFromNodes(ids)

		moved := b.Merge(a)
		require.Len(t, moved, 3)
		for i := 1; i < 3; i++ {
			in := firstInput(t, b, moved[ids[i]])
			out, connected := b.InputParent(in)
			require.True(t, connected, "edge %d -> %d must be rebuilt", i-1, i)
			assert.Equal(t, firstOutput(t, b, moved[ids[i-1]]), out)
		}
	})

	t.Run("consumer moved first", func(t *testing.T) {
		g := New()
		consumer := g.AddNode(passthrough(nil))
		producer := g.AddNode(source(1.0))
		require.True(t, g.ConnectNodeToInput(producer, firstInput(t, g, consumer)))

		set := []NodeID{consumer, producer}
		a := g.NewFromNodes(set)
		b := g.NewFromNodes(set)

		moved := b.Merge(a)
		require.Len(t, moved, 2)
		in := firstInput(t, b, moved[consumer])
		out, connected := b.InputParent(in)
		require.True(t, connected)
		assert.Equal(t, firstOutput(t, b, moved[producer]), out)
	})
}

// Merging graphs that never shared an identifier namespace moves nothing —
// a documented constraint of the operation, not a bug.
func TestMergeDisjointGraphsMovesNothing(t *testing.T) {
	g := New()
	chain(t, g, 2)

	other := New()
	pad := make([]NodeID, 0, 4)
	for range 4 {
		pad = append(pad, other.AddNode(source(0.0)))
	}
	// Bump the generations of other's low slots so no id coincides with g's.
	for _, id := range pad[:2] {
		_, _, err := other.RemoveNode(id)
		require.NoError(t, err)
	}

	moved := g.Merge(other)
	assert.Empty(t, moved)
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 2, other.NodeCount())
}

func TestMergeCarriesInputValues(t *testing.T) {
	g := New()
	p := g.AddNode(passthrough(5.0))

	sub := g.NewFromNodes([]NodeID{p})
	require.NoError(t, sub.SetInputValue(firstInput(t, sub, p), 11.0))

	moved := g.Merge(sub)
	newID, ok := moved[p]
	require.True(t, ok)

	in, okIn := g.Input(firstInput(t, g, newID))
	require.True(t, okIn)
	assert.Equal(t, 11.0, in.Value, "moved inputs keep their values")

	// The original node is still present next to the moved copy.
	_, stillThere := g.Node(p)
	assert.True(t, stillThere)
	assert.Equal(t, 2, g.NodeCount())
}
