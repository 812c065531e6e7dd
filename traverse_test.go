package nodegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain wires p1 -> p2 -> ... -> pn through single-port passthroughs and
// returns the ids.
func chain(t *testing.T, g *Graph, n int) []NodeID {
	t.Helper()
	ids := make([]NodeID, n)
	ids[0] = g.AddNode(source(0.0))
	for i := 1; i < n; i++ {
		ids[i] = g.AddNode(passthrough(nil))
		require.True(t, g.ConnectNodeToInput(ids[i-1], firstInput(t, g, ids[i])))
	}
	return ids
}

func TestParentsAndChildren(t *testing.T) {
	g := New()
	p := g.AddNode(source(1.0))
	q1 := g.AddNode(passthrough(nil))
	q2 := g.AddNode(passthrough(nil))
	require.True(t, g.ConnectNodeToInput(p, firstInput(t, g, q1)))
	require.True(t, g.ConnectNodeToInput(p, firstInput(t, g, q2)))

	assert.ElementsMatch(t, []NodeID{q1, q2}, g.Children(p))
	assert.Equal(t, []NodeID{p}, g.Parents(q1))
	assert.Empty(t, g.Parents(p))
	assert.Empty(t, g.Children(q1))
	assert.Empty(t, g.Parents(NodeID{}), "stale id yields nothing")
}

func TestClosures(t *testing.T) {
	g := New()
	ids := chain(t, g, 4)

	// Order is not part of the contract; every reachable node shows up once.
	assert.ElementsMatch(t, ids[:3], g.Ancestors(ids[3]))
	assert.ElementsMatch(t, ids[1:], g.Descendants(ids[0]))
	assert.Empty(t, g.Ancestors(ids[0]))
	assert.Empty(t, g.Descendants(ids[3]))
}

func TestClosuresOnDiamond(t *testing.T) {
	g := New()
	top := g.AddNode(source(1.0))
	left := g.AddNode(passthrough(nil))
	right := g.AddNode(passthrough(nil))
	bottom := g.AddNode(&stubNode{
		inputs:   []string{"a", "b"},
		defaults: map[string]Value{"a": 0.0, "b": 0.0},
		outputs:  []string{"out"},
	})
	require.True(t, g.ConnectNodeToInput(top, firstInput(t, g, left)))
	require.True(t, g.ConnectNodeToInput(top, firstInput(t, g, right)))
	b, _ := g.Node(bottom)
	require.True(t, g.ConnectNodeToInput(left, b.Inputs()[0]))
	require.True(t, g.ConnectNodeToInput(right, b.Inputs()[1]))

	assert.ElementsMatch(t, []NodeID{top, left, right}, g.Ancestors(bottom))
	assert.ElementsMatch(t, []NodeID{left, right, bottom}, g.Descendants(top))
}

func TestIsAncestorIsDescendant(t *testing.T) {
	g := New()
	ids := chain(t, g, 3)

	assert.True(t, g.IsAncestor(ids[2], ids[0]))
	assert.True(t, g.IsDescendant(ids[0], ids[2]))
	assert.False(t, g.IsAncestor(ids[0], ids[2]))
	assert.False(t, g.IsDescendant(ids[2], ids[0]))

	// A node is never its own ancestor or descendant.
	for _, id := range ids {
		assert.False(t, g.IsAncestor(id, id))
		assert.False(t, g.IsDescendant(id, id))
	}
}

// Acyclicity holds under any sequence of accepted connects: no node ever
// becomes its own ancestor.
func TestAcyclicityInvariant(t *testing.T) {
	g := New()
	nodes := make([]NodeID, 6)
	for i := range nodes {
		nodes[i] = g.AddNode(&stubNode{
			inputs:   []string{"a", "b"},
			defaults: map[string]Value{"a": 0.0, "b": 0.0},
			outputs:  []string{"out"},
		})
	}

	// Try every ordered pair on input "a", then again on "b"; whatever is
	// accepted must keep the graph cycle-free.
	for _, inputName := range []string{"a", "b"} {
		for _, from := range nodes {
			for _, to := range nodes {
				out, err := g.NamedOutput(from, "out")
				require.NoError(t, err)
				in, err := g.NamedInput(to, inputName)
				require.NoError(t, err)
				g.ConnectOutputToInput(out, in)
			}
		}
	}

	for _, id := range nodes {
		assert.False(t, g.IsAncestor(id, id))
		assert.False(t, g.IsDescendant(id, id))
	}
}

func TestDescendantOutputIDs(t *testing.T) {
	g := New()
	ids := chain(t, g, 3)

	want := []OutputID{firstOutput(t, g, ids[1]), firstOutput(t, g, ids[2])}
	assert.ElementsMatch(t, want, g.DescendantOutputIDs(ids[0]))
	assert.Empty(t, g.DescendantOutputIDs(ids[2]))
}
