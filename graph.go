// Package nodegraph is a mutable, typed dataflow graph: nodes expose named
// inputs and outputs, edges carry values from one output to at most one
// input, and evaluation is pull-based, memoized and cycle-free. Node behavior
// plugs in through the NodeData interface; the graph owns topology, the
// output cache and traversal.
package nodegraph

import "iter"

// Node is a unit of computation: an opaque tagged payload plus its declared
// ports, in declaration order.
type Node struct {
	Data    NodeData
	inputs  []InputID
	outputs []OutputID
}

// Inputs returns the node's input ids in declaration order. The slice is the
// node's own; callers must not modify it.
func (n *Node) Inputs() []InputID { return n.inputs }

// Outputs returns the node's output ids in declaration order. The slice is
// the node's own; callers must not modify it.
func (n *Node) Outputs() []OutputID { return n.outputs }

// Input is a named port holding the value used when nothing is wired in.
type Input struct {
	Node  NodeID
	Name  string
	Value Value
}

// Output is a named producing port.
type Output struct {
	Node NodeID
	Name string
}

// Graph owns the node, input and output arenas, the edge table, the output
// cache and the scene accumulator. It is a single-writer structure: callers
// must not mutate or evaluate it from more than one goroutine at a time.
type Graph struct {
	nodes   arena[Node]
	inputs  arena[Input]
	outputs arena[Output]
	edges   edgeTable
	cache   outputCache
	scene   SceneAccumulator
}

// New returns an empty graph with no scene accumulator.
func New() *Graph {
	return &Graph{
		edges: newEdgeTable(),
		cache: newOutputCache(),
	}
}

// SetScene installs the accumulator threaded into every Evaluate call.
func (g *Graph) SetScene(scene SceneAccumulator) { g.scene = scene }

// Scene returns the installed accumulator, which may be nil.
func (g *Graph) Scene() SceneAccumulator { return g.scene }

// Node resolves a node id. A stale or removed id reports false.
func (g *Graph) Node(id NodeID) (*Node, bool) { return g.nodes.get(id.h) }

// Input resolves an input id.
func (g *Graph) Input(id InputID) (*Input, bool) { return g.inputs.get(id.h) }

// Output resolves an output id.
func (g *Graph) Output(id OutputID) (*Output, bool) { return g.outputs.get(id.h) }

func (g *Graph) NodeCount() int   { return g.nodes.len() }
func (g *Graph) InputCount() int  { return g.inputs.len() }
func (g *Graph) OutputCount() int { return g.outputs.len() }

// NodeIDs yields every live node id. The sequence is invalidated by any
// mutation; collect it first if you mutate while iterating.
func (g *Graph) NodeIDs() iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for h := range g.nodes.keys() {
			if !yield(NodeID{h}) {
				return
			}
		}
	}
}

// InputParent returns the output currently feeding the input, if any.
func (g *Graph) InputParent(id InputID) (OutputID, bool) { return g.edges.parent(id) }

// OutputChildren returns the inputs currently fed by the output.
func (g *Graph) OutputChildren(id OutputID) []InputID {
	set := g.edges.childrenOf(id)
	if len(set) == 0 {
		return nil
	}
	ins := make([]InputID, 0, len(set))
	for in := range set {
		ins = append(ins, in)
	}
	return ins
}

// AddNode inserts a node with an empty interface, then lets the payload
// declare its ports through AddToGraph.
func (g *Graph) AddNode(data NodeData) NodeID {
	id := NodeID{g.nodes.insert(Node{Data: data})}
	data.AddToGraph(g, id)
	return id
}

// RemoveNode disconnects everything touching the node, removes its ports,
// then the node itself. The returned map records, for every input that lost
// an edge (the node's own or a downstream consumer's), the output it was
// connected to — callers re-link externally from it if they want to.
// The node's whole descendant cone is evicted from the cache first.
func (g *Graph) RemoveNode(id NodeID) (Node, map[InputID]OutputID, error) {
	node, ok := g.nodes.get(id.h)
	if !ok {
		return Node{}, nil, ErrNodeNotFound
	}

	// Eviction must happen while the edges still exist, so the descendant
	// walk can still see the cone.
	g.RemoveNodeFromCache(id)

	severed := g.edges.disconnectInputs(node.inputs)
	for in, out := range g.edges.disconnectOutputs(node.outputs) {
		severed[in] = out
	}
	for _, in := range node.inputs {
		g.inputs.remove(in.h)
	}
	for _, out := range node.outputs {
		g.outputs.remove(out.h)
	}
	removed, _ := g.nodes.remove(id.h)
	return removed, severed, nil
}

// AddInput appends a new input to the node's interface. Growing the
// interface is a structural change like shrinking it, so the owner's cache
// cone is evicted; during AddToGraph this is a no-op since nothing is cached
// or wired yet.
func (g *Graph) AddInput(node NodeID, name string, value Value) (InputID, error) {
	n, ok := g.nodes.get(node.h)
	if !ok {
		return InputID{}, ErrNodeNotFound
	}
	g.RemoveNodeFromCache(node)
	id := InputID{g.inputs.insert(Input{Node: node, Name: name, Value: value})}
	n.inputs = append(n.inputs, id)
	return id, nil
}

// InsertInput adds a new input at the given position in the node's input
// list. The index is clamped to the list bounds.
func (g *Graph) InsertInput(node NodeID, name string, value Value, index int) (InputID, error) {
	n, ok := g.nodes.get(node.h)
	if !ok {
		return InputID{}, ErrNodeNotFound
	}
	if index < 0 {
		index = 0
	}
	if index > len(n.inputs) {
		index = len(n.inputs)
	}
	g.RemoveNodeFromCache(node)
	id := InputID{g.inputs.insert(Input{Node: node, Name: name, Value: value})}
	n.inputs = append(n.inputs, InputID{})
	copy(n.inputs[index+1:], n.inputs[index:])
	n.inputs[index] = id
	return id, nil
}

// RemoveInput detaches the input from its owning node, severs its incoming
// edge and frees the record. The owner's cache cone is evicted: dropping an
// input changes what the owner and everything downstream computes.
func (g *Graph) RemoveInput(id InputID) error {
	in, ok := g.inputs.get(id.h)
	if !ok {
		return ErrInputNotFound
	}
	owner := in.Node
	g.RemoveNodeFromCache(owner)
	g.edges.disconnectInput(id)
	if n, ok := g.nodes.get(owner.h); ok {
		n.inputs = removeID(n.inputs, id)
	}
	g.inputs.remove(id.h)
	return nil
}

// AddOutput appends a new output to the node's interface. Like AddInput it
// evicts the owner's cache cone.
func (g *Graph) AddOutput(node NodeID, name string) (OutputID, error) {
	n, ok := g.nodes.get(node.h)
	if !ok {
		return OutputID{}, ErrNodeNotFound
	}
	g.RemoveNodeFromCache(node)
	id := OutputID{g.outputs.insert(Output{Node: node, Name: name})}
	n.outputs = append(n.outputs, id)
	return id, nil
}

// RemoveOutput severs the output's fan-out, detaches it from its owner and
// frees the record. Eviction runs before the edges go away so the descendant
// walk still covers the consumers.
func (g *Graph) RemoveOutput(id OutputID) error {
	out, ok := g.outputs.get(id.h)
	if !ok {
		return ErrOutputNotFound
	}
	owner := out.Node
	g.RemoveNodeFromCache(owner)
	g.edges.disconnectOutputs([]OutputID{id})
	if n, ok := g.nodes.get(owner.h); ok {
		n.outputs = removeID(n.outputs, id)
	}
	g.outputs.remove(id.h)
	return nil
}

// SetInputValue replaces the input's unconnected value and evicts the owning
// node's cache cone, so the next evaluation sees the new value.
func (g *Graph) SetInputValue(id InputID, v Value) error {
	in, ok := g.inputs.get(id.h)
	if !ok {
		return ErrInputNotFound
	}
	g.RemoveNodeFromCache(in.Node)
	in.Value = v
	return nil
}

// IsValidEdge reports whether out → in may be wired: the ports must resolve,
// belong to different nodes, the consumer must accept the output's kind on
// that input, and the edge must not close a cycle — which it would exactly
// when the input's node is already an ancestor of the output's node.
func (g *Graph) IsValidEdge(out OutputID, in InputID) bool {
	o, ok := g.outputs.get(out.h)
	if !ok {
		return false
	}
	i, ok := g.inputs.get(in.h)
	if !ok {
		return false
	}
	if o.Node == i.Node {
		return false
	}
	producer, ok := g.nodes.get(o.Node.h)
	if !ok {
		return false
	}
	consumer, ok := g.nodes.get(i.Node.h)
	if !ok {
		return false
	}
	if !consumer.Data.OutputCompatibleWithInput(producer.Data.OutputKind(o.Name), i.Name) {
		return false
	}
	return !g.IsAncestor(o.Node, i.Node)
}

// ConnectOutputToInput wires out → in if IsValidEdge accepts the pair,
// replacing whatever previously fed the input. It reports whether the edge
// was recorded; rejection is a plain false, not an error. On success the
// consumer's cache cone is evicted and its InputConnected hook runs.
func (g *Graph) ConnectOutputToInput(out OutputID, in InputID) bool {
	if !g.IsValidEdge(out, in) {
		return false
	}
	g.edges.connect(out, in)
	i, _ := g.inputs.get(in.h)
	g.RemoveNodeFromCache(i.Node)
	if n, ok := g.nodes.get(i.Node.h); ok {
		if dyn, ok := n.Data.(DynamicNodeData); ok {
			dyn.InputConnected(g, in)
		}
	}
	return true
}

// ConnectNodeToInput wires the node's first output to the input.
func (g *Graph) ConnectNodeToInput(node NodeID, in InputID) bool {
	n, ok := g.nodes.get(node.h)
	if !ok || len(n.outputs) == 0 {
		return false
	}
	return g.ConnectOutputToInput(n.outputs[0], in)
}

// DisconnectInput severs the input's incoming edge, evicts the owner's cache
// cone and runs the InputDisconnected hook. It returns the output the input
// was fed by, or false if it was unconnected or the id is stale.
func (g *Graph) DisconnectInput(id InputID) (OutputID, bool) {
	in, ok := g.inputs.get(id.h)
	if !ok {
		return OutputID{}, false
	}
	owner := in.Node
	out, ok := g.edges.disconnectInput(id)
	if !ok {
		return OutputID{}, false
	}
	g.RemoveNodeFromCache(owner)
	if n, ok := g.nodes.get(owner.h); ok {
		if dyn, ok := n.Data.(DynamicNodeData); ok {
			dyn.InputDisconnected(g, id)
		}
	}
	return out, true
}

// DisconnectNodeInput looks the input up by name on the node and severs its
// incoming edge the same way DisconnectInput does.
func (g *Graph) DisconnectNodeInput(node NodeID, inputName string) (OutputID, bool) {
	in, err := g.NamedInput(node, inputName)
	if err != nil {
		return OutputID{}, false
	}
	return g.DisconnectInput(in)
}

// NamedInput finds the node's input carrying the given name.
func (g *Graph) NamedInput(node NodeID, name string) (InputID, error) {
	n, ok := g.nodes.get(node.h)
	if !ok {
		return InputID{}, ErrNodeNotFound
	}
	for _, id := range n.inputs {
		if in, ok := g.inputs.get(id.h); ok && in.Name == name {
			return id, nil
		}
	}
	return InputID{}, ErrInputNotFound
}

// NamedOutput finds the node's output carrying the given name.
func (g *Graph) NamedOutput(node NodeID, name string) (OutputID, error) {
	n, ok := g.nodes.get(node.h)
	if !ok {
		return OutputID{}, ErrNodeNotFound
	}
	for _, id := range n.outputs {
		if out, ok := g.outputs.get(id.h); ok && out.Name == name {
			return id, nil
		}
	}
	return OutputID{}, ErrOutputNotFound
}

// RemoveOutputFromCache evicts the single cache entry for the output.
func (g *Graph) RemoveOutputFromCache(out OutputID) {
	g.cache.remove(out)
}

// RemoveNodeFromCache evicts the node's own outputs and every output of its
// descendant cone. Any structural change to a node can change what every
// downstream node computes, so the whole cone goes rather than attempting
// fine-grained dependency diffing.
func (g *Graph) RemoveNodeFromCache(node NodeID) {
	if n, ok := g.nodes.get(node.h); ok {
		for _, out := range n.outputs {
			g.cache.remove(out)
		}
	}
	for _, out := range g.DescendantOutputIDs(node) {
		g.cache.remove(out)
	}
}

// CachedOutput returns the memoized value for the output, if present.
func (g *Graph) CachedOutput(out OutputID) (Value, bool) { return g.cache.get(out) }

// CachedOutputCount reports how many outputs currently hold a memoized value.
func (g *Graph) CachedOutputCount() int { return g.cache.len() }

// ClearCache empties the output cache and resets the scene accumulator.
// Topology is untouched.
func (g *Graph) ClearCache() {
	g.cache.clear()
	if g.scene != nil {
		g.scene.Reset()
	}
}

// Clear empties the whole graph: cache, scene, arenas and edges.
func (g *Graph) Clear() {
	g.ClearCache()
	g.nodes.clear()
	g.inputs.clear()
	g.outputs.clear()
	g.edges.clear()
}

func removeID[T comparable](ids []T, id T) []T {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
