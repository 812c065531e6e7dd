package nodegraph

// Value is an opaque payload carried by inputs, produced by outputs and held
// in the output cache. The graph never inspects values; it only moves them
// around. Values must be treated as immutable once produced — the cache hands
// the same value back to every consumer.
type Value any

// ValueKind names the kind of value an output produces. It feeds the
// compatibility predicate consulted before an edge is accepted; the graph
// itself attaches no meaning to it.
type ValueKind string

// SceneAccumulator is the one piece of external mutable state threaded
// through evaluation. The graph passes it, untouched, into every
// NodeData.Evaluate call and resets it on ClearCache. A nil accumulator is
// fine for graphs that only compute values.
type SceneAccumulator interface {
	Reset()
}

// NodeData is the behavior a node variant plugs into the graph. The graph
// owns topology, caching and traversal; everything node-specific comes
// through this interface.
type NodeData interface {
	// Kind is the node variant's stable name, used to tag persisted
	// payloads so a Registry can decode them on load.
	Kind() string

	// AddToGraph is called exactly once, right after the node record is
	// inserted. It declares the node's interface by calling AddInput and
	// AddOutput on the graph.
	AddToGraph(g *Graph, id NodeID)

	// Evaluate produces the named output from the already-evaluated inputs,
	// keyed by input name. It must be a pure function of inputs and the
	// accumulator. Returning an error aborts the whole evaluation.
	Evaluate(scene SceneAccumulator, inputs map[string]Value, output string) (Value, error)

	// OutputKind reports the kind of the named output, so a downstream
	// node can be asked whether it accepts it.
	OutputKind(output string) ValueKind

	// OutputCompatibleWithInput reports whether a value of the given kind
	// may be wired into the named input of this node.
	OutputCompatibleWithInput(kind ValueKind, input string) bool
}

// DynamicNodeData is optionally implemented by node variants that reshape
// their own interface in reaction to wiring changes (revealing or hiding
// inputs once something is connected). The graph calls the hooks after the
// edge table has been updated.
type DynamicNodeData interface {
	InputConnected(g *Graph, id InputID)
	InputDisconnected(g *Graph, id InputID)
}
