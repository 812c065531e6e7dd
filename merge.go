package nodegraph

// Clone copies the graph's topology: arenas, port lists and edges, with every
// id preserved. The cache starts empty and no scene accumulator is installed.
// Node payloads are shared, not deep-copied — they are opaque to the graph.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes:   g.nodes.clone(),
		inputs:  g.inputs.clone(),
		outputs: g.outputs.clone(),
		edges:   newEdgeTable(),
		cache:   newOutputCache(),
	}
	// Port lists are slices inside the cloned node records; give each clone
	// its own backing arrays.
	for h := range c.nodes.keys() {
		n, _ := c.nodes.get(h)
		n.inputs = append([]InputID(nil), n.inputs...)
		n.outputs = append([]OutputID(nil), n.outputs...)
	}
	for in, out := range g.edges.parents {
		c.edges.connect(out, in)
	}
	return c
}

// NewFromNodes clones the graph and deletes everything outside keep,
// retaining the original ids of the kept nodes and every edge between them.
// The result pairs with Merge: because ids are preserved, merging the
// extracted subgraph back into (a descendant of) the source graph works.
func (g *Graph) NewFromNodes(keep []NodeID) *Graph {
	keepSet := make(map[NodeID]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	c := g.Clone()
	var drop []NodeID
	for id := range c.NodeIDs() {
		if _, ok := keepSet[id]; !ok {
			drop = append(drop, id)
		}
	}
	for _, id := range drop {
		c.RemoveNode(id)
	}
	return c
}

// Merge folds other into g. For every node id currently present in g that
// other also holds a node under, that node — with its inputs, outputs and
// their values — is moved out of other into g under freshly allocated ids;
// once both endpoints of an edge of other have moved, the edge is
// reconstructed in g. The returned map records old → new ids for every moved
// node.
//
// The operation only moves nodes whose ids coincide, so it is meaningful
// exactly when g and other share an identifier namespace — e.g. other was
// produced by NewFromNodes on a clone of g. Merging two independently built
// graphs moves nothing.
func (g *Graph) Merge(other *Graph) map[NodeID]NodeID {
	moved := make(map[NodeID]NodeID)
	movedInputs := make(map[InputID]InputID)
	movedOutputs := make(map[OutputID]OutputID)

	var shared []NodeID
	for id := range g.NodeIDs() {
		if _, ok := other.nodes.get(id.h); ok {
			shared = append(shared, id)
		}
	}

	// Harvest other's incoming edges for the whole moved set before any
	// removal: RemoveNode on an earlier-processed producer severs its
	// edges in other, so reading them lazily would lose producer→consumer
	// edges inside the set.
	feeds := make(map[InputID]OutputID) // keyed by old input id
	for _, oldID := range shared {
		src, _ := other.nodes.get(oldID.h)
		for _, oldIn := range src.inputs {
			if out, ok := other.edges.parent(oldIn); ok {
				feeds[oldIn] = out
			}
		}
	}

	for _, oldID := range shared {
		src, _ := other.nodes.get(oldID.h)
		newID := NodeID{g.nodes.insert(Node{Data: src.Data})}
		dst, _ := g.nodes.get(newID.h)

		for _, oldIn := range src.inputs {
			in, ok := other.inputs.get(oldIn.h)
			if !ok {
				continue
			}
			newIn := InputID{g.inputs.insert(Input{Node: newID, Name: in.Name, Value: in.Value})}
			dst.inputs = append(dst.inputs, newIn)
			movedInputs[oldIn] = newIn
		}
		for _, oldOut := range src.outputs {
			out, ok := other.outputs.get(oldOut.h)
			if !ok {
				continue
			}
			newOut := OutputID{g.outputs.insert(Output{Node: newID, Name: out.Name})}
			dst.outputs = append(dst.outputs, newOut)
			movedOutputs[oldOut] = newOut
		}

		other.RemoveNode(oldID)
		moved[oldID] = newID
	}

	// Rebuild the edges whose both endpoints made the move. This bypasses
	// ConnectOutputToInput: the edges were valid in other and no hooks
	// should fire for a reconstruction.
	for oldIn, oldOut := range feeds {
		newIn, ok := movedInputs[oldIn]
		if !ok {
			continue
		}
		newOut, ok := movedOutputs[oldOut]
		if !ok {
			continue
		}
		g.edges.connect(newOut, newIn)
	}

	return moved
}
