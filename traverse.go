package nodegraph

// Traversal direction convention: a node's parents are the upstream producers
// feeding its inputs; its children are the downstream consumers of its
// outputs. Closures are depth-first over an explicit work list and visit each
// reachable node exactly once.

// Parents returns the nodes currently producing values for the node's inputs,
// one entry per connected input, in input-declaration order.
func (g *Graph) Parents(id NodeID) []NodeID {
	n, ok := g.nodes.get(id.h)
	if !ok {
		return nil
	}
	var parents []NodeID
	for _, in := range n.inputs {
		out, ok := g.edges.parent(in)
		if !ok {
			continue
		}
		if o, ok := g.outputs.get(out.h); ok {
			parents = append(parents, o.Node)
		}
	}
	return parents
}

// Children returns the nodes currently consuming the node's outputs, one
// entry per consuming input.
func (g *Graph) Children(id NodeID) []NodeID {
	n, ok := g.nodes.get(id.h)
	if !ok {
		return nil
	}
	var children []NodeID
	for _, out := range n.outputs {
		for in := range g.edges.childrenOf(out) {
			if i, ok := g.inputs.get(in.h); ok {
				children = append(children, i.Node)
			}
		}
	}
	return children
}

// Ancestors returns every node the given node transitively depends on. The
// node itself is not included.
func (g *Graph) Ancestors(id NodeID) []NodeID {
	return g.closure(id, g.Parents)
}

// Descendants returns every node transitively consuming the given node's
// outputs. The node itself is not included.
func (g *Graph) Descendants(id NodeID) []NodeID {
	return g.closure(id, g.Children)
}

func (g *Graph) closure(id NodeID, step func(NodeID) []NodeID) []NodeID {
	var reached []NodeID
	seen := map[NodeID]struct{}{}
	work := step(id)
	for len(work) > 0 {
		next := work[len(work)-1]
		work = work[:len(work)-1]
		if _, ok := seen[next]; ok {
			continue
		}
		seen[next] = struct{}{}
		reached = append(reached, next)
		work = append(work, step(next)...)
	}
	return reached
}

// IsAncestor reports whether candidate is an ancestor of node. A node is
// never its own ancestor.
func (g *Graph) IsAncestor(node, candidate NodeID) bool {
	return g.reaches(node, candidate, g.Parents)
}

// IsDescendant reports whether candidate is a descendant of node. A node is
// never its own descendant.
func (g *Graph) IsDescendant(node, candidate NodeID) bool {
	return g.reaches(node, candidate, g.Children)
}

func (g *Graph) reaches(from, target NodeID, step func(NodeID) []NodeID) bool {
	seen := map[NodeID]struct{}{}
	work := step(from)
	for len(work) > 0 {
		next := work[len(work)-1]
		work = work[:len(work)-1]
		if next == target {
			return true
		}
		if _, ok := seen[next]; ok {
			continue
		}
		seen[next] = struct{}{}
		work = append(work, step(next)...)
	}
	return false
}

// DescendantOutputIDs returns the outputs owned by every descendant of the
// node. Cache invalidation walks this to discard the downstream cone.
func (g *Graph) DescendantOutputIDs(id NodeID) []OutputID {
	var outs []OutputID
	for _, desc := range g.Descendants(id) {
		if n, ok := g.nodes.get(desc.h); ok {
			outs = append(outs, n.outputs...)
		}
	}
	return outs
}
