package nodegraph

// edgeTable is the bidirectional edge index: each input has at most one
// producing output, each output fans out to any number of inputs. The two
// maps are kept in lockstep; only this file touches them.
type edgeTable struct {
	parents  map[InputID]OutputID
	children map[OutputID]map[InputID]struct{}
}

func newEdgeTable() edgeTable {
	return edgeTable{
		parents:  make(map[InputID]OutputID),
		children: make(map[OutputID]map[InputID]struct{}),
	}
}

// connect records out → in unconditionally, replacing any edge the input
// already had. Validity is the caller's business.
func (t *edgeTable) connect(out OutputID, in InputID) {
	if prev, ok := t.parents[in]; ok {
		t.dropChild(prev, in)
	}
	t.parents[in] = out
	set, ok := t.children[out]
	if !ok {
		set = make(map[InputID]struct{})
		t.children[out] = set
	}
	set[in] = struct{}{}
}

// disconnectInput removes the input's incoming edge and reports the output
// it was connected to, if any.
func (t *edgeTable) disconnectInput(in InputID) (OutputID, bool) {
	out, ok := t.parents[in]
	if !ok {
		return OutputID{}, false
	}
	delete(t.parents, in)
	t.dropChild(out, in)
	return out, true
}

// disconnectInputs severs the incoming edge of every given input, returning
// the severed pairs keyed by input.
func (t *edgeTable) disconnectInputs(ins []InputID) map[InputID]OutputID {
	severed := make(map[InputID]OutputID)
	for _, in := range ins {
		if out, ok := t.disconnectInput(in); ok {
			severed[in] = out
		}
	}
	return severed
}

// disconnectOutputs severs every edge whose source is one of the given
// outputs, returning the severed pairs keyed by the input side.
func (t *edgeTable) disconnectOutputs(outs []OutputID) map[InputID]OutputID {
	severed := make(map[InputID]OutputID)
	for _, out := range outs {
		for in := range t.children[out] {
			delete(t.parents, in)
			severed[in] = out
		}
		delete(t.children, out)
	}
	return severed
}

// parent returns the output currently feeding the input.
func (t *edgeTable) parent(in InputID) (OutputID, bool) {
	out, ok := t.parents[in]
	return out, ok
}

// childrenOf returns the set of inputs fed by the output. The returned map is
// the live set; callers must not modify it and must not hold it across a
// mutation.
func (t *edgeTable) childrenOf(out OutputID) map[InputID]struct{} {
	return t.children[out]
}

func (t *edgeTable) dropChild(out OutputID, in InputID) {
	set, ok := t.children[out]
	if !ok {
		return
	}
	delete(set, in)
	if len(set) == 0 {
		delete(t.children, out)
	}
}

func (t *edgeTable) clear() {
	clear(t.parents)
	clear(t.children)
}
