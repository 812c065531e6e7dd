package nodegraph

import (
	"encoding/json"
	"fmt"
)

// A Snapshot is the serializable shape of a graph: node, input, output and
// edge tables, nothing else. The output cache and the scene accumulator are
// deliberately absent — they are rebuilt empty on restore. Ids persist as
// (slot, generation) pairs so restored graphs resolve the same ids the saved
// graph did.

// IDRecord is a persisted generational index.
type IDRecord struct {
	Slot       uint32 `json:"slot"`
	Generation uint32 `json:"generation"`
}

func (r IDRecord) handle() handle { return handle{slot: r.Slot, generation: r.Generation} }

func recordID(h handle) IDRecord { return IDRecord{Slot: h.slot, Generation: h.generation} }

// NodeRecord carries a node's tagged payload and its port lists in
// declaration order.
type NodeRecord struct {
	ID      IDRecord        `json:"id"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
	Inputs  []IDRecord      `json:"inputs"`
	Outputs []IDRecord      `json:"outputs"`
}

type InputRecord struct {
	ID    IDRecord        `json:"id"`
	Node  IDRecord        `json:"node"`
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type OutputRecord struct {
	ID   IDRecord `json:"id"`
	Node IDRecord `json:"node"`
	Name string   `json:"name"`
}

type EdgeRecord struct {
	Output IDRecord `json:"output"`
	Input  IDRecord `json:"input"`
}

type Snapshot struct {
	Nodes   []NodeRecord   `json:"nodes"`
	Inputs  []InputRecord  `json:"inputs"`
	Outputs []OutputRecord `json:"outputs"`
	Edges   []EdgeRecord   `json:"edges"`
}

// Snapshot serializes the graph's topology. Node payloads go through
// json.Marshal and are tagged with their Kind; input values likewise round-
// trip as JSON, so node kinds should hold JSON-representable values.
func (g *Graph) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{}

	for h := range g.nodes.keys() {
		n, _ := g.nodes.get(h)
		data, err := json.Marshal(n.Data)
		if err != nil {
			return nil, fmt.Errorf("nodegraph: snapshot node %s: %w", h, err)
		}
		rec := NodeRecord{ID: recordID(h), Kind: n.Data.Kind(), Data: data}
		for _, in := range n.inputs {
			rec.Inputs = append(rec.Inputs, recordID(in.h))
		}
		for _, out := range n.outputs {
			rec.Outputs = append(rec.Outputs, recordID(out.h))
		}
		snap.Nodes = append(snap.Nodes, rec)
	}

	for h := range g.inputs.keys() {
		in, _ := g.inputs.get(h)
		value, err := json.Marshal(in.Value)
		if err != nil {
			return nil, fmt.Errorf("nodegraph: snapshot input %s: %w", h, err)
		}
		snap.Inputs = append(snap.Inputs, InputRecord{
			ID:    recordID(h),
			Node:  recordID(in.Node.h),
			Name:  in.Name,
			Value: value,
		})
	}

	for h := range g.outputs.keys() {
		out, _ := g.outputs.get(h)
		snap.Outputs = append(snap.Outputs, OutputRecord{
			ID:   recordID(h),
			Node: recordID(out.Node.h),
			Name: out.Name,
		})
	}

	for in, out := range g.edges.parents {
		snap.Edges = append(snap.Edges, EdgeRecord{
			Output: recordID(out.h),
			Input:  recordID(in.h),
		})
	}

	return snap, nil
}

// Restore rebuilds a graph from a snapshot, decoding node payloads through
// the registry. Ids come back at their recorded slots and generations; the
// cache starts empty.
func Restore(snap *Snapshot, reg *Registry) (*Graph, error) {
	g := New()

	for _, rec := range snap.Inputs {
		var value Value
		if len(rec.Value) > 0 {
			if err := json.Unmarshal(rec.Value, &value); err != nil {
				return nil, fmt.Errorf("nodegraph: restore input %s:%d: %w", rec.Name, rec.ID.Slot, err)
			}
		}
		g.inputs.insertAt(rec.ID.handle(), Input{
			Node:  NodeID{rec.Node.handle()},
			Name:  rec.Name,
			Value: value,
		})
	}

	for _, rec := range snap.Outputs {
		g.outputs.insertAt(rec.ID.handle(), Output{
			Node: NodeID{rec.Node.handle()},
			Name: rec.Name,
		})
	}

	for _, rec := range snap.Nodes {
		data, err := reg.Decode(rec.Kind, rec.Data)
		if err != nil {
			return nil, err
		}
		node := Node{Data: data}
		for _, in := range rec.Inputs {
			node.inputs = append(node.inputs, InputID{in.handle()})
		}
		for _, out := range rec.Outputs {
			node.outputs = append(node.outputs, OutputID{out.handle()})
		}
		g.nodes.insertAt(rec.ID.handle(), node)
	}

	g.nodes.rebuildFree()
	g.inputs.rebuildFree()
	g.outputs.rebuildFree()

	for _, rec := range snap.Edges {
		g.edges.connect(OutputID{rec.Output.handle()}, InputID{rec.Input.handle()})
	}

	return g, nil
}
