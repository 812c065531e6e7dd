package nodegraph

import "fmt"

// Evaluation is pull-based and memoized: EvaluateOutput walks the node's
// inputs upward, each connected input pulls its producing output, and every
// computed value lands in the cache keyed by output id. Between two
// cache-invalidating mutations a given output is computed at most once, no
// matter how many paths reach it.

// EvaluateInput resolves the value arriving at an input: the memoized or
// freshly computed value of its producing output when connected, the input's
// own value when not. An unconnected input is never an error.
func (g *Graph) EvaluateInput(id InputID) (Value, error) {
	in, ok := g.inputs.get(id.h)
	if !ok {
		return nil, fmt.Errorf("nodegraph: evaluate input %s: %w", id, ErrInputNotFound)
	}
	out, connected := g.edges.parent(id)
	if !connected {
		return in.Value, nil
	}
	if v, ok := g.cache.get(out); ok {
		return v, nil
	}
	return g.EvaluateOutput(out)
}

// EvaluateOutput computes the output's value: it evaluates the owning node's
// inputs in declaration order, aborting on the first failure, then hands the
// name→value map to the payload's Evaluate hook and memoizes the result.
// A hook failure is returned to the caller unchanged; nothing is retried.
func (g *Graph) EvaluateOutput(id OutputID) (Value, error) {
	if v, ok := g.cache.get(id); ok {
		return v, nil
	}
	out, ok := g.outputs.get(id.h)
	if !ok {
		return nil, fmt.Errorf("nodegraph: evaluate output %s: %w", id, ErrOutputNotFound)
	}
	node, ok := g.nodes.get(out.Node.h)
	if !ok {
		return nil, fmt.Errorf("nodegraph: evaluate output %s: %w", id, ErrNodeNotFound)
	}

	values := make(map[string]Value, len(node.inputs))
	for _, inID := range node.inputs {
		in, ok := g.inputs.get(inID.h)
		if !ok {
			return nil, fmt.Errorf("nodegraph: evaluate output %s: %w", id, ErrInputNotFound)
		}
		v, err := g.EvaluateInput(inID)
		if err != nil {
			return nil, err
		}
		values[in.Name] = v
	}

	v, err := node.Data.Evaluate(g.scene, values, out.Name)
	if err != nil {
		return nil, err
	}
	g.cache.insert(id, v)
	return v, nil
}
