// Package basic provides a small catalogue of float-valued node kinds:
// enough to drive the server and example, and a template for applications
// defining their own NodeData implementations.
package basic

import (
	"encoding/json"
	"fmt"

	"github.com/meikuraledutech/nodegraph"
)

// KindFloat is the value kind every port in this catalogue carries.
const KindFloat = nodegraph.ValueKind("float")

// Register installs decoders for every kind in the package.
func Register(reg *nodegraph.Registry) {
	reg.Register("constant", func(raw json.RawMessage) (nodegraph.NodeData, error) {
		c := &Constant{}
		if err := json.Unmarshal(raw, c); err != nil {
			return nil, err
		}
		return c, nil
	})
	reg.Register("sum", func(raw json.RawMessage) (nodegraph.NodeData, error) {
		s := &Sum{}
		if err := json.Unmarshal(raw, s); err != nil {
			return nil, err
		}
		return s, nil
	})
	reg.Register("scale", func(raw json.RawMessage) (nodegraph.NodeData, error) {
		s := &Scale{}
		if err := json.Unmarshal(raw, s); err != nil {
			return nil, err
		}
		return s, nil
	})
}

// asFloat accepts float64 and json-decoded numbers.
func asFloat(v nodegraph.Value) (float64, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("basic: expected float, got %T", v)
	}
	return f, nil
}

// Constant emits a fixed value on its single output "out".
type Constant struct {
	Value float64 `json:"value"`
}

func (*Constant) Kind() string { return "constant" }

func (*Constant) AddToGraph(g *nodegraph.Graph, id nodegraph.NodeID) {
	g.AddOutput(id, "out")
}

func (c *Constant) Evaluate(_ nodegraph.SceneAccumulator, _ map[string]nodegraph.Value, output string) (nodegraph.Value, error) {
	if output != "out" {
		return nil, nodegraph.ErrOutputNotFound
	}
	return c.Value, nil
}

func (*Constant) OutputKind(string) nodegraph.ValueKind { return KindFloat }

func (*Constant) OutputCompatibleWithInput(nodegraph.ValueKind, string) bool {
	return false // no inputs
}

// Sum adds its two inputs "a" and "b" into output "out".
type Sum struct{}

func (*Sum) Kind() string { return "sum" }

func (*Sum) AddToGraph(g *nodegraph.Graph, id nodegraph.NodeID) {
	g.AddInput(id, "a", 0.0)
	g.AddInput(id, "b", 0.0)
	g.AddOutput(id, "out")
}

func (*Sum) Evaluate(scene nodegraph.SceneAccumulator, inputs map[string]nodegraph.Value, output string) (nodegraph.Value, error) {
	if output != "out" {
		return nil, nodegraph.ErrOutputNotFound
	}
	a, err := asFloat(inputs["a"])
	if err != nil {
		return nil, err
	}
	b, err := asFloat(inputs["b"])
	if err != nil {
		return nil, err
	}
	if log, ok := scene.(*BuildLog); ok {
		log.Steps = append(log.Steps, fmt.Sprintf("sum(%g, %g)", a, b))
	}
	return a + b, nil
}

func (*Sum) OutputKind(string) nodegraph.ValueKind { return KindFloat }

func (*Sum) OutputCompatibleWithInput(kind nodegraph.ValueKind, _ string) bool {
	return kind == KindFloat
}

// Scale multiplies its input "in" by Factor into output "out".
type Scale struct {
	Factor float64 `json:"factor"`
}

func (*Scale) Kind() string { return "scale" }

func (*Scale) AddToGraph(g *nodegraph.Graph, id nodegraph.NodeID) {
	g.AddInput(id, "in", 0.0)
	g.AddOutput(id, "out")
}

func (s *Scale) Evaluate(scene nodegraph.SceneAccumulator, inputs map[string]nodegraph.Value, output string) (nodegraph.Value, error) {
	if output != "out" {
		return nil, nodegraph.ErrOutputNotFound
	}
	in, err := asFloat(inputs["in"])
	if err != nil {
		return nil, err
	}
	if log, ok := scene.(*BuildLog); ok {
		log.Steps = append(log.Steps, fmt.Sprintf("scale(%g, %g)", in, s.Factor))
	}
	return in * s.Factor, nil
}

func (*Scale) OutputKind(string) nodegraph.ValueKind { return KindFloat }

func (*Scale) OutputCompatibleWithInput(kind nodegraph.ValueKind, _ string) bool {
	return kind == KindFloat
}

// BuildLog is a minimal scene accumulator: node kinds in this package append
// a line per computation, so callers can see what a pull actually ran.
type BuildLog struct {
	Steps []string
}

func (l *BuildLog) Reset() { l.Steps = l.Steps[:0] }
