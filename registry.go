package nodegraph

import (
	"encoding/json"
	"fmt"
)

// DecodeFunc rebuilds a node payload from its persisted parameters.
type DecodeFunc func(raw json.RawMessage) (NodeData, error)

// Registry maps node kind names to payload decoders. Snapshots tag each
// persisted payload with NodeData.Kind(); restoring a graph looks the tag up
// here. The surrounding application registers its node catalogue at startup.
type Registry struct {
	decoders map[string]DecodeFunc
}

func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]DecodeFunc)}
}

// Register installs the decoder for a kind, replacing any previous one.
func (r *Registry) Register(kind string, decode DecodeFunc) {
	r.decoders[kind] = decode
}

// Decode rebuilds the payload for a kind. An unregistered kind reports
// ErrUnknownKind.
func (r *Registry) Decode(kind string, raw json.RawMessage) (NodeData, error) {
	decode, ok := r.decoders[kind]
	if !ok {
		return nil, fmt.Errorf("nodegraph: decode %q: %w", kind, ErrUnknownKind)
	}
	return decode(raw)
}

// Kinds returns the registered kind names, in no particular order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.decoders))
	for k := range r.decoders {
		kinds = append(kinds, k)
	}
	return kinds
}
