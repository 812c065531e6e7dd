package nodegraph

// NodeID identifies a Node in a Graph. The zero value is never a live id.
type NodeID struct{ h handle }

// InputID identifies an Input in a Graph.
type InputID struct{ h handle }

// OutputID identifies an Output in a Graph.
type OutputID struct{ h handle }

// Ids render as "slot:generation" so they survive JSON bodies, map keys and
// URL path segments unchanged.

func (id NodeID) String() string   { return id.h.String() }
func (id InputID) String() string  { return id.h.String() }
func (id OutputID) String() string { return id.h.String() }

func (id NodeID) MarshalText() ([]byte, error)   { return []byte(id.h.String()), nil }
func (id InputID) MarshalText() ([]byte, error)  { return []byte(id.h.String()), nil }
func (id OutputID) MarshalText() ([]byte, error) { return []byte(id.h.String()), nil }

func (id *NodeID) UnmarshalText(b []byte) error {
	h, err := parseHandle(string(b))
	if err != nil {
		return err
	}
	id.h = h
	return nil
}

func (id *InputID) UnmarshalText(b []byte) error {
	h, err := parseHandle(string(b))
	if err != nil {
		return err
	}
	id.h = h
	return nil
}

func (id *OutputID) UnmarshalText(b []byte) error {
	h, err := parseHandle(string(b))
	if err != nil {
		return err
	}
	id.h = h
	return nil
}
