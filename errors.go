package nodegraph

import "errors"

var (
	ErrNodeNotFound   = errors.New("nodegraph: node does not exist")
	ErrInputNotFound  = errors.New("nodegraph: input does not exist")
	ErrOutputNotFound = errors.New("nodegraph: output does not exist")

	// ErrUnknownKind is returned by a Registry asked to decode a node kind
	// nothing was registered for.
	ErrUnknownKind = errors.New("nodegraph: unknown node kind")

	// ErrGraphNotFound is returned by Store implementations when no graph
	// is persisted under the requested id.
	ErrGraphNotFound = errors.New("nodegraph: graph not found")
)
