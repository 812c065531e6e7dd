package nodegraph

import "context"

// Store defines the contract for persisting and retrieving graph snapshots.
// Only topology is persisted — see Snapshot. Implementations live in their
// own packages (postgres is provided).
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Graphs
	// SaveGraph persists the snapshot under graphID with replace semantics,
	// auto-generating an id when graphID is empty. It returns the id used.
	SaveGraph(ctx context.Context, graphID string, snap *Snapshot) (string, error)
	// LoadGraph returns the snapshot saved under graphID, or
	// ErrGraphNotFound.
	LoadGraph(ctx context.Context, graphID string) (*Snapshot, error)
	DeleteGraph(ctx context.Context, graphID string) error
	ListGraphs(ctx context.Context) ([]string, error)
}
