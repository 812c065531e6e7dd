package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/meikuraledutech/nodegraph"
)

// SaveGraph persists a snapshot in one transaction with replace semantics:
// whatever was previously saved under graphID is deleted first. An empty
// graphID gets an auto-generated UUID. Returns the id used.
func (s *PGStore) SaveGraph(ctx context.Context, graphID string, snap *nodegraph.Snapshot) (string, error) {
	if graphID == "" {
		graphID = uuid.NewString()
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("nodegraph: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO graphs (id) VALUES ($1)
		 ON CONFLICT (id) DO UPDATE SET saved_at = NOW()`, graphID); err != nil {
		return "", fmt.Errorf("nodegraph: upsert graph: %w", err)
	}

	// Replace semantics: clear previous rows, cascade keeps nothing behind.
	for _, table := range []string{"graph_edges", "graph_inputs", "graph_outputs", "graph_nodes"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE graph_id = $1`, graphID); err != nil {
			return "", fmt.Errorf("nodegraph: clear %s: %w", table, err)
		}
	}

	for _, n := range snap.Nodes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO graph_nodes (graph_id, slot, generation, kind, data) VALUES ($1, $2, $3, $4, $5)`,
			graphID, n.ID.Slot, n.ID.Generation, n.Kind, n.Data,
		); err != nil {
			return "", fmt.Errorf("nodegraph: insert node %d: %w", n.ID.Slot, err)
		}
	}

	// Port rows carry their position within the owning node's declaration
	// order, so loading can rebuild the ordered lists.
	inputPos := portPositions(snap.Nodes, func(n nodegraph.NodeRecord) []nodegraph.IDRecord { return n.Inputs })
	outputPos := portPositions(snap.Nodes, func(n nodegraph.NodeRecord) []nodegraph.IDRecord { return n.Outputs })

	for _, in := range snap.Inputs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO graph_inputs (graph_id, slot, generation, node_slot, node_generation, position, name, value)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			graphID, in.ID.Slot, in.ID.Generation, in.Node.Slot, in.Node.Generation,
			inputPos[in.ID], in.Name, in.Value,
		); err != nil {
			return "", fmt.Errorf("nodegraph: insert input %q: %w", in.Name, err)
		}
	}

	for _, out := range snap.Outputs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO graph_outputs (graph_id, slot, generation, node_slot, node_generation, position, name)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			graphID, out.ID.Slot, out.ID.Generation, out.Node.Slot, out.Node.Generation,
			outputPos[out.ID], out.Name,
		); err != nil {
			return "", fmt.Errorf("nodegraph: insert output %q: %w", out.Name, err)
		}
	}

	for _, e := range snap.Edges {
		if _, err := tx.Exec(ctx,
			`INSERT INTO graph_edges (graph_id, input_slot, input_generation, output_slot, output_generation)
			 VALUES ($1, $2, $3, $4, $5)`,
			graphID, e.Input.Slot, e.Input.Generation, e.Output.Slot, e.Output.Generation,
		); err != nil {
			return "", fmt.Errorf("nodegraph: insert edge %d->%d: %w", e.Output.Slot, e.Input.Slot, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("nodegraph: commit: %w", err)
	}

	return graphID, nil
}

// LoadGraph retrieves the snapshot saved under graphID.
// Returns nodegraph.ErrGraphNotFound if nothing is saved under it.
func (s *PGStore) LoadGraph(ctx context.Context, graphID string) (*nodegraph.Snapshot, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM graphs WHERE id = $1)`, graphID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("nodegraph: check graph: %w", err)
	}
	if !exists {
		return nil, nodegraph.ErrGraphNotFound
	}

	snap := &nodegraph.Snapshot{}

	inputs, inputsByNode, err := s.loadInputs(ctx, graphID)
	if err != nil {
		return nil, err
	}
	snap.Inputs = inputs

	outputs, outputsByNode, err := s.loadOutputs(ctx, graphID)
	if err != nil {
		return nil, err
	}
	snap.Outputs = outputs

	rows, err := s.db.Query(ctx,
		`SELECT slot, generation, kind, data FROM graph_nodes WHERE graph_id = $1 ORDER BY slot`, graphID)
	if err != nil {
		return nil, fmt.Errorf("nodegraph: query nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n nodegraph.NodeRecord
		var data json.RawMessage
		if err := rows.Scan(&n.ID.Slot, &n.ID.Generation, &n.Kind, &data); err != nil {
			return nil, fmt.Errorf("nodegraph: scan node: %w", err)
		}
		n.Data = data
		n.Inputs = inputsByNode[n.ID.Slot]
		n.Outputs = outputsByNode[n.ID.Slot]
		snap.Nodes = append(snap.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nodegraph: rows nodes: %w", err)
	}

	rows, err = s.db.Query(ctx,
		`SELECT input_slot, input_generation, output_slot, output_generation
		 FROM graph_edges WHERE graph_id = $1 ORDER BY input_slot`, graphID)
	if err != nil {
		return nil, fmt.Errorf("nodegraph: query edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e nodegraph.EdgeRecord
		if err := rows.Scan(&e.Input.Slot, &e.Input.Generation, &e.Output.Slot, &e.Output.Generation); err != nil {
			return nil, fmt.Errorf("nodegraph: scan edge: %w", err)
		}
		snap.Edges = append(snap.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nodegraph: rows edges: %w", err)
	}

	return snap, nil
}

// DeleteGraph removes a saved graph and all of its rows.
// No error if the graphID doesn't exist.
func (s *PGStore) DeleteGraph(ctx context.Context, graphID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM graphs WHERE id = $1`, graphID)
	if err != nil {
		return fmt.Errorf("nodegraph: delete graph: %w", err)
	}
	return nil
}

// ListGraphs returns the ids of all saved graphs, most recently saved first.
// Returns an empty slice (not nil) if none exist.
func (s *PGStore) ListGraphs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM graphs ORDER BY saved_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("nodegraph: list graphs: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("nodegraph: scan graph id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nodegraph: rows graphs: %w", err)
	}

	return ids, nil
}

func (s *PGStore) loadInputs(ctx context.Context, graphID string) ([]nodegraph.InputRecord, map[uint32][]nodegraph.IDRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT slot, generation, node_slot, node_generation, position, name, value
		 FROM graph_inputs WHERE graph_id = $1 ORDER BY node_slot, position`, graphID)
	if err != nil {
		return nil, nil, fmt.Errorf("nodegraph: query inputs: %w", err)
	}
	defer rows.Close()

	var inputs []nodegraph.InputRecord
	byNode := make(map[uint32][]nodegraph.IDRecord)
	for rows.Next() {
		var in nodegraph.InputRecord
		var pos int
		var value json.RawMessage
		if err := rows.Scan(&in.ID.Slot, &in.ID.Generation, &in.Node.Slot, &in.Node.Generation, &pos, &in.Name, &value); err != nil {
			return nil, nil, fmt.Errorf("nodegraph: scan input: %w", err)
		}
		in.Value = value
		inputs = append(inputs, in)
		byNode[in.Node.Slot] = append(byNode[in.Node.Slot], in.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("nodegraph: rows inputs: %w", err)
	}
	return inputs, byNode, nil
}

func (s *PGStore) loadOutputs(ctx context.Context, graphID string) ([]nodegraph.OutputRecord, map[uint32][]nodegraph.IDRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT slot, generation, node_slot, node_generation, position, name
		 FROM graph_outputs WHERE graph_id = $1 ORDER BY node_slot, position`, graphID)
	if err != nil {
		return nil, nil, fmt.Errorf("nodegraph: query outputs: %w", err)
	}
	defer rows.Close()

	var outputs []nodegraph.OutputRecord
	byNode := make(map[uint32][]nodegraph.IDRecord)
	for rows.Next() {
		var out nodegraph.OutputRecord
		var pos int
		if err := rows.Scan(&out.ID.Slot, &out.ID.Generation, &out.Node.Slot, &out.Node.Generation, &pos, &out.Name); err != nil {
			return nil, nil, fmt.Errorf("nodegraph: scan output: %w", err)
		}
		outputs = append(outputs, out)
		byNode[out.Node.Slot] = append(byNode[out.Node.Slot], out.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("nodegraph: rows outputs: %w", err)
	}
	return outputs, byNode, nil
}

func portPositions(nodes []nodegraph.NodeRecord, ports func(nodegraph.NodeRecord) []nodegraph.IDRecord) map[nodegraph.IDRecord]int {
	pos := make(map[nodegraph.IDRecord]int)
	for _, n := range nodes {
		for i, id := range ports(n) {
			pos[id] = i
		}
	}
	return pos
}
