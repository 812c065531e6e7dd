package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS graphs (
    id       TEXT PRIMARY KEY,
    saved_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS graph_nodes (
    graph_id   TEXT NOT NULL REFERENCES graphs(id) ON DELETE CASCADE,
    slot       BIGINT NOT NULL,
    generation BIGINT NOT NULL,
    kind       TEXT NOT NULL,
    data       JSONB NOT NULL DEFAULT '{}',
    PRIMARY KEY (graph_id, slot)
);

CREATE TABLE IF NOT EXISTS graph_inputs (
    graph_id        TEXT NOT NULL REFERENCES graphs(id) ON DELETE CASCADE,
    slot            BIGINT NOT NULL,
    generation      BIGINT NOT NULL,
    node_slot       BIGINT NOT NULL,
    node_generation BIGINT NOT NULL,
    position        INT NOT NULL,
    name            TEXT NOT NULL,
    value           JSONB,
    PRIMARY KEY (graph_id, slot)
);

CREATE TABLE IF NOT EXISTS graph_outputs (
    graph_id        TEXT NOT NULL REFERENCES graphs(id) ON DELETE CASCADE,
    slot            BIGINT NOT NULL,
    generation      BIGINT NOT NULL,
    node_slot       BIGINT NOT NULL,
    node_generation BIGINT NOT NULL,
    position        INT NOT NULL,
    name            TEXT NOT NULL,
    PRIMARY KEY (graph_id, slot)
);

CREATE TABLE IF NOT EXISTS graph_edges (
    graph_id          TEXT NOT NULL REFERENCES graphs(id) ON DELETE CASCADE,
    input_slot        BIGINT NOT NULL,
    input_generation  BIGINT NOT NULL,
    output_slot       BIGINT NOT NULL,
    output_generation BIGINT NOT NULL,
    PRIMARY KEY (graph_id, input_slot)
);

CREATE INDEX IF NOT EXISTS idx_graph_nodes_graph_id   ON graph_nodes(graph_id);
CREATE INDEX IF NOT EXISTS idx_graph_inputs_graph_id  ON graph_inputs(graph_id);
CREATE INDEX IF NOT EXISTS idx_graph_outputs_graph_id ON graph_outputs(graph_id);
CREATE INDEX IF NOT EXISTS idx_graph_edges_graph_id   ON graph_edges(graph_id);
`

// CreateSchema creates the graph tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the graph tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS graph_edges, graph_inputs, graph_outputs, graph_nodes, graphs CASCADE;`)
	return err
}
