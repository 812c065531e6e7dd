// Command server hosts named in-memory node graphs behind an HTTP API and
// persists their topology through the postgres store.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meikuraledutech/nodegraph"
	"github.com/meikuraledutech/nodegraph/basic"
	"github.com/meikuraledutech/nodegraph/postgres"
)

// documents holds the live graphs. The graph itself is single-writer, so the
// whole map sits behind one mutex: requests mutate and evaluate one at a time.
type documents struct {
	mu     sync.Mutex
	graphs map[string]*nodegraph.Graph
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Error("DATABASE_URL is not set")
		os.Exit(1)
	}
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":3000"
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		logger.Error("connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	var store nodegraph.Store = postgres.New(pool)

	registry := nodegraph.NewRegistry()
	basic.Register(registry)

	docs := &documents{graphs: make(map[string]*nodegraph.Graph)}

	app := fiber.New()

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", func(c fiber.Ctx) error {
		if err := store.CreateSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if err := store.DropSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	// ── Graphs ────────────────────────────────────────────────────────
	app.Post("/graphs", func(c fiber.Ctx) error {
		id := uuid.NewString()
		docs.mu.Lock()
		docs.graphs[id] = nodegraph.New()
		docs.mu.Unlock()
		logger.Info("graph created", "graph", id)
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	app.Get("/graphs", func(c fiber.Ctx) error {
		docs.mu.Lock()
		defer docs.mu.Unlock()
		ids := make([]string, 0, len(docs.graphs))
		for id := range docs.graphs {
			ids = append(ids, id)
		}
		return c.JSON(ids)
	})

	app.Get("/graphs/:id", func(c fiber.Ctx) error {
		docs.mu.Lock()
		defer docs.mu.Unlock()
		g, ok := docs.graphs[c.Params("id")]
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "graph not found"})
		}
		snap, err := g.Snapshot()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(snap)
	})

	app.Delete("/graphs/:id", func(c fiber.Ctx) error {
		docs.mu.Lock()
		delete(docs.graphs, c.Params("id"))
		docs.mu.Unlock()
		return c.SendStatus(204)
	})

	// ── Nodes ─────────────────────────────────────────────────────────
	app.Post("/graphs/:id/nodes", func(c fiber.Ctx) error {
		var body struct {
			Kind string          `json:"kind"`
			Data json.RawMessage `json:"data"`
		}
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		docs.mu.Lock()
		defer docs.mu.Unlock()
		g, ok := docs.graphs[c.Params("id")]
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "graph not found"})
		}
		if len(body.Data) == 0 {
			body.Data = json.RawMessage(`{}`)
		}
		data, err := registry.Decode(body.Kind, body.Data)
		if errors.Is(err, nodegraph.ErrUnknownKind) {
			return c.Status(400).JSON(fiber.Map{"error": "unknown node kind"})
		}
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		nodeID := g.AddNode(data)
		return c.Status(201).JSON(fiber.Map{"id": nodeID})
	})

	app.Delete("/graphs/:id/nodes/:node", func(c fiber.Ctx) error {
		var nodeID nodegraph.NodeID
		if err := nodeID.UnmarshalText([]byte(c.Params("node"))); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "malformed node id"})
		}
		docs.mu.Lock()
		defer docs.mu.Unlock()
		g, ok := docs.graphs[c.Params("id")]
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "graph not found"})
		}
		_, severed, err := g.RemoveNode(nodeID)
		if errors.Is(err, nodegraph.ErrNodeNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "node not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Info("node removed", "graph", c.Params("id"), "node", nodeID, "severed", len(severed))
		return c.JSON(fiber.Map{"severed": severed})
	})

	// ── Inputs ────────────────────────────────────────────────────────
	app.Put("/graphs/:id/inputs/:input/value", func(c fiber.Ctx) error {
		var inputID nodegraph.InputID
		if err := inputID.UnmarshalText([]byte(c.Params("input"))); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "malformed input id"})
		}
		var body struct {
			Value any `json:"value"`
		}
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		docs.mu.Lock()
		defer docs.mu.Unlock()
		g, ok := docs.graphs[c.Params("id")]
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "graph not found"})
		}
		if err := g.SetInputValue(inputID, body.Value); err != nil {
			return c.Status(404).JSON(fiber.Map{"error": "input not found"})
		}
		return c.SendStatus(204)
	})

	// ── Edges ─────────────────────────────────────────────────────────
	app.Post("/graphs/:id/connect", func(c fiber.Ctx) error {
		var body struct {
			Output nodegraph.OutputID `json:"output"`
			Input  nodegraph.InputID  `json:"input"`
		}
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		docs.mu.Lock()
		defer docs.mu.Unlock()
		g, ok := docs.graphs[c.Params("id")]
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "graph not found"})
		}
		if !g.ConnectOutputToInput(body.Output, body.Input) {
			return c.Status(422).JSON(fiber.Map{"error": "edge rejected"})
		}
		return c.SendStatus(204)
	})

	app.Post("/graphs/:id/disconnect", func(c fiber.Ctx) error {
		var body struct {
			Node  nodegraph.NodeID `json:"node"`
			Input string           `json:"input"`
		}
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		docs.mu.Lock()
		defer docs.mu.Unlock()
		g, ok := docs.graphs[c.Params("id")]
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "graph not found"})
		}
		out, ok := g.DisconnectNodeInput(body.Node, body.Input)
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "input not connected"})
		}
		return c.JSON(fiber.Map{"output": out})
	})

	// ── Evaluation ────────────────────────────────────────────────────
	app.Post("/graphs/:id/outputs/:output/evaluate", func(c fiber.Ctx) error {
		var outputID nodegraph.OutputID
		if err := outputID.UnmarshalText([]byte(c.Params("output"))); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "malformed output id"})
		}
		docs.mu.Lock()
		defer docs.mu.Unlock()
		g, ok := docs.graphs[c.Params("id")]
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "graph not found"})
		}
		v, err := g.EvaluateOutput(outputID)
		if errors.Is(err, nodegraph.ErrOutputNotFound) || errors.Is(err, nodegraph.ErrInputNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"value": v})
	})

	app.Post("/graphs/:id/cache/clear", func(c fiber.Ctx) error {
		docs.mu.Lock()
		defer docs.mu.Unlock()
		g, ok := docs.graphs[c.Params("id")]
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "graph not found"})
		}
		g.ClearCache()
		return c.SendStatus(204)
	})

	// ── Persistence ───────────────────────────────────────────────────
	app.Post("/graphs/:id/save", func(c fiber.Ctx) error {
		docs.mu.Lock()
		g, ok := docs.graphs[c.Params("id")]
		docs.mu.Unlock()
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "graph not found"})
		}
		snap, err := g.Snapshot()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		id, err := store.SaveGraph(c.Context(), c.Params("id"), snap)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Info("graph saved", "graph", id, "nodes", len(snap.Nodes), "edges", len(snap.Edges))
		return c.JSON(fiber.Map{"id": id})
	})

	app.Post("/graphs/:id/load", func(c fiber.Ctx) error {
		snap, err := store.LoadGraph(c.Context(), c.Params("id"))
		if errors.Is(err, nodegraph.ErrGraphNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "graph not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		g, err := nodegraph.Restore(snap, registry)
		if errors.Is(err, nodegraph.ErrUnknownKind) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		docs.mu.Lock()
		docs.graphs[c.Params("id")] = g
		docs.mu.Unlock()
		logger.Info("graph loaded", "graph", c.Params("id"), "nodes", len(snap.Nodes))
		return c.SendStatus(204)
	})

	logger.Info("listening", "addr", addr)
	if err := app.Listen(addr); err != nil {
		logger.Error("listen", "err", err)
		os.Exit(1)
	}
}
