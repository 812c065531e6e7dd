package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meikuraledutech/nodegraph"
	"github.com/meikuraledutech/nodegraph/basic"
	"github.com/meikuraledutech/nodegraph/postgres"
)

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	// Wire up the postgres implementation behind the Store interface.
	var store nodegraph.Store = postgres.New(pool)

	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// ── Build a small graph: (2 + 3) * 10 ─────────────────────────────
	scene := &basic.BuildLog{}
	g := nodegraph.New()
	g.SetScene(scene)

	a := g.AddNode(&basic.Constant{Value: 2})
	b := g.AddNode(&basic.Constant{Value: 3})
	sum := g.AddNode(&basic.Sum{})
	scale := g.AddNode(&basic.Scale{Factor: 10})

	sumNode, _ := g.Node(sum)
	scaleNode, _ := g.Node(scale)

	if !g.ConnectNodeToInput(a, sumNode.Inputs()[0]) {
		log.Fatal("connect a -> sum.a rejected")
	}
	if !g.ConnectNodeToInput(b, sumNode.Inputs()[1]) {
		log.Fatal("connect b -> sum.b rejected")
	}
	if !g.ConnectNodeToInput(sum, scaleNode.Inputs()[0]) {
		log.Fatal("connect sum -> scale.in rejected")
	}

	out := scaleNode.Outputs()[0]
	v, err := g.EvaluateOutput(out)
	if err != nil {
		log.Fatalf("evaluate: %v", err)
	}
	fmt.Printf("\n(2 + 3) * 10 = %v\n", v)
	fmt.Printf("build log: %v\n", scene.Steps)

	// A cycle is rejected, not an error.
	sumIn, _ := g.NamedInput(sum, "a")
	scaleOut := scaleNode.Outputs()[0]
	fmt.Printf("wiring scale.out -> sum.a accepted: %v\n", g.ConnectOutputToInput(scaleOut, sumIn))

	// Disconnecting sum.a falls back to the input's own value.
	g.DisconnectNodeInput(sum, "a")
	v, err = g.EvaluateOutput(out)
	if err != nil {
		log.Fatalf("re-evaluate: %v", err)
	}
	fmt.Printf("after disconnecting sum.a: %v\n", v)

	// ── Persist topology, reload, evaluate again ──────────────────────
	snap, err := g.Snapshot()
	if err != nil {
		log.Fatalf("snapshot: %v", err)
	}
	id, err := store.SaveGraph(ctx, "example", snap)
	if err != nil {
		log.Fatalf("save: %v", err)
	}
	fmt.Printf("\nsaved graph %q\n", id)
	printJSON(snap)

	registry := nodegraph.NewRegistry()
	basic.Register(registry)

	loaded, err := store.LoadGraph(ctx, id)
	if err != nil {
		log.Fatalf("load: %v", err)
	}
	restored, err := nodegraph.Restore(loaded, registry)
	if err != nil {
		log.Fatalf("restore: %v", err)
	}
	v, err = restored.EvaluateOutput(out) // ids survive the round trip
	if err != nil {
		log.Fatalf("evaluate restored: %v", err)
	}
	fmt.Printf("restored graph evaluates to: %v\n", v)

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := store.DeleteGraph(ctx, id); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Println("\ngraph deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
