// Package pkg provides the core libraries for Nestview interactive graph
// exploration.
//
// # Overview
//
// Nestview turns compiler-emitted operator graphs into an explorable view
// where containers fold into summary nodes and the edges crossing a fold
// are lifted into hyper-edges. The pkg directory is organized into four
// main areas:
//
//  1. [hypergraph] - The state core (hierarchy, collapse/expand, visibility, hyper-edges)
//  2. [ingest] - Payload decoding and hierarchy materialization
//  3. [layout] / [scene] - Geometry engines (grid, graphviz dot) and snapshot assembly
//  4. [viewstore] / [cache] / [httputil] - Persistence and transport infrastructure
//
// # Architecture
//
// The typical data flow through Nestview:
//
//	Compiler payload (JSON)
//	         ↓
//	    [ingest] package (decode + materialize one hierarchy choice)
//	         ↓
//	    [hypergraph] package (collapse/expand, visibility cascade, hyper-edge lifting)
//	         ↓
//	    [layout] package (assign geometry with grid or dot)
//	         ↓
//	    [scene] package (visible snapshot for clients: JSON, DOT, SVG)
//
// # Quick Start
//
// Load a payload, fold everything, and lay out the result:
//
//	import (
//	    "context"
//	    "github.com/nestview/nestview/pkg/hypergraph"
//	    "github.com/nestview/nestview/pkg/ingest"
//	    "github.com/nestview/nestview/pkg/layout"
//	    "github.com/nestview/nestview/pkg/scene"
//	)
//
//	// 1. Ingest the payload
//	payload, _ := ingest.ReadPayloadFile("graph.json")
//	g := hypergraph.New(hypergraph.DefaultConfig(), nil)
//	_ = ingest.Load(g, payload, ingest.Options{})
//
//	// 2. Fold the hierarchy
//	_ = g.CollapseAll()
//
//	// 3. Compute layout
//	result, _ := layout.NewGrid().Layout(context.Background(), g)
//	_ = layout.Apply(g, result)
//
//	// 4. Snapshot the visible state
//	snapshot := scene.Build(g, "graph.json")
//
// # Main Packages
//
// ## Core Domain Logic
//
// [hypergraph] - The single-writer state core. Owns the entity stores,
// the container hierarchy, the visibility cascade, hyper-edge lifting,
// and the invariant validator.
//
// [ingest] - Decodes the upstream compiler payload and materializes one
// hierarchy choice into the core. Also round-trips the self-contained
// document format for export and re-import.
//
// [layout] - Pluggable geometry engines over the visible state: a
// deterministic grid and a graphviz dot engine with cluster support.
//
// [scene] - Assembles the visible entities plus their geometry into the
// snapshot served to clients.
//
// ## Infrastructure
//
// [viewstore] - Named view persistence (which containers are folded).
// Memory and file backends for the CLI, Redis and MongoDB backends for
// the server.
//
// [cache] - Content-hash keyed byte caches so identical visible states
// never pay for layout twice.
//
// [httputil] - Retrying HTTP fetch for loading payloads from remote
// build endpoints.
//
// [errors], [observability], [buildinfo] - Structured error codes,
// logging and event hooks, and version stamping.
package pkg
