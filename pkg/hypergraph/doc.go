// Package hypergraph implements the state core of an interactive
// hierarchical graph: nodes and edges grouped into nested containers
// that can be collapsed and expanded at any level of detail.
//
// Collapsing a container hides its descendants and summarizes every
// edge crossing the container boundary as a synthetic hyper-edge, so
// the graph stays drawable no matter how much of the hierarchy is
// folded away. Expanding reverses the operation exactly. When a
// collapse hides the endpoint of an existing hyper-edge, the endpoint
// is lifted to its lowest visible ancestor, merged with an equivalent
// hyper-edge, or dropped if it would form a self-loop.
//
// # Architecture
//
// The package is split by concern:
//
//   - types.go: entity variants (Node, Edge, Container, HyperEdge),
//     style enumerations, and geometry
//   - store.go: keyed entity storage with hierarchy and incidence
//     indices
//   - visibility.go: reconciles stored hidden flags into effective
//     visibility caches and cascades changes to incident edges
//   - collapse.go, expand.go: the container fold/unfold engine
//   - lift.go: lowest-visible-ancestor resolution for hyper-edge
//     endpoints
//   - validate.go: read-only consistency checks run after every
//     mutation batch
//   - graph.go: the Graph facade, the only public mutation surface
//
// # Usage
//
// Build a graph, fold a container, and read the visible projection:
//
//	g := hypergraph.New(hypergraph.DefaultConfig(), logger)
//	g.AddNode(hypergraph.Node{ID: "n1"})
//	g.AddNode(hypergraph.Node{ID: "n2"})
//	g.AddContainer(hypergraph.Container{ID: "c1"}, []string{"n1", "n2"})
//	g.AddEdge(hypergraph.Edge{ID: "e1", Source: "n1", Target: "n2"})
//
//	if err := g.CollapseContainer("c1"); err != nil {
//	    return err
//	}
//	for _, he := range g.VisibleHyperEdges() {
//	    fmt.Println(he.Source, "→", he.Target)
//	}
//
// All operations are synchronous and single-threaded; Graph is not
// safe for concurrent use without external synchronization.
package hypergraph
