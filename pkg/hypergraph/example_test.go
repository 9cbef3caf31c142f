package hypergraph_test

import (
	"fmt"

	"github.com/nestview/nestview/pkg/hypergraph"
)

func ExampleGraph_CollapseContainer() {
	g := hypergraph.New(hypergraph.DefaultConfig(), nil)

	// Two nodes inside a container, two outside.
	for _, id := range []string{"n1", "n2", "n3", "n4"} {
		_ = g.AddNode(hypergraph.Node{ID: id})
	}
	_ = g.AddContainer(hypergraph.Container{ID: "c1", Label: "Group 1"}, []string{"n1", "n2"})
	_ = g.AddEdge(hypergraph.Edge{ID: "e1", Source: "n1", Target: "n2"})
	_ = g.AddEdge(hypergraph.Edge{ID: "e2", Source: "n2", Target: "n3"})
	_ = g.AddEdge(hypergraph.Edge{ID: "e3", Source: "n1", Target: "n4"})

	// Collapsing hides the members and summarizes crossing edges.
	if err := g.CollapseContainer("c1"); err != nil {
		fmt.Println("Error:", err)
		return
	}
	for _, n := range g.VisibleNodes() {
		fmt.Println("node:", n.ID)
	}
	for _, he := range g.VisibleHyperEdges() {
		fmt.Printf("hyper-edge: %s -> %s (summarizes %v)\n", he.Source, he.Target, he.Edges)
	}

	// Expanding restores the original picture.
	if err := g.ExpandContainer("c1"); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("visible edges after expand:", len(g.VisibleEdges()))

	// Output:
	// node: n3
	// node: n4
	// hyper-edge: c1 -> n3 (summarizes [e2])
	// hyper-edge: c1 -> n4 (summarizes [e3])
	// visible edges after expand: 3
}

func ExampleGraph_Batch() {
	g := hypergraph.New(hypergraph.DefaultConfig(), nil)
	_ = g.AddNode(hypergraph.Node{ID: "a"})
	_ = g.AddNode(hypergraph.Node{ID: "b"})
	_ = g.AddContainer(hypergraph.Container{ID: "c"}, []string{"a"})
	_ = g.AddEdge(hypergraph.Edge{ID: "e", Source: "a", Target: "b"})

	// A batch validates once at the end, not after each step.
	err := g.Batch(func(g *hypergraph.Graph) error {
		if err := g.CollapseContainer("c"); err != nil {
			return err
		}
		return g.SetNodeVisibility("b", false)
	})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	s := g.Stats()
	fmt.Printf("visible nodes: %d, hyper-edges: %d\n", s.VisibleNodes, s.HyperEdges)
	// Output:
	// visible nodes: 0, hyper-edges: 0
}
