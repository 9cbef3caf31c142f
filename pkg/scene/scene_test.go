package scene

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nestview/nestview/pkg/hypergraph"
	"github.com/nestview/nestview/pkg/layout"
)

// sceneGraph builds a nested graph with a lifted hyper-edge:
//
//	outer [expanded] = {inner [collapsed] = {n1, n2}}
//	n3 free, e1: n1 -> n2, e2: n2 -> n3, e3: n3 -> n3 self loop omitted
func sceneGraph(t *testing.T) *hypergraph.Graph {
	t.Helper()
	g := hypergraph.New(hypergraph.DefaultConfig(), nil)

	for _, id := range []string{"n1", "n2", "n3"} {
		if err := g.AddNode(hypergraph.Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	if err := g.AddContainer(hypergraph.Container{ID: "inner", Label: "Inner"}, []string{"n1", "n2"}); err != nil {
		t.Fatalf("AddContainer(inner): %v", err)
	}
	if err := g.AddContainer(hypergraph.Container{ID: "outer", Label: "Outer"}, []string{"inner"}); err != nil {
		t.Fatalf("AddContainer(outer): %v", err)
	}
	for _, e := range []hypergraph.Edge{
		{ID: "e1", Source: "n1", Target: "n2"},
		{ID: "e2", Source: "n2", Target: "n3", Style: hypergraph.StyleThick},
	} {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%s): %v", e.ID, err)
		}
	}
	if err := g.CollapseContainer("inner"); err != nil {
		t.Fatalf("CollapseContainer: %v", err)
	}
	return g
}

func TestBuild(t *testing.T) {
	g := sceneGraph(t)
	s := Build(g, "g-1")

	if s.GraphID != "g-1" {
		t.Errorf("graph id = %q, want g-1", s.GraphID)
	}
	if len(s.Nodes) != 1 || s.Nodes[0].ID != "n3" {
		t.Fatalf("nodes = %+v, want only n3", s.Nodes)
	}

	// Containers come parents-first for painter's ordering.
	if len(s.Containers) != 2 {
		t.Fatalf("containers = %+v, want outer and inner", s.Containers)
	}
	if s.Containers[0].ID != "outer" || s.Containers[0].Depth != 0 {
		t.Errorf("first container = %+v, want outer at depth 0", s.Containers[0])
	}
	if s.Containers[1].ID != "inner" || s.Containers[1].Depth != 1 || s.Containers[1].Parent != "outer" {
		t.Errorf("second container = %+v, want inner at depth 1 under outer", s.Containers[1])
	}
	if !s.Containers[1].Collapsed {
		t.Error("collapsed flag lost")
	}

	// The lifted hyper-edge is the only drawable edge, with the
	// folded edge count and merged style.
	if len(s.Edges) != 1 {
		t.Fatalf("edges = %+v, want one hyper-edge", s.Edges)
	}
	e := s.Edges[0]
	if e.Source != "inner" || e.Target != "n3" || e.Summarized != 1 {
		t.Errorf("edge = %+v, want inner->n3 summarizing 1", e)
	}
	if e.Style != hypergraph.StyleThick {
		t.Errorf("style = %s, want inherited thick", e.Style)
	}
}

func TestBuildBounds(t *testing.T) {
	g := sceneGraph(t)
	res, err := layout.NewGrid().Layout(context.Background(), g)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if err := layout.Apply(g, res); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	s := Build(g, "")
	if s.Width <= 0 || s.Height <= 0 {
		t.Errorf("bounds = %gx%g, want positive after layout", s.Width, s.Height)
	}
	if s.Nodes[0].Box == nil {
		t.Error("node box missing after layout")
	}
}

func TestBuildDeterministic(t *testing.T) {
	a, err := Build(sceneGraph(t), "g").Checksum()
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	b, err := Build(sceneGraph(t), "g").Checksum()
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	if a != b {
		t.Error("identical graphs produced different checksums")
	}

	g := sceneGraph(t)
	if err := g.ExpandContainer("inner"); err != nil {
		t.Fatalf("expand: %v", err)
	}
	c, err := Build(g, "g").Checksum()
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	if c == a {
		t.Error("different visible states produced the same checksum")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Build(sceneGraph(t), "g").WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var back Scene
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if len(back.Containers) != 2 || len(back.Edges) != 1 {
		t.Errorf("round trip lost entities: %+v", back)
	}
}

func TestToDOT(t *testing.T) {
	dot := Build(sceneGraph(t), "").ToDOT()

	if !strings.Contains(dot, `"inner" -> "n3" [style=dashed]`) {
		t.Errorf("hyper-edge not dashed:\n%s", dot)
	}
	if !strings.Contains(dot, `"inner" [label="Inner", fillcolor=lightgrey]`) {
		t.Errorf("collapsed container not grey:\n%s", dot)
	}
	if strings.Contains(dot, `"n1"`) {
		t.Errorf("hidden node leaked into DOT:\n%s", dot)
	}
}
