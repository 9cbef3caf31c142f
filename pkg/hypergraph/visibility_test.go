package hypergraph

import (
	"testing"
)

func TestSetNodeVisibilityCascade(t *testing.T) {
	g := scenarioGraph(t)

	if err := g.SetNodeVisibility("n3", false); err != nil {
		t.Fatalf("hide n3: %v", err)
	}
	if g.IsVisible("n3") {
		t.Error("n3 still visible")
	}
	if !edgeHidden(t, g, "e2") {
		t.Error("edge e2 visible with hidden endpoint")
	}
	if edgeHidden(t, g, "e1") || edgeHidden(t, g, "e3") {
		t.Error("cascade hid unrelated edges")
	}

	if err := g.SetNodeVisibility("n3", true); err != nil {
		t.Fatalf("show n3: %v", err)
	}
	if edgeHidden(t, g, "e2") {
		t.Error("edge e2 not restored when endpoint returned")
	}
}

func TestSetNodeVisibilityUnknownIsNoOp(t *testing.T) {
	g := scenarioGraph(t)
	before := g.Stats()
	if err := g.SetNodeVisibility("ghost", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after := g.Stats(); after != before {
		t.Errorf("stats changed: %+v -> %+v", before, after)
	}
}

func TestSetEdgeVisibilityRejectsHiddenEndpoint(t *testing.T) {
	g := scenarioGraph(t)
	if err := g.SetNodeVisibility("n3", false); err != nil {
		t.Fatalf("hide n3: %v", err)
	}

	// Showing an edge whose endpoint is hidden degrades to a no-op.
	if err := g.SetEdgeVisibility("e2", true); err != nil {
		t.Fatalf("SetEdgeVisibility: %v", err)
	}
	if !edgeHidden(t, g, "e2") {
		t.Error("edge shown despite hidden endpoint")
	}
}

func TestSetContainerVisibilitySubtree(t *testing.T) {
	g := nestedGraph(t)

	if err := g.SetContainerVisibility("a", false); err != nil {
		t.Fatalf("hide a: %v", err)
	}
	for _, id := range []string{"a", "b", "n"} {
		if g.IsVisible(id) {
			t.Errorf("%s visible under hidden ancestor", id)
		}
	}
	if !edgeHidden(t, g, "e") {
		t.Error("edge e visible with hidden endpoint")
	}

	if err := g.SetContainerVisibility("a", true); err != nil {
		t.Fatalf("show a: %v", err)
	}
	for _, id := range []string{"a", "b", "n"} {
		if !g.IsVisible(id) {
			t.Errorf("%s hidden after subtree reveal", id)
		}
	}
	if edgeHidden(t, g, "e") {
		t.Error("edge e not restored with subtree")
	}
}

func TestHideCollapsedContainerLiftsHyperEdges(t *testing.T) {
	g := nestedGraph(t)
	if err := g.CollapseContainer("b"); err != nil {
		t.Fatalf("collapse b: %v", err)
	}
	if got := hyperEdgeIDs(g); len(got) != 1 || got[0] != "he_b__x" {
		t.Fatalf("hyper-edges = %v, want [he_b__x]", got)
	}

	// Hiding the collapsed container leaves its hyper-edge without a
	// visible endpoint; it must lift to the parent.
	if err := g.SetContainerVisibility("b", false); err != nil {
		t.Fatalf("hide b: %v", err)
	}
	if got := hyperEdgeIDs(g); len(got) != 0 {
		// The connectivity now comes from a hidden subtree with no
		// collapsed boundary in view, so the hyper-edge disappears
		// rather than lift to the expanded parent.
		t.Fatalf("hyper-edges = %v, want none", got)
	}
	if vs := g.Validate(); len(vs) != 0 {
		t.Errorf("violations: %v", vs)
	}
}

func TestHiddenNodeInsideExpandedContainerLifts(t *testing.T) {
	g := New(DefaultConfig(), nil)
	_ = g.AddNode(Node{ID: "inner"})
	_ = g.AddNode(Node{ID: "ext"})
	_ = g.AddContainer(Container{ID: "c"}, []string{"inner"})
	_ = g.AddContainer(Container{ID: "d"}, []string{"ext"})
	if err := g.AddEdge(Edge{ID: "e", Source: "inner", Target: "ext"}); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	if err := g.CollapseContainer("c"); err != nil {
		t.Fatalf("collapse c: %v", err)
	}
	if got := hyperEdgeIDs(g); len(got) != 1 || got[0] != "he_c__ext" {
		t.Fatalf("hyper-edges = %v, want [he_c__ext]", got)
	}

	// Hiding the external endpoint re-resolves it through its own
	// expanded container.
	if err := g.SetNodeVisibility("ext", false); err != nil {
		t.Fatalf("hide ext: %v", err)
	}
	if got := hyperEdgeIDs(g); len(got) != 1 || got[0] != "he_c__d" {
		t.Fatalf("hyper-edges = %v, want [he_c__d]", got)
	}
	if vs := g.Validate(); len(vs) != 0 {
		t.Errorf("violations: %v", vs)
	}

	// Showing it again resolves the summary back to the node itself.
	if err := g.SetNodeVisibility("ext", true); err != nil {
		t.Fatalf("show ext: %v", err)
	}
	if got := hyperEdgeIDs(g); len(got) != 1 || got[0] != "he_c__ext" {
		t.Fatalf("hyper-edges = %v, want [he_c__ext]", got)
	}
}

func TestReshownEndpointResynthesizesHyperEdge(t *testing.T) {
	g := scenarioGraph(t)
	if err := g.CollapseContainer("c1"); err != nil {
		t.Fatalf("collapse c1: %v", err)
	}

	// Hiding the external endpoint dissolves its hyper-edge entirely:
	// the summarized edge has no visible ancestor on that side.
	if err := g.SetNodeVisibility("n3", false); err != nil {
		t.Fatalf("hide n3: %v", err)
	}
	if got := hyperEdgeIDs(g); len(got) != 1 || got[0] != "he_c1__n4" {
		t.Fatalf("hyper-edges = %v, want [he_c1__n4]", got)
	}

	// Showing it again must bring the connectivity back, not leave the
	// summarized edge stranded in its cascade-hidden state.
	if err := g.SetNodeVisibility("n3", true); err != nil {
		t.Fatalf("show n3: %v", err)
	}
	got := hyperEdgeIDs(g)
	if len(got) != 2 || got[0] != "he_c1__n3" || got[1] != "he_c1__n4" {
		t.Fatalf("hyper-edges = %v, want [he_c1__n3 he_c1__n4]", got)
	}
	he, ok := g.HyperEdge("he_c1__n3")
	if !ok {
		t.Fatal("he_c1__n3 not found")
	}
	if len(he.Edges) != 1 || he.Edges[0] != "e2" {
		t.Errorf("summarized edges = %v, want [e2]", he.Edges)
	}
	if vs := g.Validate(); len(vs) != 0 {
		t.Errorf("violations: %v", vs)
	}
}

func TestReshownCollapsedContainerResynthesizesHyperEdges(t *testing.T) {
	g := nestedGraph(t)
	if err := g.CollapseContainer("b"); err != nil {
		t.Fatalf("collapse b: %v", err)
	}
	if err := g.SetContainerVisibility("b", false); err != nil {
		t.Fatalf("hide b: %v", err)
	}
	if got := hyperEdgeIDs(g); len(got) != 0 {
		t.Fatalf("hyper-edges = %v, want none while hidden", got)
	}

	if err := g.SetContainerVisibility("b", true); err != nil {
		t.Fatalf("show b: %v", err)
	}
	if got := hyperEdgeIDs(g); len(got) != 1 || got[0] != "he_b__x" {
		t.Fatalf("hyper-edges = %v, want [he_b__x]", got)
	}
	if vs := g.Validate(); len(vs) != 0 {
		t.Errorf("violations: %v", vs)
	}
}
