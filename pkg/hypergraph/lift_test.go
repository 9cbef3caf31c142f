package hypergraph

import (
	"testing"
)

func TestLowestVisibleAncestor(t *testing.T) {
	// Each case starts from the nested fixture: container a holds
	// container b holds node n, with x at the root.
	tests := []struct {
		name     string
		setup    func(g *Graph)
		id       string
		want     string
		resolved bool
	}{
		{
			name:     "VisibleNodeResolvesToItself",
			id:       "n",
			want:     "n",
			resolved: true,
		},
		{
			name:     "InnerCollapseResolvesToInner",
			setup:    func(g *Graph) { _ = g.CollapseContainer("b") },
			id:       "n",
			want:     "b",
			resolved: true,
		},
		{
			name:     "OuterCollapseResolvesPastInner",
			setup:    func(g *Graph) { _ = g.CollapseContainer("a") },
			id:       "n",
			want:     "a",
			resolved: true,
		},
		{
			name:     "HiddenContainerResolvesToParent",
			setup:    func(g *Graph) { _ = g.SetContainerVisibility("b", false) },
			id:       "b",
			want:     "a",
			resolved: true,
		},
		{
			name:     "HiddenRootNodeUnresolvable",
			setup:    func(g *Graph) { _ = g.SetNodeVisibility("x", false) },
			id:       "x",
			want:     "x",
			resolved: false,
		},
		{
			name: "FullyHiddenChainUnresolvable",
			setup: func(g *Graph) {
				_ = g.SetContainerVisibility("a", false)
			},
			id:       "n",
			want:     "n",
			resolved: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := nestedGraph(t)
			if tt.setup != nil {
				tt.setup(g)
			}
			got, ok := g.LowestVisibleAncestor(tt.id)
			if got != tt.want || ok != tt.resolved {
				t.Errorf("LowestVisibleAncestor(%s) = (%s, %v), want (%s, %v)",
					tt.id, got, ok, tt.want, tt.resolved)
			}
		})
	}
}

func TestLowestVisibleAncestorDepthGuard(t *testing.T) {
	g := New(DefaultConfig(), nil)
	_ = g.AddNode(Node{ID: "n"})
	// Corrupt parent table pointing at itself must terminate.
	g.st.parent["n"] = "n"
	g.st.nodes["n"].Hidden = true
	delete(g.st.visibleNodes, "n")

	got, ok := g.LowestVisibleAncestor("n")
	if ok {
		t.Fatalf("resolved cyclic hierarchy to %s", got)
	}
}
