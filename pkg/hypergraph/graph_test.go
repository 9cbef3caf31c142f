package hypergraph

import (
	"errors"
	"testing"
)

func TestAddNode(t *testing.T) {
	tests := []struct {
		name    string
		node    Node
		setup   func(g *Graph)
		wantErr error
	}{
		{
			name: "Simple",
			node: Node{ID: "a", Label: "A"},
		},
		{
			name:    "EmptyID",
			node:    Node{},
			wantErr: ErrInvalidID,
		},
		{
			name:    "Duplicate",
			node:    Node{ID: "a"},
			setup:   func(g *Graph) { _ = g.AddNode(Node{ID: "a"}) },
			wantErr: ErrDuplicateID,
		},
		{
			name:    "DuplicateAcrossKinds",
			node:    Node{ID: "c"},
			setup:   func(g *Graph) { _ = g.AddContainer(Container{ID: "c"}, nil) },
			wantErr: ErrDuplicateID,
		},
		{
			name:    "InvalidStyle",
			node:    Node{ID: "a", Style: "sparkly"},
			wantErr: ErrInvalidStyle,
		},
		{
			name:    "EdgeOnlyStyleRejected",
			node:    Node{ID: "a", Style: StyleDashed},
			wantErr: ErrInvalidStyle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(DefaultConfig(), nil)
			if tt.setup != nil {
				tt.setup(g)
			}
			err := g.AddNode(tt.node)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AddNode: err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				n, ok := g.Node(tt.node.ID)
				if !ok {
					t.Fatal("node not stored")
				}
				if n.Style != StyleDefault {
					t.Errorf("style = %s, want default applied", n.Style)
				}
				if !g.IsVisible(tt.node.ID) {
					t.Error("new node not visible")
				}
			}
		})
	}
}

func TestAddEdge(t *testing.T) {
	base := func() *Graph {
		g := New(DefaultConfig(), nil)
		_ = g.AddNode(Node{ID: "a"})
		_ = g.AddNode(Node{ID: "b"})
		return g
	}

	tests := []struct {
		name    string
		edge    Edge
		setup   func(g *Graph)
		wantErr error
	}{
		{
			name: "Simple",
			edge: Edge{ID: "e", Source: "a", Target: "b"},
		},
		{
			name:    "UnknownSource",
			edge:    Edge{ID: "e", Source: "zz", Target: "b"},
			wantErr: ErrUnknownEndpoint,
		},
		{
			name:    "UnknownTarget",
			edge:    Edge{ID: "e", Source: "a", Target: "zz"},
			wantErr: ErrUnknownEndpoint,
		},
		{
			name: "HyperEdgeNotAnEndpoint",
			edge: Edge{ID: "e2", Source: "a", Target: "he_c__b"},
			setup: func(g *Graph) {
				// Even a real hyper-edge ID is not a legal endpoint.
				_ = g.AddNode(Node{ID: "inner"})
				_ = g.AddContainer(Container{ID: "c"}, []string{"inner"})
				_ = g.AddEdge(Edge{ID: "e1", Source: "inner", Target: "b"})
				_ = g.CollapseContainer("c")
			},
			wantErr: ErrUnknownEndpoint,
		},
		{
			name:    "NodeOnlyStyleRejected",
			edge:    Edge{ID: "e", Source: "a", Target: "b", Style: "sparkly"},
			wantErr: ErrInvalidStyle,
		},
		{
			name:    "Duplicate",
			edge:    Edge{ID: "e", Source: "a", Target: "b"},
			setup:   func(g *Graph) { _ = g.AddEdge(Edge{ID: "e", Source: "a", Target: "b"}) },
			wantErr: ErrDuplicateID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := base()
			if tt.setup != nil {
				tt.setup(g)
			}
			if err := g.AddEdge(tt.edge); !errors.Is(err, tt.wantErr) {
				t.Fatalf("AddEdge: err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddEdgeDerivesVisibility(t *testing.T) {
	g := New(DefaultConfig(), nil)
	_ = g.AddNode(Node{ID: "a", Hidden: true})
	_ = g.AddNode(Node{ID: "b"})
	if err := g.AddEdge(Edge{ID: "e", Source: "a", Target: "b"}); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	e, _ := g.Edge("e")
	if !e.Hidden {
		t.Fatal("edge to hidden node stored visible")
	}

	// Revealing the endpoint reveals the edge, since the caller never
	// asked for it to be hidden.
	if err := g.SetNodeVisibility("a", true); err != nil {
		t.Fatalf("SetNodeVisibility: %v", err)
	}
	if e, _ := g.Edge("e"); e.Hidden {
		t.Error("edge still hidden after endpoint revealed")
	}
}

func TestAddContainer(t *testing.T) {
	tests := []struct {
		name     string
		children []string
		setup    func(g *Graph)
		wantErr  error
		anyErr   bool
	}{
		{
			name:     "WithChildren",
			children: []string{"a", "b"},
		},
		{
			name:     "UnknownChild",
			children: []string{"zz"},
			wantErr:  ErrNotFound,
		},
		{
			name:     "ChildAlreadyOwned",
			children: []string{"a"},
			setup:    func(g *Graph) { _ = g.AddContainer(Container{ID: "other"}, []string{"a"}) },
			anyErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(DefaultConfig(), nil)
			_ = g.AddNode(Node{ID: "a"})
			_ = g.AddNode(Node{ID: "b"})
			if tt.setup != nil {
				tt.setup(g)
			}
			err := g.AddContainer(Container{ID: "c"}, tt.children)
			if tt.anyErr {
				if err == nil {
					t.Fatal("AddContainer accepted doubly-owned child")
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AddContainer: err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if _, ok := g.Container("c"); ok {
					t.Error("rejected container was stored")
				}
				return
			}
			got := g.ContainerChildren("c")
			if len(got) != 2 || got[0] != "a" || got[1] != "b" {
				t.Errorf("children = %v, want [a b]", got)
			}
			if p, ok := g.NodeContainer("a"); !ok || p != "c" {
				t.Errorf("parent of a = %q (%v), want c", p, ok)
			}
		})
	}
}

func TestRemoveEdgePrunesHyperEdges(t *testing.T) {
	g := scenarioGraph(t)
	if err := g.CollapseContainer("c1"); err != nil {
		t.Fatalf("collapse: %v", err)
	}
	if err := g.RemoveEdge("e2"); err != nil {
		t.Fatalf("RemoveEdge: %v", err)
	}
	if _, ok := g.HyperEdge("he_c1__n3"); ok {
		t.Error("hyper-edge summarizing only e2 survived its removal")
	}
	if _, ok := g.HyperEdge("he_c1__n4"); !ok {
		t.Error("unrelated hyper-edge removed")
	}
	if vs := g.Validate(); len(vs) != 0 {
		t.Errorf("violations after removal: %v", vs)
	}
}

func TestRemoveNodeRemovesIncidentEdges(t *testing.T) {
	g := scenarioGraph(t)
	if err := g.RemoveNode("n2"); err != nil {
		t.Fatalf("RemoveNode: %v", err)
	}
	if _, ok := g.Edge("e1"); ok {
		t.Error("edge e1 survived endpoint removal")
	}
	if _, ok := g.Edge("e2"); ok {
		t.Error("edge e2 survived endpoint removal")
	}
	if _, ok := g.Edge("e3"); !ok {
		t.Error("unrelated edge e3 removed")
	}
	got := g.ContainerChildren("c1")
	if len(got) != 1 || got[0] != "n1" {
		t.Errorf("c1 children = %v, want [n1]", got)
	}
	if err := g.RemoveNode("n2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second removal: err = %v, want ErrNotFound", err)
	}
}

func TestRemoveContainerReparentsChildren(t *testing.T) {
	g := nestedGraph(t)
	if err := g.RemoveContainer("b"); err != nil {
		t.Fatalf("RemoveContainer: %v", err)
	}
	if p, ok := g.NodeContainer("n"); !ok || p != "a" {
		t.Errorf("parent of n = %q (%v), want a after reparent", p, ok)
	}
	if vs := g.Validate(); len(vs) != 0 {
		t.Errorf("violations after removal: %v", vs)
	}

	// The reparented node still folds with the surviving ancestor.
	if err := g.CollapseContainer("a"); err != nil {
		t.Fatalf("collapse a: %v", err)
	}
	if got := hyperEdgeIDs(g); len(got) != 1 || got[0] != "he_a__x" {
		t.Errorf("hyper-edges = %v, want [he_a__x]", got)
	}
}

func TestBatchValidatesOnce(t *testing.T) {
	g := scenarioGraph(t)
	err := g.Batch(func(g *Graph) error {
		if err := g.CollapseContainer("c1"); err != nil {
			return err
		}
		return g.ExpandContainer("c1")
	})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if g.batchDepth != 0 {
		t.Errorf("batch depth = %d after exit, want 0", g.batchDepth)
	}

	wantErr := errors.New("caller failure")
	err = g.Batch(func(g *Graph) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("Batch err = %v, want caller error passed through", err)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	g := scenarioGraph(t)
	if err := g.SetNodeLayout("n1", Box{X: 1, Y: 2, Width: 3, Height: 4}); err != nil {
		t.Fatalf("SetNodeLayout: %v", err)
	}

	n, _ := g.Node("n1")
	n.Layout.X = 999
	n.Label = "mutated"

	again, _ := g.Node("n1")
	if again.Layout.X != 1 {
		t.Error("mutation of returned layout leaked into core state")
	}
	if again.Label == "mutated" {
		t.Error("mutation of returned node leaked into core state")
	}

	nodes := g.VisibleNodes()
	if len(nodes) != 4 {
		t.Fatalf("visible nodes = %d, want 4", len(nodes))
	}
	nodes[0].ID = "mutated"
	if _, ok := g.Node("mutated"); ok {
		t.Error("mutation of returned slice leaked into core state")
	}
}

func TestContainerDisplaySize(t *testing.T) {
	g := scenarioGraph(t)
	cfg := g.Config()

	if err := g.CollapseContainer("c1"); err != nil {
		t.Fatalf("collapse: %v", err)
	}
	d, err := g.ContainerDisplaySize("c1")
	if err != nil {
		t.Fatalf("ContainerDisplaySize: %v", err)
	}
	wantW := cfg.CollapsedWidth + 2*cfg.Padding
	wantH := cfg.CollapsedHeight + cfg.LabelHeight + 2*cfg.Padding
	if d.Width != wantW || d.Height != wantH {
		t.Errorf("collapsed display = %gx%g, want %gx%g", d.Width, d.Height, wantW, wantH)
	}

	if _, err := g.ContainerDisplaySize("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown container: err = %v, want ErrNotFound", err)
	}
}

func TestCollapsedLayoutKeepsFixedDims(t *testing.T) {
	g := scenarioGraph(t)
	if err := g.CollapseContainer("c1"); err != nil {
		t.Fatalf("collapse: %v", err)
	}
	if err := g.SetContainerLayout("c1", Box{X: 5, Y: 6, Width: 900, Height: 900}); err != nil {
		t.Fatalf("SetContainerLayout: %v", err)
	}
	c, _ := g.Container("c1")
	cfg := g.Config()
	if c.Layout.Width != cfg.CollapsedWidth || c.Layout.Height != cfg.CollapsedHeight {
		t.Errorf("layout overrode collapsed dims: %gx%g", c.Layout.Width, c.Layout.Height)
	}
	if c.Layout.X != 5 || c.Layout.Y != 6 {
		t.Errorf("position = (%g,%g), want (5,6)", c.Layout.X, c.Layout.Y)
	}
}

func TestStats(t *testing.T) {
	g := scenarioGraph(t)
	s := g.Stats()
	want := Stats{Nodes: 4, Edges: 3, Containers: 1, VisibleNodes: 4, VisibleEdges: 3, VisibleContainers: 1}
	if s != want {
		t.Errorf("stats = %+v, want %+v", s, want)
	}

	if err := g.CollapseContainer("c1"); err != nil {
		t.Fatalf("collapse: %v", err)
	}
	s = g.Stats()
	want = Stats{Nodes: 4, Edges: 3, Containers: 1, HyperEdges: 2, VisibleNodes: 2, VisibleEdges: 0, VisibleContainers: 1}
	if s != want {
		t.Errorf("stats after collapse = %+v, want %+v", s, want)
	}
}
