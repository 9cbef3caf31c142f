package ingest

import (
	"strings"
	"testing"

	"github.com/nestview/nestview/pkg/errors"
	"github.com/nestview/nestview/pkg/hypergraph"
)

const samplePayload = `{
	"nodes": [
		{"id": "op1", "nodeType": "Source", "fullLabel": "source_iter(items)", "shortLabel": "source_iter"},
		{"id": "op2", "nodeType": "Transform", "fullLabel": "map(parse)", "shortLabel": "map"},
		{"id": "op3", "nodeType": "Sink", "fullLabel": "for_each(print)", "shortLabel": "for_each"}
	],
	"edges": [
		{"id": "ed1", "source": "op1", "target": "op2", "semanticTags": ["Local", "TotalOrder"]},
		{"id": "ed2", "source": "op2", "target": "op3", "semanticTags": ["Network", "NoOrder"]}
	],
	"hierarchyChoices": [
		{"id": "location", "name": "Location", "children": [
			{"key": "loc0", "name": "Process 0"},
			{"key": "loc1", "name": "Process 1"}
		]},
		{"id": "backtrace", "name": "Backtrace", "children": [
			{"key": "bt_main", "name": "main", "children": [
				{"key": "bt_main_inner", "name": "main::inner"}
			]}
		]}
	],
	"nodeAssignments": {
		"location": {"op1": "loc0", "op2": "loc0", "op3": "loc1"},
		"backtrace": {"op1": "bt_main", "op2": "bt_main_inner", "op3": "bt_main"}
	},
	"selectedHierarchy": "location"
}`

func loadSample(t *testing.T, opts Options) *hypergraph.Graph {
	t.Helper()
	p, err := ReadPayload(strings.NewReader(samplePayload))
	if err != nil {
		t.Fatalf("ReadPayload: %v", err)
	}
	g := hypergraph.New(hypergraph.DefaultConfig(), nil)
	if err := Load(g, p, opts); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return g
}

func TestLoadSelectedHierarchy(t *testing.T) {
	g := loadSample(t, Options{})

	s := g.Stats()
	if s.Nodes != 3 || s.Edges != 2 || s.Containers != 2 {
		t.Fatalf("stats = %+v, want 3 nodes, 2 edges, 2 containers", s)
	}
	if p, ok := g.NodeContainer("op1"); !ok || p != "loc0" {
		t.Errorf("container of op1 = %q (%v), want loc0", p, ok)
	}
	if p, ok := g.NodeContainer("op3"); !ok || p != "loc1" {
		t.Errorf("container of op3 = %q (%v), want loc1", p, ok)
	}
	c, ok := g.Container("loc0")
	if !ok || c.Label != "Process 0" {
		t.Errorf("loc0 label = %q, want Process 0", c.Label)
	}

	// Network tag renders dashed, local stays default.
	e1, _ := g.Edge("ed1")
	if e1.Style != hypergraph.StyleDefault {
		t.Errorf("ed1 style = %s, want default", e1.Style)
	}
	e2, _ := g.Edge("ed2")
	if e2.Style != hypergraph.StyleDashed {
		t.Errorf("ed2 style = %s, want dashed", e2.Style)
	}
	tags, _ := e2.Meta["semanticTags"].([]string)
	if len(tags) != 2 {
		t.Errorf("semanticTags meta = %v, want preserved", e2.Meta["semanticTags"])
	}

	if vs := g.Validate(); len(vs) != 0 {
		t.Errorf("violations after load: %v", vs)
	}
}

func TestLoadAlternateHierarchy(t *testing.T) {
	g := loadSample(t, Options{Hierarchy: "backtrace", UseShortLabels: true})

	if p, ok := g.NodeContainer("op2"); !ok || p != "bt_main_inner" {
		t.Errorf("container of op2 = %q (%v), want bt_main_inner", p, ok)
	}
	if p, ok := g.NodeContainer("bt_main_inner"); !ok || p != "bt_main" {
		t.Errorf("parent of bt_main_inner = %q (%v), want bt_main", p, ok)
	}
	n, _ := g.Node("op1")
	if n.Label != "source_iter" {
		t.Errorf("label = %q, want short label", n.Label)
	}

	// The nested tree must collapse cleanly end to end.
	if err := g.CollapseContainer("bt_main"); err != nil {
		t.Fatalf("collapse: %v", err)
	}
	if vs := g.Validate(); len(vs) != 0 {
		t.Errorf("violations after collapse: %v", vs)
	}
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(p *Payload)
		opts     Options
		wantCode errors.Code
	}{
		{
			name:     "UnknownHierarchy",
			opts:     Options{Hierarchy: "nope"},
			wantCode: errors.ErrCodeInvalidDocument,
		},
		{
			name: "DuplicateNode",
			mutate: func(p *Payload) {
				p.Nodes = append(p.Nodes, PayloadNode{ID: "op1"})
			},
			wantCode: errors.ErrCodeDuplicateID,
		},
		{
			name: "UnknownEdgeEndpoint",
			mutate: func(p *Payload) {
				p.Edges = append(p.Edges, PayloadEdge{ID: "ed3", Source: "op1", Target: "ghost"})
			},
			wantCode: errors.ErrCodeInvalidDocument,
		},
		{
			name: "AssignmentToMissingContainer",
			mutate: func(p *Payload) {
				p.NodeAssignments["location"]["op1"] = "ghost"
			},
			wantCode: errors.ErrCodeInvalidDocument,
		},
		{
			name: "AssignmentOfMissingNode",
			mutate: func(p *Payload) {
				p.NodeAssignments["location"]["ghost"] = "loc0"
			},
			wantCode: errors.ErrCodeInvalidDocument,
		},
		{
			name: "ReservedNodeID",
			mutate: func(p *Payload) {
				p.Nodes = append(p.Nodes, PayloadNode{ID: "he_x__y"})
			},
			wantCode: errors.ErrCodeInvalidID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ReadPayload(strings.NewReader(samplePayload))
			if err != nil {
				t.Fatalf("ReadPayload: %v", err)
			}
			if tt.mutate != nil {
				tt.mutate(p)
			}
			g := hypergraph.New(hypergraph.DefaultConfig(), nil)
			err = Load(g, p, tt.opts)
			if err == nil {
				t.Fatal("Load accepted invalid payload")
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("err = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestReadPayloadRejectsGarbage(t *testing.T) {
	if _, err := ReadPayload(strings.NewReader("not json")); err == nil {
		t.Fatal("ReadPayload accepted garbage")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	g := loadSample(t, Options{})
	if err := g.CollapseContainer("loc0"); err != nil {
		t.Fatalf("collapse: %v", err)
	}

	doc := ExportDocument(g)
	if len(doc.Nodes) != 3 || len(doc.Edges) != 2 || len(doc.Containers) != 2 {
		t.Fatalf("document = %d/%d/%d entities, want 3/2/2",
			len(doc.Nodes), len(doc.Edges), len(doc.Containers))
	}

	g2 := hypergraph.New(hypergraph.DefaultConfig(), nil)
	if err := LoadDocument(g2, doc); err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	c, _ := g2.Container("loc0")
	if !c.Collapsed {
		t.Error("collapse state lost in round trip")
	}
	if g2.IsVisible("op1") {
		t.Error("member of collapsed container visible after reload")
	}

	// Expanding the reloaded graph restores the crossing edge.
	if err := g2.ExpandContainer("loc0"); err != nil {
		t.Fatalf("expand: %v", err)
	}
	e, _ := g2.Edge("ed2")
	if e.Hidden {
		t.Error("crossing edge still hidden after expand of reloaded graph")
	}
	if vs := g2.Validate(); len(vs) != 0 {
		t.Errorf("violations: %v", vs)
	}
}

func TestLoadDocumentOrdersContainers(t *testing.T) {
	// Parent listed before its child container must still load.
	doc := &Document{
		Nodes: []hypergraph.Node{{ID: "n"}},
		Containers: []DocumentContainer{
			{Container: hypergraph.Container{ID: "outer"}, Children: []string{"inner"}},
			{Container: hypergraph.Container{ID: "inner"}, Children: []string{"n"}},
		},
	}
	g := hypergraph.New(hypergraph.DefaultConfig(), nil)
	if err := LoadDocument(g, doc); err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if p, ok := g.NodeContainer("inner"); !ok || p != "outer" {
		t.Errorf("parent of inner = %q (%v), want outer", p, ok)
	}

	// A genuinely missing child is unresolvable.
	bad := &Document{
		Containers: []DocumentContainer{
			{Container: hypergraph.Container{ID: "c"}, Children: []string{"ghost"}},
		},
	}
	g2 := hypergraph.New(hypergraph.DefaultConfig(), nil)
	if err := LoadDocument(g2, bad); !errors.Is(err, errors.ErrCodeInvalidDocument) {
		t.Errorf("err = %v, want INVALID_DOCUMENT", err)
	}
}
