package layout

import (
	"strings"
	"testing"
)

func TestDotSource(t *testing.T) {
	g := layoutGraph(t)
	src := NewDot().ToDOT(g)

	// Expanded containers are clusters, collapsed ones fixed boxes.
	if !strings.Contains(src, `subgraph "cluster_d"`) {
		t.Error("expanded container not emitted as cluster")
	}
	if !strings.Contains(src, `"c1"`) || !strings.Contains(src, "fixedsize=true") {
		t.Error("collapsed container not emitted as fixed-size box")
	}
	if strings.Contains(src, `subgraph "cluster_c1"`) {
		t.Error("collapsed container emitted as cluster")
	}

	// Hyper-edges render dashed and carry their ID for readback.
	if !strings.Contains(src, `id="he_c1__n3"`) {
		t.Error("hyper-edge missing id attribute")
	}
	heLine := lineContaining(src, "he_c1__n3")
	if !strings.Contains(heLine, "style=dashed") {
		t.Errorf("hyper-edge line %q not dashed", heLine)
	}

	// An edge into an expanded container clips at the cluster.
	e4Line := lineContaining(src, `id="e4"`)
	if !strings.Contains(e4Line, `lhead="cluster_d"`) {
		t.Errorf("edge into expanded container %q missing lhead", e4Line)
	}
	if !strings.Contains(e4Line, `"n3"`) {
		t.Errorf("edge into expanded container %q not anchored to inner node", e4Line)
	}

	// Hidden entities stay out of the DOT source entirely.
	for _, id := range []string{`"n1"`, `"n2"`, `id="e1"`, `id="e2"`} {
		if strings.Contains(src, id) {
			t.Errorf("hidden entity %s present in DOT source", id)
		}
	}
}

func lineContaining(s, substr string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, substr) {
			return line
		}
	}
	return ""
}

func TestParseDotJSON(t *testing.T) {
	g := layoutGraph(t)

	// Hand-built json0 output: 300x200pt drawing, one cluster, one
	// node, one routed edge. Graphviz positions are center-anchored
	// with a bottom-left origin; node sizes are in inches.
	const out = `{
		"bb": "0,0,300,200",
		"objects": [
			{"name": "cluster_d", "bb": "10,20,110,120"},
			{"name": "n3", "pos": "100,150", "width": "1", "height": "0.5"},
			{"name": "c1", "pos": "200,50", "width": "1.667", "height": "0.667"}
		],
		"edges": [
			{"id": "e4", "pos": "e,50,50 10,190 30,170"},
			{"id": "", "pos": "1,1"}
		]
	}`

	r, err := parseDotJSON(g, []byte(out))
	if err != nil {
		t.Fatalf("parseDotJSON: %v", err)
	}
	if r.Width != 300 || r.Height != 200 {
		t.Errorf("bounds = %gx%g, want 300x200", r.Width, r.Height)
	}

	d, ok := r.Containers["d"]
	if !ok {
		t.Fatal("cluster not mapped to container")
	}
	want := [4]float64{10, 80, 100, 100}
	if got := [4]float64{d.X, d.Y, d.Width, d.Height}; got != want {
		t.Errorf("cluster box = %v, want %v", got, want)
	}

	// y flips from bottom-left to top-left origin.
	n3, ok := r.Nodes["n3"]
	if !ok {
		t.Fatal("node missing from result")
	}
	if n3.X != 100-36 || n3.Y != 200-150-18 || n3.Width != 72 || n3.Height != 36 {
		t.Errorf("node box = %+v, want centered at (100,50) top-down", n3)
	}

	// A plain node statement for a collapsed container lands in the
	// container map.
	if _, ok := r.Containers["c1"]; !ok {
		t.Error("collapsed container box not mapped to container")
	}

	route, ok := r.Routes["e4"]
	if !ok || len(route) != 3 {
		t.Fatalf("route = %v, want 3 points", route)
	}
	if route[0].X != 10 || route[0].Y != 10 {
		t.Errorf("first point = %+v, want (10,10)", route[0])
	}
	if last := route[len(route)-1]; last.X != 50 || last.Y != 150 {
		t.Errorf("arrow endpoint = %+v, want (50,150)", last)
	}

	// Edges without an ID attribute are skipped, not an error.
	if len(r.Routes) != 1 {
		t.Errorf("routes = %v, want only e4", r.Routes)
	}
}

func TestParseDotJSONMalformed(t *testing.T) {
	g := layoutGraph(t)
	tests := []struct {
		name string
		out  string
	}{
		{"Garbage", "not json"},
		{"BadBB", `{"bb": "0,0,300"}`},
		{"BadPos", `{"bb": "0,0,10,10", "objects": [{"name": "n3", "pos": "x,y"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseDotJSON(g, []byte(tt.out)); err == nil {
				t.Error("malformed output accepted")
			}
		})
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<?xml version="1.0"?>
<svg width="8.5in" height="11in" viewBox="0.00 0.00 612.00 792.00" xmlns="http://www.w3.org/2000/svg">`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 612.00 792.00"`) {
		t.Errorf("viewBox not normalized: %s", out)
	}
	if !strings.Contains(out, `width="612"`) {
		t.Errorf("pixel width missing: %s", out)
	}

	// SVGs without a viewBox pass through untouched.
	plain := []byte("<svg>")
	if string(normalizeViewBox(plain)) != "<svg>" {
		t.Error("viewBox-less SVG modified")
	}
}
