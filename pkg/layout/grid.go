package layout

import (
	"context"
	"math"

	"github.com/nestview/nestview/pkg/hypergraph"
)

// =============================================================================
// Grid Engine
// =============================================================================

// Grid is the built-in deterministic engine. It arranges each scope's
// visible members into a near-square grid, sizing expanded containers
// to fit their children. Output depends only on entity IDs and the
// graph's dimension config, never on map order.
type Grid struct {
	// NodeWidth and NodeHeight size leaf nodes without an explicit
	// layout of their own.
	NodeWidth  float64
	NodeHeight float64

	// GapX and GapY separate grid cells.
	GapX float64
	GapY float64
}

// NewGrid returns a grid engine with the default cell geometry.
func NewGrid() *Grid {
	return &Grid{NodeWidth: 160, NodeHeight: 48, GapX: 40, GapY: 40}
}

var _ Engine = (*Grid)(nil)

// Name implements [Engine].
func (e *Grid) Name() string { return "grid" }

// Layout implements [Engine].
func (e *Grid) Layout(ctx context.Context, g *hypergraph.Graph) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := newResult()
	cfg := g.Config()
	w, h := e.layoutScope(g, cfg, r, topLevel(g), 0, 0)
	r.Width, r.Height = w, h
	e.routeEdges(g, r)
	return r, nil
}

// layoutScope places members in a grid starting at (x, y) and returns
// the occupied width and height. Expanded containers recurse before
// their own cell size is known.
func (e *Grid) layoutScope(g *hypergraph.Graph, cfg hypergraph.Config, r *Result, members []string, x, y float64) (float64, float64) {
	if len(members) == 0 {
		return 0, 0
	}
	cols := int(math.Ceil(math.Sqrt(float64(len(members)))))

	var totalW, rowH, curX, curY float64
	for i, id := range members {
		if i > 0 && i%cols == 0 {
			curX = 0
			curY += rowH + e.GapY
			rowH = 0
		}

		w, h := e.place(g, cfg, r, id, x+curX, y+curY)
		if curX+w > totalW {
			totalW = curX + w
		}
		if h > rowH {
			rowH = h
		}
		curX += w + e.GapX
	}
	return totalW, curY + rowH
}

// place positions a single member and returns its footprint.
func (e *Grid) place(g *hypergraph.Graph, cfg hypergraph.Config, r *Result, id string, x, y float64) (float64, float64) {
	c, isContainer := g.Container(id)
	if !isContainer {
		box := hypergraph.Box{X: x, Y: y, Width: e.NodeWidth, Height: e.NodeHeight}
		r.Nodes[id] = box
		return box.Width, box.Height
	}

	if c.Collapsed {
		box := hypergraph.Box{X: x, Y: y, Width: cfg.CollapsedWidth, Height: cfg.CollapsedHeight}
		r.Containers[id] = box
		return box.Width, box.Height
	}

	// Expanded: children first, then wrap them.
	innerX := x + cfg.Padding
	innerY := y + cfg.Padding + cfg.LabelHeight
	innerW, innerH := e.layoutScope(g, cfg, r, visibleChildren(g, id), innerX, innerY)

	w := innerW + 2*cfg.Padding
	h := innerH + 2*cfg.Padding + cfg.LabelHeight
	if w < cfg.MinExpandedWidth {
		w = cfg.MinExpandedWidth
	}
	if h < cfg.MinExpandedHeight {
		h = cfg.MinExpandedHeight
	}
	r.Containers[id] = hypergraph.Box{X: x, Y: y, Width: w, Height: h}
	return w, h
}

// routeEdges draws every visible edge and hyper-edge as a straight
// segment between entity centers.
func (e *Grid) routeEdges(g *hypergraph.Graph, r *Result) {
	for _, edge := range g.VisibleEdges() {
		e.route(r, edge.ID, edge.Source, edge.Target)
	}
	for _, he := range g.VisibleHyperEdges() {
		e.route(r, he.ID, he.Source, he.Target)
	}
}

func (e *Grid) route(r *Result, id, source, target string) {
	from, okF := r.center(source)
	to, okT := r.center(target)
	if !okF || !okT {
		return
	}
	r.Routes[id] = []hypergraph.Point{from, to}
}
