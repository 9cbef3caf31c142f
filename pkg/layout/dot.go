package layout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/nestview/nestview/pkg/errors"
	"github.com/nestview/nestview/pkg/hypergraph"
)

// =============================================================================
// Dot Engine
// =============================================================================

// Dot lays the visible snapshot out with Graphviz. Expanded containers
// become clusters, collapsed containers become fixed-size boxes, and
// hyper-edges render dashed. Positions come back through Graphviz's
// JSON output.
type Dot struct {
	// RankDir is the Graphviz rank direction, "TB" when empty.
	RankDir string
}

// NewDot returns a Graphviz-backed engine with top-to-bottom ranking.
func NewDot() *Dot {
	return &Dot{RankDir: "TB"}
}

var _ Engine = (*Dot)(nil)

// Name implements [Engine].
func (e *Dot) Name() string { return "dot" }

// Layout implements [Engine].
func (e *Dot) Layout(ctx context.Context, g *hypergraph.Graph) (*Result, error) {
	src := e.buildDOT(g)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayout, err, "init graphviz")
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayout, err, "parse DOT")
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, graphviz.Format("json"), &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayout, err, "layout")
	}
	return parseDotJSON(g, buf.Bytes())
}

// ToDOT exposes the DOT source the engine feeds Graphviz, useful for
// debugging layouts by hand.
func (e *Dot) ToDOT(g *hypergraph.Graph) string {
	return e.buildDOT(g)
}

func (e *Dot) buildDOT(g *hypergraph.Graph) string {
	rankdir := e.RankDir
	if rankdir == "" {
		rankdir = "TB"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	cfg := g.Config()
	e.writeScope(&buf, g, cfg, topLevel(g), "  ")

	buf.WriteString("\n")
	for _, edge := range g.VisibleEdges() {
		e.writeEdge(&buf, g, edge.ID, edge.Source, edge.Target, edge.Style, 0)
	}
	for _, he := range g.VisibleHyperEdges() {
		e.writeEdge(&buf, g, he.ID, he.Source, he.Target, he.Style, len(he.Edges))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// writeScope emits a scope's members: leaf nodes and collapsed
// containers as node statements, expanded containers as clusters.
func (e *Dot) writeScope(buf *bytes.Buffer, g *hypergraph.Graph, cfg hypergraph.Config, members []string, indent string) {
	for _, id := range members {
		c, isContainer := g.Container(id)
		switch {
		case !isContainer:
			n, _ := g.Node(id)
			fmt.Fprintf(buf, "%s%q [label=%q];\n", indent, id, n.DisplayLabel())
		case c.Collapsed:
			// Fixed-size box matching the configured collapsed dims.
			// Graphviz node sizes are in inches.
			fmt.Fprintf(buf, "%s%q [label=%q, width=%.3f, height=%.3f, fixedsize=true, style=\"filled\", fillcolor=lightgrey];\n",
				indent, id, c.DisplayLabel(), cfg.CollapsedWidth/72, cfg.CollapsedHeight/72)
		default:
			fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, "cluster_"+id)
			fmt.Fprintf(buf, "%s  label=%q;\n", indent, c.DisplayLabel())
			e.writeScope(buf, g, cfg, visibleChildren(g, id), indent+"  ")
			fmt.Fprintf(buf, "%s}\n", indent)
		}
	}
}

// writeEdge emits an edge statement. Endpoints that are expanded
// containers attach through a representative inner node with
// lhead/ltail pointing at the cluster.
func (e *Dot) writeEdge(buf *bytes.Buffer, g *hypergraph.Graph, id, source, target string, style hypergraph.Style, summarized int) {
	src, srcCluster := anchor(g, source)
	tgt, tgtCluster := anchor(g, target)
	if src == "" || tgt == "" {
		return
	}

	attrs := []string{fmt.Sprintf("id=%q", id)}
	if summarized > 0 {
		attrs = append(attrs, "style=dashed")
		if summarized > 1 {
			attrs = append(attrs, fmt.Sprintf("label=%q", strconv.Itoa(summarized)))
		}
	} else if style == hypergraph.StyleDashed {
		attrs = append(attrs, "style=dashed")
	}
	if srcCluster != "" {
		attrs = append(attrs, fmt.Sprintf("ltail=%q", srcCluster))
	}
	if tgtCluster != "" {
		attrs = append(attrs, fmt.Sprintf("lhead=%q", tgtCluster))
	}
	fmt.Fprintf(buf, "  %q -> %q [%s];\n", src, tgt, strings.Join(attrs, ", "))
}

// anchor resolves an edge endpoint to a concrete DOT node name. For an
// expanded container it returns a visible descendant plus the cluster
// name the edge should clip to.
func anchor(g *hypergraph.Graph, id string) (string, string) {
	c, isContainer := g.Container(id)
	if !isContainer || c.Collapsed {
		return id, ""
	}
	rep := representative(g, id)
	if rep == "" {
		return "", ""
	}
	return rep, "cluster_" + id
}

// representative picks the first visible non-cluster entity inside an
// expanded container, depth first.
func representative(g *hypergraph.Graph, id string) string {
	for _, child := range visibleChildren(g, id) {
		c, isContainer := g.Container(child)
		if !isContainer || c.Collapsed {
			return child
		}
		if rep := representative(g, child); rep != "" {
			return rep
		}
	}
	return ""
}

// =============================================================================
// JSON Output Parsing
// =============================================================================

// dotDoc mirrors the parts of Graphviz's json0 output the engine
// reads back. Coordinates are points with a bottom-left origin.
type dotDoc struct {
	BB      string      `json:"bb"`
	Objects []dotObject `json:"objects"`
	Edges   []dotEdge   `json:"edges"`
}

type dotObject struct {
	Name   string `json:"name"`
	BB     string `json:"bb"`
	Pos    string `json:"pos"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

type dotEdge struct {
	ID  string `json:"id"`
	Pos string `json:"pos"`
}

func parseDotJSON(g *hypergraph.Graph, data []byte) (*Result, error) {
	var doc dotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayout, err, "decode graphviz output")
	}

	_, _, width, height, err := parseBB(doc.BB)
	if err != nil {
		return nil, err
	}

	r := newResult()
	r.Width, r.Height = width, height

	for _, obj := range doc.Objects {
		switch {
		case strings.HasPrefix(obj.Name, "cluster_"):
			id := strings.TrimPrefix(obj.Name, "cluster_")
			llx, lly, w, h, err := parseBB(obj.BB)
			if err != nil {
				return nil, err
			}
			r.Containers[id] = hypergraph.Box{X: llx, Y: height - lly - h, Width: w, Height: h}
		case obj.Pos != "":
			cx, cy, err := parsePoint(obj.Pos)
			if err != nil {
				return nil, err
			}
			// Node width/height come back in inches.
			w, _ := strconv.ParseFloat(obj.Width, 64)
			h, _ := strconv.ParseFloat(obj.Height, 64)
			w, h = w*72, h*72
			box := hypergraph.Box{X: cx - w/2, Y: height - cy - h/2, Width: w, Height: h}
			if _, isContainer := g.Container(obj.Name); isContainer {
				r.Containers[obj.Name] = box
			} else {
				r.Nodes[obj.Name] = box
			}
		}
	}

	for _, edge := range doc.Edges {
		if edge.ID == "" || edge.Pos == "" {
			continue
		}
		route, err := parseSpline(edge.Pos, height)
		if err != nil {
			return nil, err
		}
		if len(route) > 0 {
			r.Routes[edge.ID] = route
		}
	}
	return r, nil
}

// parseBB parses a "llx,lly,urx,ury" bounding box into origin plus
// width and height.
func parseBB(bb string) (x, y, w, h float64, err error) {
	parts := strings.Split(bb, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, errors.New(errors.ErrCodeLayout, "malformed bounding box %q", bb)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		vals[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, 0, 0, 0, errors.Wrap(errors.ErrCodeLayout, err, "bounding box %q", bb)
		}
	}
	return vals[0], vals[1], vals[2] - vals[0], vals[3] - vals[1], nil
}

func parsePoint(pos string) (float64, float64, error) {
	parts := strings.Split(pos, ",")
	if len(parts) != 2 {
		return 0, 0, errors.New(errors.ErrCodeLayout, "malformed position %q", pos)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errX != nil || errY != nil {
		return 0, 0, errors.New(errors.ErrCodeLayout, "malformed position %q", pos)
	}
	return x, y, nil
}

// parseSpline decodes a Graphviz edge spline into a top-down route.
// The optional "e,x,y" and "s,x,y" arrow endpoints are folded into the
// point sequence.
func parseSpline(pos string, height float64) ([]hypergraph.Point, error) {
	var start, end *hypergraph.Point
	var route []hypergraph.Point

	for _, token := range strings.Fields(pos) {
		switch {
		case strings.HasPrefix(token, "e,"):
			x, y, err := parsePoint(token[2:])
			if err != nil {
				return nil, err
			}
			end = &hypergraph.Point{X: x, Y: height - y}
		case strings.HasPrefix(token, "s,"):
			x, y, err := parsePoint(token[2:])
			if err != nil {
				return nil, err
			}
			start = &hypergraph.Point{X: x, Y: height - y}
		default:
			x, y, err := parsePoint(token)
			if err != nil {
				return nil, err
			}
			route = append(route, hypergraph.Point{X: x, Y: height - y})
		}
	}

	if start != nil {
		route = append([]hypergraph.Point{*start}, route...)
	}
	if end != nil {
		route = append(route, *end)
	}
	return route, nil
}

// =============================================================================
// SVG Rendering
// =============================================================================

// RenderSVG renders a DOT graph to SVG using Graphviz. The viewBox is
// normalized to a zero origin so the SVG embeds cleanly.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayout, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayout, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayout, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
