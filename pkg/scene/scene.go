// Package scene flattens the visible part of a hypergraph into the
// payload a renderer consumes. A [Scene] is a plain value: building
// one never mutates the graph, and the same graph state always
// produces the same scene.
//
// Scenes serialize to JSON for the HTTP API and CLI, and carry bson
// tags so saved views can persist to MongoDB unchanged.
package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nestview/nestview/pkg/cache"
	"github.com/nestview/nestview/pkg/errors"
	"github.com/nestview/nestview/pkg/hypergraph"
)

// =============================================================================
// Scene Types
// =============================================================================

// Scene is the renderable snapshot of a graph's visible entities.
// Containers are ordered parents-first so a renderer can paint them
// back to front; edges cover both regular edges and hyper-edges.
type Scene struct {
	GraphID string  `json:"graph_id,omitempty" bson:"graph_id,omitempty"`
	Width   float64 `json:"width" bson:"width"`
	Height  float64 `json:"height" bson:"height"`

	Nodes      []Node      `json:"nodes" bson:"nodes"`
	Containers []Container `json:"containers,omitempty" bson:"containers,omitempty"`
	Edges      []Edge      `json:"edges,omitempty" bson:"edges,omitempty"`
}

// Node is a positioned leaf vertex.
type Node struct {
	ID     string           `json:"id" bson:"id"`
	Label  string           `json:"label" bson:"label"`
	Style  hypergraph.Style `json:"style,omitempty" bson:"style,omitempty"`
	Box    *hypergraph.Box  `json:"box,omitempty" bson:"box,omitempty"`
	Parent string           `json:"parent,omitempty" bson:"parent,omitempty"`
}

// Container is a positioned group. Depth is the nesting level from
// the root, for painter's ordering.
type Container struct {
	ID        string           `json:"id" bson:"id"`
	Label     string           `json:"label" bson:"label"`
	Style     hypergraph.Style `json:"style,omitempty" bson:"style,omitempty"`
	Collapsed bool             `json:"collapsed,omitempty" bson:"collapsed,omitempty"`
	Box       *hypergraph.Box  `json:"box,omitempty" bson:"box,omitempty"`
	Parent    string           `json:"parent,omitempty" bson:"parent,omitempty"`
	Depth     int              `json:"depth" bson:"depth"`
}

// Edge is a drawable connection. Summarized is zero for a regular
// edge and the count of folded edges for a hyper-edge.
type Edge struct {
	ID         string             `json:"id" bson:"id"`
	Source     string             `json:"source" bson:"source"`
	Target     string             `json:"target" bson:"target"`
	Style      hypergraph.Style   `json:"style,omitempty" bson:"style,omitempty"`
	Summarized int                `json:"summarized,omitempty" bson:"summarized,omitempty"`
	Route      []hypergraph.Point `json:"route,omitempty" bson:"route,omitempty"`
}

// =============================================================================
// Building
// =============================================================================

// Build snapshots the graph's visible entities into a scene. Entities
// appear in deterministic order; entities without a stored layout get
// a nil box and zero drawing bounds are left to the renderer.
func Build(g *hypergraph.Graph, graphID string) *Scene {
	s := &Scene{GraphID: graphID}

	for _, n := range g.VisibleNodes() {
		sn := Node{ID: n.ID, Label: n.DisplayLabel(), Style: n.Style, Box: n.Layout}
		if p, ok := g.NodeContainer(n.ID); ok {
			sn.Parent = p
		}
		s.Nodes = append(s.Nodes, sn)
		s.grow(n.Layout)
	}

	for _, c := range g.VisibleContainers() {
		sc := Container{
			ID:        c.ID,
			Label:     c.DisplayLabel(),
			Style:     c.Style,
			Collapsed: c.Collapsed,
			Box:       c.Layout,
			Depth:     depth(g, c.ID),
		}
		if p, ok := g.NodeContainer(c.ID); ok {
			sc.Parent = p
		}
		s.Containers = append(s.Containers, sc)
		s.grow(c.Layout)
	}
	sort.Slice(s.Containers, func(i, j int) bool {
		if s.Containers[i].Depth != s.Containers[j].Depth {
			return s.Containers[i].Depth < s.Containers[j].Depth
		}
		return s.Containers[i].ID < s.Containers[j].ID
	})

	for _, e := range g.VisibleEdges() {
		s.Edges = append(s.Edges, Edge{
			ID: e.ID, Source: e.Source, Target: e.Target, Style: e.Style, Route: e.Route,
		})
	}
	for _, he := range g.VisibleHyperEdges() {
		s.Edges = append(s.Edges, Edge{
			ID: he.ID, Source: he.Source, Target: he.Target,
			Style: he.Style, Summarized: len(he.Edges), Route: he.Route,
		})
	}
	sort.Slice(s.Edges, func(i, j int) bool { return s.Edges[i].ID < s.Edges[j].ID })

	return s
}

// grow widens the drawing bounds to include a box.
func (s *Scene) grow(b *hypergraph.Box) {
	if b == nil {
		return
	}
	if b.X+b.Width > s.Width {
		s.Width = b.X + b.Width
	}
	if b.Y+b.Height > s.Height {
		s.Height = b.Y + b.Height
	}
}

// depth counts parent hops to the root.
func depth(g *hypergraph.Graph, id string) int {
	d := 0
	for {
		p, ok := g.NodeContainer(id)
		if !ok {
			return d
		}
		id = p
		d++
	}
}

// =============================================================================
// Serialization
// =============================================================================

// WriteJSON writes the scene as indented JSON.
func (s *Scene) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode scene")
	}
	return nil
}

// Checksum returns a stable content hash of the scene, used as the
// cache key component for rendered artifacts.
func (s *Scene) Checksum() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash scene")
	}
	return cache.Hash(data), nil
}

// =============================================================================
// DOT Export
// =============================================================================

// ToDOT renders the scene as a flat Graphviz DOT document for
// debugging. Unlike the layout engine's source, this ignores nesting:
// every visible entity becomes a plain node.
func (s *Scene) ToDOT() string {
	var buf bytes.Buffer
	buf.WriteString("digraph scene {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white];\n")
	buf.WriteString("\n")

	for _, n := range s.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n.Label, n.Style, false), ", "))
	}
	for _, c := range s.Containers {
		fmt.Fprintf(&buf, "  %q [%s];\n", c.ID, strings.Join(nodeAttrs(c.Label, c.Style, c.Collapsed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range s.Edges {
		attrs := []string{}
		if e.Style == hypergraph.StyleDashed || e.Summarized > 0 {
			attrs = append(attrs, "style=dashed")
		}
		if e.Summarized > 1 {
			attrs = append(attrs, fmt.Sprintf("label=\"%d\"", e.Summarized))
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(label string, style hypergraph.Style, collapsed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if collapsed {
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	if style == hypergraph.StyleError {
		attrs = append(attrs, "color=red")
	}
	return attrs
}
