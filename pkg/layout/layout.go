// Package layout computes positions and sizes for the visible part of
// a hypergraph. The state core treats layout as an external oracle: an
// [Engine] reads the visible snapshot, produces a [Result], and
// [Apply] persists it back through the graph's layout setters.
//
// Two engines ship with the package: [Grid], a deterministic built-in
// arrangement used by tests and the terminal UI, and [Dot], which
// delegates to Graphviz for proper hierarchical layout.
//
// # Usage
//
//	res, err := layout.NewGrid().Layout(ctx, g)
//	if err == nil {
//		err = layout.Apply(g, res)
//	}
package layout

import (
	"context"
	"sort"

	"github.com/nestview/nestview/pkg/errors"
	"github.com/nestview/nestview/pkg/hypergraph"
)

// Engine computes a layout for the currently visible entities of a
// graph. Engines only read; persisting the result is [Apply]'s job.
type Engine interface {
	// Name identifies the engine in config files and CLI flags.
	Name() string

	// Layout positions every visible node, container, edge and
	// hyper-edge. Hidden entities are absent from the result.
	Layout(ctx context.Context, g *hypergraph.Graph) (*Result, error)
}

// Result holds computed geometry keyed by entity ID. Edge routes
// cover both regular edges and hyper-edges.
type Result struct {
	Nodes      map[string]hypergraph.Box
	Containers map[string]hypergraph.Box
	Routes     map[string][]hypergraph.Point

	// Width and Height bound the full drawing.
	Width  float64
	Height float64
}

func newResult() *Result {
	return &Result{
		Nodes:      make(map[string]hypergraph.Box),
		Containers: make(map[string]hypergraph.Box),
		Routes:     make(map[string][]hypergraph.Point),
	}
}

// Apply writes a layout result into the graph through its setters.
// The whole result is applied as one batch so invariants are checked
// once at the end.
func Apply(g *hypergraph.Graph, r *Result) error {
	if r == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil layout result")
	}
	return g.Batch(func(g *hypergraph.Graph) error {
		for _, id := range sortedKeys(r.Containers) {
			if err := g.SetContainerLayout(id, r.Containers[id]); err != nil {
				return errors.Wrap(errors.ErrCodeLayout, err, "container %s", id)
			}
		}
		for _, id := range sortedKeys(r.Nodes) {
			if err := g.SetNodeLayout(id, r.Nodes[id]); err != nil {
				return errors.Wrap(errors.ErrCodeLayout, err, "node %s", id)
			}
		}
		for _, id := range sortedKeys(r.Routes) {
			if err := g.SetEdgeLayout(id, r.Routes[id]); err != nil {
				return errors.Wrap(errors.ErrCodeLayout, err, "edge %s", id)
			}
		}
		return nil
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// topLevel returns the visible root-scope member IDs: root containers
// plus nodes that belong to no container, sorted for determinism.
func topLevel(g *hypergraph.Graph) []string {
	var members []string
	for _, id := range g.RootContainers() {
		if g.IsVisible(id) {
			members = append(members, id)
		}
	}
	for _, n := range g.VisibleNodes() {
		if _, owned := g.NodeContainer(n.ID); !owned {
			members = append(members, n.ID)
		}
	}
	sort.Strings(members)
	return members
}

// visibleChildren filters a container's direct children down to the
// visible ones, sorted.
func visibleChildren(g *hypergraph.Graph, id string) []string {
	var out []string
	for _, child := range g.ContainerChildren(id) {
		if g.IsVisible(child) {
			out = append(out, child)
		}
	}
	sort.Strings(out)
	return out
}

// center returns the midpoint of an entity's computed box, looking in
// both the node and container maps.
func (r *Result) center(id string) (hypergraph.Point, bool) {
	if b, ok := r.Nodes[id]; ok {
		return hypergraph.Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}, true
	}
	if b, ok := r.Containers[id]; ok {
		return hypergraph.Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}, true
	}
	return hypergraph.Point{}, false
}
