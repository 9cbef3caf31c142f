package hypergraph

import (
	"fmt"
	"sort"
)

// Collapsing is bottom-up: nested expanded containers fold first so
// their connectivity is already summarized when the outer container
// builds its own hyper-edges. Crossing edges (exactly one endpoint
// among the container's transitive descendants) are hidden and
// regrouped into one hyper-edge per (direction, resolved external
// endpoint) pair; internal edges simply go invisible as their
// endpoints hide.

func (g *Graph) collapseContainer(id string) error {
	c, ok := g.st.containers[id]
	if !ok {
		return fmt.Errorf("collapse container %q: %w", id, ErrNotFound)
	}
	if c.Collapsed {
		g.logger.Debug("collapse: container already collapsed", "container", id)
		return nil
	}
	g.collapseOne(c)
	return nil
}

func (g *Graph) collapseOne(c *Container) {
	// Depth-first: fold expanded child containers before this one.
	for _, child := range sortedIDs(g.st.children[c.ID]) {
		if cc, ok := g.st.containers[child]; ok && !cc.Collapsed {
			g.collapseOne(cc)
		}
	}

	desc := g.st.descendants(c.ID)

	// Capture the visible crossing edges before anything hides. A
	// crossing edge has exactly one endpoint among the descendants;
	// edges the caller had already hidden carry no visible
	// connectivity and are not summarized.
	var crossing []string
	for eid := range g.st.incidentEdges(desc) {
		e := g.st.edges[eid]
		_, srcIn := desc[e.Source]
		_, tgtIn := desc[e.Target]
		if srcIn != tgtIn && !e.Hidden {
			crossing = append(crossing, eid)
		}
	}
	sort.Strings(crossing)

	// Hyper-edges about to lose an endpoint inside this container are
	// torn down and rebuilt from their summarized edges, which lifts
	// them to the new lowest visible ancestor in one pass.
	pool := append([]string(nil), crossing...)
	for _, heID := range sortedHyperEdgeIDs(g.st.hyperEdges) {
		he := g.st.hyperEdges[heID]
		_, srcIn := desc[he.Source]
		_, tgtIn := desc[he.Target]
		if !srcIn && !tgtIn {
			continue
		}
		pool = append(pool, he.Edges...)
		g.st.deleteHyperEdge(heID)
	}

	// Fold: remember expanded dimensions, force the fixed collapsed
	// ones, hide every descendant. Child containers were collapsed
	// above, so flagging them hidden completes invariant maintenance.
	if c.Layout != nil {
		c.ExpandedDims = &Dims{Width: c.Layout.Width, Height: c.Layout.Height}
	}
	c.Collapsed = true
	g.applyCollapsedDims(c)
	for d := range desc {
		if n, ok := g.st.nodes[d]; ok {
			n.Hidden = true
		} else if cc, ok := g.st.containers[d]; ok {
			cc.Hidden = true
		}
	}
	g.refreshContainerCaches(c)
	g.cascadeIncidentEdges(c.ID)
	for d := range desc {
		g.cascadeIncidentEdges(d)
	}

	g.summarizeEdges(pool, c.ID)
	g.logger.Debug("collapsed container",
		"container", c.ID, "descendants", len(desc), "crossing", len(crossing))
}

// summarizeEdges regroups a pool of regular edges whose endpoints may
// have changed visibility. Each edge resolves both endpoints to their
// lowest visible ancestor:
//
//   - both unchanged and visible: the edge itself is restored
//   - both resolve to the same entity: the connectivity is internal
//     to a fold, nothing is shown
//   - otherwise: the edge joins the hyper-edge for its resolved
//     (source, target) pair, merging with an existing equivalent
//
// trigger is the container whose collapse drove the regrouping; when
// empty (expand path) each hyper-edge is attributed to its collapsed
// container endpoint.
func (g *Graph) summarizeEdges(pool []string, trigger string) {
	type group struct {
		source, target string
		edges          []string
		style          Style
	}
	groups := make(map[string]*group)
	var order []string

	seen := make(map[string]struct{}, len(pool))
	for _, eid := range pool {
		if _, dup := seen[eid]; dup {
			continue
		}
		seen[eid] = struct{}{}

		e, ok := g.st.edges[eid]
		if !ok {
			g.logger.Warn("summarize: summarized edge no longer exists", "edge", eid)
			continue
		}
		src, okS := g.LowestVisibleAncestor(e.Source)
		tgt, okT := g.LowestVisibleAncestor(e.Target)
		if !okS || !okT {
			g.logger.Warn("summarize: endpoint has no visible ancestor, edge stays hidden",
				"edge", eid, "source", e.Source, "target", e.Target)
			continue
		}
		if src == e.Source && tgt == e.Target {
			g.setEdgeVisibility(eid, true)
			continue
		}
		if src == tgt {
			continue // folds onto one container, no visible connectivity
		}
		if !g.isVisibleCollapsedContainer(src) && !g.isVisibleCollapsedContainer(tgt) {
			// Resolution crossed no collapsed boundary (an explicitly
			// hidden endpoint inside expanded containers); there is
			// nothing to summarize and the edge stays hidden.
			continue
		}

		key := src + "\x00" + tgt
		grp, ok := groups[key]
		if !ok {
			grp = &group{source: src, target: tgt, style: StyleDefault}
			groups[key] = grp
			order = append(order, key)
		}
		grp.edges = append(grp.edges, eid)
		grp.style = mergeStyles(grp.style, e.Style)
	}
	sort.Strings(order)

	for _, key := range order {
		grp := groups[key]
		heID := hyperEdgeID(grp.source, grp.target)
		if existing, ok := g.st.hyperEdges[heID]; ok {
			existing.Edges = mergeIDs(existing.Edges, grp.edges)
			existing.Style = mergeStyles(existing.Style, grp.style)
			continue
		}
		marker := trigger
		if marker == "" {
			marker = g.collapseMarker(grp.source, grp.target)
		}
		g.st.putHyperEdge(&HyperEdge{
			ID:          heID,
			Source:      grp.source,
			Target:      grp.target,
			Style:       grp.style,
			Edges:       grp.edges,
			CollapsedBy: marker,
		})
	}
}

// collapseMarker attributes a hyper-edge to a collapsed container
// endpoint when the triggering collapse is not known (expand-path
// re-synthesis). At least one endpoint is always a visible collapsed
// container for a well-formed hyper-edge.
func (g *Graph) collapseMarker(source, target string) string {
	if c, ok := g.st.containers[source]; ok && c.Collapsed {
		return source
	}
	if c, ok := g.st.containers[target]; ok && c.Collapsed {
		return target
	}
	g.logger.Warn("hyper-edge has no collapsed container endpoint",
		"source", source, "target", target)
	return source
}

func mergeIDs(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, id := range a {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range b {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func sortedIDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sortedHyperEdgeIDs(m map[string]*HyperEdge) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
