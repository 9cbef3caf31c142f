package hypergraph

import "sort"

// Visibility is layered: an entity's own Hidden flag is not the same
// as its effective visibility, which also depends on every ancestor
// container's hidden/collapsed state. This file is the sole place
// where stored flags are reconciled into the cached visible sets;
// everything else reads the caches.

// ancestorsVisible reports whether every ancestor container of the
// entity is visible and expanded.
func (g *Graph) ancestorsVisible(id string) bool {
	for cur, ok := g.st.parent[id]; ok; cur, ok = g.st.parent[cur] {
		c, exists := g.st.containers[cur]
		if !exists {
			return false
		}
		if c.Hidden || c.Collapsed {
			return false
		}
	}
	return true
}

// entityVisible reports the effective visibility of a node or
// container from the caches.
func (g *Graph) entityVisible(id string) bool {
	if _, ok := g.st.visibleNodes[id]; ok {
		return true
	}
	_, ok := g.st.visibleContainers[id]
	return ok
}

// refreshNodeCache recomputes a single node's membership in the
// visible-node cache.
func (g *Graph) refreshNodeCache(n *Node) {
	if !n.Hidden && g.ancestorsVisible(n.ID) {
		g.st.visibleNodes[n.ID] = struct{}{}
	} else {
		delete(g.st.visibleNodes, n.ID)
	}
}

// refreshContainerCaches recomputes membership in the visible and
// expanded container sets for a container and all of its descendants.
// An ancestor's collapse or hide can flip a descendant's effective
// visibility without touching the descendant's own flags, so the
// recomputation is always recursive.
func (g *Graph) refreshContainerCaches(c *Container) {
	visible := !c.Hidden && g.ancestorsVisible(c.ID)
	if visible {
		g.st.visibleContainers[c.ID] = struct{}{}
	} else {
		delete(g.st.visibleContainers, c.ID)
	}
	if visible && !c.Collapsed {
		g.st.expandedContainers[c.ID] = struct{}{}
	} else {
		delete(g.st.expandedContainers, c.ID)
	}

	for child := range g.st.children[c.ID] {
		if cc, ok := g.st.containers[child]; ok {
			g.refreshContainerCaches(cc)
		} else if n, ok := g.st.nodes[child]; ok {
			g.refreshNodeCache(n)
		}
	}
}

// cascadeIncidentEdges re-derives the hidden flag of every regular
// edge touching the entity. An edge with a hidden endpoint always
// hides; when both endpoints return to view, only edges the cascade
// itself hid are revealed, so a caller's explicit hide survives any
// number of collapse/expand cycles.
func (g *Graph) cascadeIncidentEdges(id string) {
	for eid := range g.st.incident[id] {
		e := g.st.edges[eid]
		bothVisible := g.entityVisible(e.Source) && g.entityVisible(e.Target)
		switch {
		case !bothVisible && !e.Hidden:
			e.Hidden = true
			g.st.cascadeHidden[eid] = struct{}{}
		case bothVisible && e.Hidden:
			if _, byCascade := g.st.cascadeHidden[eid]; byCascade {
				e.Hidden = false
				delete(g.st.cascadeHidden, eid)
			}
		}
	}
}

// setNodeVisibility flips a node's hidden flag, updates the visible
// cache, and cascades to incident edges. Unknown IDs are a logged
// no-op; the routine is called from deep inside collapse cascades
// where failing hard would abort a half-applied batch.
func (g *Graph) setNodeVisibility(id string, visible bool) {
	n, ok := g.st.nodes[id]
	if !ok {
		g.logger.Error("set node visibility: node not found", "node", id)
		return
	}
	n.Hidden = !visible
	g.refreshNodeCache(n)
	g.cascadeIncidentEdges(id)
	if visible {
		g.resummarizeStaleHyperEdges(id)
	} else {
		g.resummarizeStaleHyperEdges()
	}
}

// setEdgeVisibility flips an edge's hidden flag. Requests to show an
// edge are rejected with a logged warning when either endpoint is not
// effectively visible; this is the routine, intentionally silent
// degradation that keeps cascades from producing dangling visible
// edges.
func (g *Graph) setEdgeVisibility(id string, visible bool) {
	e, ok := g.st.edges[id]
	if !ok {
		g.logger.Error("set edge visibility: edge not found", "edge", id)
		return
	}
	if visible && !(g.entityVisible(e.Source) && g.entityVisible(e.Target)) {
		g.logger.Warn("cannot make edge visible, endpoint not visible",
			"edge", id, "source", e.Source, "target", e.Target)
		return
	}
	e.Hidden = !visible
	// An explicit call overrides any cascade bookkeeping.
	delete(g.st.cascadeHidden, id)
}

// setContainerVisibility flips a container's hidden flag and
// recomputes effective visibility for the whole subtree, cascading to
// every edge incident to an entity whose visibility may have changed.
func (g *Graph) setContainerVisibility(id string, visible bool) {
	c, ok := g.st.containers[id]
	if !ok {
		g.logger.Error("set container visibility: container not found", "container", id)
		return
	}
	c.Hidden = !visible
	g.refreshContainerCaches(c)

	g.cascadeIncidentEdges(id)
	for d := range g.st.descendants(id) {
		g.cascadeIncidentEdges(d)
	}
	if visible {
		shown := append([]string{id}, sortedIDs(g.st.descendants(id))...)
		g.resummarizeStaleHyperEdges(shown...)
	} else {
		g.resummarizeStaleHyperEdges()
	}
}

// resummarizeStaleHyperEdges tears down hyper-edges invalidated by a
// visibility change and regroups their summarized edges against
// current visibility: each either lifts to a new ancestor, merges into
// an equivalent hyper-edge, or disappears when no visible ancestor
// remains. The shown arguments are entities that just returned to
// view; their cascade-hidden incident edges join the regrouping pool
// so connectivity severed by an earlier hide is re-synthesized instead
// of staying silently dropped.
func (g *Graph) resummarizeStaleHyperEdges(shown ...string) {
	var pool []string
	for _, heID := range sortedHyperEdgeIDs(g.st.hyperEdges) {
		he := g.st.hyperEdges[heID]
		if g.hyperEdgeCurrent(he) {
			continue
		}
		pool = append(pool, he.Edges...)
		g.st.deleteHyperEdge(heID)
	}
	for _, id := range shown {
		for eid := range g.st.incident[id] {
			if _, byCascade := g.st.cascadeHidden[eid]; byCascade {
				pool = append(pool, eid)
			}
		}
	}
	if len(pool) > 0 {
		sort.Strings(pool)
		g.summarizeEdges(pool, "")
	}
}

// hyperEdgeCurrent reports whether a hyper-edge still summarizes its
// member edges correctly: both endpoints effectively visible and every
// member resolving to the same (source, target) pair. A member whose
// endpoint visibility changed can re-resolve elsewhere even while the
// hyper-edge's own endpoints stay in view.
func (g *Graph) hyperEdgeCurrent(he *HyperEdge) bool {
	if !g.entityVisible(he.Source) || !g.entityVisible(he.Target) {
		return false
	}
	for _, eid := range he.Edges {
		e, ok := g.st.edges[eid]
		if !ok {
			return false
		}
		src, okS := g.LowestVisibleAncestor(e.Source)
		tgt, okT := g.LowestVisibleAncestor(e.Target)
		if !okS || !okT || src != he.Source || tgt != he.Target {
			return false
		}
	}
	return true
}
