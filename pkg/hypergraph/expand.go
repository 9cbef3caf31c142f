package hypergraph

import (
	"fmt"
)

// Expanding is the inverse of collapsing: hyper-edges produced by the
// collapse (or lifted onto the container since) are torn down, their
// summarized edges restored wherever both endpoints come back into
// view, and connectivity to entities still inside other collapsed
// containers is re-synthesized as fresh hyper-edges. Direct child
// containers become visible again but are not forced open; the
// recursive variant opens the whole subtree.

func (g *Graph) expandContainer(id string, recursive bool) error {
	c, ok := g.st.containers[id]
	if !ok {
		return fmt.Errorf("expand container %q: %w", id, ErrNotFound)
	}
	if !c.Collapsed {
		g.logger.Debug("expand: container already expanded", "container", id)
		if recursive {
			g.expandChildren(c)
		}
		return nil
	}
	if _, visible := g.st.visibleContainers[id]; !visible {
		// Opening a container inside a collapsed ancestor would break
		// the ancestor's fold; the ancestor must be expanded first.
		return fmt.Errorf("expand container %q: %w", id, ErrNotVisible)
	}

	g.expandOne(c)
	if recursive {
		g.expandChildren(c)
	}
	return nil
}

func (g *Graph) expandOne(c *Container) {
	// Tear down every hyper-edge this collapse produced, plus any
	// hyper-edge lifted onto the container since: both kinds are
	// stale once the container opens. Their summarized edges form the
	// pool to restore or re-synthesize from.
	var pool []string
	for _, heID := range sortedHyperEdgeIDs(g.st.hyperEdges) {
		he := g.st.hyperEdges[heID]
		if he.CollapsedBy != c.ID && he.Source != c.ID && he.Target != c.ID {
			continue
		}
		pool = append(pool, he.Edges...)
		g.st.deleteHyperEdge(heID)
	}

	c.Collapsed = false
	g.applyExpandedDims(c)

	// Reveal direct children only. Child containers keep their own
	// collapsed flag; their descendants stay hidden beneath them.
	for _, child := range sortedIDs(g.st.children[c.ID]) {
		if n, ok := g.st.nodes[child]; ok {
			n.Hidden = false
		} else if cc, ok := g.st.containers[child]; ok {
			cc.Hidden = false
		}
	}
	g.refreshContainerCaches(c)
	g.cascadeIncidentEdges(c.ID)
	for child := range g.st.children[c.ID] {
		g.cascadeIncidentEdges(child)
	}

	// Restore summarized edges whose endpoints are both visible again
	// and rebuild hyper-edges for connectivity still crossing other
	// collapsed boundaries, including the re-opened container's own
	// collapsed children.
	g.summarizeEdges(pool, "")
	g.logger.Debug("expanded container", "container", c.ID)
}

// expandChildren opens every collapsed child container, depth-first.
func (g *Graph) expandChildren(c *Container) {
	for _, child := range sortedIDs(g.st.children[c.ID]) {
		cc, ok := g.st.containers[child]
		if !ok {
			continue
		}
		if cc.Collapsed {
			g.expandOne(cc)
		}
		g.expandChildren(cc)
	}
}

// applyCollapsedDims forces the fixed small collapsed dimensions onto
// the container's layout, preserving its position if one is set.
func (g *Graph) applyCollapsedDims(c *Container) {
	if c.Layout == nil {
		c.Layout = &Box{}
	}
	c.Layout.Width = g.cfg.CollapsedWidth
	c.Layout.Height = g.cfg.CollapsedHeight
}

// applyExpandedDims restores the cached pre-collapse dimensions, or
// the configured minimums when the container was never laid out.
func (g *Graph) applyExpandedDims(c *Container) {
	if c.Layout == nil {
		c.Layout = &Box{}
	}
	if c.ExpandedDims != nil {
		c.Layout.Width = c.ExpandedDims.Width
		c.Layout.Height = c.ExpandedDims.Height
		return
	}
	c.Layout.Width = g.cfg.MinExpandedWidth
	c.Layout.Height = g.cfg.MinExpandedHeight
}
