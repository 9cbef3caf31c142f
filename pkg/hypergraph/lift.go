package hypergraph

// LowestVisibleAncestor resolves an entity to the nearest ancestor
// that is effectively visible, walking the container hierarchy
// upward. It returns the entity itself when it is already visible.
//
// The resolution reflects the current state of the caches, not a
// snapshot: during a batch collapse it runs interleaved with the
// mutations, so an endpoint inside an already-collapsed sibling
// resolves to that sibling, never to a hidden node.
//
// When no visible ancestor exists the original ID is returned with
// ok=false; callers treat that as a failure, never as a resolution.
func (g *Graph) LowestVisibleAncestor(id string) (string, bool) {
	return g.lowestVisibleAncestor(id, 0)
}

// maxLiftDepth bounds the ancestor walk so a corrupted parent table
// cannot send resolution into an infinite loop.
const maxLiftDepth = 1024

func (g *Graph) lowestVisibleAncestor(id string, depth int) (string, bool) {
	if depth > maxLiftDepth {
		g.logger.Error("lowest visible ancestor: hierarchy depth exceeded", "entity", id)
		return id, false
	}
	if g.entityVisible(id) {
		return id, true
	}

	parent, ok := g.st.parent[id]
	if !ok {
		return id, false
	}
	resolved, ok := g.lowestVisibleAncestor(parent, depth+1)
	if !ok {
		return id, false
	}
	return resolved, true
}
