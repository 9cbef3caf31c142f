package hypergraph

// store owns the entity collections and the derived indices. It has
// no behavior beyond O(1) bookkeeping; all semantics live in the
// components above it. Relationships are kept as id-to-id tables
// rather than embedded references, so there are no ownership cycles
// between containers and children.
type store struct {
	nodes      map[string]*Node
	edges      map[string]*Edge
	containers map[string]*Container
	hyperEdges map[string]*HyperEdge

	// parent maps a node or container ID to its owning container.
	parent map[string]string
	// children maps a container ID to its direct child IDs.
	children map[string]map[string]struct{}
	// incident maps a node or container ID to the regular edges that
	// reference it as source or target.
	incident map[string]map[string]struct{}

	// Effective-visibility caches, maintained by the visibility
	// manager. External readers must consult these, never raw flags.
	visibleNodes       map[string]struct{}
	visibleContainers  map[string]struct{}
	expandedContainers map[string]struct{}

	// cascadeHidden records edges hidden by the visibility cascade
	// rather than by the caller. Only these may be re-revealed when
	// their endpoints return to view; a caller's explicit hide sticks.
	cascadeHidden map[string]struct{}
}

func newStore() *store {
	return &store{
		nodes:              make(map[string]*Node),
		edges:              make(map[string]*Edge),
		containers:         make(map[string]*Container),
		hyperEdges:         make(map[string]*HyperEdge),
		parent:             make(map[string]string),
		children:           make(map[string]map[string]struct{}),
		incident:           make(map[string]map[string]struct{}),
		visibleNodes:       make(map[string]struct{}),
		visibleContainers:  make(map[string]struct{}),
		expandedContainers: make(map[string]struct{}),
		cascadeHidden:      make(map[string]struct{}),
	}
}

// exists reports whether any entity kind uses the ID.
func (s *store) exists(id string) bool {
	if _, ok := s.nodes[id]; ok {
		return true
	}
	if _, ok := s.containers[id]; ok {
		return true
	}
	if _, ok := s.edges[id]; ok {
		return true
	}
	_, ok := s.hyperEdges[id]
	return ok
}

// isEndpoint reports whether the ID names a valid edge endpoint
// (a node or a container).
func (s *store) isEndpoint(id string) bool {
	if _, ok := s.nodes[id]; ok {
		return true
	}
	_, ok := s.containers[id]
	return ok
}

func (s *store) putNode(n *Node) {
	s.nodes[n.ID] = n
}

func (s *store) putContainer(c *Container) {
	s.containers[c.ID] = c
	if s.children[c.ID] == nil {
		s.children[c.ID] = make(map[string]struct{})
	}
}

func (s *store) putEdge(e *Edge) {
	s.edges[e.ID] = e
	s.addIncident(e.Source, e.ID)
	s.addIncident(e.Target, e.ID)
}

func (s *store) putHyperEdge(he *HyperEdge) {
	s.hyperEdges[he.ID] = he
}

func (s *store) deleteEdge(id string) {
	e, ok := s.edges[id]
	if !ok {
		return
	}
	s.removeIncident(e.Source, id)
	s.removeIncident(e.Target, id)
	delete(s.cascadeHidden, id)
	delete(s.edges, id)
}

func (s *store) deleteHyperEdge(id string) {
	delete(s.hyperEdges, id)
}

// deleteNode removes the node and severs hierarchy and incidence
// references. Incident edges are removed outright; a dangling edge is
// never left behind.
func (s *store) deleteNode(id string) {
	if _, ok := s.nodes[id]; !ok {
		return
	}
	for eid := range s.incident[id] {
		s.deleteEdge(eid)
	}
	delete(s.incident, id)
	s.detach(id)
	delete(s.visibleNodes, id)
	delete(s.nodes, id)
}

// deleteContainer removes the container, reparenting its children to
// the container's own parent (or to the root when it has none).
func (s *store) deleteContainer(id string) {
	if _, ok := s.containers[id]; !ok {
		return
	}
	for eid := range s.incident[id] {
		s.deleteEdge(eid)
	}
	delete(s.incident, id)

	parent, hasParent := s.parent[id]
	for child := range s.children[id] {
		delete(s.parent, child)
		if hasParent {
			s.attach(child, parent)
		}
	}
	delete(s.children, id)
	s.detach(id)
	delete(s.visibleContainers, id)
	delete(s.expandedContainers, id)
	delete(s.containers, id)
}

// attach places child under container. The caller is responsible for
// cycle checking; the store only records the relationship.
func (s *store) attach(child, container string) {
	s.parent[child] = container
	if s.children[container] == nil {
		s.children[container] = make(map[string]struct{})
	}
	s.children[container][child] = struct{}{}
}

// detach removes child from its owning container, if any.
func (s *store) detach(child string) {
	p, ok := s.parent[child]
	if !ok {
		return
	}
	delete(s.children[p], child)
	delete(s.parent, child)
}

func (s *store) addIncident(endpoint, edgeID string) {
	if s.incident[endpoint] == nil {
		s.incident[endpoint] = make(map[string]struct{})
	}
	s.incident[endpoint][edgeID] = struct{}{}
}

func (s *store) removeIncident(endpoint, edgeID string) {
	delete(s.incident[endpoint], edgeID)
	if len(s.incident[endpoint]) == 0 {
		delete(s.incident, endpoint)
	}
}

// descendants collects the transitive node and container IDs below a
// container. The container itself is not included.
func (s *store) descendants(id string) map[string]struct{} {
	out := make(map[string]struct{})
	s.collectDescendants(id, out)
	return out
}

func (s *store) collectDescendants(id string, out map[string]struct{}) {
	for child := range s.children[id] {
		if _, seen := out[child]; seen {
			continue // defends against a corrupted hierarchy
		}
		out[child] = struct{}{}
		if _, ok := s.containers[child]; ok {
			s.collectDescendants(child, out)
		}
	}
}

// isAncestor reports whether a is an ancestor of b in the container
// hierarchy (or a == b).
func (s *store) isAncestor(a, b string) bool {
	for cur := b; ; {
		if cur == a {
			return true
		}
		p, ok := s.parent[cur]
		if !ok {
			return false
		}
		cur = p
	}
}

// incidentEdges returns the regular edge IDs touching any entity in
// the given set.
func (s *store) incidentEdges(ids map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for id := range ids {
		for eid := range s.incident[id] {
			out[eid] = struct{}{}
		}
	}
	return out
}
