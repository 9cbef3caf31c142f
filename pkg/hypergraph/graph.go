package hypergraph

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"
)

// =============================================================================
// Configuration
// =============================================================================

// Config carries the fixed layout constants of the core. Collapsed
// containers always render at the collapsed dimensions; expanded
// containers never go below the minimums.
type Config struct {
	CollapsedWidth    float64 `json:"collapsed_width" toml:"collapsed_width"`
	CollapsedHeight   float64 `json:"collapsed_height" toml:"collapsed_height"`
	MinExpandedWidth  float64 `json:"min_expanded_width" toml:"min_expanded_width"`
	MinExpandedHeight float64 `json:"min_expanded_height" toml:"min_expanded_height"`

	// LabelHeight and Padding are added to a container's raw layout
	// size when deriving its display dimensions.
	LabelHeight float64 `json:"label_height" toml:"label_height"`
	Padding     float64 `json:"padding" toml:"padding"`
}

// DefaultConfig returns the standard dimension constants.
func DefaultConfig() Config {
	return Config{
		CollapsedWidth:    120,
		CollapsedHeight:   48,
		MinExpandedWidth:  200,
		MinExpandedHeight: 120,
		LabelHeight:       24,
		Padding:           12,
	}
}

// =============================================================================
// Graph - Public Facade
// =============================================================================

// Graph is the sole public surface of the state core. All mutation
// runs through it, every mutation batch ends with a validation pass,
// and every read accessor returns a defensive snapshot.
//
// Graph is single-threaded by design; callers needing concurrent
// access must serialize externally.
type Graph struct {
	st     *store
	cfg    Config
	logger *log.Logger

	// batchDepth suppresses validation while nested operations run;
	// the outermost exit validates exactly once.
	batchDepth int
}

// New creates an empty graph. A nil logger discards all output.
func New(cfg Config, logger *log.Logger) *Graph {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return &Graph{st: newStore(), cfg: cfg, logger: logger}
}

// Logger returns the graph's logger.
func (g *Graph) Logger() *log.Logger { return g.logger }

// Config returns the dimension constants in effect.
func (g *Graph) Config() Config { return g.cfg }

// =============================================================================
// Batch Guard
// =============================================================================

func (g *Graph) begin() { g.batchDepth++ }

// end closes a batch scope. At the outermost exit it runs the
// validator: warnings are logged, error-severity violations are
// logged and returned as ErrInvariant. The mutation has already been
// applied when that happens; an invariant error signals a bug in the
// engine, not a recoverable caller condition.
func (g *Graph) end() error {
	g.batchDepth--
	if g.batchDepth > 0 {
		return nil
	}
	var firstErr *Violation
	errCount := 0
	for _, v := range g.Validate() {
		if v.Severity == SeverityError {
			g.logger.Error("invariant violation",
				"rule", v.Rule, "entity", v.EntityID, "detail", v.Message)
			if firstErr == nil {
				vv := v
				firstErr = &vv
			}
			errCount++
		} else {
			g.logger.Warn("invariant warning",
				"rule", v.Rule, "entity", v.EntityID, "detail", v.Message)
		}
	}
	if firstErr != nil {
		return fmt.Errorf("%w: %d violation(s), first: %s", ErrInvariant, errCount, firstErr)
	}
	return nil
}

// Batch groups several mutations into one scope; validation runs once
// when the batch exits, on every exit path. This replaces deferred
// validation schemes: the guard is an explicit depth counter, so the
// behavior is deterministic and nestable.
func (g *Graph) Batch(fn func(*Graph) error) error {
	g.begin()
	opErr := fn(g)
	if vErr := g.end(); opErr == nil {
		opErr = vErr
	}
	return opErr
}

// =============================================================================
// Ingestion API
// =============================================================================

// AddNode inserts a node. The ID must be non-empty and unused; the
// style must belong to the node enumeration. Rejection happens before
// any mutation.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidID
	}
	if g.st.exists(n.ID) {
		return fmt.Errorf("add node %q: %w", n.ID, ErrDuplicateID)
	}
	if err := ValidateNodeStyle(n.Style); err != nil {
		return fmt.Errorf("add node %q: %w", n.ID, err)
	}
	if n.Style == "" {
		n.Style = StyleDefault
	}
	n.Meta = copyMeta(n.Meta)
	node := &n
	g.st.putNode(node)
	g.refreshNodeCache(node)
	return nil
}

// AddContainer inserts a container and attaches the given children,
// which must already exist. A child can belong to at most one
// container, and an attachment that would make a container its own
// ancestor is rejected.
func (g *Graph) AddContainer(c Container, children []string) error {
	if c.ID == "" {
		return ErrInvalidID
	}
	if g.st.exists(c.ID) {
		return fmt.Errorf("add container %q: %w", c.ID, ErrDuplicateID)
	}
	if err := ValidateNodeStyle(c.Style); err != nil {
		return fmt.Errorf("add container %q: %w", c.ID, err)
	}
	for _, child := range children {
		if !g.st.isEndpoint(child) {
			return fmt.Errorf("add container %q: child %q: %w", c.ID, child, ErrNotFound)
		}
		if p, owned := g.st.parent[child]; owned {
			return fmt.Errorf("add container %q: child %q already owned by %q", c.ID, child, p)
		}
		if g.st.isAncestor(child, c.ID) {
			return fmt.Errorf("add container %q: child %q: %w", c.ID, child, ErrHierarchyCycle)
		}
	}

	if c.Style == "" {
		c.Style = StyleDefault
	}
	c.Meta = copyMeta(c.Meta)
	container := &c
	g.st.putContainer(container)
	for _, child := range children {
		g.st.attach(child, c.ID)
	}
	g.refreshContainerCaches(container)
	return nil
}

// AddEdge inserts a directed edge between two existing nodes or
// containers. Hyper-edge IDs are never valid endpoints. The edge's
// effective visibility is derived immediately: it is hidden when
// either endpoint is.
func (g *Graph) AddEdge(e Edge) error {
	if e.ID == "" {
		return ErrInvalidID
	}
	if g.st.exists(e.ID) {
		return fmt.Errorf("add edge %q: %w", e.ID, ErrDuplicateID)
	}
	if err := ValidateEdgeStyle(e.Style); err != nil {
		return fmt.Errorf("add edge %q: %w", e.ID, err)
	}
	if !g.st.isEndpoint(e.Source) {
		return fmt.Errorf("add edge %q: source %q: %w", e.ID, e.Source, ErrUnknownEndpoint)
	}
	if !g.st.isEndpoint(e.Target) {
		return fmt.Errorf("add edge %q: target %q: %w", e.ID, e.Target, ErrUnknownEndpoint)
	}

	if e.Style == "" {
		e.Style = StyleDefault
	}
	derivedHide := !e.Hidden && !(g.entityVisible(e.Source) && g.entityVisible(e.Target))
	if derivedHide {
		e.Hidden = true
	}
	e.Meta = copyMeta(e.Meta)
	g.st.putEdge(&e)
	if derivedHide {
		g.st.cascadeHidden[e.ID] = struct{}{}
	}
	return nil
}

// =============================================================================
// Removal API
// =============================================================================

// RemoveNode deletes a node, its incident edges, and its hierarchy
// membership. Hyper-edges summarizing a removed edge drop the
// reference and disappear when nothing is left to summarize.
func (g *Graph) RemoveNode(id string) error {
	g.begin()
	opErr := g.removeNode(id)
	if vErr := g.end(); opErr == nil {
		opErr = vErr
	}
	return opErr
}

func (g *Graph) removeNode(id string) error {
	if _, ok := g.st.nodes[id]; !ok {
		return fmt.Errorf("remove node %q: %w", id, ErrNotFound)
	}
	removed := make(map[string]struct{})
	for eid := range g.st.incident[id] {
		removed[eid] = struct{}{}
	}
	g.st.deleteNode(id)
	g.pruneHyperEdgeRefs(removed)
	return nil
}

// RemoveEdge deletes a regular edge and strips it from any hyper-edge
// back-references.
func (g *Graph) RemoveEdge(id string) error {
	g.begin()
	opErr := g.removeEdge(id)
	if vErr := g.end(); opErr == nil {
		opErr = vErr
	}
	return opErr
}

func (g *Graph) removeEdge(id string) error {
	if _, ok := g.st.edges[id]; !ok {
		return fmt.Errorf("remove edge %q: %w", id, ErrNotFound)
	}
	g.st.deleteEdge(id)
	g.pruneHyperEdgeRefs(map[string]struct{}{id: {}})
	return nil
}

// RemoveContainer deletes a container, reparenting its children to
// the container's own parent. Hyper-edges attached to the container
// are rebuilt from their summarized edges.
func (g *Graph) RemoveContainer(id string) error {
	g.begin()
	opErr := g.removeContainer(id)
	if vErr := g.end(); opErr == nil {
		opErr = vErr
	}
	return opErr
}

func (g *Graph) removeContainer(id string) error {
	if _, ok := g.st.containers[id]; !ok {
		return fmt.Errorf("remove container %q: %w", id, ErrNotFound)
	}

	var pool []string
	for _, heID := range sortedHyperEdgeIDs(g.st.hyperEdges) {
		he := g.st.hyperEdges[heID]
		if he.Source != id && he.Target != id && he.CollapsedBy != id {
			continue
		}
		pool = append(pool, he.Edges...)
		g.st.deleteHyperEdge(heID)
	}

	parent := g.st.parent[id]
	g.st.deleteContainer(id)

	// Children inherit the removed container's position in the tree;
	// their effective visibility may change with it.
	if pc, ok := g.st.containers[parent]; ok {
		g.refreshContainerCaches(pc)
	} else {
		for _, cc := range g.st.containers {
			if _, hasParent := g.st.parent[cc.ID]; !hasParent {
				g.refreshContainerCaches(cc)
			}
		}
		for _, n := range g.st.nodes {
			g.refreshNodeCache(n)
		}
	}
	g.summarizeEdges(pool, "")
	return nil
}

// pruneHyperEdgeRefs drops removed edge IDs from hyper-edge
// back-references and deletes hyper-edges left summarizing nothing.
func (g *Graph) pruneHyperEdgeRefs(removed map[string]struct{}) {
	for _, heID := range sortedHyperEdgeIDs(g.st.hyperEdges) {
		he := g.st.hyperEdges[heID]
		kept := he.Edges[:0]
		for _, eid := range he.Edges {
			if _, gone := removed[eid]; !gone {
				kept = append(kept, eid)
			}
		}
		he.Edges = kept
		if len(he.Edges) == 0 {
			g.st.deleteHyperEdge(heID)
		}
	}
}

// =============================================================================
// Collapse / Expand
// =============================================================================

// CollapseContainer folds a container: descendants hide, crossing
// edges are summarized as hyper-edges, and existing hyper-edges with
// a newly hidden endpoint are lifted. Collapsing an already-collapsed
// container is a safe no-op.
func (g *Graph) CollapseContainer(id string) error {
	g.begin()
	opErr := g.collapseContainer(id)
	if vErr := g.end(); opErr == nil {
		opErr = vErr
	}
	return opErr
}

// ExpandContainer unfolds a collapsed container, restoring summarized
// edges where both endpoints return to view and re-synthesizing
// hyper-edges for connectivity still crossing other collapsed
// boundaries. Child containers become visible but stay collapsed.
func (g *Graph) ExpandContainer(id string) error {
	g.begin()
	opErr := g.expandContainer(id, false)
	if vErr := g.end(); opErr == nil {
		opErr = vErr
	}
	return opErr
}

// ExpandContainerAll unfolds a container and, recursively, every
// collapsed container beneath it.
func (g *Graph) ExpandContainerAll(id string) error {
	g.begin()
	opErr := g.expandContainer(id, true)
	if vErr := g.end(); opErr == nil {
		opErr = vErr
	}
	return opErr
}

// CollapseAll folds every root-level container. Each collapse is an
// independent call; a failure does not roll back earlier successes.
func (g *Graph) CollapseAll() error {
	for _, id := range g.rootContainerIDs() {
		if err := g.CollapseContainer(id); err != nil {
			return err
		}
	}
	return nil
}

// ExpandAll unfolds every container in the hierarchy.
func (g *Graph) ExpandAll() error {
	for _, id := range g.rootContainerIDs() {
		if err := g.ExpandContainerAll(id); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) rootContainerIDs() []string {
	var roots []string
	for id := range g.st.containers {
		if _, owned := g.st.parent[id]; !owned {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// =============================================================================
// Visibility API
// =============================================================================

// SetNodeVisibility shows or hides a node and cascades the change to
// incident edges. An unknown ID is a logged no-op. The returned error
// only reports post-mutation invariant failures.
func (g *Graph) SetNodeVisibility(id string, visible bool) error {
	g.begin()
	g.setNodeVisibility(id, visible)
	return g.end()
}

// SetEdgeVisibility shows or hides a regular edge. A request to show
// an edge whose endpoint is hidden is rejected with a logged warning
// and no state change.
func (g *Graph) SetEdgeVisibility(id string, visible bool) error {
	g.begin()
	g.setEdgeVisibility(id, visible)
	return g.end()
}

// SetContainerVisibility shows or hides a container, cascading
// effective visibility through its whole subtree.
func (g *Graph) SetContainerVisibility(id string, visible bool) error {
	g.begin()
	g.setContainerVisibility(id, visible)
	return g.end()
}

// =============================================================================
// Layout API
// =============================================================================

// SetNodeLayout stores the layout oracle's position and size for a node.
func (g *Graph) SetNodeLayout(id string, box Box) error {
	n, ok := g.st.nodes[id]
	if !ok {
		return fmt.Errorf("set node layout %q: %w", id, ErrNotFound)
	}
	b := box
	n.Layout = &b
	return nil
}

// SetEdgeLayout stores a routing polyline for a regular edge or a
// hyper-edge.
func (g *Graph) SetEdgeLayout(id string, route []Point) error {
	if e, ok := g.st.edges[id]; ok {
		e.Route = append([]Point(nil), route...)
		return nil
	}
	if he, ok := g.st.hyperEdges[id]; ok {
		he.Route = append([]Point(nil), route...)
		return nil
	}
	return fmt.Errorf("set edge layout %q: %w", id, ErrNotFound)
}

// SetContainerLayout stores the oracle's position and size for a
// container. Collapsed containers accept only the position; their
// dimensions stay at the fixed collapsed values. For expanded
// containers the size is also cached for restoration after a future
// collapse.
func (g *Graph) SetContainerLayout(id string, box Box) error {
	c, ok := g.st.containers[id]
	if !ok {
		return fmt.Errorf("set container layout %q: %w", id, ErrNotFound)
	}
	if c.Collapsed {
		if c.Layout == nil {
			c.Layout = &Box{}
		}
		c.Layout.X = box.X
		c.Layout.Y = box.Y
		c.Layout.Width = g.cfg.CollapsedWidth
		c.Layout.Height = g.cfg.CollapsedHeight
		return nil
	}
	b := box
	c.Layout = &b
	c.ExpandedDims = &Dims{Width: box.Width, Height: box.Height}
	return nil
}

// ContainerDisplaySize derives the on-screen dimensions of a
// container from its raw layout plus label height and padding.
func (g *Graph) ContainerDisplaySize(id string) (Dims, error) {
	c, ok := g.st.containers[id]
	if !ok {
		return Dims{}, fmt.Errorf("container display size %q: %w", id, ErrNotFound)
	}
	raw := Dims{Width: g.cfg.CollapsedWidth, Height: g.cfg.CollapsedHeight}
	if c.Layout != nil {
		raw = Dims{Width: c.Layout.Width, Height: c.Layout.Height}
	} else if !c.Collapsed {
		raw = Dims{Width: g.cfg.MinExpandedWidth, Height: g.cfg.MinExpandedHeight}
	}
	return Dims{
		Width:  raw.Width + 2*g.cfg.Padding,
		Height: raw.Height + g.cfg.LabelHeight + 2*g.cfg.Padding,
	}, nil
}

// =============================================================================
// Read-only Accessors
// =============================================================================

// Read accessors return defensive copies: mutating a returned value
// never touches core state.

func cloneNode(n *Node) Node {
	out := *n
	out.Meta = copyMeta(n.Meta)
	if n.Layout != nil {
		b := *n.Layout
		out.Layout = &b
	}
	return out
}

func cloneEdge(e *Edge) Edge {
	out := *e
	out.Meta = copyMeta(e.Meta)
	out.Route = append([]Point(nil), e.Route...)
	return out
}

func cloneContainer(c *Container) Container {
	out := *c
	out.Meta = copyMeta(c.Meta)
	if c.Layout != nil {
		b := *c.Layout
		out.Layout = &b
	}
	if c.ExpandedDims != nil {
		d := *c.ExpandedDims
		out.ExpandedDims = &d
	}
	return out
}

func cloneHyperEdge(he *HyperEdge) HyperEdge {
	out := *he
	out.Edges = append([]string(nil), he.Edges...)
	out.Route = append([]Point(nil), he.Route...)
	return out
}

// VisibleNodes returns the effectively visible nodes, sorted by ID.
func (g *Graph) VisibleNodes() []Node {
	out := make([]Node, 0, len(g.st.visibleNodes))
	for _, id := range sortedIDs(g.st.visibleNodes) {
		out = append(out, cloneNode(g.st.nodes[id]))
	}
	return out
}

// VisibleEdges returns the visible regular edges, sorted by ID.
func (g *Graph) VisibleEdges() []Edge {
	var out []Edge
	for _, id := range sortedEdgeIDs(g.st.edges) {
		if e := g.st.edges[id]; !e.Hidden {
			out = append(out, cloneEdge(e))
		}
	}
	return out
}

// VisibleHyperEdges returns the active hyper-edges, sorted by ID.
func (g *Graph) VisibleHyperEdges() []HyperEdge {
	var out []HyperEdge
	for _, id := range sortedHyperEdgeIDs(g.st.hyperEdges) {
		if he := g.st.hyperEdges[id]; !he.Hidden {
			out = append(out, cloneHyperEdge(he))
		}
	}
	return out
}

// VisibleContainers returns the effectively visible containers,
// sorted by ID. Collapsed containers are visible unless an ancestor
// hides them.
func (g *Graph) VisibleContainers() []Container {
	out := make([]Container, 0, len(g.st.visibleContainers))
	for _, id := range sortedIDs(g.st.visibleContainers) {
		out = append(out, cloneContainer(g.st.containers[id]))
	}
	return out
}

// Node returns a copy of the node, if it exists.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.st.nodes[id]
	if !ok {
		return Node{}, false
	}
	return cloneNode(n), true
}

// Edge returns a copy of the regular edge, if it exists.
func (g *Graph) Edge(id string) (Edge, bool) {
	e, ok := g.st.edges[id]
	if !ok {
		return Edge{}, false
	}
	return cloneEdge(e), true
}

// Container returns a copy of the container, if it exists.
func (g *Graph) Container(id string) (Container, bool) {
	c, ok := g.st.containers[id]
	if !ok {
		return Container{}, false
	}
	return cloneContainer(c), true
}

// HyperEdge returns a copy of the hyper-edge, if it exists.
func (g *Graph) HyperEdge(id string) (HyperEdge, bool) {
	he, ok := g.st.hyperEdges[id]
	if !ok {
		return HyperEdge{}, false
	}
	return cloneHyperEdge(he), true
}

// ContainerChildren returns the direct child IDs of a container,
// sorted. Unknown containers yield nil.
func (g *Graph) ContainerChildren(id string) []string {
	set, ok := g.st.children[id]
	if !ok {
		return nil
	}
	return sortedIDs(set)
}

// NodeContainer returns the owning container of a node or container.
func (g *Graph) NodeContainer(id string) (string, bool) {
	p, ok := g.st.parent[id]
	return p, ok
}

// AllNodes returns every node, hidden or not, sorted by ID.
func (g *Graph) AllNodes() []Node {
	ids := make([]string, 0, len(g.st.nodes))
	for id := range g.st.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneNode(g.st.nodes[id]))
	}
	return out
}

// AllEdges returns every regular edge, sorted by ID. The Hidden flag
// is normalized to explicit hides only: hiding derived from endpoint
// visibility is reconstructed when the edge is loaded into a graph,
// so exports stay stable across collapse state.
func (g *Graph) AllEdges() []Edge {
	out := make([]Edge, 0, len(g.st.edges))
	for _, id := range sortedEdgeIDs(g.st.edges) {
		e := cloneEdge(g.st.edges[id])
		if _, byCascade := g.st.cascadeHidden[id]; byCascade {
			e.Hidden = false
		}
		out = append(out, e)
	}
	return out
}

// AllContainers returns every container, sorted by ID.
func (g *Graph) AllContainers() []Container {
	out := make([]Container, 0, len(g.st.containers))
	for _, id := range sortedContainerIDs(g.st.containers) {
		out = append(out, cloneContainer(g.st.containers[id]))
	}
	return out
}

// RootContainers returns the IDs of containers with no parent, sorted.
func (g *Graph) RootContainers() []string {
	return g.rootContainerIDs()
}

// IsVisible reports the effective visibility of a node or container.
func (g *Graph) IsVisible(id string) bool {
	return g.entityVisible(id)
}

// =============================================================================
// Stats
// =============================================================================

// Stats summarizes entity counts for logs and UIs.
type Stats struct {
	Nodes             int `json:"nodes"`
	Edges             int `json:"edges"`
	Containers        int `json:"containers"`
	HyperEdges        int `json:"hyper_edges"`
	VisibleNodes      int `json:"visible_nodes"`
	VisibleEdges      int `json:"visible_edges"`
	VisibleContainers int `json:"visible_containers"`
}

// Stats returns current entity counts.
func (g *Graph) Stats() Stats {
	visEdges := 0
	for _, e := range g.st.edges {
		if !e.Hidden {
			visEdges++
		}
	}
	return Stats{
		Nodes:             len(g.st.nodes),
		Edges:             len(g.st.edges),
		Containers:        len(g.st.containers),
		HyperEdges:        len(g.st.hyperEdges),
		VisibleNodes:      len(g.st.visibleNodes),
		VisibleEdges:      visEdges,
		VisibleContainers: len(g.st.visibleContainers),
	}
}
