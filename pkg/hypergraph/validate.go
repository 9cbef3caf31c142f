package hypergraph

import (
	"fmt"
	"sort"
)

// The validator is pure: it reads the store and the visibility caches
// and reports violations without mutating anything. It runs once at
// the exit of every outermost mutation batch as a regression guard.

// Severity classifies a violation. Errors signal an internal bug and
// are re-raised to the caller; warnings are tolerated transients and
// only logged.
type Severity int

const (
	// SeverityWarning marks a tolerated, typically transient
	// inconsistency.
	SeverityWarning Severity = iota
	// SeverityError marks a broken invariant; the engine has a bug.
	SeverityError
)

// String returns "warning" or "error".
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Violation is a single failed consistency rule.
type Violation struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	EntityID string   `json:"entity_id"`
	Message  string   `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", v.Severity, v.Rule, v.EntityID, v.Message)
}

// Rule names, stable for logs and tests.
const (
	RuleHierarchyTree       = "hierarchy-tree"
	RuleCollapsedSubtree    = "collapsed-subtree-hidden"
	RuleVisibleAncestry     = "visible-ancestry"
	RuleEdgeVisibility      = "edge-endpoint-visibility"
	RuleHyperEdgeEndpoints  = "hyperedge-endpoints"
	RuleHyperEdgeLifting    = "hyperedge-lifting"
	RuleDimensionBounds     = "dimension-bounds"
)

// Validate checks every consistency rule and returns the violations
// found, errors first, then sorted by entity ID for determinism. A
// nil result means the state is fully consistent.
func (g *Graph) Validate() []Violation {
	var out []Violation
	out = append(out, g.checkHierarchy()...)
	out = append(out, g.checkCollapsedSubtrees()...)
	out = append(out, g.checkVisibleAncestry()...)
	out = append(out, g.checkEdgeVisibility()...)
	out = append(out, g.checkHyperEdges()...)
	out = append(out, g.checkDimensions()...)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}

// checkHierarchy verifies the container hierarchy is an acyclic tree:
// every parent reference names an existing container and no entity is
// its own ancestor.
func (g *Graph) checkHierarchy() []Violation {
	var out []Violation
	children := make([]string, 0, len(g.st.parent))
	for child := range g.st.parent {
		children = append(children, child)
	}
	sort.Strings(children)

	for _, child := range children {
		parent := g.st.parent[child]
		if _, ok := g.st.containers[parent]; !ok {
			out = append(out, Violation{
				Rule: RuleHierarchyTree, Severity: SeverityError, EntityID: child,
				Message: fmt.Sprintf("parent %q is not a container", parent),
			})
			continue
		}
		seen := make(map[string]struct{})
		for cur := child; ; {
			if _, dup := seen[cur]; dup {
				out = append(out, Violation{
					Rule: RuleHierarchyTree, Severity: SeverityError, EntityID: child,
					Message: "ancestor chain contains a cycle",
				})
				break
			}
			seen[cur] = struct{}{}
			next, ok := g.st.parent[cur]
			if !ok {
				break
			}
			cur = next
		}
	}
	return out
}

// checkCollapsedSubtrees verifies that beneath every collapsed
// container, all descendant nodes are hidden and all descendant
// containers are both collapsed and hidden.
func (g *Graph) checkCollapsedSubtrees() []Violation {
	var out []Violation
	for _, id := range sortedContainerIDs(g.st.containers) {
		c := g.st.containers[id]
		if !c.Collapsed {
			continue
		}
		for d := range g.st.descendants(id) {
			if n, ok := g.st.nodes[d]; ok && !n.Hidden {
				out = append(out, Violation{
					Rule: RuleCollapsedSubtree, Severity: SeverityError, EntityID: d,
					Message: fmt.Sprintf("node visible under collapsed container %q", id),
				})
			} else if cc, ok := g.st.containers[d]; ok {
				if !cc.Collapsed || !cc.Hidden {
					out = append(out, Violation{
						Rule: RuleCollapsedSubtree, Severity: SeverityError, EntityID: d,
						Message: fmt.Sprintf("container not collapsed+hidden under collapsed container %q", id),
					})
				}
			}
		}
	}
	return out
}

// checkVisibleAncestry verifies no container in the visible cache has
// a hidden or collapsed ancestor.
func (g *Graph) checkVisibleAncestry() []Violation {
	var out []Violation
	for _, id := range sortedIDs(g.st.visibleContainers) {
		seen := map[string]struct{}{id: {}}
		for cur, ok := g.st.parent[id]; ok; cur, ok = g.st.parent[cur] {
			if _, dup := seen[cur]; dup {
				break // cyclic hierarchy, reported by checkHierarchy
			}
			seen[cur] = struct{}{}
			a, exists := g.st.containers[cur]
			if !exists {
				break // reported by checkHierarchy
			}
			if a.Hidden || a.Collapsed {
				out = append(out, Violation{
					Rule: RuleVisibleAncestry, Severity: SeverityError, EntityID: id,
					Message: fmt.Sprintf("visible container has hidden/collapsed ancestor %q", cur),
				})
				break
			}
		}
	}
	return out
}

// checkEdgeVisibility verifies a regular edge is visible exactly when
// both endpoints are effectively visible, and that endpoints exist.
func (g *Graph) checkEdgeVisibility() []Violation {
	var out []Violation
	for _, id := range sortedEdgeIDs(g.st.edges) {
		e := g.st.edges[id]
		if !g.st.isEndpoint(e.Source) || !g.st.isEndpoint(e.Target) {
			out = append(out, Violation{
				Rule: RuleEdgeVisibility, Severity: SeverityError, EntityID: id,
				Message: "edge endpoint does not exist",
			})
			continue
		}
		bothVisible := g.entityVisible(e.Source) && g.entityVisible(e.Target)
		if !e.Hidden && !bothVisible {
			out = append(out, Violation{
				Rule: RuleEdgeVisibility, Severity: SeverityError, EntityID: id,
				Message: "visible edge has a hidden endpoint",
			})
		}
		if e.Hidden && bothVisible {
			// Tolerated: an explicitly hidden edge between visible
			// endpoints is a styling decision, not corruption.
			continue
		}
	}
	return out
}

// checkHyperEdges verifies hyper-edge endpoint validity and the
// lifting obligation. A visible hyper-edge must reference existing,
// visible endpoints and at least one visible collapsed container. A
// hyper-edge still pointing at a hidden endpoint should have been
// lifted; that state is transient mid-batch and reported as a
// warning.
func (g *Graph) checkHyperEdges() []Violation {
	var out []Violation
	for _, id := range sortedHyperEdgeIDs(g.st.hyperEdges) {
		he := g.st.hyperEdges[id]
		if !g.st.isEndpoint(he.Source) || !g.st.isEndpoint(he.Target) {
			out = append(out, Violation{
				Rule: RuleHyperEdgeEndpoints, Severity: SeverityError, EntityID: id,
				Message: "hyper-edge endpoint does not exist",
			})
			continue
		}
		if he.Hidden {
			continue
		}
		if !g.entityVisible(he.Source) || !g.entityVisible(he.Target) {
			out = append(out, Violation{
				Rule: RuleHyperEdgeLifting, Severity: SeverityWarning, EntityID: id,
				Message: "hyper-edge endpoint hidden, pending lift or removal",
			})
			continue
		}
		if !g.isVisibleCollapsedContainer(he.Source) && !g.isVisibleCollapsedContainer(he.Target) {
			out = append(out, Violation{
				Rule: RuleHyperEdgeEndpoints, Severity: SeverityError, EntityID: id,
				Message: "hyper-edge has no visible collapsed container endpoint",
			})
		}
		if len(he.Edges) == 0 {
			out = append(out, Violation{
				Rule: RuleHyperEdgeEndpoints, Severity: SeverityError, EntityID: id,
				Message: "hyper-edge summarizes no edges",
			})
		}
	}
	return out
}

func (g *Graph) isVisibleCollapsedContainer(id string) bool {
	c, ok := g.st.containers[id]
	if !ok {
		return false
	}
	_, visible := g.st.visibleContainers[id]
	return visible && c.Collapsed
}

// checkDimensions verifies collapsed containers use the fixed small
// dimensions and expanded, laid-out containers meet the minimums.
func (g *Graph) checkDimensions() []Violation {
	var out []Violation
	for _, id := range sortedContainerIDs(g.st.containers) {
		c := g.st.containers[id]
		if c.Layout == nil {
			continue
		}
		if c.Collapsed {
			if c.Layout.Width > g.cfg.CollapsedWidth || c.Layout.Height > g.cfg.CollapsedHeight {
				out = append(out, Violation{
					Rule: RuleDimensionBounds, Severity: SeverityError, EntityID: id,
					Message: fmt.Sprintf("collapsed container exceeds fixed dimensions (%gx%g)",
						c.Layout.Width, c.Layout.Height),
				})
			}
			continue
		}
		if c.Layout.Width < g.cfg.MinExpandedWidth || c.Layout.Height < g.cfg.MinExpandedHeight {
			out = append(out, Violation{
				Rule: RuleDimensionBounds, Severity: SeverityWarning, EntityID: id,
				Message: fmt.Sprintf("expanded container below minimum dimensions (%gx%g)",
					c.Layout.Width, c.Layout.Height),
			})
		}
	}
	return out
}

func sortedContainerIDs(m map[string]*Container) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sortedEdgeIDs(m map[string]*Edge) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
