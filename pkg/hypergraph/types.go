package hypergraph

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidID is returned by the Add* methods when the entity ID
	// is empty. All entities must have non-empty identifiers.
	ErrInvalidID = errors.New("entity ID must not be empty")

	// ErrDuplicateID is returned by the Add* methods when an entity
	// with the same ID already exists. IDs are unique across all
	// entity kinds.
	ErrDuplicateID = errors.New("duplicate entity ID")

	// ErrNotFound is returned when an operation references an entity
	// that does not exist. The state is left unchanged.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidStyle is returned at ingestion when a style value is
	// not part of the fixed enumeration for the entity kind.
	ErrInvalidStyle = errors.New("invalid style")

	// ErrUnknownEndpoint is returned by [Graph.AddEdge] when an edge
	// references a node or container that does not exist. Hyper-edge
	// IDs are never valid endpoints; hyper-edges are an internal
	// by-product of collapsing.
	ErrUnknownEndpoint = errors.New("unknown edge endpoint")

	// ErrHierarchyCycle is returned by [Graph.AddContainer] when a
	// child assignment would make a container its own ancestor.
	ErrHierarchyCycle = errors.New("container hierarchy cycle")

	// ErrNotVisible is returned by [Graph.ExpandContainer] when the
	// target sits inside a collapsed or hidden ancestor. The ancestor
	// must be expanded first.
	ErrNotVisible = errors.New("container not visible")

	// ErrInvariant is returned when post-mutation validation finds an
	// error-severity violation. The mutation has already been applied;
	// the violation signals an internal bug, not caller misuse.
	ErrInvariant = errors.New("invariant violation")
)

// =============================================================================
// Styles
// =============================================================================

// Style tags an entity for rendering. The enumeration is fixed;
// ingestion rejects values outside it.
type Style string

// Node and container styles.
const (
	StyleDefault     Style = "default"
	StyleHighlighted Style = "highlighted"
	StyleSelected    Style = "selected"
	StyleWarning     Style = "warning"
	StyleError       Style = "error"
)

// Additional edge-only styles.
const (
	StyleDashed Style = "dashed"
	StyleThick  Style = "thick"
)

// ValidNodeStyles is the set of styles accepted for nodes and containers.
var ValidNodeStyles = map[Style]bool{
	StyleDefault:     true,
	StyleHighlighted: true,
	StyleSelected:    true,
	StyleWarning:     true,
	StyleError:       true,
}

// ValidEdgeStyles is the set of styles accepted for edges.
var ValidEdgeStyles = map[Style]bool{
	StyleDefault:     true,
	StyleHighlighted: true,
	StyleSelected:    true,
	StyleWarning:     true,
	StyleError:       true,
	StyleDashed:      true,
	StyleThick:       true,
}

// stylePriority orders edge styles for hyper-edge aggregation. A
// hyper-edge summarizing several edges takes the highest-priority
// style among them.
var stylePriority = map[Style]int{
	StyleError:       5,
	StyleWarning:     4,
	StyleThick:       3,
	StyleHighlighted: 2,
	StyleSelected:    1,
	StyleDashed:      1,
	StyleDefault:     0,
}

// mergeStyles returns the higher-priority of two styles.
func mergeStyles(a, b Style) Style {
	if stylePriority[b] > stylePriority[a] {
		return b
	}
	return a
}

// ValidateNodeStyle checks a node/container style against the enumeration.
func ValidateNodeStyle(s Style) error {
	if s == "" {
		return nil // defaults to StyleDefault at ingestion
	}
	if !ValidNodeStyles[s] {
		return fmt.Errorf("%w: %q (must be one of: default, highlighted, selected, warning, error)", ErrInvalidStyle, s)
	}
	return nil
}

// ValidateEdgeStyle checks an edge style against the enumeration.
func ValidateEdgeStyle(s Style) error {
	if s == "" {
		return nil
	}
	if !ValidEdgeStyles[s] {
		return fmt.Errorf("%w: %q (must be one of: default, highlighted, selected, warning, error, dashed, thick)", ErrInvalidStyle, s)
	}
	return nil
}

// =============================================================================
// Geometry
// =============================================================================

// Box is a positioned rectangle assigned by the layout oracle.
type Box struct {
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Point is a single coordinate on an edge route.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Dims is a width/height pair. Containers cache their expanded
// dimensions here so a later expand can restore them.
type Dims struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Metadata stores arbitrary key-value pairs attached to entities by
// callers. The core never interprets it.
type Metadata map[string]any

func copyMeta(m Metadata) Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// =============================================================================
// Entities
// =============================================================================

// Node is a leaf vertex. A node belongs to at most one container; the
// owning container is tracked by the store, not embedded here.
type Node struct {
	ID     string   `json:"id" bson:"id"`
	Label  string   `json:"label,omitempty" bson:"label,omitempty"`
	Style  Style    `json:"style,omitempty" bson:"style,omitempty"`
	Hidden bool     `json:"hidden,omitempty" bson:"hidden,omitempty"`
	Layout *Box     `json:"layout,omitempty" bson:"layout,omitempty"`
	Meta   Metadata `json:"meta,omitempty" bson:"meta,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a directed connection between two nodes or containers.
// Endpoints are never hyper-edges.
type Edge struct {
	ID     string   `json:"id" bson:"id"`
	Source string   `json:"source" bson:"source"`
	Target string   `json:"target" bson:"target"`
	Style  Style    `json:"style,omitempty" bson:"style,omitempty"`
	Hidden bool     `json:"hidden,omitempty" bson:"hidden,omitempty"`
	Route  []Point  `json:"route,omitempty" bson:"route,omitempty"`
	Meta   Metadata `json:"meta,omitempty" bson:"meta,omitempty"`
}

// Container groups nodes and other containers. Child membership is
// tracked by the store; the container carries only its own flags.
type Container struct {
	ID        string   `json:"id" bson:"id"`
	Label     string   `json:"label,omitempty" bson:"label,omitempty"`
	Style     Style    `json:"style,omitempty" bson:"style,omitempty"`
	Collapsed bool     `json:"collapsed,omitempty" bson:"collapsed,omitempty"`
	Hidden    bool     `json:"hidden,omitempty" bson:"hidden,omitempty"`
	Layout    *Box     `json:"layout,omitempty" bson:"layout,omitempty"`
	Meta      Metadata `json:"meta,omitempty" bson:"meta,omitempty"`

	// ExpandedDims caches the container's dimensions from before the
	// last collapse so expand can restore them.
	ExpandedDims *Dims `json:"expanded_dims,omitempty" bson:"expanded_dims,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (c *Container) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.ID
}

// HyperEdge summarizes one or more regular edges that cross a
// collapsed container boundary. Hyper-edges are created and destroyed
// entirely by the collapse/expand engine; callers never construct them.
type HyperEdge struct {
	ID     string  `json:"id" bson:"id"`
	Source string  `json:"source" bson:"source"`
	Target string  `json:"target" bson:"target"`
	Style  Style   `json:"style,omitempty" bson:"style,omitempty"`
	Hidden bool    `json:"hidden,omitempty" bson:"hidden,omitempty"`
	Route  []Point `json:"route,omitempty" bson:"route,omitempty"`

	// Edges lists the IDs of the summarized regular edges. Expanding
	// restores these wherever both endpoints become visible.
	Edges []string `json:"edges" bson:"edges"`

	// CollapsedBy records which container collapse produced this
	// hyper-edge. Expanding that container tears it down.
	CollapsedBy string `json:"collapsed_by" bson:"collapsed_by"`
}

// hyperEdgeIDPrefix namespaces derived hyper-edge IDs so they can
// never collide with caller-supplied node or edge IDs.
const hyperEdgeIDPrefix = "he_"

// hyperEdgeID derives the identity of a hyper-edge from its resolved
// endpoints. Two hyper-edges between the same endpoints are the same
// hyper-edge and get merged.
func hyperEdgeID(source, target string) string {
	return fmt.Sprintf("%s%s__%s", hyperEdgeIDPrefix, source, target)
}
