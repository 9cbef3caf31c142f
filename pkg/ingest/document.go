package ingest

import (
	"encoding/json"
	"io"

	"github.com/nestview/nestview/pkg/errors"
	"github.com/nestview/nestview/pkg/hypergraph"
)

// Document is the flat record form: entities carry their styles and
// flags directly and containers list their children explicitly. It is
// the round-trippable format the CLI and HTTP API exchange, as
// opposed to the compiler payload which needs hierarchy resolution.
type Document struct {
	Nodes      []hypergraph.Node   `json:"nodes"`
	Edges      []hypergraph.Edge   `json:"edges"`
	Containers []DocumentContainer `json:"containers,omitempty"`
}

// DocumentContainer pairs a container with its direct child IDs.
type DocumentContainer struct {
	hypergraph.Container
	Children []string `json:"children,omitempty"`
}

// ReadDocument decodes a flat document from r.
func ReadDocument(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph document")
	}
	return &d, nil
}

// LoadDocument materializes a flat document into the graph.
// Containers must be listed parents-after-children or with child
// containers appearing earlier in the slice; the loader makes one
// dependency-ordered pass and rejects unresolvable orderings.
func LoadDocument(g *hypergraph.Graph, d *Document) error {
	return g.Batch(func(g *hypergraph.Graph) error {
		for _, n := range d.Nodes {
			if err := errors.ValidateEntityID(n.ID); err != nil {
				return err
			}
			if err := g.AddNode(n); err != nil {
				return err
			}
		}

		if err := addDocumentContainers(g, d.Containers); err != nil {
			return err
		}

		for _, e := range d.Edges {
			if err := errors.ValidateEntityID(e.ID); err != nil {
				return err
			}
			if err := g.AddEdge(e); err != nil {
				return err
			}
		}
		return nil
	})
}

// addDocumentContainers inserts containers in dependency order: a
// container whose child containers are not all present yet is
// retried after the rest. A full pass with no progress means a
// missing or cyclic reference.
func addDocumentContainers(g *hypergraph.Graph, containers []DocumentContainer) error {
	pending := append([]DocumentContainer(nil), containers...)
	for len(pending) > 0 {
		var stuck []DocumentContainer
		progress := false
		for _, dc := range pending {
			if err := errors.ValidateEntityID(dc.ID); err != nil {
				return err
			}
			if !childrenPresent(g, dc.Children) {
				stuck = append(stuck, dc)
				continue
			}
			if err := g.AddContainer(dc.Container, dc.Children); err != nil {
				return err
			}
			progress = true
		}
		if !progress {
			return errors.New(errors.ErrCodeInvalidDocument,
				"container %q has unresolvable children", stuck[0].ID)
		}
		pending = stuck
	}
	return nil
}

// childrenPresent reports whether every child already exists in the
// graph.
func childrenPresent(g *hypergraph.Graph, children []string) bool {
	for _, child := range children {
		if _, ok := g.Node(child); ok {
			continue
		}
		if _, ok := g.Container(child); ok {
			continue
		}
		return false
	}
	return true
}

// ExportDocument snapshots the graph's full entity state, including
// hidden entities, into a flat document. Hyper-edges are derived
// state and deliberately not exported; reloading the document and
// re-collapsing reproduces them.
func ExportDocument(g *hypergraph.Graph) *Document {
	d := &Document{}
	for _, n := range g.AllNodes() {
		d.Nodes = append(d.Nodes, n)
	}
	for _, e := range g.AllEdges() {
		d.Edges = append(d.Edges, e)
	}
	for _, c := range g.AllContainers() {
		d.Containers = append(d.Containers, DocumentContainer{
			Container: c,
			Children:  g.ContainerChildren(c.ID),
		})
	}
	return d
}
