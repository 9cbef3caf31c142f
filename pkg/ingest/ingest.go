// Package ingest loads graphs into the state core from the JSON
// payload emitted by the upstream compiler toolchain.
//
// The payload carries a flat node/edge list plus one or more
// hierarchy choices: alternative container trees (for example by
// deployment location or by call site) with a per-choice assignment
// of nodes to containers. Ingestion materializes exactly one choice
// into the graph; switching choices means re-ingesting.
//
// # Usage
//
//	payload, err := ingest.ReadPayload(file)
//	g := hypergraph.New(hypergraph.DefaultConfig(), logger)
//	err = ingest.Load(g, payload, ingest.Options{})
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nestview/nestview/pkg/errors"
	"github.com/nestview/nestview/pkg/httputil"
	"github.com/nestview/nestview/pkg/hypergraph"
	"github.com/nestview/nestview/pkg/observability"
)

// =============================================================================
// Payload Types
// =============================================================================

// Payload is the compiler-emitted graph document.
type Payload struct {
	Nodes             []PayloadNode                `json:"nodes"`
	Edges             []PayloadEdge                `json:"edges"`
	HierarchyChoices  []HierarchyChoice            `json:"hierarchyChoices"`
	NodeAssignments   map[string]map[string]string `json:"nodeAssignments"`
	SelectedHierarchy string                       `json:"selectedHierarchy,omitempty"`
}

// PayloadNode is a single vertex in the document.
type PayloadNode struct {
	ID         string `json:"id"`
	NodeType   string `json:"nodeType,omitempty"`
	FullLabel  string `json:"fullLabel,omitempty"`
	ShortLabel string `json:"shortLabel,omitempty"`
	Label      string `json:"label,omitempty"`
}

// PayloadEdge is a single connection in the document. Semantic tags
// describe transport and ordering properties; the tags the core does
// not interpret are preserved as metadata.
type PayloadEdge struct {
	ID           string   `json:"id"`
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	SemanticTags []string `json:"semanticTags,omitempty"`
	Label        string   `json:"label,omitempty"`
}

// HierarchyChoice is one selectable container tree.
type HierarchyChoice struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Children []HierarchyNode `json:"children"`
}

// HierarchyNode is a container in a hierarchy tree.
type HierarchyNode struct {
	Key      string          `json:"key"`
	Name     string          `json:"name"`
	Children []HierarchyNode `json:"children,omitempty"`
}

// Options controls ingestion.
type Options struct {
	// Hierarchy selects the container tree to materialize. Empty
	// falls back to the payload's selectedHierarchy, then to the
	// first choice. A payload without hierarchy choices loads flat.
	Hierarchy string

	// UseShortLabels prefers the compact node label over the full one.
	UseShortLabels bool

	// GraphID tags hook events. Optional.
	GraphID string

	// Logger receives ingestion diagnostics. Nil discards.
	Logger *log.Logger
}

// =============================================================================
// Reading
// =============================================================================

// ReadPayload decodes a payload from r.
func ReadPayload(r io.Reader) (*Payload, error) {
	var p Payload
	dec := json.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph payload")
	}
	return &p, nil
}

// ReadPayloadFile decodes a payload from a file on disk.
func ReadPayloadFile(path string) (*Payload, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return ReadPayload(f)
}

// ReadPayloadURL downloads and decodes a payload from an HTTP
// endpoint using the given fetcher.
func ReadPayloadURL(ctx context.Context, f *httputil.Fetcher, url string) (*Payload, error) {
	data, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return ReadPayload(bytes.NewReader(data))
}

// =============================================================================
// Loading
// =============================================================================

// Load materializes a payload into the graph. The payload is checked
// before any mutation: duplicate IDs, unknown edge endpoints, and
// node assignments to containers absent from the chosen hierarchy all
// reject the whole document.
func Load(g *hypergraph.Graph, p *Payload, opts Options) error {
	start := time.Now()
	err := load(g, p, opts)
	containers := make(map[string]struct{})
	for _, choice := range p.HierarchyChoices {
		collectContainerKeys(choice.Children, containers)
	}
	observability.Graph().OnIngest(context.Background(), opts.GraphID,
		len(p.Nodes), len(p.Edges), len(containers), time.Since(start), err)
	return err
}

func load(g *hypergraph.Graph, p *Payload, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	choice, assignments, err := chooseHierarchy(p, opts.Hierarchy)
	if err != nil {
		return err
	}

	containerKeys := make(map[string]struct{})
	if choice != nil {
		collectContainerKeys(choice.Children, containerKeys)
	}

	// Reject the document before touching the graph.
	seen := make(map[string]struct{}, len(p.Nodes))
	for _, n := range p.Nodes {
		if err := errors.ValidateEntityID(n.ID); err != nil {
			return err
		}
		if _, dup := seen[n.ID]; dup {
			return errors.New(errors.ErrCodeDuplicateID, "duplicate node ID %q", n.ID)
		}
		if _, clash := containerKeys[n.ID]; clash {
			return errors.New(errors.ErrCodeDuplicateID, "node ID %q collides with a container key", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	for _, e := range p.Edges {
		if err := errors.ValidateEntityID(e.ID); err != nil {
			return err
		}
		if _, dup := seen[e.ID]; dup {
			return errors.New(errors.ErrCodeDuplicateID, "duplicate edge ID %q", e.ID)
		}
		seen[e.ID] = struct{}{}
		if _, ok := seen[e.Source]; !ok {
			if _, ok := containerKeys[e.Source]; !ok {
				return errors.New(errors.ErrCodeInvalidDocument,
					"edge %q references unknown source %q", e.ID, e.Source)
			}
		}
		if _, ok := seen[e.Target]; !ok {
			if _, ok := containerKeys[e.Target]; !ok {
				return errors.New(errors.ErrCodeInvalidDocument,
					"edge %q references unknown target %q", e.ID, e.Target)
			}
		}
	}
	nodeIDs := make(map[string]struct{}, len(p.Nodes))
	for _, n := range p.Nodes {
		nodeIDs[n.ID] = struct{}{}
	}
	for nodeID, containerKey := range assignments {
		if _, ok := nodeIDs[nodeID]; !ok {
			return errors.New(errors.ErrCodeInvalidDocument,
				"assignment references unknown node %q", nodeID)
		}
		if _, ok := containerKeys[containerKey]; !ok {
			return errors.New(errors.ErrCodeInvalidDocument,
				"node %q assigned to unknown container %q", nodeID, containerKey)
		}
	}

	return g.Batch(func(g *hypergraph.Graph) error {
		for _, n := range p.Nodes {
			node := hypergraph.Node{
				ID:    n.ID,
				Label: nodeLabel(n, opts.UseShortLabels),
			}
			if n.NodeType != "" {
				node.Meta = hypergraph.Metadata{"nodeType": n.NodeType}
			}
			if err := g.AddNode(node); err != nil {
				return err
			}
		}

		if choice != nil {
			byContainer := make(map[string][]string)
			for nodeID, containerKey := range assignments {
				byContainer[containerKey] = append(byContainer[containerKey], nodeID)
			}
			if err := addContainers(g, choice.Children, byContainer); err != nil {
				return err
			}
		}

		for _, e := range p.Edges {
			edge := hypergraph.Edge{
				ID:     e.ID,
				Source: e.Source,
				Target: e.Target,
				Style:  edgeStyle(e.SemanticTags),
			}
			if e.Label != "" || len(e.SemanticTags) > 0 {
				edge.Meta = hypergraph.Metadata{}
				if e.Label != "" {
					edge.Meta["label"] = e.Label
				}
				if len(e.SemanticTags) > 0 {
					edge.Meta["semanticTags"] = append([]string(nil), e.SemanticTags...)
				}
			}
			if err := g.AddEdge(edge); err != nil {
				return err
			}
		}

		logger.Info("loaded graph document",
			"nodes", len(p.Nodes), "edges", len(p.Edges), "containers", len(containerKeys))
		return nil
	})
}

// chooseHierarchy resolves the hierarchy selection against the
// payload's choices. An explicit request for a missing choice is an
// error; a payload without choices yields a flat graph.
func chooseHierarchy(p *Payload, requested string) (*HierarchyChoice, map[string]string, error) {
	if len(p.HierarchyChoices) == 0 {
		if requested != "" {
			return nil, nil, errors.New(errors.ErrCodeInvalidDocument,
				"payload has no hierarchy choices, cannot select %q", requested)
		}
		return nil, nil, nil
	}

	id := requested
	if id == "" {
		id = p.SelectedHierarchy
	}
	if id == "" {
		id = p.HierarchyChoices[0].ID
	}
	for i := range p.HierarchyChoices {
		if p.HierarchyChoices[i].ID == id {
			return &p.HierarchyChoices[i], p.NodeAssignments[id], nil
		}
	}
	return nil, nil, errors.New(errors.ErrCodeInvalidDocument, "unknown hierarchy choice %q", id)
}

func collectContainerKeys(nodes []HierarchyNode, out map[string]struct{}) {
	for _, hn := range nodes {
		out[hn.Key] = struct{}{}
		collectContainerKeys(hn.Children, out)
	}
}

// addContainers creates the container tree post-order so every child
// container exists before its parent claims it.
func addContainers(g *hypergraph.Graph, nodes []HierarchyNode, byContainer map[string][]string) error {
	for _, hn := range nodes {
		if err := addContainers(g, hn.Children, byContainer); err != nil {
			return err
		}
		children := make([]string, 0, len(hn.Children)+len(byContainer[hn.Key]))
		for _, child := range hn.Children {
			children = append(children, child.Key)
		}
		children = append(children, byContainer[hn.Key]...)
		c := hypergraph.Container{ID: hn.Key, Label: hn.Name}
		if err := g.AddContainer(c, children); err != nil {
			return fmt.Errorf("container %q: %w", hn.Key, err)
		}
	}
	return nil
}

func nodeLabel(n PayloadNode, short bool) string {
	if short && n.ShortLabel != "" {
		return n.ShortLabel
	}
	if n.Label != "" {
		return n.Label
	}
	if n.FullLabel != "" {
		return n.FullLabel
	}
	return n.ShortLabel
}

// edgeStyle maps compiler semantic tags onto the fixed edge style
// enumeration. Network transport renders dashed; everything else
// keeps the default stroke and carries its tags as metadata.
func edgeStyle(tags []string) hypergraph.Style {
	for _, tag := range tags {
		if tag == "Network" {
			return hypergraph.StyleDashed
		}
	}
	return hypergraph.StyleDefault
}
