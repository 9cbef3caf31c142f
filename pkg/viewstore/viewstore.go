// Package viewstore persists named saved views: the part of a
// graph's presentation state a user can get back later, namely the
// selected hierarchy and the set of collapsed containers. Everything
// else (hyper-edges, cascade-hidden entities) is derived and
// reproduced by applying the view.
//
// # Architecture
//
// The Store interface supports Get/Put/Delete plus listing the views
// of one graph, with implementations for different backends:
//   - memory: for tests and single-process CLI use
//   - file: JSON files under the user config dir, for the CLI
//   - redis: TTL-bound storage for multi-instance deployments
//   - mongo: durable storage for the hosted viewer
//
// # Usage
//
//	store := viewstore.NewMemoryStore()
//	v := viewstore.Capture(g, "graph-1", "collapsed overview", "location")
//	err := store.Put(ctx, v)
//	...
//	v, err = store.Get(ctx, id)
//	err = v.Apply(g)
package viewstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nestview/nestview/pkg/errors"
	"github.com/nestview/nestview/pkg/hypergraph"
)

// View is one saved presentation state.
type View struct {
	ID        string    `json:"id" bson:"_id"`
	GraphID   string    `json:"graph_id" bson:"graph_id"`
	Name      string    `json:"name" bson:"name"`
	Hierarchy string    `json:"hierarchy,omitempty" bson:"hierarchy,omitempty"`
	Collapsed []string  `json:"collapsed,omitempty" bson:"collapsed,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// New returns an empty view with a fresh ID and timestamps.
func New(graphID, name string) *View {
	now := time.Now().UTC()
	return &View{
		ID:        uuid.NewString(),
		GraphID:   graphID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Capture snapshots the graph's collapsed set into a new view.
func Capture(g *hypergraph.Graph, graphID, name, hierarchy string) *View {
	v := New(graphID, name)
	v.Hierarchy = hierarchy
	for _, c := range g.AllContainers() {
		if c.Collapsed {
			v.Collapsed = append(v.Collapsed, c.ID)
		}
	}
	sort.Strings(v.Collapsed)
	return v
}

// Apply restores the view's collapsed set on a graph: everything is
// expanded first, then the recorded containers are collapsed again.
// Containers the graph no longer has are skipped; a view survives
// graph re-ingestion with a changed hierarchy.
func (v *View) Apply(g *hypergraph.Graph) error {
	if err := g.ExpandAll(); err != nil {
		return err
	}
	for _, id := range v.Collapsed {
		c, ok := g.Container(id)
		if !ok || c.Collapsed {
			continue
		}
		if err := g.CollapseContainer(id); err != nil {
			return err
		}
	}
	return nil
}

// Store is the interface for view storage backends.
type Store interface {
	// Get retrieves a view by ID. A missing view reports
	// [errors.ErrCodeViewNotFound].
	Get(ctx context.Context, id string) (*View, error)

	// Put stores a view, overwriting any previous version.
	Put(ctx context.Context, v *View) error

	// Delete removes a view. Deleting a missing view is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the views saved for one graph, sorted by name.
	List(ctx context.Context, graphID string) ([]View, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// keyType tags view operations in store hook events.
const keyType = "view"

// validateView rejects views that cannot be stored safely.
func validateView(v *View) error {
	if v == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil view")
	}
	if v.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "view has no ID")
	}
	if err := errors.ValidateViewName(v.ID); err != nil {
		return err
	}
	if v.Name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "view has no name")
	}
	return nil
}

func sortViews(views []View) {
	sort.Slice(views, func(i, j int) bool {
		if views[i].Name != views[j].Name {
			return views[i].Name < views[j].Name
		}
		return views[i].ID < views[j].ID
	})
}
