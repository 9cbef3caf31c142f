package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/nestview/nestview/pkg/errors"
	"github.com/nestview/nestview/pkg/hypergraph"
)

// registry owns the in-memory graphs. The state core is
// single-threaded, so every access to one graph runs under that
// graph's own lock; the registry lock only guards the map.
type registry struct {
	mu     sync.RWMutex
	graphs map[string]*graphEntry
}

type graphEntry struct {
	mu        sync.Mutex
	graph     *hypergraph.Graph
	hierarchy string
}

func newRegistry() *registry {
	return &registry{graphs: make(map[string]*graphEntry)}
}

// add registers a graph and returns its generated ID.
func (r *registry) add(g *hypergraph.Graph, hierarchy string) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.graphs[id] = &graphEntry{graph: g, hierarchy: hierarchy}
	r.mu.Unlock()
	return id
}

// with runs fn while holding the graph's lock.
func (r *registry) with(id string, fn func(g *hypergraph.Graph, hierarchy string) error) error {
	r.mu.RLock()
	entry, ok := r.graphs[id]
	r.mu.RUnlock()
	if !ok {
		return errors.New(errors.ErrCodeGraphNotFound, "graph %q not found", id)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.graph, entry.hierarchy)
}

// remove drops a graph. Removing a missing graph reports not found.
func (r *registry) remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.graphs[id]; !ok {
		return errors.New(errors.ErrCodeGraphNotFound, "graph %q not found", id)
	}
	delete(r.graphs, id)
	return nil
}

// ids returns the registered graph IDs in map order.
func (r *registry) ids() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.graphs))
	for id := range r.graphs {
		out = append(out, id)
	}
	return out
}
