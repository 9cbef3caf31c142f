package viewstore

import (
	"context"
	"sync"

	"github.com/nestview/nestview/pkg/errors"
	"github.com/nestview/nestview/pkg/observability"
)

// MemoryStore keeps views in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	views map[string]View
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{views: make(map[string]View)}
}

// Get implements [Store].
func (s *MemoryStore) Get(ctx context.Context, id string) (*View, error) {
	s.mu.RLock()
	v, ok := s.views[id]
	s.mu.RUnlock()
	if !ok {
		observability.Store().OnMiss(ctx, "memory", keyType)
		return nil, errors.New(errors.ErrCodeViewNotFound, "view %q not found", id)
	}
	observability.Store().OnHit(ctx, "memory", keyType)
	out := v
	out.Collapsed = append([]string(nil), v.Collapsed...)
	return &out, nil
}

// Put implements [Store].
func (s *MemoryStore) Put(ctx context.Context, v *View) error {
	if err := validateView(v); err != nil {
		return err
	}
	stored := *v
	stored.Collapsed = append([]string(nil), v.Collapsed...)

	s.mu.Lock()
	s.views[v.ID] = stored
	s.mu.Unlock()

	observability.Store().OnWrite(ctx, "memory", keyType, len(stored.Collapsed))
	return nil
}

// Delete implements [Store].
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.views, id)
	s.mu.Unlock()
	return nil
}

// List implements [Store].
func (s *MemoryStore) List(ctx context.Context, graphID string) ([]View, error) {
	s.mu.RLock()
	var out []View
	for _, v := range s.views {
		if v.GraphID != graphID {
			continue
		}
		c := v
		c.Collapsed = append([]string(nil), v.Collapsed...)
		out = append(out, c)
	}
	s.mu.RUnlock()

	sortViews(out)
	return out, nil
}

// Close implements [Store].
func (s *MemoryStore) Close(context.Context) error { return nil }
