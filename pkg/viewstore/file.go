package viewstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nestview/nestview/pkg/errors"
	"github.com/nestview/nestview/pkg/observability"
)

// FileStore persists views as JSON files, one per view, for CLI use.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed store. An empty baseDir defaults
// to <user config dir>/nestview/views.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "resolve config dir")
		}
		baseDir = filepath.Join(cfgDir, "nestview", "views")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create view dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) viewPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

// Get implements [Store].
func (s *FileStore) Get(ctx context.Context, id string) (*View, error) {
	if err := errors.ValidateViewName(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(s.viewPath(id))
	s.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			observability.Store().OnMiss(ctx, "file", keyType)
			return nil, errors.New(errors.ErrCodeViewNotFound, "view %q not found", id)
		}
		observability.Store().OnError(ctx, "file", keyType, err)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read view %q", id)
	}

	var v View
	if err := json.Unmarshal(data, &v); err != nil {
		observability.Store().OnError(ctx, "file", keyType, err)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "parse view %q", id)
	}
	observability.Store().OnHit(ctx, "file", keyType)
	return &v, nil
}

// Put implements [Store].
func (s *FileStore) Put(ctx context.Context, v *View) error {
	if err := validateView(v); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "marshal view %q", v.ID)
	}

	s.mu.Lock()
	err = os.WriteFile(s.viewPath(v.ID), data, 0o600)
	s.mu.Unlock()
	if err != nil {
		observability.Store().OnError(ctx, "file", keyType, err)
		return errors.Wrap(errors.ErrCodeStorage, err, "write view %q", v.ID)
	}
	observability.Store().OnWrite(ctx, "file", keyType, len(data))
	return nil
}

// Delete implements [Store].
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateViewName(id); err != nil {
		return err
	}
	s.mu.Lock()
	err := os.Remove(s.viewPath(id))
	s.mu.Unlock()
	if err != nil && !os.IsNotExist(err) {
		observability.Store().OnError(ctx, "file", keyType, err)
		return errors.Wrap(errors.ErrCodeStorage, err, "delete view %q", id)
	}
	return nil
}

// List implements [Store].
func (s *FileStore) List(ctx context.Context, graphID string) ([]View, error) {
	s.mu.RLock()
	entries, err := os.ReadDir(s.baseDir)
	s.mu.RUnlock()
	if err != nil {
		observability.Store().OnError(ctx, "file", keyType, err)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list views")
	}

	var out []View
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		v, err := s.Get(ctx, strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			// Skip files someone else put in the directory.
			continue
		}
		if v.GraphID == graphID {
			out = append(out, *v)
		}
	}
	sortViews(out)
	return out, nil
}

// Close implements [Store].
func (s *FileStore) Close(context.Context) error { return nil }
