// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about graph mutations, ingestion, layout, and storage
// operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetGraphHooks(&myGraphHooks{})
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Graph().OnCollapse(ctx, graphID, containerID, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Graph Hooks
// =============================================================================

// GraphHooks receives events from graph state mutations.
type GraphHooks interface {
	// OnIngest records a bulk document load.
	OnIngest(ctx context.Context, graphID string, nodes, edges, containers int, duration time.Duration, err error)

	// OnCollapse records a container collapse.
	OnCollapse(ctx context.Context, graphID, containerID string, duration time.Duration, err error)

	// OnExpand records a container expand.
	OnExpand(ctx context.Context, graphID, containerID string, duration time.Duration, err error)

	// OnValidate records a validation pass with its violation counts.
	OnValidate(ctx context.Context, graphID string, errors, warnings int)

	// Layout events
	OnLayoutStart(ctx context.Context, engine string, nodeCount int)
	OnLayoutComplete(ctx context.Context, engine string, duration time.Duration, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from view-store and cache operations.
type StoreHooks interface {
	// OnHit records a lookup that found its entry.
	OnHit(ctx context.Context, backend, keyType string)

	// OnMiss records a lookup that found nothing.
	OnMiss(ctx context.Context, backend, keyType string)

	// OnWrite records a write with the payload size in bytes.
	OnWrite(ctx context.Context, backend, keyType string, size int)

	// OnError records a backend failure.
	OnError(ctx context.Context, backend, keyType string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGraphHooks is a no-op implementation of GraphHooks.
type NoopGraphHooks struct{}

func (NoopGraphHooks) OnIngest(context.Context, string, int, int, int, time.Duration, error) {}
func (NoopGraphHooks) OnCollapse(context.Context, string, string, time.Duration, error)      {}
func (NoopGraphHooks) OnExpand(context.Context, string, string, time.Duration, error)        {}
func (NoopGraphHooks) OnValidate(context.Context, string, int, int)                          {}
func (NoopGraphHooks) OnLayoutStart(context.Context, string, int)                            {}
func (NoopGraphHooks) OnLayoutComplete(context.Context, string, time.Duration, error)        {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnHit(context.Context, string, string)        {}
func (NoopStoreHooks) OnMiss(context.Context, string, string)       {}
func (NoopStoreHooks) OnWrite(context.Context, string, string, int) {}
func (NoopStoreHooks) OnError(context.Context, string, string, error) {
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	graphHooks GraphHooks = NoopGraphHooks{}
	storeHooks StoreHooks = NoopStoreHooks{}
	hooksMu    sync.RWMutex
)

// SetGraphHooks registers custom graph hooks.
// This should be called once at application startup before any graph operations.
func SetGraphHooks(h GraphHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		graphHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store operations.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Graph returns the registered graph hooks.
func Graph() GraphHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return graphHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	graphHooks = NoopGraphHooks{}
	storeHooks = NoopStoreHooks{}
}
