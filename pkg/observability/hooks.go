// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about pipeline stages, cache operations, and external
// toolkit invocations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the library packages
// never import an observability backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetToolkitHooks(&myToolkitHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnExtractStart(ctx, volumePath)
//	// ... run the merge tree filter ...
//	observability.Pipeline().OnExtractComplete(ctx, volumePath, nodes, links, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the pack, resample and extract stages.
type PipelineHooks interface {
	// Pack events
	OnPackStart(ctx context.Context, input string, dims [3]int)
	OnPackComplete(ctx context.Context, input string, samples int, duration time.Duration, err error)

	// Resample events
	OnResampleStart(ctx context.Context, input string, dims [3]int)
	OnResampleComplete(ctx context.Context, input string, duration time.Duration, err error)

	// Extract events
	OnExtractStart(ctx context.Context, volume string)
	OnExtractComplete(ctx context.Context, volume string, nodes, links int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Toolkit Hooks
// =============================================================================

// ToolkitHooks receives events from external toolkit invocations.
type ToolkitHooks interface {
	// OnInvoke records the start of a toolkit subprocess.
	OnInvoke(ctx context.Context, mode, filter string)

	// OnComplete records a finished toolkit subprocess.
	OnComplete(ctx context.Context, mode, filter string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnPackStart(context.Context, string, [3]int)                       {}
func (NoopPipelineHooks) OnPackComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnResampleStart(context.Context, string, [3]int)                   {}
func (NoopPipelineHooks) OnResampleComplete(context.Context, string, time.Duration, error)  {}
func (NoopPipelineHooks) OnExtractStart(context.Context, string)                            {}
func (NoopPipelineHooks) OnExtractComplete(context.Context, string, int, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopToolkitHooks is a no-op implementation of ToolkitHooks.
type NoopToolkitHooks struct{}

func (NoopToolkitHooks) OnInvoke(context.Context, string, string)                         {}
func (NoopToolkitHooks) OnComplete(context.Context, string, string, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	toolkitHooks  ToolkitHooks  = NoopToolkitHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetToolkitHooks registers custom toolkit hooks.
func SetToolkitHooks(h ToolkitHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		toolkitHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Toolkit returns the registered toolkit hooks.
func Toolkit() ToolkitHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return toolkitHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	toolkitHooks = NoopToolkitHooks{}
}
