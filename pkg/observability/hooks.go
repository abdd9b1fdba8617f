// Package observability decouples metrics from the code that emits them.
//
// Libraries in this module emit events through the registered hooks without
// depending on a metrics backend. The binary registers an implementation at
// startup, for example the Prometheus one in the prom subpackage.
//
// Each event category has a hook interface with a no-op default. A value
// implementing several interfaces is installed for all of them at once:
//
//	observability.Install(prom.New(reg))
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	stats := view.Apply(snapshot)
//	observability.Graph().OnReconcile("service", stats.Created, stats.Updated, stats.Removed, time.Since(start))
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Graph Hooks
// =============================================================================

// GraphHooks receives events from the editor and the reconcilers.
type GraphHooks interface {
	// OnReconcile records one snapshot applied to a view.
	OnReconcile(view string, created, updated, removed int, duration time.Duration)

	// OnRender records one full render pass.
	OnRender(nodes, edges int, duration time.Duration)

	// OnEvent records an interaction event and whether a listener canceled it.
	OnEvent(eventType string, canceled bool)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the render pipeline.
type PipelineHooks interface {
	// OnLoadComplete records loading a snapshot from a file or the API.
	OnLoadComplete(ctx context.Context, source string, services int, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives snapshot, layout and artifact cache events. keyType
// is the key namespace.
type CacheHooks interface {
	// OnCacheHit and OnCacheMiss record lookups.
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a write of size bytes.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from requests to the MICO API.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse is called for every response, including non-2xx ones.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError is called when no response arrived.
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGraphHooks and its siblings ignore every event.
type NoopGraphHooks struct{}

func (NoopGraphHooks) OnReconcile(string, int, int, int, time.Duration) {}
func (NoopGraphHooks) OnRender(int, int, time.Duration)                 {}
func (NoopGraphHooks) OnEvent(string, bool)                             {}

type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Registry
// =============================================================================

// slot holds the hooks registered for one interface, or its no-op default.
type slot[T any] struct {
	mu   sync.RWMutex
	noop T
	hook T
	set  bool
}

func (s *slot[T]) store(h T) {
	if any(h) == nil {
		return
	}
	s.mu.Lock()
	s.hook, s.set = h, true
	s.mu.Unlock()
}

func (s *slot[T]) load() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return s.noop
	}
	return s.hook
}

func (s *slot[T]) reset() {
	s.mu.Lock()
	var zero T
	s.hook, s.set = zero, false
	s.mu.Unlock()
}

var (
	graphSlot    = &slot[GraphHooks]{noop: NoopGraphHooks{}}
	pipelineSlot = &slot[PipelineHooks]{noop: NoopPipelineHooks{}}
	cacheSlot    = &slot[CacheHooks]{noop: NoopCacheHooks{}}
	httpSlot     = &slot[HTTPHooks]{noop: NoopHTTPHooks{}}
)

// Install registers h for every hook interface it implements and reports
// how many it matched. Call it once at startup.
func Install(h any) int {
	n := 0
	if g, ok := h.(GraphHooks); ok {
		graphSlot.store(g)
		n++
	}
	if p, ok := h.(PipelineHooks); ok {
		pipelineSlot.store(p)
		n++
	}
	if c, ok := h.(CacheHooks); ok {
		cacheSlot.store(c)
		n++
	}
	if x, ok := h.(HTTPHooks); ok {
		httpSlot.store(x)
		n++
	}
	return n
}

// SetGraphHooks registers graph hooks. A nil h is ignored.
func SetGraphHooks(h GraphHooks) { graphSlot.store(h) }

// SetPipelineHooks registers pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) { pipelineSlot.store(h) }

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) { cacheSlot.store(h) }

// SetHTTPHooks registers API client hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) { httpSlot.store(h) }

func Graph() GraphHooks       { return graphSlot.load() }
func Pipeline() PipelineHooks { return pipelineSlot.load() }
func Cache() CacheHooks       { return cacheSlot.load() }
func HTTP() HTTPHooks         { return httpSlot.load() }

// Reset restores the no-op hooks. Tests use it between cases.
func Reset() {
	graphSlot.reset()
	pipelineSlot.reset()
	cacheSlot.reset()
	httpSlot.reset()
}
