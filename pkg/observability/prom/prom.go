// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/micograph/pkg/observability"
)

// Hooks records every observability event as a Prometheus metric.
type Hooks struct {
	reconcileTotal    *prometheus.CounterVec
	reconcileNodes    *prometheus.CounterVec
	reconcileDuration *prometheus.HistogramVec
	renderDuration    prometheus.Histogram
	renderedNodes     prometheus.Gauge
	renderedEdges     prometheus.Gauge
	eventsTotal       *prometheus.CounterVec

	loadTotal      *prometheus.CounterVec
	renderTotal    *prometheus.CounterVec
	cacheOps       *prometheus.CounterVec
	cacheBytes     prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	httpErrorTotal *prometheus.CounterVec
}

var (
	_ observability.GraphHooks    = (*Hooks)(nil)
	_ observability.PipelineHooks = (*Hooks)(nil)
	_ observability.CacheHooks    = (*Hooks)(nil)
	_ observability.HTTPHooks     = (*Hooks)(nil)
)

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Hooks {
	h := &Hooks{
		reconcileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "micograph_reconcile_total",
			Help: "Number of snapshots applied, by view.",
		}, []string{"view"}),
		reconcileNodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "micograph_reconcile_nodes_total",
			Help: "Nodes touched by reconciliation, by view and change.",
		}, []string{"view", "change"}),
		reconcileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "micograph_reconcile_duration_seconds",
			Help:    "Time taken to apply a snapshot.",
			Buckets: prometheus.DefBuckets,
		}, []string{"view"}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "micograph_render_duration_seconds",
			Help:    "Time taken by a full render pass.",
			Buckets: prometheus.DefBuckets,
		}),
		renderedNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "micograph_rendered_nodes",
			Help: "Nodes drawn in the last render pass.",
		}),
		renderedEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "micograph_rendered_edges",
			Help: "Edges drawn in the last render pass.",
		}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "micograph_events_total",
			Help: "Interaction events, by type and whether they were canceled.",
		}, []string{"type", "canceled"}),
		loadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "micograph_pipeline_load_total",
			Help: "Snapshot loads, by source and result.",
		}, []string{"source", "result"}),
		renderTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "micograph_pipeline_render_total",
			Help: "Artifact renders, by result.",
		}, []string{"result"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "micograph_cache_operations_total",
			Help: "Cache operations, by key type and operation.",
		}, []string{"key_type", "op"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "micograph_cache_written_bytes_total",
			Help: "Bytes written to the cache.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "micograph_http_client_requests_total",
			Help: "Outgoing API requests, by method and status.",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "micograph_http_client_duration_seconds",
			Help:    "Outgoing API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		httpErrorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "micograph_http_client_errors_total",
			Help: "Outgoing API requests that failed without a response.",
		}, []string{"method"}),
	}
	reg.MustRegister(
		h.reconcileTotal, h.reconcileNodes, h.reconcileDuration,
		h.renderDuration, h.renderedNodes, h.renderedEdges, h.eventsTotal,
		h.loadTotal, h.renderTotal, h.cacheOps, h.cacheBytes,
		h.httpRequests, h.httpDuration, h.httpErrorTotal,
	)
	return h
}

// Register installs h as the process-wide hooks.
func (h *Hooks) Register() {
	observability.Install(h)
}

// OnReconcile implements observability.GraphHooks.
func (h *Hooks) OnReconcile(view string, created, updated, removed int, d time.Duration) {
	h.reconcileTotal.WithLabelValues(view).Inc()
	h.reconcileNodes.WithLabelValues(view, "created").Add(float64(created))
	h.reconcileNodes.WithLabelValues(view, "updated").Add(float64(updated))
	h.reconcileNodes.WithLabelValues(view, "removed").Add(float64(removed))
	h.reconcileDuration.WithLabelValues(view).Observe(d.Seconds())
}

// OnRender implements observability.GraphHooks.
func (h *Hooks) OnRender(nodes, edges int, d time.Duration) {
	h.renderDuration.Observe(d.Seconds())
	h.renderedNodes.Set(float64(nodes))
	h.renderedEdges.Set(float64(edges))
}

// OnEvent implements observability.GraphHooks.
func (h *Hooks) OnEvent(eventType string, canceled bool) {
	h.eventsTotal.WithLabelValues(eventType, strconv.FormatBool(canceled)).Inc()
}

// OnLoadComplete implements observability.PipelineHooks.
func (h *Hooks) OnLoadComplete(_ context.Context, source string, _ int, _ time.Duration, err error) {
	h.loadTotal.WithLabelValues(source, result(err)).Inc()
}

// OnRenderStart implements observability.PipelineHooks.
func (h *Hooks) OnRenderStart(context.Context, []string) {}

// OnRenderComplete implements observability.PipelineHooks.
func (h *Hooks) OnRenderComplete(_ context.Context, _ []string, _ time.Duration, err error) {
	h.renderTotal.WithLabelValues(result(err)).Inc()
}

// OnCacheHit implements observability.CacheHooks.
func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (h *Hooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheOps.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.Add(float64(size))
}

// OnRequest implements observability.HTTPHooks.
func (h *Hooks) OnRequest(context.Context, string, string, string) {}

// OnResponse implements observability.HTTPHooks.
func (h *Hooks) OnResponse(_ context.Context, method, _, _ string, status int, d time.Duration) {
	h.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	h.httpDuration.WithLabelValues(method).Observe(d.Seconds())
}

// OnError implements observability.HTTPHooks.
func (h *Hooks) OnError(_ context.Context, method, _, _ string, _ error) {
	h.httpErrorTotal.WithLabelValues(method).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
