package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHooksRecordMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(reg)
	ctx := context.Background()

	h.OnReconcile("service", 2, 1, 0, time.Millisecond)
	h.OnReconcile("service", 0, 3, 1, time.Millisecond)
	h.OnRender(5, 4, time.Millisecond)
	h.OnEvent("nodeclick", true)
	h.OnLoadComplete(ctx, "api", 3, time.Second, errors.New("boom"))
	h.OnCacheSet(ctx, "snapshot", 128)
	h.OnResponse(ctx, "GET", "mico", "/services", 200, time.Millisecond)

	if got := testutil.ToFloat64(h.reconcileTotal.WithLabelValues("service")); got != 2 {
		t.Errorf("reconcile total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(h.reconcileNodes.WithLabelValues("service", "updated")); got != 4 {
		t.Errorf("updated nodes = %v, want 4", got)
	}
	if got := testutil.ToFloat64(h.renderedNodes); got != 5 {
		t.Errorf("rendered nodes = %v, want 5", got)
	}
	if got := testutil.ToFloat64(h.eventsTotal.WithLabelValues("nodeclick", "true")); got != 1 {
		t.Errorf("canceled clicks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.loadTotal.WithLabelValues("api", "error")); got != 1 {
		t.Errorf("failed loads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.cacheBytes); got != 128 {
		t.Errorf("cache bytes = %v, want 128", got)
	}
	if got := testutil.ToFloat64(h.httpRequests.WithLabelValues("GET", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Error("second registration on the same registry should panic")
		}
	}()
	New(reg)
}
