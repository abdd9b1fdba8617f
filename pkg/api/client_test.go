package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/micograph/pkg/cache"
	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/graph"
)

func newTestClient(t *testing.T, h http.Handler, c cache.Cache) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client, err := New(Options{BaseURL: srv.URL, Cache: c, Attempts: 2, Backoff: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestDependencyGraph(t *testing.T) {
	want := graph.DependencyGraph{
		Services: []graph.Service{{ShortName: "a", Version: "1.0.0"}, {ShortName: "b", Version: "2.0.0"}},
		Edges: []graph.DependencyEdge{{
			SourceShortName: "a", SourceVersion: "1.0.0",
			TargetShortName: "b", TargetVersion: "2.0.0",
		}},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /services/a/1.0.0/dependencyGraph", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, want)
	})
	c := newTestClient(t, mux, nil)

	got, err := c.DependencyGraph(context.Background(), "a", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Services) != 2 || len(got.Edges) != 1 {
		t.Fatalf("got %d services, %d edges", len(got.Services), len(got.Edges))
	}
	if got.Edges[0].TargetID() != "b-2.0.0" {
		t.Errorf("TargetID = %q, want %q", got.Edges[0].TargetID(), "b-2.0.0")
	}
}

func TestNotFound(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler(), nil)

	_, err := c.Service(context.Background(), "missing", "1.0.0")
	if !errors.Is(err, errors.ErrCodeServiceNotFound) {
		t.Errorf("err = %v, want SERVICE_NOT_FOUND", err)
	}
	_, err = c.Application(context.Background(), "missing", "1.0.0")
	if !errors.Is(err, errors.ErrCodeApplicationNotFound) {
		t.Errorf("err = %v, want APPLICATION_NOT_FOUND", err)
	}
}

func TestInvalidInput(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler(), nil)
	if _, err := c.Service(context.Background(), "../etc", "1.0.0"); !errors.Is(err, errors.ErrCodeInvalidShortName) {
		t.Errorf("err = %v, want INVALID_SHORT_NAME", err)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, graph.Service{ShortName: "a", Version: "1.0.0", Name: "Alpha"})
	})
	c := newTestClient(t, h, nil)

	s, err := c.Service(context.Background(), "a", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "Alpha" || calls.Load() != 2 {
		t.Errorf("Name = %q after %d calls, want Alpha after 2", s.Name, calls.Load())
	}
}

func TestCachedFallback(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var down atomic.Bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, graph.Service{ShortName: "a", Version: "1.0.0", Name: "Alpha"})
	})
	c := newTestClient(t, h, fc)
	ctx := context.Background()

	if _, err := c.Service(ctx, "a", "1.0.0"); err != nil {
		t.Fatal(err)
	}
	down.Store(true)
	s, err := c.Service(ctx, "a", "1.0.0")
	if err != nil {
		t.Fatalf("fallback failed: %v", err)
	}
	if s.Name != "Alpha" {
		t.Errorf("Name = %q, want Alpha", s.Name)
	}

	offline, err := New(Options{Cache: fc, Offline: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := offline.Service(ctx, "a", "1.0.0"); err != nil {
		t.Errorf("offline read: %v", err)
	}
	if _, err := offline.Service(ctx, "b", "1.0.0"); !errors.Is(err, errors.ErrCodeServiceNotFound) {
		t.Errorf("offline miss = %v, want SERVICE_NOT_FOUND", err)
	}
	if err := offline.DeleteDependee(ctx, "a", "1.0.0", "b", "1.0.0"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("offline mutation = %v, want UNSUPPORTED", err)
	}
}

func TestServiceVersions(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var list serviceList
		list.Embedded.Services = []graph.Service{
			{ShortName: "a", Version: "1.10.0"},
			{ShortName: "a", Version: "1.2.0"},
			{ShortName: "a", Version: "v1.9.0"},
		}
		writeJSON(w, list)
	})
	c := newTestClient(t, h, nil)

	got, err := c.ServiceVersions(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"1.2.0", "v1.9.0", "1.10.0"}
	for i, s := range got {
		if s.Version != want[i] {
			t.Errorf("versions[%d] = %q, want %q", i, s.Version, want[i])
		}
	}
}

func TestDependerListEmpty(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{})
	})
	c := newTestClient(t, h, nil)
	got, err := c.Dependers(context.Background(), "a", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestDependeeMutations(t *testing.T) {
	var seen []string
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		seen = append(seen, r.Method+" "+r.URL.Path)
		if r.URL.Path == "/services/a/1.0.0/dependees/broken/1.0.0" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, h, nil)
	ctx := context.Background()

	if err := c.DeleteDependee(ctx, "a", "1.0.0", "b", "1.0.0"); err != nil {
		t.Fatal(err)
	}
	if err := c.AddDependee(ctx, "a", "1.0.0", graph.Service{ShortName: "b", Version: "2.0.0"}); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"DELETE /services/a/1.0.0/dependees/b/1.0.0",
		"POST /services/a/1.0.0/dependees/b/2.0.0",
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("request %d = %q, want %q", i, seen[i], want[i])
		}
	}

	calls.Store(0)
	if err := c.AddDependee(ctx, "a", "1.0.0", graph.Service{ShortName: "broken", Version: "1.0.0"}); err == nil {
		t.Error("expected error for 500")
	}
	if calls.Load() != 1 {
		t.Errorf("mutation sent %d times, want 1", calls.Load())
	}
}
