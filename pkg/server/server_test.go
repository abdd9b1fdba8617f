package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/micograph/pkg/cache"
	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/layoutstore"
	"github.com/matzehuels/micograph/pkg/pipeline"
)

type fakeSource struct {
	graphs map[string]graph.DependencyGraph
	added  []string
}

func (f *fakeSource) DependencyGraph(_ context.Context, shortName, version string) (graph.DependencyGraph, error) {
	dg, ok := f.graphs[graph.ServiceNodeID(shortName, version)]
	if !ok {
		return graph.DependencyGraph{}, errors.New(errors.ErrCodeServiceNotFound, "service %s %s not found", shortName, version)
	}
	return dg, nil
}

func (f *fakeSource) Service(_ context.Context, shortName, version string) (graph.Service, error) {
	return graph.Service{ShortName: shortName, Version: version}, nil
}

func (f *fakeSource) Application(_ context.Context, shortName, version string) (graph.Application, error) {
	return graph.Application{
		ShortName: shortName,
		Version:   version,
		Services:  []graph.Service{{ShortName: "a", Version: "1.0.0"}},
	}, nil
}

func (f *fakeSource) DeleteDependee(context.Context, string, string, string, string) error { return nil }

func (f *fakeSource) AddDependee(_ context.Context, _, _ string, d graph.Service) error {
	f.added = append(f.added, d.NodeID())
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeSource) {
	t.Helper()
	src := &fakeSource{graphs: map[string]graph.DependencyGraph{
		"a-1.0.0": {
			Services: []graph.Service{{ShortName: "a", Version: "1.0.0"}, {ShortName: "b", Version: "1.0.0"}},
			Edges: []graph.DependencyEdge{{
				SourceShortName: "a", SourceVersion: "1.0.0",
				TargetShortName: "b", TargetVersion: "1.0.0",
			}},
		},
	}}
	c := cache.NewNullCache()
	runner := pipeline.NewRunner(c, nil, nil)
	runner.Source = src
	runner.Layouts = layoutstore.NewCacheStore(mustFileCache(t), cache.NewDefaultKeyer())

	srv := httptest.NewServer(New(Options{Runner: runner, Metrics: prometheus.NewRegistry()}))
	t.Cleanup(srv.Close)
	return srv, src
}

func mustFileCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("response should carry a request id")
	}
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestServiceGraph(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/services/a/1.0.0/graph.svg", "image/svg+xml", "<svg"},
		{"/services/a/1.0.0/graph.json", "application/json", `"root": "a-1.0.0"`},
		{"/services/a/1.0.0/graph.dot?detailed", "text/vnd.graphviz", "digraph"},
		{"/applications/shop/1.0.0/graph.json", "application/json", `"view": "application"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			if got := resp.Header.Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(body), tt.contains) {
				t.Errorf("body does not contain %q", tt.contains)
			}
		})
	}
}

func TestErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		method string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"GET", "/services/zz/1.0.0/graph.svg", "", http.StatusNotFound, errors.ErrCodeServiceNotFound},
		{"GET", "/services/a/1.0.0/graph.pdf", "", http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"GET", "/services/a/1.0.0/graph.svg?width=-1", "", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"POST", "/services/a/1.0.0/nodes/b-1.0.0/move", `{"x": 1}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"POST", "/services/a/1.0.0/nodes/b-1.0.0/move", `{"z": 1}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"POST", "/services/a/1.0.0/nodes/zz-1.0.0/move", `{"x": 1, "y": 2}`, http.StatusNotFound, errors.ErrCodeNotFound},
		{"POST", "/services/a/1.0.0/nodes/b-1.0.0/version", `{"version": "1.0.0"}`, http.StatusConflict, errors.ErrCodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var er ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if er.Code != tt.code {
				t.Errorf("code = %s, want %s", er.Code, tt.code)
			}
			if er.RequestID == "" {
				t.Error("error body should carry the request id")
			}
		})
	}
}

func TestMoveAndChangeVersion(t *testing.T) {
	srv, src := newTestServer(t)

	resp, err := http.Post(srv.URL+"/services/a/1.0.0/nodes/b-1.0.0/move", "application/json", strings.NewReader(`{"x": 50, "y": 75}`))
	if err != nil {
		t.Fatal(err)
	}
	var layout graph.Layout
	err = json.NewDecoder(resp.Body).Decode(&layout)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode layout: %v", err)
	}
	if got := layout.Positions["b-1.0.0"]; got.X != 50 || got.Y != 75 {
		t.Errorf("b = %v, want (50, 75)", got)
	}

	resp, err = http.Post(srv.URL+"/services/a/1.0.0/nodes/b-1.0.0/version", "application/json", strings.NewReader(`{"version": "2.0.0"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if len(src.added) != 1 || src.added[0] != "b-2.0.0" {
		t.Errorf("added = %v, want [b-2.0.0]", src.added)
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	srv, _ := newTestServer(t)
	const id = "5f0c7b0e-8a55-4c59-9a61-0d2f3c9f7a11"
	req, _ := http.NewRequest("GET", srv.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}
}
