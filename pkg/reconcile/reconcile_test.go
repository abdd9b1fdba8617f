package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/micograph/pkg/editor"
	"github.com/matzehuels/micograph/pkg/geometry"
	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/scene"
)

func svc(shortName, version string) graph.Service {
	return graph.Service{ShortName: shortName, Version: version}
}

func dep(src, srcV, tgt, tgtV string) graph.DependencyEdge {
	return graph.DependencyEdge{SourceShortName: src, SourceVersion: srcV, TargetShortName: tgt, TargetVersion: tgtV}
}

func newServiceView(t *testing.T, root graph.Service) *ServiceGraph {
	t.Helper()
	ed := editor.New(editor.Options{})
	ed.Init(800, 600)
	s := NewServiceGraph(ed, nil)
	s.Reset(root)
	return s
}

func TestApplyAddsNewNodesOnly(t *testing.T) {
	s := newServiceView(t, svc("a", "1.0.0"))

	st := s.Apply(graph.DependencyGraph{Services: []graph.Service{svc("a", "1.0.0")}})
	assert.Equal(t, Stats{Created: 1}, st)
	a, ok := s.Node("a-1.0.0")
	require.True(t, ok)
	before := a.Position()

	st = s.Apply(graph.DependencyGraph{
		Services: []graph.Service{svc("a", "1.0.0"), svc("b", "1.0.0")},
		Edges:    []graph.DependencyEdge{dep("a", "1.0.0", "b", "1.0.0")},
	})
	assert.Equal(t, Stats{Created: 1, Updated: 1, EdgesCreated: 1}, st)
	assert.Equal(t, before, a.Position())

	b, ok := s.Node("b-1.0.0")
	require.True(t, ok)
	assert.Equal(t, 1, b.DependencyLevel)
	assert.Equal(t, float64(RowHeight), b.Y)
	assert.Len(t, s.Editor().Edges(), 1)
	assert.Equal(t, []string{"sa-1.0.0,tb-1.0.0"}, a.Outgoing())
}

func TestApplyIsIdempotent(t *testing.T) {
	s := newServiceView(t, svc("root", "1.0.0"))
	snapshot := graph.DependencyGraph{
		Services: []graph.Service{svc("root", "1.0.0"), svc("x", "1.0.0"), svc("y", "2.0.0")},
		Edges: []graph.DependencyEdge{
			dep("root", "1.0.0", "x", "1.0.0"),
			dep("x", "1.0.0", "y", "2.0.0"),
		},
	}
	s.Apply(snapshot)

	ed := s.Editor()
	ed.SetMode(editor.ModeLayout)
	require.True(t, ed.MoveNode("y-2.0.0", 400, 7))

	var churn []editor.EventType
	for _, typ := range []editor.EventType{editor.EventNodeAdd, editor.EventNodeRemove, editor.EventEdgeAdd, editor.EventEdgeRemove} {
		ed.AddEventListener(typ, func(e *editor.Event) { churn = append(churn, e.Type) })
	}

	st := s.Apply(snapshot)
	assert.False(t, st.Changed(), "second pass changed the graph: %+v", st)
	assert.Empty(t, churn)

	y, _ := s.Node("y-2.0.0")
	assert.True(t, y.WasMovedByUser)
	assert.Equal(t, geometry.Point{X: 400, Y: 7}, y.Position())
	assert.Equal(t, 2, y.DependencyLevel)
}

func TestApplyRemovesStale(t *testing.T) {
	s := newServiceView(t, svc("root", "1.0.0"))
	s.Apply(graph.DependencyGraph{
		Services: []graph.Service{svc("root", "1.0.0"), svc("x", "1.0.0"), svc("y", "1.0.0")},
		Edges: []graph.DependencyEdge{
			dep("root", "1.0.0", "x", "1.0.0"),
			dep("root", "1.0.0", "y", "1.0.0"),
		},
	})

	st := s.Apply(graph.DependencyGraph{
		Services: []graph.Service{svc("root", "1.0.0"), svc("x", "1.0.0")},
		Edges:    []graph.DependencyEdge{dep("root", "1.0.0", "x", "1.0.0")},
	})
	assert.Equal(t, 1, st.Removed)
	assert.Equal(t, 1, st.EdgesRemoved)

	_, ok := s.Node("y-1.0.0")
	assert.False(t, ok)
	root, _ := s.Node("root-1.0.0")
	assert.Equal(t, []string{"sroot-1.0.0,tx-1.0.0"}, root.Outgoing())
	assert.Len(t, s.Editor().Nodes(), 2)
	assert.Len(t, s.Editor().Edges(), 1)

	// dropping an edge while both ends stay
	st = s.Apply(graph.DependencyGraph{Services: []graph.Service{svc("root", "1.0.0"), svc("x", "1.0.0")}})
	assert.Equal(t, Stats{Updated: 2, EdgesRemoved: 1}, st)
	assert.Empty(t, s.Editor().Edges())
	x, _ := s.Node("x-1.0.0")
	assert.Equal(t, graph.LevelUnreached, x.DependencyLevel)
}

func TestPlacement(t *testing.T) {
	s := newServiceView(t, svc("root", "1.0.0"))
	s.Apply(graph.DependencyGraph{
		Services: []graph.Service{svc("x", "1.0.0"), svc("root", "1.0.0"), svc("y", "1.0.0")},
		Edges: []graph.DependencyEdge{
			dep("root", "1.0.0", "x", "1.0.0"),
			dep("x", "1.0.0", "y", "1.0.0"),
		},
	})
	want := map[string]geometry.Point{
		"root-1.0.0": {X: 0, Y: 0},
		"x-1.0.0":    {X: 0, Y: RowHeight},
		"y-1.0.0":    {X: ColumnWidth, Y: 2 * RowHeight},
	}
	for id, at := range want {
		n, ok := s.Node(id)
		require.True(t, ok, id)
		assert.Equal(t, at, n.Position(), id)
	}
}

func TestNodeClasses(t *testing.T) {
	s := newServiceView(t, svc("root", "1.0.0"))
	s.Apply(graph.DependencyGraph{
		Services: []graph.Service{svc("root", "1.0.0"), svc("x", "1.0.0"), svc("y", "1.0.0")},
		Edges: []graph.DependencyEdge{
			dep("root", "1.0.0", "x", "1.0.0"),
			dep("x", "1.0.0", "y", "1.0.0"),
		},
	})
	classes := func(id string) []string {
		el := s.Editor().Scene().First(func(e *scene.Element) bool { return e.ID() == id })
		require.NotNil(t, el, id)
		return el.Classes()
	}
	assert.Subset(t, classes("root-1.0.0"), []string{"node", graph.TypeService, ClassRoot})
	assert.Subset(t, classes("x-1.0.0"), []string{ClassDirectDependency, ClassDependency})
	assert.NotContains(t, classes("y-1.0.0"), ClassDirectDependency)
	assert.Contains(t, classes("y-1.0.0"), ClassDependency)
}

func TestVersionChangeKeepsPosition(t *testing.T) {
	s := newServiceView(t, svc("root", "1.0.0"))
	s.Apply(graph.DependencyGraph{
		Services: []graph.Service{svc("root", "1.0.0"), svc("b", "1.0.0")},
		Edges:    []graph.DependencyEdge{dep("root", "1.0.0", "b", "1.0.0")},
	})
	b, _ := s.Node("b-1.0.0")
	b.X, b.Y, b.WasMovedByUser = 50, 30, true

	_, err := s.BeginVersionChange("b-1.0.0", "2.0.0")
	require.NoError(t, err)
	assert.False(t, s.ApplyService(svc("root", "1.0.0")), "live updates pause during a version change")

	st := s.Apply(graph.DependencyGraph{
		Services: []graph.Service{svc("root", "1.0.0"), svc("b", "2.0.0")},
		Edges:    []graph.DependencyEdge{dep("root", "1.0.0", "b", "2.0.0")},
	})
	assert.Equal(t, 1, st.Created)
	assert.Equal(t, 1, st.Removed)

	b2, ok := s.Node("b-2.0.0")
	require.True(t, ok)
	assert.Equal(t, geometry.Point{X: 50, Y: 30}, b2.Position())
	assert.True(t, b2.WasMovedByUser)
	assert.False(t, s.VersionChangePending())
}

func TestBeginVersionChangeErrors(t *testing.T) {
	s := newServiceView(t, svc("root", "1.0.0"))
	s.Apply(graph.DependencyGraph{
		Services: []graph.Service{svc("root", "1.0.0"), svc("x", "1.0.0"), svc("y", "1.0.0")},
		Edges: []graph.DependencyEdge{
			dep("root", "1.0.0", "x", "1.0.0"),
			dep("x", "1.0.0", "y", "1.0.0"),
		},
	})
	tests := []struct {
		name, node, version string
	}{
		{"unknown node", "z-1.0.0", "2.0.0"},
		{"root", "root-1.0.0", "2.0.0"},
		{"transitive", "y-1.0.0", "2.0.0"},
		{"same version", "x-1.0.0", "1.0.0"},
		{"bad version", "x-1.0.0", "2.0/0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.BeginVersionChange(tt.node, tt.version)
			assert.Error(t, err)
			assert.False(t, s.VersionChangePending())
		})
	}
}

type fakeDependees struct {
	calls   []string
	failAdd bool
}

func (f *fakeDependees) DeleteDependee(_ context.Context, shortName, version, depShortName, depVersion string) error {
	f.calls = append(f.calls, "delete "+shortName+"-"+version+" "+depShortName+"-"+depVersion)
	return nil
}

func (f *fakeDependees) AddDependee(_ context.Context, shortName, version string, d graph.Service) error {
	f.calls = append(f.calls, "add "+shortName+"-"+version+" "+d.NodeID())
	if f.failAdd {
		return errors.New("boom")
	}
	return nil
}

func TestChangeVersion(t *testing.T) {
	s := newServiceView(t, svc("root", "1.0.0"))
	s.Apply(graph.DependencyGraph{
		Services: []graph.Service{svc("root", "1.0.0"), svc("b", "1.0.0")},
		Edges:    []graph.DependencyEdge{dep("root", "1.0.0", "b", "1.0.0")},
	})

	client := &fakeDependees{}
	require.NoError(t, s.ChangeVersion(context.Background(), client, "b-1.0.0", "1.1.0"))
	assert.Equal(t, []string{"delete root-1.0.0 b-1.0.0", "add root-1.0.0 b-1.1.0"}, client.calls)
	assert.True(t, s.VersionChangePending())

	s.CancelVersionChange()
	failing := &fakeDependees{failAdd: true}
	assert.Error(t, s.ChangeVersion(context.Background(), failing, "b-1.0.0", "1.1.0"))
	assert.False(t, s.VersionChangePending())
}

func TestChangeVersionToTransitiveDependency(t *testing.T) {
	s := newServiceView(t, svc("root", "1.0.0"))
	s.Apply(graph.DependencyGraph{
		Services: []graph.Service{svc("root", "1.0.0"), svc("b", "1.0.0"), svc("c", "1.0.0"), svc("b", "2.0.0")},
		Edges: []graph.DependencyEdge{
			dep("root", "1.0.0", "b", "1.0.0"),
			dep("root", "1.0.0", "c", "1.0.0"),
			dep("c", "1.0.0", "b", "2.0.0"),
		},
	})
	b2, ok := s.Node("b-2.0.0")
	require.True(t, ok)
	x := b2.X

	require.NoError(t, s.ChangeVersion(context.Background(), &fakeDependees{}, "b-1.0.0", "2.0.0"))
	require.True(t, s.VersionChangePending())

	// The API has not applied the swap yet.
	s.Apply(graph.DependencyGraph{
		Services: []graph.Service{svc("root", "1.0.0"), svc("b", "1.0.0"), svc("c", "1.0.0"), svc("b", "2.0.0")},
		Edges: []graph.DependencyEdge{
			dep("root", "1.0.0", "b", "1.0.0"),
			dep("root", "1.0.0", "c", "1.0.0"),
			dep("c", "1.0.0", "b", "2.0.0"),
		},
	})
	assert.True(t, s.VersionChangePending())

	st := s.Apply(graph.DependencyGraph{
		Services: []graph.Service{svc("root", "1.0.0"), svc("c", "1.0.0"), svc("b", "2.0.0")},
		Edges: []graph.DependencyEdge{
			dep("root", "1.0.0", "b", "2.0.0"),
			dep("root", "1.0.0", "c", "1.0.0"),
			dep("c", "1.0.0", "b", "2.0.0"),
		},
	})
	assert.Equal(t, 0, st.Created)
	assert.Equal(t, 1, st.Removed)
	assert.False(t, s.VersionChangePending())
	assert.Equal(t, x, b2.X, "an existing node keeps its column")
	assert.Equal(t, 1, b2.DependencyLevel)
	assert.Equal(t, float64(RowHeight), b2.Y)

	live := svc("c", "1.0.0")
	live.Name = "Catalog"
	assert.True(t, s.ApplyService(live), "live updates resume after the swap")
}

func TestNodeClicks(t *testing.T) {
	s := newServiceView(t, svc("root", "1.0.0"))
	s.Apply(graph.DependencyGraph{
		Services: []graph.Service{svc("root", "1.0.0"), svc("x", "1.0.0"), svc("y", "1.0.0")},
		Edges: []graph.DependencyEdge{
			dep("root", "1.0.0", "x", "1.0.0"),
			dep("x", "1.0.0", "y", "1.0.0"),
		},
	})
	var clicked []string
	s.OnVersionClick = func(n *graph.Node) { clicked = append(clicked, n.ID) }
	ed := s.Editor()

	assert.False(t, ed.ClickNode("root-1.0.0", ""), "root clicks are prevented")
	assert.False(t, ed.ClickNode("x-1.0.0", "version"))
	assert.False(t, ed.ClickNode("y-1.0.0", "version"))
	assert.Equal(t, []string{"x-1.0.0"}, clicked)

	assert.True(t, ed.ClickNode("x-1.0.0", "title"))
	assert.Equal(t, editor.ModeSelect, ed.Mode())
}

func TestApplyService(t *testing.T) {
	s := newServiceView(t, svc("root", "1.0.0"))
	assert.False(t, s.ApplyService(svc("root", "1.0.0")), "node does not exist yet")

	s.Apply(graph.DependencyGraph{Services: []graph.Service{svc("root", "1.0.0")}})
	live := svc("root", "1.0.0")
	live.Name = "Root Service"
	live.Description = "serves"
	assert.True(t, s.ApplyService(live))

	n, _ := s.Node("root-1.0.0")
	assert.Equal(t, "Root Service", n.Title)
	assert.Equal(t, "serves", n.Description)
}

func TestApplyLayout(t *testing.T) {
	s := newServiceView(t, svc("root", "1.0.0"))
	s.Apply(graph.DependencyGraph{Services: []graph.Service{svc("root", "1.0.0")}})

	s.ApplyLayout(graph.Layout{Positions: map[string]geometry.Point{
		"root-1.0.0": {X: -20, Y: 5},
		"x-1.0.0":    {X: 300, Y: 300},
	}})
	s.Apply(graph.DependencyGraph{
		Services: []graph.Service{svc("root", "1.0.0"), svc("x", "1.0.0")},
		Edges:    []graph.DependencyEdge{dep("root", "1.0.0", "x", "1.0.0")},
	})

	root, _ := s.Node("root-1.0.0")
	x, _ := s.Node("x-1.0.0")
	assert.Equal(t, geometry.Point{X: -20, Y: 5}, root.Position())
	assert.Equal(t, geometry.Point{X: 300, Y: 300}, x.Position())

	l := s.Layout()
	assert.Equal(t, "service:root-1.0.0", l.Root)
	assert.Len(t, l.Positions, 2)
}

// =============================================================================
// Application view
// =============================================================================

func TestAppGraph(t *testing.T) {
	ed := editor.New(editor.Options{})
	ed.Init(800, 600)
	a := NewAppGraph(ed, nil)

	app := graph.Application{
		ShortName: "shop", Version: "1.0.0", Name: "Shop",
		Services: []graph.Service{svc("cart", "1.0.0"), svc("pay", "2.0.0")},
	}
	st := a.Apply(app)
	assert.Equal(t, Stats{Created: 3, EdgesCreated: 2}, st)

	pay, ok := ed.Node("pay-2.0.0")
	require.True(t, ok)
	assert.Equal(t, geometry.Point{X: ColumnWidth, Y: RowHeight}, pay.Position())
	assert.Equal(t, 1, pay.DependencyLevel)
	root, _ := ed.Node(AppRootID)
	assert.Equal(t, "Shop", root.Title)
	assert.Equal(t, ClassIncludes, ed.Edges()[0].Type)

	assert.False(t, ed.ClickNode(AppRootID, ""))

	app.Services = app.Services[:1]
	st = a.Apply(app)
	assert.Equal(t, Stats{Updated: 2, Removed: 1, EdgesRemoved: 1}, st)
	assert.Len(t, ed.Nodes(), 2)
	assert.Len(t, ed.Edges(), 1)

	a.Close()
	assert.True(t, ed.ClickNode(AppRootID, ""), "a closed view no longer cancels root clicks")
}

// =============================================================================
// Controller
// =============================================================================

type fakeSource struct {
	mu       sync.Mutex
	graphs   map[string]graph.DependencyGraph
	services map[string]graph.Service
	polls    int
}

func (f *fakeSource) set(root string, dg graph.DependencyGraph) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.graphs[root] = dg
}

func (f *fakeSource) DependencyGraph(_ context.Context, shortName, version string) (graph.DependencyGraph, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	dg, ok := f.graphs[graph.ServiceNodeID(shortName, version)]
	if !ok {
		return graph.DependencyGraph{}, errors.New("not found")
	}
	return dg, nil
}

func (f *fakeSource) Service(_ context.Context, shortName, version string) (graph.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.services[graph.ServiceNodeID(shortName, version)]
	if !ok {
		return graph.Service{}, errors.New("not found")
	}
	return s, nil
}

func TestController(t *testing.T) {
	src := &fakeSource{
		graphs: map[string]graph.DependencyGraph{
			"a-1.0.0": {Services: []graph.Service{svc("a", "1.0.0")}},
			"b-1.0.0": {Services: []graph.Service{{ShortName: "b", Version: "1.0.0", Name: "Bee"}, svc("c", "1.0.0")}},
		},
		services: map[string]graph.Service{
			"b-1.0.0": {ShortName: "b", Version: "1.0.0", Name: "Bee"},
		},
	}
	view := newServiceView(t, graph.Service{})
	var mu sync.Mutex
	updates := 0
	c := NewController(view, src, ControllerOptions{
		PollInterval: 5 * time.Millisecond,
		Debounce:     time.Millisecond,
		OnUpdate:     func(Stats) { mu.Lock(); updates++; mu.Unlock() },
	})
	defer c.Close()

	nodeCount := func() int {
		n := 0
		c.Do(func(s *ServiceGraph) { n = len(s.Editor().Nodes()) })
		return n
	}

	c.Subscribe(context.Background(), svc("a", "1.0.0"))
	require.Eventually(t, func() bool { return nodeCount() == 1 }, time.Second, 5*time.Millisecond)

	src.set("a-1.0.0", graph.DependencyGraph{
		Services: []graph.Service{svc("a", "1.0.0"), svc("x", "1.0.0")},
		Edges:    []graph.DependencyEdge{dep("a", "1.0.0", "x", "1.0.0")},
	})
	c.Refresh()
	require.Eventually(t, func() bool { return nodeCount() == 2 }, time.Second, 5*time.Millisecond)

	c.Subscribe(context.Background(), svc("b", "1.0.0"))
	require.Eventually(t, func() bool {
		ok := false
		c.Do(func(s *ServiceGraph) {
			n, found := s.Node("b-1.0.0")
			_, stale := s.Node("a-1.0.0")
			ok = found && !stale && n.Title == "Bee" && len(s.Editor().Nodes()) == 2
		})
		return ok
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Positive(t, updates)
	mu.Unlock()
}

func TestControllerCloseStopsPolling(t *testing.T) {
	src := &fakeSource{graphs: map[string]graph.DependencyGraph{
		"a-1.0.0": {Services: []graph.Service{svc("a", "1.0.0")}},
	}}
	c := NewController(newServiceView(t, graph.Service{}), src, ControllerOptions{PollInterval: time.Millisecond, Debounce: time.Millisecond})
	c.Subscribe(context.Background(), svc("a", "1.0.0"))
	c.Close()

	src.mu.Lock()
	polls := src.polls
	src.mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, polls, src.polls)
}
