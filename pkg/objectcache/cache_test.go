package objectcache

import (
	"testing"

	"github.com/matzehuels/micograph/pkg/geometry"
	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/template"
)

var pairTemplate = template.Template{
	ID:     "pair",
	Markup: `<rect class="outline" width="20" height="2" x="-10" y="-1" data-link-handles='[{"id":0,"x":-10,"y":0},{"id":1,"x":10,"y":0}]'></rect>`,
}

func newCache(nodes []*graph.Node, edges []*graph.Edge) *GraphObjectCache {
	c := New(nil)
	c.UpdateNodeTemplates([]template.Template{template.ServiceNode, template.ApplicationNode, pairTemplate})
	c.UpdateMarkerTemplates(template.Markers())
	c.UpdateNodes(nodes)
	c.UpdateEdges(edges)
	return c
}

func TestNodeTemplateFallback(t *testing.T) {
	c := newCache(nil, nil)
	tests := []struct {
		nodeType string
		want     string
	}{
		{"application", "application"},
		{"service", template.DefaultID},
		{"", template.DefaultID},
	}
	for _, tt := range tests {
		if got := c.NodeTemplateID(tt.nodeType); got != tt.want {
			t.Errorf("NodeTemplateID(%q) = %q, want %q", tt.nodeType, got, tt.want)
		}
	}

	bare := New(nil)
	if got := bare.NodeTemplateID("service"); got != template.Builtin.ID {
		t.Errorf("NodeTemplateID without templates = %q, want %q", got, template.Builtin.ID)
	}
	if bare.NodeTemplate("service") == nil {
		t.Error("NodeTemplate without templates returned nil")
	}
}

func TestUpdateNodeTemplatesSkipsInvalidMarkup(t *testing.T) {
	c := New(nil)
	c.UpdateNodeTemplates([]template.Template{{ID: "broken", Markup: `<rect x="1></rect>`}, template.ServiceNode})
	if got := c.NodeTemplateID("broken"); got != template.DefaultID {
		t.Errorf("NodeTemplateID(broken) = %q, want default", got)
	}
}

func TestMarkerTemplate(t *testing.T) {
	c := newCache(nil, nil)
	if _, ok := c.MarkerTemplate("arrow"); !ok {
		t.Error("MarkerTemplate(arrow) missing")
	}
	if _, ok := c.MarkerTemplate("nope"); ok {
		t.Error("MarkerTemplate(nope) found")
	}
}

func TestNodeTemplateLinkHandlesCache(t *testing.T) {
	c := newCache(nil, nil)
	if got := len(c.NodeTemplateLinkHandles("service")); got != 4 {
		t.Fatalf("handles(service) = %d, want 4", got)
	}
	c.SetNodeTemplateLinkHandles("unknown-type", []geometry.LinkHandle{{ID: 9}})
	if got := c.NodeTemplateLinkHandles("service"); len(got) != 1 || got[0].ID != 9 {
		t.Errorf("override through fallback not visible: %+v", got)
	}
	c.UpdateNodeTemplates([]template.Template{template.ServiceNode})
	if got := len(c.NodeTemplateLinkHandles("service")); got != 4 {
		t.Errorf("handles after template update = %d, want 4", got)
	}
}

func TestIncidenceIndices(t *testing.T) {
	a, b, d := &graph.Node{ID: "a"}, &graph.Node{ID: "b"}, &graph.Node{ID: "d"}
	ab := &graph.Edge{Source: "a", Target: "b"}
	ad := &graph.Edge{Source: "a", Target: "d"}
	bd := &graph.Edge{ID: "custom", Source: "b", Target: "d"}
	c := newCache([]*graph.Node{a, b, d}, []*graph.Edge{ab, ad, bd})

	if got := len(c.EdgesBySource("a")); got != 2 {
		t.Errorf("EdgesBySource(a) = %d, want 2", got)
	}
	if got := len(c.EdgesByTarget("d")); got != 2 {
		t.Errorf("EdgesByTarget(d) = %d, want 2", got)
	}
	if got := len(c.EdgesByTarget("a")); got != 0 {
		t.Errorf("EdgesByTarget(a) = %d, want 0", got)
	}
	if got := c.EdgesBySource("missing"); got == nil || len(got) != 0 {
		t.Errorf("EdgesBySource(missing) = %#v, want empty non-nil", got)
	}
	if _, ok := c.Edge("sa,tb"); !ok {
		t.Error("Edge(sa,tb) not found")
	}
	if _, ok := c.Edge("custom"); !ok {
		t.Error("Edge(custom) not found")
	}
	if n, ok := c.Node("b"); !ok || n != b {
		t.Error("Node(b) not found")
	}
}

func TestRebuildIdempotent(t *testing.T) {
	nodes := []*graph.Node{{ID: "a"}, {ID: "b", Y: 200}}
	edges := []*graph.Edge{{Source: "a", Target: "b"}}
	c := newCache(nodes, edges)
	first, _ := c.EdgeLinkHandles(edges[0])
	c.UpdateNodes(nodes)
	c.UpdateEdges(edges)
	second, _ := c.EdgeLinkHandles(edges[0])
	if first != second {
		t.Errorf("results differ after rebuild: %+v vs %+v", first, second)
	}
	if len(c.EdgesBySource("a")) != 1 || len(c.EdgesByTarget("b")) != 1 {
		t.Error("incidence indices changed after rebuild")
	}
}

func TestEdgeLinkHandlesNearest(t *testing.T) {
	a := &graph.Node{ID: "a", Type: "service"}
	b := &graph.Node{ID: "b", Type: "service", Y: 200}
	e := &graph.Edge{Source: "a", Target: "b"}
	c := newCache([]*graph.Node{a, b}, []*graph.Edge{e})

	got, ok := c.EdgeLinkHandles(e)
	if !ok {
		t.Fatal("EdgeLinkHandles reported missing nodes")
	}
	if want := (geometry.Point{X: 0, Y: 30}); got.SourceCoords != want {
		t.Errorf("SourceCoords = %v, want %v", got.SourceCoords, want)
	}
	if want := (geometry.Point{X: 0, Y: 170}); got.TargetCoords != want {
		t.Errorf("TargetCoords = %v, want %v", got.TargetCoords, want)
	}
	if got.SourceHandle.Normal == nil || got.SourceHandle.Normal.DY != 1 {
		t.Errorf("source normal = %v, want (0,1)", got.SourceHandle.Normal)
	}

	again, _ := c.EdgeLinkHandles(e)
	if again != got {
		t.Error("EdgeLinkHandles is not deterministic")
	}
}

func TestEdgeLinkHandlesTranslation(t *testing.T) {
	a := &graph.Node{ID: "a", X: 10, Y: 20}
	b := &graph.Node{ID: "b", X: 250, Y: 140}
	e := &graph.Edge{Source: "a", Target: "b"}
	c := newCache([]*graph.Node{a, b}, []*graph.Edge{e})
	before, _ := c.EdgeLinkHandles(e)

	a.X, a.Y = a.X+64, a.Y-32
	b.X, b.Y = b.X+64, b.Y-32
	after, _ := c.EdgeLinkHandles(e)

	if before.SourceHandle.ID != after.SourceHandle.ID || before.TargetHandle.ID != after.TargetHandle.ID {
		t.Errorf("handle pair changed: %d/%d -> %d/%d",
			before.SourceHandle.ID, before.TargetHandle.ID, after.SourceHandle.ID, after.TargetHandle.ID)
	}
	want := geometry.Point{X: before.SourceCoords.X + 64, Y: before.SourceCoords.Y - 32}
	if after.SourceCoords != want {
		t.Errorf("SourceCoords = %v, want %v", after.SourceCoords, want)
	}
}

func TestEdgeLinkHandlesTieKeepsFirst(t *testing.T) {
	a := &graph.Node{ID: "a", Type: "pair"}
	b := &graph.Node{ID: "b", Type: "pair", Y: 100}
	e := &graph.Edge{Source: "a", Target: "b"}
	c := newCache([]*graph.Node{a, b}, []*graph.Edge{e})
	got, _ := c.EdgeLinkHandles(e)
	if got.SourceHandle.ID != 0 || got.TargetHandle.ID != 0 {
		t.Errorf("tie resolved to %d/%d, want 0/0", got.SourceHandle.ID, got.TargetHandle.ID)
	}
}

func TestEdgeLinkHandlesPinned(t *testing.T) {
	a := &graph.Node{ID: "a"}
	b := &graph.Node{ID: "b", Y: 200}
	pin := geometry.LinkHandle{ID: 42, X: -50, Y: 0}
	e := &graph.Edge{Source: "a", Target: "b", SourceHandle: &pin}
	c := newCache([]*graph.Node{a, b}, []*graph.Edge{e})
	got, _ := c.EdgeLinkHandles(e)
	if got.SourceHandle.ID != 42 || got.SourceCoords != (geometry.Point{X: -50, Y: 0}) {
		t.Errorf("pinned handle ignored: %+v", got)
	}
}

func TestEdgeLinkHandlesMissingNodes(t *testing.T) {
	c := newCache([]*graph.Node{{ID: "a"}}, nil)
	if _, ok := c.EdgeLinkHandles(&graph.Edge{Source: "a", Target: "ghost"}); ok {
		t.Error("expected missing target to report false")
	}
	if _, ok := c.EdgeLinkHandles(&graph.Edge{Source: "ghost", Target: "a"}); ok {
		t.Error("expected missing source to report false")
	}
}

func TestEdgeLinkHandlesNoHandles(t *testing.T) {
	c := New(nil)
	c.UpdateNodeTemplates([]template.Template{{ID: template.DefaultID, Markup: `<path d="M0 0"></path>`}})
	c.UpdateNodes([]*graph.Node{{ID: "a"}, {ID: "b", X: 100}})
	got, ok := c.EdgeLinkHandles(&graph.Edge{Source: "a", Target: "b"})
	if !ok {
		t.Fatal("EdgeLinkHandles reported false")
	}
	if got.SourceCoords != (geometry.Point{}) || got.TargetCoords != (geometry.Point{X: 100}) {
		t.Errorf("implicit handles not at node centers: %+v", got)
	}
	if got.SourceHandle.Normal == nil || !got.SourceHandle.Normal.IsZero() {
		t.Errorf("implicit handle normal = %v, want zero", got.SourceHandle.Normal)
	}
}

func TestDraggedEdgeLinkHandles(t *testing.T) {
	a := &graph.Node{ID: "a", Type: "service"}
	c := newCache([]*graph.Node{a}, nil)
	d := &graph.DraggedEdge{Edge: graph.Edge{Source: "a"}, CurrentTarget: geometry.Point{X: 200, Y: 0}}
	got, ok := c.DraggedEdgeLinkHandles(d)
	if !ok {
		t.Fatal("DraggedEdgeLinkHandles reported false")
	}
	if got.SourceCoords != (geometry.Point{X: 50, Y: 0}) {
		t.Errorf("SourceCoords = %v, want right edge midpoint", got.SourceCoords)
	}
	if got.TargetCoords != d.CurrentTarget {
		t.Errorf("TargetCoords = %v, want cursor %v", got.TargetCoords, d.CurrentTarget)
	}
}
