package editor

import (
	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/template"
)

// SetNodes replaces all nodes. It does not draw.
func (g *GraphEditor) SetNodes(nodes []*graph.Node) {
	g.nodes = nodes
	g.cache.UpdateNodes(nodes)
}

// SetEdges replaces all edges. It does not draw.
func (g *GraphEditor) SetEdges(edges []*graph.Edge) {
	g.edges = edges
	g.cache.UpdateEdges(edges)
}

// SetNodeTemplates replaces the node templates. Existing node elements are
// rebuilt on the next render.
func (g *GraphEditor) SetNodeTemplates(ts []template.Template) {
	g.cache.UpdateNodeTemplates(ts)
	g.templatesDirty = true
}

// SetMarkerTemplates replaces the marker templates.
func (g *GraphEditor) SetMarkerTemplates(ts []template.Template) {
	g.cache.UpdateMarkerTemplates(ts)
	g.templatesDirty = true
}

// AddNode appends n after a cancelable nodeadd event. It reports whether the
// node was added.
func (g *GraphEditor) AddNode(n *graph.Node, redraw bool) bool {
	if !g.dispatch(&Event{Type: EventNodeAdd, Node: n, cancelable: true}) {
		return false
	}
	g.nodes = append(g.nodes, n)
	g.cache.UpdateNodes(g.nodes)
	g.redraw(redraw)
	return true
}

// RemoveNode removes the node with the given id and all incident edges. Each
// incident edge gets its own edgeremove event; canceling it keeps the edge.
func (g *GraphEditor) RemoveNode(id string, redraw bool) bool {
	idx := -1
	for i, n := range g.nodes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	if !g.dispatch(&Event{Type: EventNodeRemove, Node: g.nodes[idx], cancelable: true}) {
		return false
	}
	g.nodes = append(g.nodes[:idx:idx], g.nodes[idx+1:]...)
	delete(g.hovered, id)
	delete(g.selected, id)
	if g.linkSource == id {
		g.linkSource, g.linkTarget = "", ""
	}

	kept := g.edges[:0:0]
	for _, e := range g.edges {
		if (e.Source == id || e.Target == id) &&
			g.dispatch(&Event{Type: EventEdgeRemove, Edge: e, cancelable: true}) {
			continue
		}
		kept = append(kept, e)
	}
	g.edges = kept
	g.cache.UpdateNodes(g.nodes)
	g.cache.UpdateEdges(g.edges)
	g.redraw(redraw)
	return true
}

// AddEdge appends e after a cancelable edgeadd event.
func (g *GraphEditor) AddEdge(e *graph.Edge, redraw bool) bool {
	if !g.dispatch(&Event{Type: EventEdgeAdd, Edge: e, cancelable: true}) {
		return false
	}
	g.edges = append(g.edges, e)
	g.cache.UpdateEdges(g.edges)
	g.redraw(redraw)
	return true
}

// RemoveEdge removes the first edge with the same source and target as e.
func (g *GraphEditor) RemoveEdge(e *graph.Edge, redraw bool) bool {
	idx := g.indexOfEdge(e.Source, e.Target)
	if idx < 0 {
		return false
	}
	if !g.dispatch(&Event{Type: EventEdgeRemove, Edge: g.edges[idx], cancelable: true}) {
		return false
	}
	g.edges = append(g.edges[:idx:idx], g.edges[idx+1:]...)
	g.cache.UpdateEdges(g.edges)
	g.redraw(redraw)
	return true
}

func (g *GraphEditor) indexOfEdge(source, target string) int {
	for i, e := range g.edges {
		if e.Source == source && e.Target == target {
			return i
		}
	}
	return -1
}

func (g *GraphEditor) redraw(redraw bool) {
	if redraw {
		g.Render()
		g.ZoomToBoundingBox(false)
	}
}
