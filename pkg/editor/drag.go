package editor

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/micograph/pkg/geometry"
	"github.com/matzehuels/micograph/pkg/graph"
)

func newEdge(source, target string) *graph.Edge {
	return &graph.Edge{Source: source, Target: target}
}

// StartEdgeDrag begins drawing a new edge from node sourceID with its loose
// end at the graph point at. Valid targets are all nodes except the source
// and the nodes it already links to. It returns nil in non-interactive modes,
// for unknown sources or when OnCreateDraggedEdge cancels.
func (g *GraphEditor) StartEdgeDrag(sourceID string, at geometry.Point) *graph.DraggedEdge {
	if !g.IsInteractive() {
		return nil
	}
	if _, ok := g.cache.Node(sourceID); !ok {
		return nil
	}
	valid := g.targetsFrom(sourceID, "")
	d := &graph.DraggedEdge{
		Edge:          graph.Edge{ID: uuid.NewString(), Source: sourceID},
		ValidTargets:  valid,
		CurrentTarget: at,
	}
	return g.beginDrag(d)
}

// StartEdgeDragFrom begins moving the target end of edge edgeID. The
// original edge is drawn as a ghost until the drop. Its current target stays
// a valid target.
func (g *GraphEditor) StartEdgeDragFrom(edgeID string, at geometry.Point) *graph.DraggedEdge {
	if !g.IsInteractive() {
		return nil
	}
	e, ok := g.cache.Edge(edgeID)
	if !ok {
		return nil
	}
	d := &graph.DraggedEdge{
		Edge: graph.Edge{
			ID:           uuid.NewString(),
			Source:       e.Source,
			SourceHandle: e.SourceHandle,
			Type:         e.Type,
			Markers:      slices.Clone(e.Markers),
		},
		CreatedFrom:   edgeID,
		ValidTargets:  g.targetsFrom(e.Source, e.Target),
		CurrentTarget: at,
	}
	if e.MarkerEnd != nil {
		m := *e.MarkerEnd
		d.MarkerEnd = &m
	}
	return g.beginDrag(d)
}

func (g *GraphEditor) beginDrag(d *graph.DraggedEdge) *graph.DraggedEdge {
	if g.OnCreateDraggedEdge != nil {
		if d = g.OnCreateDraggedEdge(d); d == nil {
			return nil
		}
	}
	g.dragged = append(g.dragged, d)
	g.Render()
	return d
}

// targetsFrom lists the nodes a new edge from source may point to. keep is
// allowed even if source already links to it.
func (g *GraphEditor) targetsFrom(source, keep string) map[string]struct{} {
	valid := make(map[string]struct{}, len(g.nodes))
	for _, n := range g.nodes {
		valid[n.ID] = struct{}{}
	}
	for _, e := range g.cache.EdgesBySource(source) {
		if e.Target != keep {
			delete(valid, e.Target)
		}
	}
	delete(valid, source)
	return valid
}

// DragEdgeTo moves the loose end of d to at. hoverID is the node under the
// cursor, if any; it becomes the target when valid.
func (g *GraphEditor) DragEdgeTo(d *graph.DraggedEdge, at geometry.Point, hoverID string) {
	d.CurrentTarget = at
	old := d.Target
	d.Target = ""
	if hoverID != "" && d.IsValidTarget(hoverID) {
		d.Target = hoverID
	}
	if d.Target != old && g.OnDraggedEdgeTargetChange != nil {
		g.OnDraggedEdgeTargetChange(d, d.Source, d.Target)
	}
	g.Render()
}

// DropEdge ends the drag of d. With a target the edge is committed through
// OnDropDraggedEdge and a cancelable edgeadd event. A drag started from an
// existing edge replaces that edge when the target changed. The committed
// edge, if any, is returned.
func (g *GraphEditor) DropEdge(d *graph.DraggedEdge) *graph.Edge {
	idx := slices.Index(g.dragged, d)
	if idx < 0 {
		return nil
	}
	g.dragged = append(g.dragged[:idx:idx], g.dragged[idx+1:]...)

	var origin *graph.Edge
	if d.CreatedFrom != "" {
		origin, _ = g.cache.Edge(d.CreatedFrom)
	}
	if origin != nil && origin.Target != d.Target {
		i := slices.Index(g.edges, origin)
		if i >= 0 {
			if !g.dispatch(&Event{Type: EventEdgeRemove, Edge: origin, cancelable: true}) {
				g.Render()
				return nil
			}
			g.edges = append(g.edges[:i:i], g.edges[i+1:]...)
		}
	}

	var committed *graph.Edge
	if d.Target != "" {
		e := d.Edge
		e.ID = ""
		edge := &e
		if g.OnDropDraggedEdge != nil {
			edge = g.OnDropDraggedEdge(edge, d.Source, d.Target)
		}
		switch {
		case edge == nil:
		case origin != nil && origin.Target == d.Target:
			committed = origin
		case g.dispatch(&Event{Type: EventEdgeAdd, Edge: edge, cancelable: true}):
			g.edges = append(g.edges, edge)
			committed = edge
		}
	}
	g.dispatch(&Event{Type: EventEdgeDrop, Dragged: d, Edge: committed})
	g.cache.UpdateEdges(g.edges)
	g.Render()
	return committed
}
