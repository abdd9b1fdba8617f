package objectcache

import (
	"github.com/matzehuels/micograph/pkg/geometry"
	"github.com/matzehuels/micograph/pkg/graph"
)

// EdgeHandles is the attachment chosen for an edge: one handle per end and
// their absolute positions.
type EdgeHandles struct {
	SourceHandle geometry.LinkHandle
	TargetHandle geometry.LinkHandle
	SourceCoords geometry.Point
	TargetCoords geometry.Point
}

// implicitHandle stands in for nodes whose template has no handles.
func implicitHandle() geometry.LinkHandle {
	h := geometry.LinkHandle{}
	geometry.CalculateNormal(&h)
	return h
}

// EdgeLinkHandles selects the closest pair of source and target handles for e.
// It reports false if either endpoint is not cached.
func (c *GraphObjectCache) EdgeLinkHandles(e *graph.Edge) (EdgeHandles, bool) {
	source, ok := c.nodes[e.Source]
	if !ok {
		return EdgeHandles{}, false
	}
	target, ok := c.nodes[e.Target]
	if !ok {
		return EdgeHandles{}, false
	}
	return nearestPair(
		source.Position(), c.handlesFor(source, e.SourceHandle),
		target.Position(), c.handlesFor(target, e.TargetHandle),
	), true
}

// DraggedEdgeLinkHandles is like EdgeLinkHandles for an edge being drawn. An
// uncommitted or unknown target is replaced by a point at the cursor.
func (c *GraphObjectCache) DraggedEdgeLinkHandles(d *graph.DraggedEdge) (EdgeHandles, bool) {
	source, ok := c.nodes[d.Source]
	if !ok {
		return EdgeHandles{}, false
	}
	if target, ok := c.nodes[d.Target]; ok && d.Target != "" {
		return nearestPair(
			source.Position(), c.handlesFor(source, d.SourceHandle),
			target.Position(), c.handlesFor(target, d.TargetHandle),
		), true
	}
	return nearestPair(
		source.Position(), c.handlesFor(source, d.SourceHandle),
		d.CurrentTarget, []geometry.LinkHandle{implicitHandle()},
	), true
}

func (c *GraphObjectCache) handlesFor(n *graph.Node, pinned *geometry.LinkHandle) []geometry.LinkHandle {
	if pinned != nil {
		return []geometry.LinkHandle{*pinned}
	}
	hs := c.NodeTemplateLinkHandles(n.Type)
	if len(hs) == 0 {
		return []geometry.LinkHandle{implicitHandle()}
	}
	return hs
}

// nearestPair searches all handle pairs. On equal distance the pair found
// first wins.
func nearestPair(sp geometry.Point, sh []geometry.LinkHandle, tp geometry.Point, th []geometry.LinkHandle) EdgeHandles {
	var best EdgeHandles
	bestDist := -1.0
	for _, s := range sh {
		sc := sp.Add(s.Offset())
		for _, t := range th {
			tc := tp.Add(t.Offset())
			dx, dy := sc.X-tc.X, sc.Y-tc.Y
			d := dx*dx + dy*dy
			if bestDist < 0 || d < bestDist {
				bestDist = d
				best = EdgeHandles{SourceHandle: s, TargetHandle: t, SourceCoords: sc, TargetCoords: tc}
			}
		}
	}
	return best
}
