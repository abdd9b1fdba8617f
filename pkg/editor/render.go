package editor

import (
	"bytes"
	"io"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/matzehuels/micograph/pkg/geometry"
	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/objectcache"
	"github.com/matzehuels/micograph/pkg/observability"
	"github.com/matzehuels/micograph/pkg/scene"
	"github.com/matzehuels/micograph/pkg/textwrap"
)

const (
	// normalOffset is the distance the path keeps along a handle normal
	// before it bends toward the other end.
	normalOffset = 10
	// edgeHandleInset places the edge link-handle before the path end.
	edgeHandleInset = 10
	handleRadius    = 3
	lineHeight      = 1.2
)

// RenderStats counts what a render changed in the scene.
type RenderStats struct {
	NodesCreated, NodesUpdated, NodesRemoved int
	EdgesCreated, EdgesUpdated, EdgesRemoved int
	// EdgesSkipped counts edges with a missing endpoint.
	EdgesSkipped int
}

// Render reconciles the scene with the current nodes, edges and dragged
// edges. It is a no-op before Init.
func (g *GraphEditor) Render() RenderStats {
	if !g.initialized {
		return RenderStats{}
	}
	start := time.Now()
	var st RenderStats

	if g.templatesDirty {
		g.nodesGroup.Children = nil
		g.edgesGroup.Children = nil
		g.templatesDirty = false
	}
	g.root.SetClass("editable", g.IsInteractive())

	g.renderNodes(&st)
	g.renderEdges(&st)

	observability.Graph().OnRender(len(g.nodesGroup.Children), len(g.edgesGroup.Children), time.Since(start))
	return st
}

// =============================================================================
// Nodes
// =============================================================================

func (g *GraphEditor) renderNodes(st *RenderStats) {
	existing := g.nodesGroup.ChildrenByID()
	seen := make(map[string]bool, len(g.nodes))
	children := make([]*scene.Element, 0, len(g.nodes))
	for _, n := range g.nodes {
		if seen[n.ID] {
			g.logger.Warn("duplicate node id", "id", n.ID)
			continue
		}
		seen[n.ID] = true
		tmplID := g.cache.NodeTemplateID(n.Type)
		el := existing[n.ID]
		if el == nil || el.Attr("data-template") != tmplID {
			el = g.createNode(n, tmplID)
			st.NodesCreated++
		} else {
			st.NodesUpdated++
		}
		g.updateNode(el, n)
		children = append(children, el)
	}
	for id := range existing {
		if !seen[id] {
			st.NodesRemoved++
		}
	}
	g.nodesGroup.Children = children
}

func (g *GraphEditor) createNode(n *graph.Node, tmplID string) *scene.Element {
	el := scene.New("g", "node")
	el.SetAttr("id", n.ID).SetAttr("data-template", tmplID)
	el.Append(g.cache.NodeTemplate(n.Type).Instantiate()...)
	return el
}

func (g *GraphEditor) updateNode(el *scene.Element, n *graph.Node) {
	_, hovered := g.hovered[n.ID]
	_, selected := g.selected[n.ID]
	el.SetClass("hovered", hovered)
	el.SetClass("selected", (g.mode == ModeSelect && selected) || (g.mode == ModeLink && g.linkSource == n.ID))
	el.SetClass("link-source", g.mode == ModeLink && g.linkSource == n.ID)
	for _, c := range g.classes {
		el.SetClass(c, g.SetNodeClass != nil && g.SetNodeClass(c, n))
	}
	el.SetAttr("transform", "translate("+fmtNum(n.X)+","+fmtNum(n.Y)+")")

	for _, h := range el.FindByClass("link-handle") {
		el.Remove(h)
	}
	for _, h := range g.cache.NodeTemplateLinkHandles(n.Type) {
		c := scene.New("circle", "link-handle")
		c.SetAttr("id", strconv.Itoa(h.ID)).
			SetAttr("r", strconv.Itoa(handleRadius)).
			SetAttr("cx", fmtNum(h.X)).
			SetAttr("cy", fmtNum(h.Y))
		el.Append(c)
	}

	for _, t := range el.Find(func(e *scene.Element) bool { return e.HasClass("text") && e.HasAttr("data-content") }) {
		g.fillText(t, n.Attr(t.Attr("data-content")))
	}
}

// fillText writes content into a text element. Elements with a width are
// wrapped; a height additionally allows several lines.
func (g *GraphEditor) fillText(t *scene.Element, content string) {
	t.Children = nil
	t.RemoveAttr("data-wrapped")
	width, hasWidth := attrNum(t, "width")
	if !hasWidth || content == "" {
		t.Text = content
		return
	}
	size, ok := attrNum(t, "font-size")
	if !ok || size <= 0 {
		size = DefaultFontSize
	}
	opts := textwrap.Options{
		Width:     width,
		Size:      size,
		Overflow:  textwrap.ParseOverflow(t.Attr("text-overflow")),
		WordBreak: textwrap.ParseWordBreak(t.Attr("word-break")),
	}
	height, hasHeight := attrNum(t, "height")
	if !hasHeight {
		line, overflow := textwrap.WrapSingleLine(g.measurer, content, opts)
		t.Text = line
		if overflow != "" {
			t.SetAttr("data-wrapped", "true")
		}
		return
	}
	lines, truncated := textwrap.Wrap(g.measurer, content, opts, textwrap.MaxLines(height, size))
	t.Text = ""
	for i, line := range lines {
		span := scene.New("tspan")
		span.SetAttr("x", t.Attr("x"))
		if i > 0 {
			span.SetAttr("dy", fmtNum(size*lineHeight))
		}
		span.Text = line
		t.Append(span)
	}
	if truncated {
		t.SetAttr("data-wrapped", "true")
	}
}

// =============================================================================
// Edges
// =============================================================================

func (g *GraphEditor) renderEdges(st *RenderStats) {
	existing := g.edgesGroup.ChildrenByID()
	seen := make(map[string]bool, len(g.edges))
	children := make([]*scene.Element, 0, len(g.edges)+len(g.dragged))

	ghosts := make(map[string]bool)
	for _, d := range g.dragged {
		if d.CreatedFrom != "" {
			ghosts[d.CreatedFrom] = true
		}
	}
	highlight := g.highlighted()
	types := make(map[string]string, len(g.edges))

	for _, e := range g.edges {
		id := graph.EdgeID(e)
		if seen[id] {
			continue
		}
		handles, ok := g.cache.EdgeLinkHandles(e)
		if !ok {
			st.EdgesSkipped++
			continue
		}
		seen[id] = true
		el := existing[id]
		if el == nil || el.HasClass("dragged") {
			el = g.createEdge(id)
			st.EdgesCreated++
		} else {
			st.EdgesUpdated++
		}
		_, out := highlight[e.Source]
		_, in := highlight[e.Target]
		el.SetClass("highlight-outgoing", out)
		el.SetClass("highlight-incoming", in)
		el.SetClass("ghost", ghosts[id])
		for _, c := range g.classes {
			el.SetClass(c, g.SetEdgeClass != nil && g.SetEdgeClass(c, e))
		}
		g.setEdgeType(el, e.Type, types)
		g.updateEdge(el, e, handles)
		children = append(children, el)
	}
	for id, el := range existing {
		if !seen[id] && !el.HasClass("dragged") {
			st.EdgesRemoved++
		}
	}

	for _, d := range g.dragged {
		handles, ok := g.cache.DraggedEdgeLinkHandles(d)
		if !ok {
			continue
		}
		el := existing[d.ID]
		if el == nil || !el.HasClass("dragged") {
			el = g.createEdge(d.ID)
			el.AddClass("dragged")
		}
		g.setEdgeType(el, d.Type, types)
		g.updateEdge(el, &d.Edge, handles)
		children = append(children, el)
	}
	g.edgesGroup.Children = children
	g.edgeTypes = types
}

// highlighted returns the nodes whose incident edges are highlighted: the
// link source in link mode, the hovered nodes otherwise.
func (g *GraphEditor) highlighted() map[string]struct{} {
	if g.mode == ModeLink {
		if g.linkSource == "" {
			return nil
		}
		return map[string]struct{}{g.linkSource: {}}
	}
	return g.hovered
}

func (g *GraphEditor) createEdge(id string) *scene.Element {
	el := scene.New("g", "edge-group")
	el.SetAttr("id", id)
	return el
}

// setEdgeType replaces the type class of a retained edge element and
// records typ in types.
func (g *GraphEditor) setEdgeType(el *scene.Element, typ string, types map[string]string) {
	id := el.ID()
	if prev := g.edgeTypes[id]; prev != "" && prev != typ && !g.fixedEdgeClass(prev) {
		el.RemoveClass(prev)
	}
	if typ != "" {
		el.AddClass(typ)
		types[id] = typ
	}
}

// fixedEdgeClass reports whether c is managed by the editor or the view
// rather than by an edge type.
func (g *GraphEditor) fixedEdgeClass(c string) bool {
	switch c {
	case "edge-group", "dragged", "ghost", "highlight-outgoing", "highlight-incoming":
		return true
	}
	return slices.Contains(g.classes, c)
}

func (g *GraphEditor) updateEdge(el *scene.Element, e *graph.Edge, h objectcache.EdgeHandles) {
	el.SetAttr("data-source", e.Source).SetAttr("data-target", e.Target)
	el.Children = nil

	path := geometry.BasisPath(edgePoints(e, h))
	el.Append(scene.New("path", "edge").SetAttr("d", path.D()).SetAttr("fill", "none"))

	if el.HasClass("dragged") {
		for _, m := range e.Markers {
			el.Append(g.marker(m, path))
		}
		if e.MarkerEnd != nil {
			el.Append(g.marker(*e.MarkerEnd, path))
		}
		return
	}

	at := path.PointAtLength(path.Length() - edgeHandleInset)
	el.Append(scene.New("circle", "link-handle").
		SetAttr("r", strconv.Itoa(handleRadius)).
		SetAttr("cx", fmtNum(at.X)).
		SetAttr("cy", fmtNum(at.Y)))
	for _, m := range e.Markers {
		el.Append(g.marker(m, path))
	}
	if e.MarkerEnd != nil {
		el.Append(g.marker(*e.MarkerEnd, path))
	}
}

// edgePoints returns the control points of an edge path. A MarkerEnd with a
// line offset pulls the end back along the target normal to make room for
// the marker.
func edgePoints(e *graph.Edge, h objectcache.EdgeHandles) []geometry.Point {
	src, tgt := h.SourceCoords, h.TargetCoords
	if e.MarkerEnd != nil && e.MarkerEnd.LineOffset != 0 {
		tgt = tgt.Add(h.TargetHandle.NormalOrZero().Scale(e.MarkerEnd.LineOffset * e.MarkerEnd.EffectiveScale()))
	}
	points := []geometry.Point{src}
	if h.SourceHandle.Normal != nil {
		points = append(points, src.Add(h.SourceHandle.Normal.Scale(normalOffset)))
	}
	if h.TargetHandle.Normal != nil {
		points = append(points, tgt.Add(h.TargetHandle.Normal.Scale(normalOffset)))
	}
	return append(points, tgt)
}

// marker instantiates a marker template at its position on path.
func (g *GraphEditor) marker(m graph.Marker, path *geometry.Path) *scene.Element {
	el := scene.New("g", "marker")
	el.SetAttr("data-template", m.Template)
	if tmpl, ok := g.cache.MarkerTemplate(m.Template); ok {
		el.Append(tmpl.Instantiate()...)
	} else {
		g.logger.Warn("unknown marker template", "template", m.Template)
	}

	pos := m.PositionOnLine
	if math.IsNaN(pos) {
		pos = 0
	}
	pt := path.PointAt(pos)
	transform := "translate(" + fmtNum(pt.X) + "," + fmtNum(pt.Y) + ")"
	if m.Scale != 0 {
		transform += " scale(" + fmtNum(m.Scale) + ")"
	}
	if m.Rotate != nil {
		var angle float64
		if m.Rotate.Normal != nil {
			angle = geometry.CalculateAngle(*m.Rotate.Normal)
		} else {
			angle = geometry.CalculateAngle(path.DirectionAt(pos))
		}
		transform += " rotate(" + fmtNum(angle+m.Rotate.RelativeAngle) + ")"
	}
	el.SetAttr("transform", transform)
	return el
}

// =============================================================================
// Output
// =============================================================================

// WriteSVG writes the scene as an SVG document.
func (g *GraphEditor) WriteSVG(w io.Writer) error {
	if !g.initialized {
		return errNotInitialized
	}
	g.zoomGroup.SetAttr("transform", g.transform.String())
	_, err := g.root.WriteTo(w)
	return err
}

// SVG returns the scene as an SVG document, or nil before Init.
func (g *GraphEditor) SVG() []byte {
	var buf bytes.Buffer
	if err := g.WriteSVG(&buf); err != nil {
		return nil
	}
	return buf.Bytes()
}

// Scene returns the root element of the scene, or nil before Init.
func (g *GraphEditor) Scene() *scene.Element {
	if g.initialized {
		g.zoomGroup.SetAttr("transform", g.transform.String())
	}
	return g.root
}

func attrNum(e *scene.Element, name string) (float64, bool) {
	if !e.HasAttr(name) {
		return 0, false
	}
	v, err := strconv.ParseFloat(e.Attr(name), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func fmtNum(v float64) string { return geometry.FormatNumber(v) }
