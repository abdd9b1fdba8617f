package editor

// ClickNode replays a click on node id. key is the data-click value of the
// clicked sub-element, if any. It reports false if the node is unknown or a
// listener canceled the nodeclick event.
func (g *GraphEditor) ClickNode(id, key string) bool {
	n, ok := g.cache.Node(id)
	if !ok {
		return false
	}
	if !g.dispatch(&Event{Type: EventNodeClick, Node: n, Key: key, cancelable: true}) {
		return false
	}
	if g.mode == ModeLink {
		g.selectLink(id)
		return true
	}

	if g.mode != ModeSelect {
		g.SetMode(ModeSelect)
		g.selected[id] = struct{}{}
		g.emitSelection()
		g.Render()
		return true
	}
	if _, sel := g.selected[id]; sel {
		delete(g.selected, id)
		g.emitSelection()
		if len(g.selected) == 0 {
			g.SetMode(g.fromMode)
		}
	} else {
		g.selected[id] = struct{}{}
		g.emitSelection()
	}
	g.Render()
	return true
}

func (g *GraphEditor) emitSelection() {
	g.dispatch(&Event{Type: EventSelection, Selection: g.Selection()})
}

// selectLink picks the link source on the first click and toggles an edge
// from the source to id on the second.
func (g *GraphEditor) selectLink(id string) {
	switch g.linkSource {
	case "":
		g.linkSource = id
		g.Render()
		return
	case id:
		g.linkSource, g.linkTarget = "", ""
		g.Render()
		return
	}

	source := g.linkSource
	if idx := g.indexOfEdge(source, id); idx >= 0 {
		e := g.edges[idx]
		if g.dispatch(&Event{Type: EventEdgeRemove, Edge: e, cancelable: true}) {
			g.edges = append(g.edges[:idx:idx], g.edges[idx+1:]...)
		}
	} else {
		e := newEdge(source, id)
		if g.dispatch(&Event{Type: EventEdgeAdd, Edge: e, cancelable: true}) {
			g.edges = append(g.edges, e)
		}
	}
	g.cache.UpdateEdges(g.edges)
	g.linkSource, g.linkTarget = "", ""
	g.Render()
}

// HoverNode marks node id as hovered. In link mode with a source picked it
// also becomes the link target.
func (g *GraphEditor) HoverNode(id string) bool {
	n, ok := g.cache.Node(id)
	if !ok {
		return false
	}
	g.hovered[id] = struct{}{}
	if g.mode == ModeLink && g.linkSource != "" {
		g.linkTarget = id
	}
	g.dispatch(&Event{Type: EventNodeEnter, Node: n})
	g.Render()
	return true
}

// LeaveNode clears the hover state of node id.
func (g *GraphEditor) LeaveNode(id string) bool {
	n, ok := g.cache.Node(id)
	if !ok {
		return false
	}
	delete(g.hovered, id)
	if g.linkTarget == id {
		g.linkTarget = ""
	}
	g.dispatch(&Event{Type: EventNodeLeave, Node: n})
	g.Render()
	return true
}

// MoveNode drags node id to (x, y) and marks it as placed by the user. It
// reports false in non-interactive modes.
func (g *GraphEditor) MoveNode(id string, x, y float64) bool {
	if !g.IsInteractive() {
		return false
	}
	n, ok := g.cache.Node(id)
	if !ok {
		return false
	}
	n.X, n.Y = x, y
	n.WasMovedByUser = true
	g.dispatch(&Event{Type: EventNodeMove, Node: n})
	g.Render()
	return true
}

// ClickEdge replays a click on edge id. It reports false if the edge is
// unknown or the event was canceled.
func (g *GraphEditor) ClickEdge(id string) bool {
	e, ok := g.cache.Edge(id)
	if !ok {
		return false
	}
	return g.dispatch(&Event{Type: EventEdgeClick, Edge: e, cancelable: true})
}
