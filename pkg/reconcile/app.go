package reconcile

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/micograph/pkg/editor"
	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/levels"
	"github.com/matzehuels/micograph/pkg/observability"
	"github.com/matzehuels/micograph/pkg/template"
)

// AppRootID is the node id of the application in the application view.
const AppRootID = "APPLICATION"

// AppGraph renders an application and the services it includes.
type AppGraph struct {
	ed     *editor.GraphEditor
	logger *log.Logger

	lastX     float64
	nodes     map[string]*graph.Node
	edges     map[string]*graph.Edge
	removeFns []func()
}

// NewAppGraph configures ed for the application view.
func NewAppGraph(ed *editor.GraphEditor, logger *log.Logger) *AppGraph {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	a := &AppGraph{ed: ed, logger: logger}
	ed.SetNodeTemplates(template.ApplicationViewNodes())
	ed.SetMarkerTemplates(template.Markers())
	ed.SetClasses(ViewClasses)
	ed.SetNodeClass = func(class string, n *graph.Node) bool { return class == n.Type }
	ed.SetEdgeClass = edgeClass
	ed.OnCreateDraggedEdge = func(d *graph.DraggedEdge) *graph.DraggedEdge {
		d.Markers = []graph.Marker{includesArrow()}
		return d
	}
	a.removeFns = append(a.removeFns, ed.AddEventListener(editor.EventNodeClick, func(ev *editor.Event) {
		if ev.Node.ID == AppRootID {
			ev.PreventDefault()
		}
	}))
	a.Reset()
	return a
}

func includesArrow() graph.Marker {
	return graph.Marker{Template: template.ArrowMarker.ID, PositionOnLine: 1, Scale: 1, Rotate: &graph.MarkerRotation{}}
}

// Editor returns the underlying editor.
func (a *AppGraph) Editor() *editor.GraphEditor { return a.ed }

// Close detaches the view from the editor.
func (a *AppGraph) Close() {
	for _, fn := range a.removeFns {
		fn()
	}
	a.removeFns = nil
}

// Reset clears the view.
func (a *AppGraph) Reset() {
	a.nodes = make(map[string]*graph.Node)
	a.edges = make(map[string]*graph.Edge)
	a.lastX = 0
	a.ed.SetNodes(nil)
	a.ed.SetEdges(nil)
	a.ed.Render()
	a.ed.ZoomToBoundingBox(false)
}

// Apply reconciles the view with an application snapshot. The application
// sits at the origin and its services fill the row below.
func (a *AppGraph) Apply(app graph.Application) Stats {
	start := time.Now()
	var st Stats

	root, ok := a.nodes[AppRootID]
	if !ok {
		root = &graph.Node{ID: AppRootID, Type: graph.TypeApplication}
		if a.ed.AddNode(root, false) {
			a.nodes[AppRootID] = root
			st.Created++
		}
	} else {
		st.Updated++
	}
	updateNode(root, graph.Service{ShortName: app.ShortName, Version: app.Version, Name: app.Name, Description: app.Description})

	stale := make(map[string]struct{}, len(a.nodes))
	for id := range a.nodes {
		if id != AppRootID {
			stale[id] = struct{}{}
		}
	}
	for _, svc := range app.Services {
		id := svc.NodeID()
		delete(stale, id)
		if n, ok := a.nodes[id]; ok {
			updateNode(n, svc)
			st.Updated++
			continue
		}
		n := &graph.Node{ID: id, Type: graph.TypeService, X: a.lastX, Y: RowHeight}
		updateNode(n, svc)
		if !a.ed.AddNode(n, false) {
			continue
		}
		a.lastX += ColumnWidth
		a.nodes[id] = n
		st.Created++

		e := &graph.Edge{Source: AppRootID, Target: id, Type: ClassIncludes, Markers: []graph.Marker{includesArrow()}}
		eid := graph.EdgeID(e)
		if a.ed.AddEdge(e, false) {
			root.AddOutgoing(eid)
			a.edges[eid] = e
			st.EdgesCreated++
		}
	}

	for id := range stale {
		a.ed.RemoveNode(id, false)
		delete(a.nodes, id)
		st.Removed++
		eid := graph.EdgeID(&graph.Edge{Source: AppRootID, Target: id})
		if _, ok := a.edges[eid]; ok {
			root.RemoveOutgoing(eid)
			delete(a.edges, eid)
			st.EdgesRemoved++
		}
	}

	levels.Assign(levels.Maps{NodeMap: a.nodes, EdgeMap: a.edges}, AppRootID, RowHeight)
	a.ed.Render()
	a.ed.ZoomToBoundingBox(false)

	observability.Graph().OnReconcile("application", st.Created, st.Updated, st.Removed, time.Since(start))
	return st
}
