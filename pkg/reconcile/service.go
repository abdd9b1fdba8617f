package reconcile

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/micograph/pkg/editor"
	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/geometry"
	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/levels"
	"github.com/matzehuels/micograph/pkg/observability"
	"github.com/matzehuels/micograph/pkg/template"
)

// Placement defaults.
const (
	ColumnWidth = 110
	RowHeight   = levels.RowHeight
)

// Host classes understood by the dependency views.
const (
	ClassRoot             = "root"
	ClassDirectDependency = "direct-dependency"
	ClassDependency       = "dependency"
	ClassIncludes         = "includes"
)

// ViewClasses are the host classes offered to the editor by both views.
var ViewClasses = []string{
	graph.TypeService, graph.TypeApplication,
	ClassRoot, ClassDirectDependency, ClassDependency, ClassIncludes,
}

// Stats counts the changes one snapshot caused.
type Stats struct {
	Created      int `json:"created"`
	Updated      int `json:"updated"`
	Removed      int `json:"removed"`
	EdgesCreated int `json:"edgesCreated"`
	EdgesRemoved int `json:"edgesRemoved"`
}

// Changed reports whether nodes or edges were added or removed.
func (s Stats) Changed() bool {
	return s.Created+s.Removed+s.EdgesCreated+s.EdgesRemoved > 0
}

// DependeeClient changes the dependencies of a service.
type DependeeClient interface {
	DeleteDependee(ctx context.Context, shortName, version, depShortName, depVersion string) error
	AddDependee(ctx context.Context, shortName, version string, dep graph.Service) error
}

// versionChange is a dependency being swapped for another version. The node
// of the new version takes over the old position.
type versionChange struct {
	nodeID    string
	shortName string
	version   string
	at        geometry.Point
	moved     bool
}

// ServiceGraph renders the dependency graph of one service version.
type ServiceGraph struct {
	// OnVersionClick is called when the version label of a direct
	// dependency is clicked.
	OnVersionClick func(n *graph.Node)

	ed     *editor.GraphEditor
	logger *log.Logger

	root      graph.Service
	rootID    string
	lastX     float64
	nodes     map[string]*graph.Node
	edges     map[string]*graph.Edge
	pending   *versionChange
	saved     map[string]geometry.Point
	removeFns []func()
}

// NewServiceGraph configures ed for the service dependency view.
func NewServiceGraph(ed *editor.GraphEditor, logger *log.Logger) *ServiceGraph {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &ServiceGraph{ed: ed, logger: logger}
	ed.SetNodeTemplates(template.ServiceViewNodes())
	ed.SetMarkerTemplates(template.Markers())
	ed.SetClasses(ViewClasses)
	ed.SetNodeClass = nodeClass
	ed.SetEdgeClass = edgeClass
	ed.OnCreateDraggedEdge = func(d *graph.DraggedEdge) *graph.DraggedEdge {
		d.MarkerEnd = arrowEnd()
		clear(d.ValidTargets)
		return d
	}
	s.removeFns = append(s.removeFns, ed.AddEventListener(editor.EventNodeClick, s.onNodeClick))
	s.Reset(graph.Service{})
	return s
}

func nodeClass(class string, n *graph.Node) bool {
	switch class {
	case n.Type:
		return true
	case ClassRoot:
		return n.DependencyLevel == 0
	case ClassDirectDependency:
		return n.DependencyLevel == 1
	case ClassDependency:
		return n.DependencyLevel >= 1 && n.DependencyLevel != graph.LevelUnreached
	}
	return false
}

func edgeClass(class string, e *graph.Edge) bool { return class == e.Type }

func arrowEnd() *graph.Marker {
	return &graph.Marker{
		Template:       template.ArrowMarker.ID,
		PositionOnLine: 1,
		LineOffset:     4,
		Scale:          0.5,
		Rotate:         &graph.MarkerRotation{},
	}
}

func (s *ServiceGraph) onNodeClick(ev *editor.Event) {
	if ev.Node.ID == s.rootID {
		ev.PreventDefault()
		return
	}
	if ev.Key != graph.AttrVersion {
		return
	}
	ev.PreventDefault()
	if ev.Node.DependencyLevel == 1 && s.OnVersionClick != nil {
		s.OnVersionClick(ev.Node)
	}
}

// Editor returns the underlying editor.
func (s *ServiceGraph) Editor() *editor.GraphEditor { return s.ed }

// RootID returns the node id of the root service.
func (s *ServiceGraph) RootID() string { return s.rootID }

// Root returns the root service.
func (s *ServiceGraph) Root() graph.Service { return s.root }

// Node returns a node of the view.
func (s *ServiceGraph) Node(id string) (*graph.Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Reset clears the view and makes root the new root service.
func (s *ServiceGraph) Reset(root graph.Service) {
	s.root = root
	s.rootID = ""
	if root.ShortName != "" {
		s.rootID = root.NodeID()
	}
	s.nodes = make(map[string]*graph.Node)
	s.edges = make(map[string]*graph.Edge)
	s.lastX = 0
	s.pending = nil
	s.saved = nil
	s.ed.SetNodes(nil)
	s.ed.SetEdges(nil)
	s.ed.Render()
	s.ed.ZoomToBoundingBox(false)
}

// Close detaches the view from the editor.
func (s *ServiceGraph) Close() {
	for _, fn := range s.removeFns {
		fn()
	}
	s.removeFns = nil
}

// Apply reconciles the view with a dependency graph snapshot, recomputes
// dependency levels and redraws.
func (s *ServiceGraph) Apply(dg graph.DependencyGraph) Stats {
	start := time.Now()
	var st Stats

	stale := make(map[string]struct{}, len(s.nodes))
	for id := range s.nodes {
		stale[id] = struct{}{}
	}
	for _, svc := range dg.Services {
		id := svc.NodeID()
		delete(stale, id)
		if n, ok := s.nodes[id]; ok {
			updateNode(n, svc)
			st.Updated++
			continue
		}
		n := s.place(svc)
		if !s.ed.AddNode(n, false) {
			continue
		}
		s.nodes[id] = n
		st.Created++
	}

	staleEdges := make(map[string]struct{}, len(s.edges))
	for id := range s.edges {
		staleEdges[id] = struct{}{}
	}
	for _, de := range dg.Edges {
		e := &graph.Edge{Source: de.SourceID(), Target: de.TargetID(), MarkerEnd: arrowEnd()}
		id := graph.EdgeID(e)
		delete(staleEdges, id)
		if _, ok := s.edges[id]; ok {
			continue
		}
		if !s.ed.AddEdge(e, false) {
			continue
		}
		if src, ok := s.nodes[e.Source]; ok {
			src.AddOutgoing(id)
		}
		s.edges[id] = e
		st.EdgesCreated++
	}

	for id := range stale {
		s.ed.RemoveNode(id, false)
		delete(s.nodes, id)
		st.Removed++
	}
	for id := range staleEdges {
		e := s.edges[id]
		if src, ok := s.nodes[e.Source]; ok {
			src.RemoveOutgoing(id)
		}
		delete(s.edges, id)
		s.ed.RemoveEdge(e, false)
		st.EdgesRemoved++
	}
	s.settleVersionChange()

	if s.rootID != "" && !levels.Assign(levels.Maps{NodeMap: s.nodes, EdgeMap: s.edges}, s.rootID, RowHeight) {
		s.logger.Debug("root not in snapshot", "root", s.rootID)
	}
	s.ed.Render()
	s.ed.ZoomToBoundingBox(false)

	observability.Graph().OnReconcile("service", st.Created, st.Updated, st.Removed, time.Since(start))
	s.logger.Debug("applied dependency graph", "root", s.rootID,
		"created", st.Created, "updated", st.Updated, "removed", st.Removed)
	return st
}

// place creates the node of a service that is new to the view. A pending
// version change or a saved layout decides the position; otherwise the node
// takes the next column.
func (s *ServiceGraph) place(svc graph.Service) *graph.Node {
	n := &graph.Node{ID: svc.NodeID(), Type: graph.TypeService, DependencyLevel: graph.LevelUnreached}
	updateNode(n, svc)

	if p := s.pending; p != nil && p.shortName == svc.ShortName && p.version == svc.Version {
		n.X, n.Y, n.WasMovedByUser = p.at.X, p.at.Y, p.moved
		s.pending = nil
		return n
	}
	if at, ok := s.saved[n.ID]; ok {
		n.X, n.Y, n.WasMovedByUser = at.X, at.Y, true
		return n
	}
	if n.ID != s.rootID {
		n.X = s.lastX
		s.lastX += ColumnWidth
	}
	return n
}

// settleVersionChange ends a pending version change whose new version was
// already in the view, so place never saw it: once the old node is gone and
// the new one is present the swap is complete.
func (s *ServiceGraph) settleVersionChange() {
	p := s.pending
	if p == nil {
		return
	}
	_, oldLeft := s.nodes[p.nodeID]
	_, arrived := s.nodes[graph.ServiceNodeID(p.shortName, p.version)]
	if arrived && !oldLeft {
		s.pending = nil
	}
}

func updateNode(n *graph.Node, svc graph.Service) {
	n.Title = svc.DisplayTitle()
	n.Name = svc.Name
	n.ShortName = svc.ShortName
	n.Version = svc.Version
	n.Description = svc.Description
}

// ApplyService refreshes the display attributes of one node. Updates for
// unknown nodes or during a version change are dropped.
func (s *ServiceGraph) ApplyService(svc graph.Service) bool {
	n, ok := s.nodes[svc.NodeID()]
	if !ok || s.pending != nil {
		return false
	}
	updateNode(n, svc)
	s.ed.Render()
	return true
}

// ApplyLayout restores saved user positions. Existing nodes move at once;
// nodes created later are placed from the layout.
func (s *ServiceGraph) ApplyLayout(l graph.Layout) {
	s.saved = make(map[string]geometry.Point, len(l.Positions))
	for id, at := range l.Positions {
		s.saved[id] = at
		if n, ok := s.nodes[id]; ok {
			n.X, n.Y, n.WasMovedByUser = at.X, at.Y, true
		}
	}
	s.ed.Render()
}

// Layout returns the positions of nodes moved by the user.
func (s *ServiceGraph) Layout() graph.Layout {
	return graph.LayoutOf(LayoutKey("service", s.rootID), s.ed.Nodes())
}

// LayoutKey names the layout of a view.
func LayoutKey(view, rootID string) string { return view + ":" + rootID }

// =============================================================================
// Version change
// =============================================================================

// BeginVersionChange records that the direct dependency nodeID is about to be
// replaced by newVersion of the same service.
func (s *ServiceGraph) BeginVersionChange(nodeID, newVersion string) (graph.Service, error) {
	n, ok := s.nodes[nodeID]
	if !ok {
		return graph.Service{}, errors.New(errors.ErrCodeNotFound, "node %s not in graph", nodeID)
	}
	if err := errors.ValidateVersion(newVersion); err != nil {
		return graph.Service{}, err
	}
	if n.DependencyLevel != 1 {
		return graph.Service{}, errors.New(errors.ErrCodeConflict, "only direct dependencies can change version, %s is at level %d", nodeID, n.DependencyLevel)
	}
	if n.Version == newVersion {
		return graph.Service{}, errors.New(errors.ErrCodeConflict, "%s already uses version %s", n.ShortName, newVersion)
	}
	s.pending = &versionChange{
		nodeID:    nodeID,
		shortName: n.ShortName,
		version:   newVersion,
		at:        n.Position(),
		moved:     n.WasMovedByUser,
	}
	return graph.Service{ShortName: n.ShortName, Version: n.Version}, nil
}

// CancelVersionChange drops a pending version change.
func (s *ServiceGraph) CancelVersionChange() { s.pending = nil }

// VersionChangePending reports whether a version change awaits its snapshot.
func (s *ServiceGraph) VersionChangePending() bool { return s.pending != nil }

// ChangeVersion swaps the dependency nodeID for newVersion: the old dependee
// is deleted, then the new one is added. The view updates with the next
// snapshot.
func (s *ServiceGraph) ChangeVersion(ctx context.Context, client DependeeClient, nodeID, newVersion string) error {
	old, err := s.BeginVersionChange(nodeID, newVersion)
	if err != nil {
		return err
	}
	if err := swapDependee(ctx, client, s.root, old, newVersion); err != nil {
		s.CancelVersionChange()
		return err
	}
	return nil
}

func swapDependee(ctx context.Context, client DependeeClient, root, old graph.Service, newVersion string) error {
	if err := client.DeleteDependee(ctx, root.ShortName, root.Version, old.ShortName, old.Version); err != nil {
		return errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeNetwork), err, "remove dependency %s", old.NodeID())
	}
	dep := graph.Service{ShortName: old.ShortName, Version: newVersion}
	if err := client.AddDependee(ctx, root.ShortName, root.Version, dep); err != nil {
		return errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeNetwork), err, "add dependency %s", dep.NodeID())
	}
	return nil
}
