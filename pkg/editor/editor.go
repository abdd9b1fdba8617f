package editor

import (
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/objectcache"
	"github.com/matzehuels/micograph/pkg/scene"
	"github.com/matzehuels/micograph/pkg/template"
	"github.com/matzehuels/micograph/pkg/textwrap"
)

// =============================================================================
// Modes
// =============================================================================

// Interaction modes.
const (
	ModeDisplay = "display"
	ModeLayout  = "layout"
	ModeLink    = "link"
	ModeSelect  = "select"
)

// Zoom modes.
const (
	ZoomNone      = "none"
	ZoomManual    = "manual"
	ZoomAutomatic = "automatic"
	ZoomBoth      = "both"
)

func validMode(m string) bool {
	switch m {
	case ModeDisplay, ModeLayout, ModeLink, ModeSelect:
		return true
	}
	return false
}

func validZoomMode(m string) bool {
	switch m {
	case ZoomNone, ZoomManual, ZoomAutomatic, ZoomBoth:
		return true
	}
	return false
}

// =============================================================================
// Options
// =============================================================================

// DefaultFontSize is used for text elements without a font-size attribute.
const DefaultFontSize = 8

// Options configure a GraphEditor.
type Options struct {
	// Logger receives warnings about invalid input. Nil discards.
	Logger *log.Logger

	// Measurer measures text for wrapping. Defaults to a FixedMeasurer.
	Measurer textwrap.Measurer

	// Classes are the host class names offered to SetNodeClass and
	// SetEdgeClass.
	Classes []string

	// Stylesheet is embedded into the rendered SVG. Defaults to
	// template.Stylesheet.
	Stylesheet string

	// Mode and ZoomMode set the initial modes. Defaults: display and both.
	Mode     string
	ZoomMode string
}

// =============================================================================
// GraphEditor
// =============================================================================

// GraphEditor renders nodes and edges into an SVG scene and applies
// interaction to them.
type GraphEditor struct {
	// SetNodeClass decides whether a node carries a host class.
	SetNodeClass func(class string, n *graph.Node) bool
	// SetEdgeClass decides whether an edge carries a host class.
	SetEdgeClass func(class string, e *graph.Edge) bool

	// OnCreateDraggedEdge may adjust a new dragged edge. Returning nil
	// cancels the drag.
	OnCreateDraggedEdge func(d *graph.DraggedEdge) *graph.DraggedEdge
	// OnDraggedEdgeTargetChange is called when the drop target of a dragged
	// edge changes. Either id may be empty.
	OnDraggedEdgeTargetChange func(d *graph.DraggedEdge, source, target string)
	// OnDropDraggedEdge turns a dropped edge into the edge to commit.
	// Returning nil discards it.
	OnDropDraggedEdge func(e *graph.Edge, source, target string) *graph.Edge

	logger     *log.Logger
	measurer   textwrap.Measurer
	classes    []string
	stylesheet string

	cache *objectcache.GraphObjectCache
	nodes []*graph.Node
	edges []*graph.Edge

	dragged []*graph.DraggedEdge

	mode     string
	fromMode string
	zoomMode string

	hovered    map[string]struct{}
	selected   map[string]struct{}
	linkSource string
	linkTarget string

	width, height float64
	transform     Transform

	initialized    bool
	templatesDirty bool

	root       *scene.Element
	style      *scene.Element
	zoomGroup  *scene.Element
	edgesGroup *scene.Element
	nodesGroup *scene.Element

	listeners    map[EventType][]listenerEntry
	nextListener int

	// edgeTypes holds the type class last set on each edge element.
	edgeTypes map[string]string
}

// New returns an editor that has not been initialized yet.
func New(opts Options) *GraphEditor {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	measurer := opts.Measurer
	if measurer == nil {
		measurer = textwrap.FixedMeasurer{}
	}
	css := opts.Stylesheet
	if css == "" {
		css = template.Stylesheet
	}
	g := &GraphEditor{
		logger:     logger,
		measurer:   measurer,
		classes:    slices.Clone(opts.Classes),
		stylesheet: css,
		cache:      objectcache.New(logger),
		mode:       ModeDisplay,
		fromMode:   ModeDisplay,
		zoomMode:   ZoomBoth,
		hovered:    make(map[string]struct{}),
		selected:   make(map[string]struct{}),
		transform:  Identity,
		listeners:  make(map[EventType][]listenerEntry),
	}
	if opts.Mode != "" {
		if validMode(opts.Mode) {
			g.mode = opts.Mode
		} else {
			logger.Warn("ignoring invalid mode", "mode", opts.Mode)
		}
	}
	if opts.ZoomMode != "" {
		if validZoomMode(opts.ZoomMode) {
			g.zoomMode = opts.ZoomMode
		} else {
			logger.Warn("ignoring invalid zoom mode", "mode", opts.ZoomMode)
		}
	}
	return g
}

// Init creates the scene for a viewport of the given size. Calling it again
// resizes the viewport and keeps the scene.
func (g *GraphEditor) Init(width, height float64) {
	g.width, g.height = width, height
	if g.initialized {
		g.sizeRoot()
		return
	}
	g.root = scene.New("svg", "graph-editor")
	g.root.SetAttr("xmlns", "http://www.w3.org/2000/svg")
	g.style = scene.New("style")
	g.style.Text = g.stylesheet
	g.zoomGroup = scene.New("g", "zoom-group")
	g.edgesGroup = scene.New("g", "edges")
	g.nodesGroup = scene.New("g", "nodes")
	g.zoomGroup.Append(g.edgesGroup, g.nodesGroup)
	g.root.Append(g.style, scene.New("defs"), g.zoomGroup)
	g.sizeRoot()
	g.initialized = true
}

func (g *GraphEditor) sizeRoot() {
	g.root.SetAttr("width", fmtNum(g.width)).
		SetAttr("height", fmtNum(g.height)).
		SetAttr("viewBox", "0 0 "+fmtNum(g.width)+" "+fmtNum(g.height))
}

// Dispose drops the scene. Later renders are no-ops until Init is called
// again.
func (g *GraphEditor) Dispose() {
	g.initialized = false
	g.root, g.style, g.zoomGroup, g.edgesGroup, g.nodesGroup = nil, nil, nil, nil, nil
	g.dragged = nil
}

// Initialized reports whether Init has been called since the last Dispose.
func (g *GraphEditor) Initialized() bool { return g.initialized }

// Cache returns the object cache backing the editor.
func (g *GraphEditor) Cache() *objectcache.GraphObjectCache { return g.cache }

// Nodes returns the current nodes. The slice must not be modified.
func (g *GraphEditor) Nodes() []*graph.Node { return g.nodes }

// Edges returns the current edges. The slice must not be modified.
func (g *GraphEditor) Edges() []*graph.Edge { return g.edges }

// Node returns the node with the given id.
func (g *GraphEditor) Node(id string) (*graph.Node, bool) { return g.cache.Node(id) }

// DraggedEdges returns the edges currently being drawn.
func (g *GraphEditor) DraggedEdges() []*graph.DraggedEdge { return g.dragged }

// SetStylesheet replaces the embedded CSS.
func (g *GraphEditor) SetStylesheet(css string) {
	g.stylesheet = css
	if g.style != nil {
		g.style.Text = css
	}
}

// SetClasses replaces the host class names.
func (g *GraphEditor) SetClasses(classes []string) { g.classes = slices.Clone(classes) }

// =============================================================================
// Modes
// =============================================================================

// Mode returns the interaction mode.
func (g *GraphEditor) Mode() string { return g.mode }

// ZoomMode returns the zoom mode.
func (g *GraphEditor) ZoomMode() string { return g.zoomMode }

// IsInteractive reports whether nodes may be moved and edges drawn. A
// selection started from display mode stays non-interactive.
func (g *GraphEditor) IsInteractive() bool {
	return g.mode != ModeDisplay && !(g.mode == ModeSelect && g.fromMode == ModeDisplay)
}

// SetMode switches the interaction mode. Entering link or select mode resets
// the respective interaction state. Invalid modes are ignored.
func (g *GraphEditor) SetMode(mode string) {
	if !validMode(mode) {
		g.logger.Warn("ignoring invalid mode", "mode", mode)
		return
	}
	old := g.mode
	if mode == old {
		return
	}
	switch mode {
	case ModeLink:
		g.linkSource, g.linkTarget = "", ""
	case ModeSelect:
		clear(g.selected)
		g.fromMode = old
	}
	g.mode = mode
	g.dispatch(&Event{Type: EventModeChange, OldMode: old, NewMode: mode})
	g.Render()
}

// SetZoomMode switches the zoom mode. Invalid modes are ignored.
func (g *GraphEditor) SetZoomMode(mode string) {
	if !validZoomMode(mode) {
		g.logger.Warn("ignoring invalid zoom mode", "mode", mode)
		return
	}
	old := g.zoomMode
	if mode == old {
		return
	}
	g.zoomMode = mode
	g.dispatch(&Event{Type: EventZoomModeChange, OldMode: old, NewMode: mode})
}

// Selection returns the selected node ids in sorted order.
func (g *GraphEditor) Selection() []string { return sortedKeys(g.selected) }

// Hovered returns the hovered node ids in sorted order.
func (g *GraphEditor) Hovered() []string { return sortedKeys(g.hovered) }

// LinkSource returns the node picked as link source in link mode.
func (g *GraphEditor) LinkSource() string { return g.linkSource }

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
