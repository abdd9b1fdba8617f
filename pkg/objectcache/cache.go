// Package objectcache indexes the nodes, edges and templates of one graph view
// for constant time lookup, and resolves which link handles an edge attaches
// to.
//
// The cache is a read-optimized snapshot: callers replace whole collections
// with UpdateNodes and UpdateEdges and the indices are rebuilt. Queries never
// fail; unknown ids yield empty results and unknown node types resolve to the
// default template.
package objectcache

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/micograph/pkg/geometry"
	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/template"
)

// GraphObjectCache holds the indices of one graph view. It is not safe for
// concurrent use; the owning editor serializes access.
type GraphObjectCache struct {
	logger *log.Logger

	nodeTemplates   map[string]*template.Parsed
	markerTemplates map[string]*template.Parsed
	handles         map[string][]geometry.LinkHandle
	builtin         *template.Parsed

	nodes         map[string]*graph.Node
	edges         map[string]*graph.Edge
	edgesBySource map[string][]*graph.Edge
	edgesByTarget map[string][]*graph.Edge
}

// New returns an empty cache. A nil logger discards output.
func New(logger *log.Logger) *GraphObjectCache {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &GraphObjectCache{
		logger:          logger,
		nodeTemplates:   map[string]*template.Parsed{},
		markerTemplates: map[string]*template.Parsed{},
		handles:         map[string][]geometry.LinkHandle{},
		builtin:         template.MustParse(template.Builtin),
		nodes:           map[string]*graph.Node{},
		edges:           map[string]*graph.Edge{},
		edgesBySource:   map[string][]*graph.Edge{},
		edgesByTarget:   map[string][]*graph.Edge{},
	}
}

// =============================================================================
// Templates
// =============================================================================

// UpdateNodeTemplates replaces the node template registry and drops all cached
// link handles. Templates whose markup does not parse are skipped.
func (c *GraphObjectCache) UpdateNodeTemplates(templates []template.Template) {
	c.nodeTemplates = c.parseAll(templates, "node")
	c.handles = map[string][]geometry.LinkHandle{}
}

// UpdateMarkerTemplates replaces the marker template registry.
func (c *GraphObjectCache) UpdateMarkerTemplates(templates []template.Template) {
	c.markerTemplates = c.parseAll(templates, "marker")
}

func (c *GraphObjectCache) parseAll(templates []template.Template, kind string) map[string]*template.Parsed {
	out := make(map[string]*template.Parsed, len(templates))
	for _, t := range templates {
		p, err := template.Parse(t)
		if err != nil {
			c.logger.Warn("skipping template", "kind", kind, "id", t.ID, "err", err)
			continue
		}
		out[t.ID] = p
	}
	return out
}

// NodeTemplateID returns the id of the template used for nodeType: the type
// itself if registered, else "default" if registered, else the built-in id.
func (c *GraphObjectCache) NodeTemplateID(nodeType string) string {
	if _, ok := c.nodeTemplates[nodeType]; ok && nodeType != "" {
		return nodeType
	}
	if _, ok := c.nodeTemplates[template.DefaultID]; ok {
		return template.DefaultID
	}
	return c.builtin.ID
}

// NodeTemplate returns the parsed template used for nodeType.
func (c *GraphObjectCache) NodeTemplate(nodeType string) *template.Parsed {
	if p, ok := c.nodeTemplates[c.NodeTemplateID(nodeType)]; ok {
		return p
	}
	return c.builtin
}

// MarkerTemplate returns the marker template with the given id.
func (c *GraphObjectCache) MarkerTemplate(id string) (*template.Parsed, bool) {
	p, ok := c.markerTemplates[id]
	return p, ok
}

// NodeTemplateLinkHandles returns the link handles of the template used for
// nodeType, deriving and caching them on first use.
func (c *GraphObjectCache) NodeTemplateLinkHandles(nodeType string) []geometry.LinkHandle {
	id := c.NodeTemplateID(nodeType)
	if hs, ok := c.handles[id]; ok {
		return hs
	}
	hs := c.NodeTemplate(nodeType).LinkHandles()
	c.handles[id] = hs
	return hs
}

// SetNodeTemplateLinkHandles overrides the cached handles of the template used
// for nodeType.
func (c *GraphObjectCache) SetNodeTemplateLinkHandles(nodeType string, handles []geometry.LinkHandle) {
	c.handles[c.NodeTemplateID(nodeType)] = handles
}

// =============================================================================
// Nodes and Edges
// =============================================================================

// UpdateNodes rebuilds the node index.
func (c *GraphObjectCache) UpdateNodes(nodes []*graph.Node) {
	c.nodes = make(map[string]*graph.Node, len(nodes))
	for _, n := range nodes {
		c.nodes[n.ID] = n
	}
}

// UpdateEdges rebuilds the edge index and both incidence indices.
func (c *GraphObjectCache) UpdateEdges(edges []*graph.Edge) {
	c.edges = make(map[string]*graph.Edge, len(edges))
	c.edgesBySource = make(map[string][]*graph.Edge)
	c.edgesByTarget = make(map[string][]*graph.Edge)
	for _, e := range edges {
		c.edges[graph.EdgeID(e)] = e
		c.edgesBySource[e.Source] = append(c.edgesBySource[e.Source], e)
		c.edgesByTarget[e.Target] = append(c.edgesByTarget[e.Target], e)
	}
}

// Node returns the node with the given id.
func (c *GraphObjectCache) Node(id string) (*graph.Node, bool) {
	n, ok := c.nodes[id]
	return n, ok
}

// Edge returns the edge with the given id.
func (c *GraphObjectCache) Edge(id string) (*graph.Edge, bool) {
	e, ok := c.edges[id]
	return e, ok
}

// EdgesBySource returns the edges leaving node id. The result is never nil.
func (c *GraphObjectCache) EdgesBySource(id string) []*graph.Edge {
	return nonNil(c.edgesBySource[id])
}

// EdgesByTarget returns the edges entering node id. The result is never nil.
func (c *GraphObjectCache) EdgesByTarget(id string) []*graph.Edge {
	return nonNil(c.edgesByTarget[id])
}

func nonNil(edges []*graph.Edge) []*graph.Edge {
	if edges == nil {
		return []*graph.Edge{}
	}
	return edges
}
