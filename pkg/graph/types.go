package graph

import (
	"math"
	"sort"

	"github.com/matzehuels/micograph/pkg/geometry"
)

// =============================================================================
// Constants
// =============================================================================

// LevelUnreached is the dependency level of nodes not reachable from the root.
const LevelUnreached = math.MaxInt

// Node types used by the MICO views.
const (
	TypeService     = "service"
	TypeApplication = "application"
)

// Attribute keys understood by [Node.Attr].
const (
	AttrTitle       = "title"
	AttrName        = "name"
	AttrShortName   = "shortName"
	AttrVersion     = "version"
	AttrDescription = "description"
)

// =============================================================================
// Node
// =============================================================================

// Node is a positioned vertex of the rendered graph.
type Node struct {
	ID   string  `json:"id" bson:"id"`
	X    float64 `json:"x" bson:"x"`
	Y    float64 `json:"y" bson:"y"`
	Type string  `json:"type,omitempty" bson:"type,omitempty"`

	Title       string `json:"title,omitempty" bson:"title,omitempty"`
	Name        string `json:"name,omitempty" bson:"name,omitempty"`
	ShortName   string `json:"shortName,omitempty" bson:"short_name,omitempty"`
	Version     string `json:"version,omitempty" bson:"version,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`

	DependencyLevel int                 `json:"dependencyLevel" bson:"dependency_level"`
	WasMovedByUser  bool                `json:"wasMovedByUser,omitempty" bson:"was_moved_by_user,omitempty"`
	OutgoingEdges   map[string]struct{} `json:"-" bson:"-"`

	Attrs map[string]string `json:"attrs,omitempty" bson:"attrs,omitempty"`
}

// Position returns the node position as a point.
func (n *Node) Position() geometry.Point { return geometry.Point{X: n.X, Y: n.Y} }

// Attr returns the value shown for a template data-content key.
func (n *Node) Attr(key string) string {
	switch key {
	case "id":
		return n.ID
	case "type":
		return n.Type
	case AttrTitle:
		return n.Title
	case AttrName:
		return n.Name
	case AttrShortName:
		return n.ShortName
	case AttrVersion:
		return n.Version
	case AttrDescription:
		return n.Description
	}
	return n.Attrs[key]
}

// AddOutgoing records edge id as leaving this node.
func (n *Node) AddOutgoing(edgeID string) {
	if n.OutgoingEdges == nil {
		n.OutgoingEdges = make(map[string]struct{})
	}
	n.OutgoingEdges[edgeID] = struct{}{}
}

// RemoveOutgoing forgets edge id.
func (n *Node) RemoveOutgoing(edgeID string) { delete(n.OutgoingEdges, edgeID) }

// Outgoing returns the outgoing edge ids in sorted order.
func (n *Node) Outgoing() []string {
	ids := make([]string, 0, len(n.OutgoingEdges))
	for id := range n.OutgoingEdges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// =============================================================================
// Edge
// =============================================================================

// MarkerRotation orients a marker. Normal, if set, is an absolute direction;
// otherwise the marker follows the path. RelativeAngle is added in degrees.
type MarkerRotation struct {
	Normal        *geometry.Vector `json:"normal,omitempty" bson:"normal,omitempty"`
	RelativeAngle float64          `json:"relativeAngle,omitempty" bson:"relative_angle,omitempty"`
}

// Marker is a decoration drawn along an edge, such as an arrow head.
type Marker struct {
	Template       string          `json:"template" bson:"template"`
	PositionOnLine float64         `json:"positionOnLine" bson:"position_on_line"`
	Scale          float64         `json:"scale,omitempty" bson:"scale,omitempty"`
	LineOffset     float64         `json:"lineOffset,omitempty" bson:"line_offset,omitempty"`
	Rotate         *MarkerRotation `json:"rotate,omitempty" bson:"rotate,omitempty"`
}

// EffectiveScale returns Scale, treating zero as 1.
func (m Marker) EffectiveScale() float64 {
	if m.Scale == 0 {
		return 1
	}
	return m.Scale
}

// Edge is a directed connection between two nodes.
type Edge struct {
	ID           string               `json:"id,omitempty" bson:"id,omitempty"`
	Source       string               `json:"source" bson:"source"`
	Target       string               `json:"target" bson:"target"`
	SourceHandle *geometry.LinkHandle `json:"sourceHandle,omitempty" bson:"source_handle,omitempty"`
	TargetHandle *geometry.LinkHandle `json:"targetHandle,omitempty" bson:"target_handle,omitempty"`
	Type         string               `json:"type,omitempty" bson:"type,omitempty"`
	Markers      []Marker             `json:"markers,omitempty" bson:"markers,omitempty"`
	MarkerEnd    *Marker              `json:"markerEnd,omitempty" bson:"marker_end,omitempty"`
}

// EdgeID returns the explicit id of e or one derived from its endpoints.
func EdgeID(e *Edge) string {
	if e.ID != "" {
		return e.ID
	}
	return "s" + e.Source + ",t" + e.Target
}

// DraggedEdge is an edge being drawn interactively. While Target is empty the
// edge ends at CurrentTarget.
type DraggedEdge struct {
	Edge
	CreatedFrom   string              `json:"createdFrom,omitempty"`
	ValidTargets  map[string]struct{} `json:"-"`
	CurrentTarget geometry.Point      `json:"currentTarget"`
}

// IsValidTarget reports whether id may be used as the drop target.
func (d *DraggedEdge) IsValidTarget(id string) bool {
	_, ok := d.ValidTargets[id]
	return ok
}
