package geometry

import (
	"math"
	"strings"
)

// HandleMode selects which outline points become link handles.
type HandleMode string

// Link handle modes. HandlesMinimal is an alias of HandlesEdges for
// rectangles and polygons.
const (
	HandlesAll     HandleMode = "all"
	HandlesEdges   HandleMode = "edges"
	HandlesCorners HandleMode = "corners"
	HandlesMinimal HandleMode = "minimal"
)

// ParseHandleMode parses a mode name case-insensitively. Unknown or empty
// names select HandlesAll.
func ParseHandleMode(s string) HandleMode {
	switch m := HandleMode(strings.ToLower(strings.TrimSpace(s))); m {
	case HandlesAll, HandlesEdges, HandlesCorners, HandlesMinimal:
		return m
	default:
		return HandlesAll
	}
}

func (m HandleMode) corners() bool { return m == HandlesAll || m == HandlesCorners }
func (m HandleMode) edges() bool {
	return m == HandlesAll || m == HandlesEdges || m == HandlesMinimal
}

// LinkHandle is an edge attachment point relative to a node center.
type LinkHandle struct {
	ID     int     `json:"id" bson:"id"`
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Normal *Vector `json:"normal,omitempty" bson:"normal,omitempty"`
}

// Offset returns the handle position as a vector from the node center.
func (h LinkHandle) Offset() Vector { return Vector{DX: h.X, DY: h.Y} }

// NormalOrZero returns the handle normal, or the zero vector if unset.
func (h LinkHandle) NormalOrZero() Vector {
	if h.Normal == nil {
		return Vector{}
	}
	return *h.Normal
}

// CalculateNormal sets h.Normal to a unit vector. An explicit normal is kept
// and normalized; otherwise the handle offset is used. A handle at the
// center gets the zero vector.
func CalculateNormal(h *LinkHandle) {
	v := h.Offset()
	if h.Normal != nil {
		v = *h.Normal
	}
	n := NormalizeVector(v)
	h.Normal = &n
}

func finish(handles []LinkHandle) []LinkHandle {
	for i := range handles {
		handles[i].ID = i
		handles[i].Normal = nil
		CalculateNormal(&handles[i])
	}
	return handles
}

// HandlesForRectangle returns link handles for the rectangle anchored at
// (x, y) with the given width and height. Corners run clockwise from the top
// left corner; in HandlesAll mode the edge midpoints are interleaved.
func HandlesForRectangle(x, y, w, h float64, mode HandleMode) []LinkHandle {
	type spot struct {
		x, y   float64
		corner bool
	}
	spots := []spot{
		{x, y, true},
		{x + w/2, y, false},
		{x + w, y, true},
		{x + w, y + h/2, false},
		{x + w, y + h, true},
		{x + w/2, y + h, false},
		{x, y + h, true},
		{x, y + h/2, false},
	}
	handles := make([]LinkHandle, 0, len(spots))
	for _, s := range spots {
		if (s.corner && mode.corners()) || (!s.corner && mode.edges()) {
			handles = append(handles, LinkHandle{X: s.x, Y: s.y})
		}
	}
	return finish(handles)
}

// HandlesForCircle returns link handles on a circle of radius r centered at
// the origin: 4 axis points, plus the diagonals in HandlesAll mode.
func HandlesForCircle(r float64, mode HandleMode) []LinkHandle {
	all := mode == HandlesAll
	handles := make([]LinkHandle, 0, 8)
	for i := 0; i < 4; i++ {
		// angles are measured from +y towards +x
		a := float64(i) * math.Pi / 2
		handles = append(handles, LinkHandle{X: round(math.Sin(a) * r), Y: round(math.Cos(a) * r)})
		if all {
			d := 3*math.Pi/4 - a
			handles = append(handles, LinkHandle{X: math.Sin(d) * r, Y: math.Cos(d) * r})
		}
	}
	return finish(handles)
}

// round snaps values that are zero up to float error onto zero.
func round(v float64) float64 {
	if math.Abs(v) < 1e-9 {
		return 0
	}
	return v
}

// HandlesForPolygon returns link handles on a closed polygon given relative to
// the node center: vertices for HandlesCorners, side midpoints for
// HandlesEdges and HandlesMinimal, both interleaved for HandlesAll.
func HandlesForPolygon(points []Point, mode HandleMode) []LinkHandle {
	handles := make([]LinkHandle, 0, 2*len(points))
	for i, p := range points {
		if mode.corners() {
			handles = append(handles, LinkHandle{X: p.X, Y: p.Y})
		}
		if mode.edges() && len(points) > 1 {
			q := points[(i+1)%len(points)]
			handles = append(handles, LinkHandle{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2})
		}
	}
	return finish(handles)
}
