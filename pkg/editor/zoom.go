package editor

import (
	"math"

	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/geometry"
	"github.com/matzehuels/micograph/pkg/template"
)

var errNotInitialized = errors.New(errors.ErrCodeNotInitialized, "graph editor is not initialized")

// fitRatio leaves a margin around the fitted graph.
const fitRatio = 0.9

// Transform is the pan and zoom applied to the graph: a translation followed
// by a uniform scale.
type Transform struct {
	X, Y, K float64
}

// Identity leaves the graph untouched.
var Identity = Transform{K: 1}

// Apply maps a graph point to viewport coordinates.
func (t Transform) Apply(p geometry.Point) geometry.Point {
	return geometry.Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// Invert maps a viewport point to graph coordinates.
func (t Transform) Invert(p geometry.Point) geometry.Point {
	return geometry.Point{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

func (t Transform) String() string {
	return "translate(" + fmtNum(t.X) + "," + fmtNum(t.Y) + ") scale(" + fmtNum(t.K) + ")"
}

// Transform returns the current pan and zoom.
func (g *GraphEditor) Transform() Transform { return g.transform }

// BoundingBox returns the box around all node outlines in graph coordinates
// and false if there are no nodes.
func (g *GraphEditor) BoundingBox() (template.BBox, bool) {
	var box template.BBox
	found := false
	for _, n := range g.nodes {
		b := g.cache.NodeTemplate(n.Type).BBox().Translate(n.X, n.Y)
		if !found {
			box, found = b, true
			continue
		}
		box = box.Union(b)
	}
	return box, found
}

// ZoomToBoundingBox fits all nodes into the viewport. Unless force is set it
// only acts in the automatic zoom modes. A degenerate box resets to the
// identity transform.
func (g *GraphEditor) ZoomToBoundingBox(force bool) {
	if !g.initialized {
		return
	}
	if !force && g.zoomMode != ZoomAutomatic && g.zoomMode != ZoomBoth {
		return
	}
	box, ok := g.BoundingBox()
	if !ok {
		g.transform = Identity
		return
	}
	g.transform = fitBox(box, g.width, g.height)
}

// fitBox centers box in a w×h viewport.
func fitBox(box template.BBox, w, h float64) Transform {
	scale := fitRatio * min(w/box.Width, h/box.Height)
	x := -box.X*scale + (w-box.Width*scale)/2
	y := -box.Y*scale + (h-box.Height*scale)/2
	if !finite(scale) || !finite(x) || !finite(y) || scale == 0 {
		return Identity
	}
	return Transform{X: x, Y: y, K: scale}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func (g *GraphEditor) manualZoom() bool {
	return g.zoomMode == ZoomManual || g.zoomMode == ZoomBoth
}

// Zoom scales the view by factor around the viewport point center. It
// reports false outside the manual zoom modes.
func (g *GraphEditor) Zoom(factor float64, center geometry.Point) bool {
	if !g.manualZoom() || !finite(factor) || factor <= 0 {
		return false
	}
	t := g.transform
	g.transform = Transform{
		X: center.X - (center.X-t.X)*factor,
		Y: center.Y - (center.Y-t.Y)*factor,
		K: t.K * factor,
	}
	return true
}

// Pan moves the view by (dx, dy) viewport units. It reports false outside the
// manual zoom modes.
func (g *GraphEditor) Pan(dx, dy float64) bool {
	if !g.manualZoom() {
		return false
	}
	g.transform.X += dx
	g.transform.Y += dy
	return true
}
