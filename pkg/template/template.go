// Package template parses node and marker templates into scene fragments and
// derives the link handles and bounding box of a node shape.
package template

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/matzehuels/micograph/pkg/geometry"
	"github.com/matzehuels/micograph/pkg/scene"
)

// DefaultID is the template id used when a node type has no template.
const DefaultID = "default"

// LinkHandlesAttr is the outline attribute selecting the link handle mode or
// holding an explicit JSON handle list.
const LinkHandlesAttr = "data-link-handles"

// Template is a named piece of SVG markup. LinkHandleMode, if set, overrides
// the data-link-handles attribute of the outline element.
type Template struct {
	ID             string `json:"id" toml:"id"`
	Markup         string `json:"markup" toml:"markup"`
	LinkHandleMode string `json:"linkHandleMode,omitempty" toml:"link_handles"`
}

// Parsed is a template whose markup has been parsed.
type Parsed struct {
	Template
	Elements []*scene.Element
}

// Parse parses the template markup.
func Parse(t Template) (*Parsed, error) {
	els, err := scene.ParseFragment(t.Markup)
	if err != nil {
		return nil, err
	}
	return &Parsed{Template: t, Elements: els}, nil
}

// MustParse is like Parse but panics on error. It is meant for built-in
// templates.
func MustParse(t Template) *Parsed {
	p, err := Parse(t)
	if err != nil {
		panic("template " + t.ID + ": " + err.Error())
	}
	return p
}

// Instantiate returns deep copies of the template elements.
func (p *Parsed) Instantiate() []*scene.Element {
	out := make([]*scene.Element, len(p.Elements))
	for i, e := range p.Elements {
		out[i] = e.Clone()
	}
	return out
}

// Outline returns the element describing the node shape: the first element
// with class "outline", otherwise the first element.
func (p *Parsed) Outline() *scene.Element {
	for _, e := range p.Elements {
		if e.HasClass("outline") {
			return e
		}
		if found := e.First(func(n *scene.Element) bool { return n.HasClass("outline") }); found != nil {
			return found
		}
	}
	if len(p.Elements) > 0 {
		return p.Elements[0]
	}
	return nil
}

// LinkHandles derives link handles from the outline shape. A template
// without elements yields a single handle at the center.
func (p *Parsed) LinkHandles() []geometry.LinkHandle {
	outline := p.Outline()
	if outline == nil {
		return []geometry.LinkHandle{{ID: 1}}
	}
	raw := outline.Attr(LinkHandlesAttr)
	if p.LinkHandleMode != "" {
		raw = p.LinkHandleMode
	}
	if strings.HasPrefix(strings.TrimSpace(raw), "[") {
		var handles []geometry.LinkHandle
		if err := json.Unmarshal([]byte(raw), &handles); err == nil {
			for i := range handles {
				geometry.CalculateNormal(&handles[i])
			}
			return handles
		}
		raw = string(geometry.HandlesAll)
	}
	mode := geometry.ParseHandleMode(raw)

	switch outline.Tag {
	case "circle":
		r, ok := num(outline, "r")
		if !ok {
			return nil
		}
		return geometry.HandlesForCircle(r, mode)
	case "rect":
		x, _ := num(outline, "x")
		y, _ := num(outline, "y")
		w, okW := num(outline, "width")
		h, okH := num(outline, "height")
		if !okW || !okH {
			return nil
		}
		return geometry.HandlesForRectangle(x, y, w, h, mode)
	case "polygon":
		return geometry.HandlesForPolygon(ParsePoints(outline.Attr("points")), mode)
	}
	return nil
}

// BBox is an axis aligned box.
type BBox struct {
	X, Y, Width, Height float64
}

// Union returns the smallest box containing b and o.
func (b BBox) Union(o BBox) BBox {
	minX, minY := min(b.X, o.X), min(b.Y, o.Y)
	maxX, maxY := max(b.X+b.Width, o.X+o.Width), max(b.Y+b.Height, o.Y+o.Height)
	return BBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Translate returns b moved by (dx, dy).
func (b BBox) Translate(dx, dy float64) BBox {
	return BBox{X: b.X + dx, Y: b.Y + dy, Width: b.Width, Height: b.Height}
}

// BBox returns the bounding box of the outline shape relative to the node
// center. Shapes without geometry yield an empty box at the origin.
func (p *Parsed) BBox() BBox {
	outline := p.Outline()
	if outline == nil {
		return BBox{}
	}
	switch outline.Tag {
	case "circle":
		r, _ := num(outline, "r")
		cx, _ := num(outline, "cx")
		cy, _ := num(outline, "cy")
		return BBox{X: cx - r, Y: cy - r, Width: 2 * r, Height: 2 * r}
	case "rect":
		x, _ := num(outline, "x")
		y, _ := num(outline, "y")
		w, _ := num(outline, "width")
		h, _ := num(outline, "height")
		return BBox{X: x, Y: y, Width: w, Height: h}
	case "polygon":
		pts := ParsePoints(outline.Attr("points"))
		if len(pts) == 0 {
			return BBox{}
		}
		b := BBox{X: pts[0].X, Y: pts[0].Y}
		for _, pt := range pts[1:] {
			b = b.Union(BBox{X: pt.X, Y: pt.Y})
		}
		return b
	}
	return BBox{}
}

// ParsePoints parses an SVG points list such as "0,0 10,0 10,10".
func ParsePoints(s string) []geometry.Point {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\n' || r == '\t' })
	pts := make([]geometry.Point, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		x, errX := strconv.ParseFloat(fields[i], 64)
		y, errY := strconv.ParseFloat(fields[i+1], 64)
		if errX != nil || errY != nil {
			return nil
		}
		pts = append(pts, geometry.Point{X: x, Y: y})
	}
	return pts
}

func num(e *scene.Element, attr string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(e.Attr(attr)), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
