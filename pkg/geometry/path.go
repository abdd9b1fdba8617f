package geometry

import (
	"math"
	"strconv"
	"strings"
)

// flattenSteps is the number of line segments a cubic is split into for
// length and position queries.
const flattenSteps = 16

type segmentKind int

const (
	segMove segmentKind = iota
	segLine
	segCubic
)

type segment struct {
	kind segmentKind
	pts  []Point // 1 point for move/line, 3 for cubic
}

// Path is a sequence of SVG path commands built from sample points.
type Path struct {
	segs []segment
	poly []Point   // flattened polyline
	cum  []float64 // cumulative length per polyline vertex
}

// BasisPath returns the uniform cubic B-spline through points, starting at
// the first and ending at the last point. Two points give a straight line.
func BasisPath(points []Point) *Path {
	p := &Path{}
	var x0, y0, x1, y1 float64
	state := 0
	for _, pt := range points {
		switch state {
		case 0:
			state = 1
			p.segs = append(p.segs, segment{segMove, []Point{pt}})
		case 1:
			state = 2
		case 2:
			state = 3
			p.segs = append(p.segs, segment{segLine, []Point{{(5*x0 + x1) / 6, (5*y0 + y1) / 6}}})
			p.basisCurve(x0, y0, x1, y1, pt.X, pt.Y)
		default:
			p.basisCurve(x0, y0, x1, y1, pt.X, pt.Y)
		}
		x0, x1 = x1, pt.X
		y0, y1 = y1, pt.Y
	}
	switch state {
	case 3:
		p.basisCurve(x0, y0, x1, y1, x1, y1)
		p.segs = append(p.segs, segment{segLine, []Point{{x1, y1}}})
	case 2:
		p.segs = append(p.segs, segment{segLine, []Point{{x1, y1}}})
	}
	p.flatten()
	return p
}

func (p *Path) basisCurve(x0, y0, x1, y1, x, y float64) {
	p.segs = append(p.segs, segment{segCubic, []Point{
		{(2*x0 + x1) / 3, (2*y0 + y1) / 3},
		{(x0 + 2*x1) / 3, (y0 + 2*y1) / 3},
		{(x0 + 4*x1 + x) / 6, (y0 + 4*y1 + y) / 6},
	}})
}

func (p *Path) flatten() {
	var cur Point
	for _, s := range p.segs {
		switch s.kind {
		case segMove, segLine:
			cur = s.pts[0]
			p.poly = append(p.poly, cur)
		case segCubic:
			start := cur
			for i := 1; i <= flattenSteps; i++ {
				p.poly = append(p.poly, cubicAt(start, s.pts[0], s.pts[1], s.pts[2], float64(i)/flattenSteps))
			}
			cur = s.pts[2]
		}
	}
	p.cum = make([]float64, len(p.poly))
	for i := 1; i < len(p.poly); i++ {
		p.cum[i] = p.cum[i-1] + Distance(p.poly[i-1], p.poly[i])
	}
}

func cubicAt(p0, p1, p2, p3 Point, t float64) Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// D returns the SVG path data.
func (p *Path) D() string {
	var b strings.Builder
	for _, s := range p.segs {
		switch s.kind {
		case segMove:
			b.WriteByte('M')
		case segLine:
			b.WriteByte('L')
		case segCubic:
			b.WriteByte('C')
		}
		for i, pt := range s.pts {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(FormatNumber(pt.X))
			b.WriteByte(',')
			b.WriteString(FormatNumber(pt.Y))
		}
	}
	return b.String()
}

// Length returns the approximate arc length of the path.
func (p *Path) Length() float64 {
	if len(p.cum) == 0 {
		return 0
	}
	return p.cum[len(p.cum)-1]
}

// PointAtLength returns the point at the given arc length, clamped to the
// path ends.
func (p *Path) PointAtLength(l float64) Point {
	switch {
	case len(p.poly) == 0:
		return Point{}
	case l <= 0 || math.IsNaN(l):
		return p.poly[0]
	case l >= p.Length():
		return p.poly[len(p.poly)-1]
	}
	i := 1
	for i < len(p.cum)-1 && p.cum[i] < l {
		i++
	}
	seg := p.cum[i] - p.cum[i-1]
	if seg == 0 {
		return p.poly[i]
	}
	t := (l - p.cum[i-1]) / seg
	a, b := p.poly[i-1], p.poly[i]
	return Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

// PointAt returns the point at fraction f (0..1) of the path length.
func (p *Path) PointAt(f float64) Point { return p.PointAtLength(f * p.Length()) }

// DirectionAt returns the forward direction of the path at fraction f.
// Past the midpoint the direction is sampled backwards so it stays defined
// at the path end.
func (p *Path) DirectionAt(f float64) Vector {
	const epsilon = 1e-5
	if f > 0.5 {
		return p.PointAt(f).Sub(p.PointAt(f - epsilon))
	}
	return p.PointAt(f + epsilon).Sub(p.PointAt(f))
}

// FormatNumber formats v for SVG attributes with at most three decimals.
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	r := math.Round(v*1000) / 1000
	if r == 0 {
		return "0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
