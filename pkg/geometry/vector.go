package geometry

import "math"

// Vector is a direction in model coordinates. Y grows downward, as in SVG.
type Vector struct {
	DX float64 `json:"dx" bson:"dx"`
	DY float64 `json:"dy" bson:"dy"`
}

// Point is a position in model coordinates.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Add returns p translated by v.
func (p Point) Add(v Vector) Point { return Point{X: p.X + v.DX, Y: p.Y + v.DY} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Vector { return Vector{DX: p.X - q.X, DY: p.Y - q.Y} }

// Scale returns v multiplied by f.
func (v Vector) Scale(f float64) Vector { return Vector{DX: v.DX * f, DY: v.DY * f} }

// Len returns the euclidean length of v.
func (v Vector) Len() float64 { return math.Hypot(v.DX, v.DY) }

// IsZero reports whether v has zero length.
func (v Vector) IsZero() bool { return v.DX == 0 && v.DY == 0 }

// NormalizeVector returns the unit vector pointing in the direction of v.
// The zero vector is returned unchanged.
func NormalizeVector(v Vector) Vector {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vector{}
	}
	return Vector{DX: v.DX / l, DY: v.DY / l}
}

// CalculateAngle returns the signed angle of v against the positive x axis in
// degrees, in the range (-180, 180]. The zero vector has angle 0.
func CalculateAngle(v Vector) float64 {
	if v.IsZero() {
		return 0
	}
	a := math.Atan2(v.DY, v.DX) * 180 / math.Pi
	if a == -180 {
		return 180
	}
	return a
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
