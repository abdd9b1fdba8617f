package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name string
		in   Vector
		want Vector
	}{
		{"unit x", Vector{5, 0}, Vector{1, 0}},
		{"diagonal", Vector{3, 4}, Vector{0.6, 0.8}},
		{"zero", Vector{}, Vector{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeVector(tt.in)
			assert.InDelta(t, tt.want.DX, got.DX, 1e-9)
			assert.InDelta(t, tt.want.DY, got.DY, 1e-9)
		})
	}
}

func TestCalculateAngle(t *testing.T) {
	tests := []struct {
		in   Vector
		want float64
	}{
		{Vector{1, 0}, 0},
		{Vector{0, 1}, 90},
		{Vector{-1, 0}, 180},
		{Vector{0, -1}, -90},
		{Vector{1, 1}, 45},
		{Vector{}, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, CalculateAngle(tt.in), 1e-9, "angle of %v", tt.in)
	}
}

func TestCalculateNormal(t *testing.T) {
	h := LinkHandle{X: 0, Y: -30}
	CalculateNormal(&h)
	require.NotNil(t, h.Normal)
	assert.InDelta(t, 0, h.Normal.DX, 1e-9)
	assert.InDelta(t, -1, h.Normal.DY, 1e-9)

	explicit := LinkHandle{X: 10, Y: 10, Normal: &Vector{0, 2}}
	CalculateNormal(&explicit)
	assert.InDelta(t, 1, explicit.Normal.DY, 1e-9)

	center := LinkHandle{}
	CalculateNormal(&center)
	assert.True(t, center.Normal.IsZero())
}

func TestHandlesForRectangleCounts(t *testing.T) {
	tests := []struct {
		mode HandleMode
		want int
	}{
		{HandlesAll, 8},
		{HandlesEdges, 4},
		{HandlesMinimal, 4},
		{HandlesCorners, 4},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			hs := HandlesForRectangle(-50, -30, 100, 60, tt.mode)
			require.Len(t, hs, tt.want)
			for i, h := range hs {
				assert.Equal(t, i, h.ID)
				require.NotNil(t, h.Normal)
				assert.InDelta(t, 1, h.Normal.Len(), 1e-9)
			}
		})
	}
}

func TestHandlesForRectangleOrder(t *testing.T) {
	hs := HandlesForRectangle(-50, -30, 100, 60, HandlesCorners)
	want := []Point{{-50, -30}, {50, -30}, {50, 30}, {-50, 30}}
	for i, p := range want {
		assert.Equal(t, p, Point{hs[i].X, hs[i].Y}, "corner %d", i)
	}

	edges := HandlesForRectangle(-50, -30, 100, 60, HandlesEdges)
	wantEdges := []Point{{0, -30}, {50, 0}, {0, 30}, {-50, 0}}
	for i, p := range wantEdges {
		assert.Equal(t, p, Point{edges[i].X, edges[i].Y}, "edge %d", i)
	}
	assert.InDelta(t, -1, edges[0].Normal.DY, 1e-9)
	assert.InDelta(t, 1, edges[1].Normal.DX, 1e-9)
}

func TestHandlesForRectangleDegenerate(t *testing.T) {
	hs := HandlesForRectangle(0, 0, 0, 0, HandlesAll)
	require.Len(t, hs, 8)
	for _, h := range hs {
		assert.True(t, h.Normal.IsZero())
		assert.False(t, math.IsNaN(h.Normal.DX))
	}
}

func TestHandlesForCircle(t *testing.T) {
	const r = 20
	all := HandlesForCircle(r, HandlesAll)
	require.Len(t, all, 8)
	for _, h := range all {
		assert.InDelta(t, r, math.Hypot(h.X, h.Y), 1e-9)
		assert.InDelta(t, 1, h.Normal.Len(), 1e-9)
	}
	minimal := HandlesForCircle(r, HandlesMinimal)
	require.Len(t, minimal, 4)
	assert.Equal(t, Point{0, r}, Point{minimal[0].X, minimal[0].Y})
	assert.Equal(t, Point{r, 0}, Point{minimal[1].X, minimal[1].Y})
}

func TestHandlesForPolygon(t *testing.T) {
	square := []Point{{-10, -10}, {10, -10}, {10, 10}, {-10, 10}}
	assert.Len(t, HandlesForPolygon(square, HandlesCorners), 4)
	assert.Len(t, HandlesForPolygon(square, HandlesEdges), 4)
	all := HandlesForPolygon(square, HandlesAll)
	require.Len(t, all, 8)
	assert.Equal(t, Point{0, -10}, Point{all[1].X, all[1].Y})
}

func TestParseHandleMode(t *testing.T) {
	assert.Equal(t, HandlesEdges, ParseHandleMode("EDGES"))
	assert.Equal(t, HandlesAll, ParseHandleMode(""))
	assert.Equal(t, HandlesAll, ParseHandleMode("bogus"))
}

func TestBasisPath(t *testing.T) {
	line := BasisPath([]Point{{0, 0}, {10, 0}})
	assert.Equal(t, "M0,0L10,0", line.D())
	assert.InDelta(t, 10, line.Length(), 1e-9)
	assert.Equal(t, Point{5, 0}, line.PointAt(0.5))

	curve := BasisPath([]Point{{0, 0}, {0, 10}, {100, 10}, {100, 20}})
	assert.Equal(t, Point{0, 0}, curve.PointAt(0))
	end := curve.PointAt(1)
	assert.InDelta(t, 100, end.X, 1e-9)
	assert.InDelta(t, 20, end.Y, 1e-9)
	assert.Greater(t, curve.Length(), 100.0)

	dir := NormalizeVector(line.DirectionAt(1))
	assert.InDelta(t, 1, dir.DX, 1e-6)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "1.5", FormatNumber(1.5))
	assert.Equal(t, "0", FormatNumber(-0.0001))
	assert.Equal(t, "0.333", FormatNumber(1.0/3))
	assert.Equal(t, "0", FormatNumber(math.NaN()))
}
