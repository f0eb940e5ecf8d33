package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApothem(t *testing.T) {
	cases := []struct {
		sides int
		want  float64
	}{
		{3, 100 * math.Cos(math.Pi/3)},
		{4, 100 * math.Cos(math.Pi/4)},
		{6, 100 * math.Cos(math.Pi/6)},
		{12, 100 * math.Cos(math.Pi/12)},
	}
	for _, c := range cases {
		p := Polygon{Sides: c.sides, Radius: 100}
		assert.InDelta(t, c.want, p.Apothem(), 1e-9, "sides=%d", c.sides)
	}
}

func TestEdgeGeometry(t *testing.T) {
	p := Polygon{Sides: 5, Radius: 50, Rotation: 0.7}

	for i := 0; i < p.Sides; i++ {
		mid := p.EdgePoint(i, 0.5)
		n := p.EdgeNormal(i)

		// The edge midpoint sits exactly one apothem out along the normal.
		assert.InDelta(t, p.Apothem(), mid.Dot(n), 1e-9)
		assert.InDelta(t, 1, n.Len(), 1e-9)

		// The tangent is perpendicular to the normal.
		assert.InDelta(t, 0, p.EdgeTangent(i).Dot(n), 1e-9)
	}

	// EdgePoint interpolates between consecutive vertices.
	assert.InDelta(t, p.Vertex(2).X, p.EdgePoint(2, 0).X, 1e-9)
	assert.InDelta(t, p.Vertex(3).Y, p.EdgePoint(2, 1).Y, 1e-9)
}

func TestContainHardClamp(t *testing.T) {
	p := Polygon{Sides: 6, Radius: 80}
	b := BoundaryParams{SoftWidth: 10, HardMargin: 4, SoftDamping: 0.7, Restitution: 0.5}
	hard := p.Apothem() - b.HardMargin

	n := p.EdgeNormal(0)
	pos := n.Scale(p.Apothem() + 20) // well past the boundary
	vel := n.Scale(30)               // moving outward

	Contain(p, &pos, &vel, b)

	require.LessOrEqual(t, pos.Dot(n), hard+1e-9)
	// Outward velocity reflected with energy loss.
	assert.InDelta(t, -30*b.Restitution, vel.Dot(n), 1e-9)
}

func TestContainSoftZoneDampsOutwardOnly(t *testing.T) {
	p := Polygon{Sides: 4, Radius: 60}
	b := BoundaryParams{SoftWidth: 12, HardMargin: 3, SoftDamping: 0.8, Restitution: 0.5}
	hard := p.Apothem() - b.HardMargin

	n := p.EdgeNormal(1)
	pos := n.Scale(hard - 2) // inside the soft zone
	out := n.Scale(10)
	Contain(p, &pos, &out, b)
	assert.Less(t, out.Dot(n), 10.0, "outward velocity should be damped")
	assert.Greater(t, out.Dot(n), 0.0, "soft zone never reverses velocity")

	pos = n.Scale(hard - 2)
	in := n.Scale(-10)
	Contain(p, &pos, &in, b)
	assert.InDelta(t, -10, in.Dot(n), 1e-9, "inward velocity untouched")
}

func TestContainDeepInteriorUntouched(t *testing.T) {
	p := Polygon{Sides: 8, Radius: 100}
	b := BoundaryParams{SoftWidth: 10, HardMargin: 4, SoftDamping: 0.7, Restitution: 0.5}

	pos := Vec{X: 5, Y: -3}
	vel := Vec{X: 40, Y: 40}
	Contain(p, &pos, &vel, b)
	assert.Equal(t, Vec{X: 5, Y: -3}, pos)
	assert.Equal(t, Vec{X: 40, Y: 40}, vel)
}

func TestClampToRadius(t *testing.T) {
	pos := Vec{X: 30, Y: 40} // length 50
	vel := Vec{X: 10, Y: 0}
	require.True(t, ClampToRadius(&pos, &vel, 25, 0.5))
	assert.InDelta(t, 25, pos.Len(), 1e-9)
	assert.InDelta(t, 5, vel.X, 1e-9)

	pos = Vec{X: 3, Y: 4}
	vel = Vec{X: 10, Y: 0}
	require.False(t, ClampToRadius(&pos, &vel, 25, 0.5))
	assert.Equal(t, Vec{X: 10, Y: 0}, vel)
}

func TestOverlap(t *testing.T) {
	depth, hit := Overlap(Vec{}, Vec{X: 30}, 20, 20, 0)
	require.True(t, hit)
	assert.InDelta(t, 10, depth, 1e-9)

	_, hit = Overlap(Vec{}, Vec{X: 50}, 20, 20, 0)
	assert.False(t, hit)

	// Padding widens the overlap threshold.
	_, hit = Overlap(Vec{}, Vec{X: 45}, 20, 20, 10)
	assert.True(t, hit)
}
