// Package geom provides the polygon and vector math used by the culture
// renderer: apothem and edge normals for regular polygons, soft/hard boundary
// containment, and velocity reflection.
package geom

import "math"

// Vec is a 2D vector.
type Vec struct {
	X float64
	Y float64
}

// Add returns v + o.
func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

// Scale returns v scaled by s.
func (v Vec) Scale(s float64) Vec { return Vec{v.X * s, v.Y * s} }

// Dot returns the dot product of v and o.
func (v Vec) Dot(o Vec) float64 { return v.X*o.X + v.Y*o.Y }

// Len returns the length of v.
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// Norm returns v scaled to unit length, or the zero vector for zero input.
func (v Vec) Norm() Vec {
	l := v.Len()
	if l == 0 {
		return Vec{}
	}
	return Vec{v.X / l, v.Y / l}
}

// Polygon is a regular polygon centered at the origin.
type Polygon struct {
	Sides    int     // >= 3
	Radius   float64 // circumradius
	Rotation float64 // radians
}

// Apothem returns the distance from the center to the midpoint of an edge.
func (p Polygon) Apothem() float64 {
	return p.Radius * math.Cos(math.Pi/float64(p.Sides))
}

// Vertex returns the i-th vertex position.
func (p Polygon) Vertex(i int) Vec {
	a := p.Rotation + 2*math.Pi*float64(i)/float64(p.Sides)
	return Vec{p.Radius * math.Cos(a), p.Radius * math.Sin(a)}
}

// EdgeNormal returns the outward unit normal of the i-th edge. Edge i runs
// from vertex i to vertex i+1; its normal points along the angle bisecting
// the two vertex angles.
func (p Polygon) EdgeNormal(i int) Vec {
	a := p.Rotation + 2*math.Pi*(float64(i)+0.5)/float64(p.Sides)
	return Vec{math.Cos(a), math.Sin(a)}
}

// EdgePoint returns the point a fraction t in [0, 1] along edge i.
func (p Polygon) EdgePoint(i int, t float64) Vec {
	a := p.Vertex(i)
	b := p.Vertex((i + 1) % p.Sides)
	return Vec{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// EdgeTangent returns the unit vector pointing from vertex i toward vertex i+1.
func (p Polygon) EdgeTangent(i int) Vec {
	a := p.Vertex(i)
	b := p.Vertex((i + 1) % p.Sides)
	return b.Sub(a).Norm()
}

// BoundaryParams tunes soft/hard containment behavior.
type BoundaryParams struct {
	SoftWidth   float64 // width of the damping zone preceding the hard boundary
	HardMargin  float64 // hard boundary sits at apothem - HardMargin
	SoftDamping float64 // max fraction of outward normal velocity removed per step
	Restitution float64 // energy retained by a reflected velocity component, in [0, 1]
}

// Contain enforces the polygon boundary on a particle in polygon-local
// coordinates. Each edge is evaluated independently: inside the soft zone the
// outward velocity component is damped proportionally to penetration depth;
// past the hard boundary the position is clamped back and the normal velocity
// component is reflected with energy loss. A particle near a vertex may be
// affected by two edges in the same call.
func Contain(p Polygon, pos, vel *Vec, b BoundaryParams) {
	hard := p.Apothem() - b.HardMargin
	soft := hard - b.SoftWidth

	for i := 0; i < p.Sides; i++ {
		n := p.EdgeNormal(i)
		d := pos.Dot(n)

		switch {
		case d > hard:
			// Clamp back to the boundary and reflect the outward component.
			over := d - hard
			pos.X -= n.X * over
			pos.Y -= n.Y * over
			if vn := vel.Dot(n); vn > 0 {
				vel.X -= n.X * vn * (1 + b.Restitution)
				vel.Y -= n.Y * vn * (1 + b.Restitution)
			}
		case d > soft && b.SoftWidth > 0:
			depth := (d - soft) / b.SoftWidth
			if vn := vel.Dot(n); vn > 0 {
				drag := b.SoftDamping * depth
				vel.X -= n.X * vn * drag
				vel.Y -= n.Y * vn * drag
			}
		}
	}
}

// ClampToRadius keeps pos within radius of the origin. On contact the position
// is clamped to the circle and the velocity is damped by the given factor.
// Returns true when a clamp occurred.
func ClampToRadius(pos, vel *Vec, radius, damping float64) bool {
	d := pos.Len()
	if d <= radius || d == 0 {
		return false
	}
	s := radius / d
	pos.X *= s
	pos.Y *= s
	vel.X *= damping
	vel.Y *= damping
	return true
}

// Overlap reports whether two circles at centers a and b with the given radii
// overlap once padding is added, and returns the penetration depth.
func Overlap(a, b Vec, ra, rb, padding float64) (float64, bool) {
	min := ra + rb + padding
	d := b.Sub(a).Len()
	if d >= min {
		return 0, false
	}
	return min - d, true
}
