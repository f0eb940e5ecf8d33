// Force-directed layout for culture polygons: brownian jitter, two-zone home
// spring, world-center attraction, pairwise collision repulsion, and
// containment against the parent radius or the world margins.
package engine

import (
	"math"

	"github.com/talgya/kinship-viz/internal/culture"
	"github.com/talgya/kinship-viz/internal/geom"
)

// updateLayout applies one frame of layout forces to every culture that is not
// under a manual transition. Synthetic groups never participate; they are
// positioned by the aggregation pass. Deterministic for a fixed random stream.
func (s *Simulation) updateLayout(dt float64) {
	p := s.Params

	for _, c := range s.Cultures {
		if c.Transitioning {
			continue
		}

		// Brownian impulse while the culture is still in motion. Once the
		// zero-snap settles it, no further jitter is injected.
		if c.Speed() > p.BrownianSpeedThreshold {
			ix, iy := s.Rand.Impulse(p.BrownianImpulse)
			c.VX += ix * dt
			c.VY += iy * dt
		}

		// Two-zone home spring: strong pull beyond the home radius, weak
		// centering within it.
		hx, hy := c.HomeX-c.X, c.HomeY-c.Y
		if dist := math.Hypot(hx, hy); dist > 0 {
			k := p.HomeSpringNear
			if dist > p.HomeRadius {
				k = p.HomeSpringFar
			}
			c.VX += hx * k * dt
			c.VY += hy * k * dt
		}

		// Weak constant attraction toward the world center.
		c.VX += (p.WorldWidth/2 - c.X) * p.CenterPull * dt
		c.VY += (p.WorldHeight/2 - c.Y) * p.CenterPull * dt
	}

	s.applyCollisions(dt)

	for _, c := range s.Cultures {
		if c.Transitioning {
			continue
		}

		// Clamp, damp, zero-snap, integrate.
		if sp := c.Speed(); sp > p.MaxCultureSpeed {
			f := p.MaxCultureSpeed / sp
			c.VX *= f
			c.VY *= f
		}
		damp := 1 - p.CultureDamping*dt
		if damp < 0 {
			damp = 0
		}
		c.VX *= damp
		c.VY *= damp
		if c.Speed() < p.SnapSpeed {
			c.VX, c.VY = 0, 0
		}
		c.X += c.VX * dt
		c.Y += c.VY * dt

		// While a synthetic group stands in for a hidden parent, the
		// aggregation pass clamps the children instead.
		if parent := s.cultureByID(c.Parent); parent != nil && s.Groups[c.ParentName] == nil {
			s.clampToParent(c, parent)
		} else {
			s.clampToWorld(c)
		}
	}
}

// applyCollisions adds pairwise repulsion between overlapping cultures.
// Parent/child pairs and siblings sharing a parent are exempt to avoid
// jitter inside a shared containment circle.
func (s *Simulation) applyCollisions(dt float64) {
	p := s.Params
	for i := 0; i < len(s.Cultures); i++ {
		a := s.Cultures[i]
		if a.Transitioning {
			continue
		}
		for j := i + 1; j < len(s.Cultures); j++ {
			b := s.Cultures[j]
			if b.Transitioning || collisionExempt(a, b) {
				continue
			}
			depth, hit := geom.Overlap(a.Center(), b.Center(), a.Radius(), b.Radius(), p.CollisionPadding)
			if !hit {
				continue
			}
			axis := b.Center().Sub(a.Center()).Norm()
			if axis == (geom.Vec{}) {
				// Coincident centers: separate along a random axis.
				ang := s.Rand.Angle()
				axis = geom.Vec{X: math.Cos(ang), Y: math.Sin(ang)}
			}
			push := depth * p.CollisionRepulsion * dt
			a.VX -= axis.X * push
			a.VY -= axis.Y * push
			b.VX += axis.X * push
			b.VY += axis.Y * push
		}
	}
}

func collisionExempt(a, b *culture.Culture) bool {
	if a.Parent == b.ID || b.Parent == a.ID {
		return true
	}
	return a.Parent != culture.NoCulture && a.Parent == b.Parent
}

// clampToParent keeps a child inside its parent's containment radius, damping
// velocity on contact.
func (s *Simulation) clampToParent(c, parent *culture.Culture) {
	limit := parent.Radius() - c.Radius() - s.Params.ParentMargin
	if limit < 0 {
		limit = 0
	}
	rel := c.Center().Sub(parent.Center())
	vel := geom.Vec{X: c.VX, Y: c.VY}
	if geom.ClampToRadius(&rel, &vel, limit, s.Params.ContactDamping) {
		c.X = parent.X + rel.X
		c.Y = parent.Y + rel.Y
		c.VX, c.VY = vel.X, vel.Y
	}
}

// clampToWorld keeps a parentless culture within the world margins.
func (s *Simulation) clampToWorld(c *culture.Culture) {
	p := s.Params
	r := c.Radius()
	minX, maxX := p.WorldMargin+r, p.WorldWidth-p.WorldMargin-r
	minY, maxY := p.WorldMargin+r, p.WorldHeight-p.WorldMargin-r

	if c.X < minX {
		c.X = minX
		c.VX *= -p.ContactDamping
	} else if c.X > maxX {
		c.X = maxX
		c.VX *= -p.ContactDamping
	}
	if c.Y < minY {
		c.Y = minY
		c.VY *= -p.ContactDamping
	} else if c.Y > maxY {
		c.Y = maxY
		c.VY *= -p.ContactDamping
	}
}
