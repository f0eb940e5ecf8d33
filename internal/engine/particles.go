// Particle physics: contained motion (border drift and interior brownian
// wander inside the polygon), the activation/flow/return lifecycle, and
// arrival handling including color exchanges.
package engine

import (
	"math"

	"github.com/talgya/kinship-viz/internal/culture"
	"github.com/talgya/kinship-viz/internal/geom"
)

func (s *Simulation) updateParticles(dt float64) {
	for _, p := range s.Particles {
		c := s.cultureByID(p.Culture)
		if c == nil {
			continue
		}
		switch st := p.State.(type) {
		case culture.Activating:
			s.updateActivating(p, st, c, dt)
		case culture.Flowing:
			s.updateFlowing(p, st, c, 1, dt)
		case culture.Returning:
			s.updateReturning(p, st, c, dt)
		default:
			s.updateContained(p, c, dt)
		}
	}

	for _, g := range s.Groups {
		poly := g.Shape()
		for _, p := range g.Particles {
			s.interiorMotion(p, poly, dt)
		}
	}
}

// updateContained runs resting motion inside the particle's container.
func (s *Simulation) updateContained(p *culture.Particle, c *culture.Culture, dt float64) {
	poly := c.Polygon(1)
	if p.Border {
		s.borderMotion(p, c, poly, dt)
		return
	}
	s.interiorMotion(p, poly, dt)
}

// borderMotion drifts a border particle along its assigned edge with a small
// perpendicular float. Border particles stay on the boundary in every frame.
func (s *Simulation) borderMotion(p *culture.Particle, c *culture.Culture, poly geom.Polygon, dt float64) {
	prm := s.Params

	p.EdgeT += prm.BorderDrift * dt
	for p.EdgeT >= 1 {
		p.EdgeT -= 1
		p.Edge = (p.Edge + 1) % poly.Sides
	}

	base := poly.EdgePoint(p.Edge, p.EdgeT)
	n := poly.EdgeNormal(p.Edge)
	float := math.Sin(s.now*prm.BorderFloatFreq+p.FloatPhase) * prm.BorderFloatAmp
	p.X = base.X + n.X*float
	p.Y = base.Y + n.Y*float
	p.VX, p.VY = 0, 0

	// Rarely trade places with an interior particle of the same culture.
	// Classes never change: the border particle takes a fresh edge slot.
	if s.Rand.Float() < prm.BorderSwapChance*dt {
		if other := s.randomInterior(c.ID); other != nil {
			other.X, other.Y = p.X, p.Y
			other.VX, other.VY = 0, 0
			p.Edge = s.Rand.Intn(poly.Sides)
			p.EdgeT = s.Rand.Float()
			pt := poly.EdgePoint(p.Edge, p.EdgeT)
			p.X, p.Y = pt.X, pt.Y
		}
	}
}

// randomInterior reservoir-samples a contained interior particle of the given
// culture. Swaps are rare so a linear scan is fine.
func (s *Simulation) randomInterior(id culture.ID) *culture.Particle {
	var pick *culture.Particle
	n := 0
	for _, q := range s.Particles {
		if q.Border || q.Culture != id || !q.Contained() {
			continue
		}
		n++
		if s.Rand.Intn(n) == 0 {
			pick = q
		}
	}
	return pick
}

// interiorMotion applies brownian wander with a radial comfort zone, then
// contains the particle against the polygon boundary.
func (s *Simulation) interiorMotion(p *culture.Particle, poly geom.Polygon, dt float64) {
	prm := s.Params
	apothem := poly.Apothem()

	ix, iy := s.Rand.Impulse(prm.ParticleBrownian)
	p.VX += ix * dt
	p.VY += iy * dt

	// Push out of the crowded center, pull back from the rim.
	d := math.Hypot(p.X, p.Y)
	if d > 0 {
		nx, ny := p.X/d, p.Y/d
		if d < apothem*prm.RadialInner {
			p.VX += nx * prm.RadialPush * dt
			p.VY += ny * prm.RadialPush * dt
		} else if d > apothem*prm.RadialOuter {
			p.VX -= nx * prm.RadialPull * dt
			p.VY -= ny * prm.RadialPull * dt
		}
	}

	damp := 1 - prm.ParticleDamping*dt
	if damp < 0 {
		damp = 0
	}
	p.VX *= damp
	p.VY *= damp
	p.X += p.VX * dt
	p.Y += p.VY * dt

	pos := geom.Vec{X: p.X, Y: p.Y}
	vel := geom.Vec{X: p.VX, Y: p.VY}
	geom.Contain(poly, &pos, &vel, prm.Boundary)
	p.X, p.Y = pos.X, pos.Y
	p.VX, p.VY = vel.X, vel.Y
}

// updateActivating behaves as contained until the staggered delay elapses,
// then blends into directed flow over a fixed transition window.
func (s *Simulation) updateActivating(p *culture.Particle, st culture.Activating, c *culture.Culture, dt float64) {
	elapsed := s.now - st.StartedAt - st.Delay
	if elapsed < 0 {
		s.updateContained(p, c, dt)
		return
	}
	blend := elapsed / s.Params.FlowTransition
	if blend >= 1 {
		p.State = culture.Flowing{Target: st.Target, Partner: st.Partner, Exchange: st.Exchange}
		s.updateFlowing(p, p.State.(culture.Flowing), c, 1, dt)
		return
	}
	s.updateFlowing(p, culture.Flowing{Target: st.Target, Partner: st.Partner, Exchange: st.Exchange}, c, blend, dt)
}

// updateFlowing steers the particle toward its target culture in world space.
// strength scales the steering during the activation blend.
func (s *Simulation) updateFlowing(p *culture.Particle, st culture.Flowing, c *culture.Culture, strength, dt float64) {
	// A vanished target aborts the transition in place.
	target := s.cultureByID(st.Target)
	if target == nil {
		p.State = culture.Contained{}
		return
	}
	prm := s.Params

	wx := c.X + p.X
	wy := c.Y + p.Y

	toX := target.X - wx
	toY := target.Y - wy
	dist := math.Hypot(toX, toY)

	if dist <= prm.ArrivalRadius {
		s.arrive(p, st, c, target)
		return
	}

	// Desired velocity with a per-particle lateral dispersion so streams fan
	// out instead of forming a line.
	nx, ny := toX/dist, toY/dist
	px, py := -ny, nx
	spread := math.Sin(p.FloatPhase) * prm.FlowDispersion
	desX := nx*prm.FlowMaxSpeed + px*spread
	desY := ny*prm.FlowMaxSpeed + py*spread

	p.VX += (desX - p.VX) * prm.FlowSteer * strength * dt
	p.VY += (desY - p.VY) * prm.FlowSteer * strength * dt

	// Noise turbulence keyed to world position keeps nearby particles loosely
	// coherent.
	tn := s.Rand.Octave(wx*0.004, wy*0.004+s.now*0.3, 2, 1, 0.5)
	p.VX += px * tn * prm.FlowTurbulence * strength * dt
	p.VY += py * tn * prm.FlowTurbulence * strength * dt

	damp := 1 - prm.FlowDamping*dt
	if damp < 0 {
		damp = 0
	}
	p.VX *= damp
	p.VY *= damp
	if sp := math.Hypot(p.VX, p.VY); sp > prm.FlowMaxSpeed {
		f := prm.FlowMaxSpeed / sp
		p.VX *= f
		p.VY *= f
	}
	p.X += p.VX * dt
	p.Y += p.VY * dt
}

// arrive resolves a flow arrival: exchanges apply color and turn around,
// oscillating particles re-parent and head for the partner.
func (s *Simulation) arrive(p *culture.Particle, st culture.Flowing, from, target *culture.Culture) {
	if st.Exchange != nil {
		s.flushExchange(p, st.Exchange)
		p.State = culture.Returning{Target: p.Home}
		return
	}
	s.reparent(p, from, target)
	// Oscillate: the partner becomes the next destination.
	p.State = culture.Flowing{Target: st.Partner, Partner: st.Target}
}

// updateReturning steers home; arrival restores the contained state.
func (s *Simulation) updateReturning(p *culture.Particle, st culture.Returning, c *culture.Culture, dt float64) {
	home := s.cultureByID(st.Target)
	if home == nil {
		p.State = culture.Contained{}
		return
	}
	wx := c.X + p.X
	wy := c.Y + p.Y
	if math.Hypot(home.X-wx, home.Y-wy) <= s.Params.ArrivalRadius {
		s.reparent(p, c, home)
		s.settle(p, home)
		return
	}
	s.updateFlowing(p, culture.Flowing{Target: st.Target, Partner: st.Target}, c, 1, dt)
}

// reparent rebases the particle's local coordinates onto a new container.
func (s *Simulation) reparent(p *culture.Particle, from, to *culture.Culture) {
	wx := from.X + p.X
	wy := from.Y + p.Y
	p.X = wx - to.X
	p.Y = wy - to.Y
	p.Culture = to.ID
}

// settle drops a particle back into the contained state inside its container.
// Border particles rejoin the boundary at a fresh slot.
func (s *Simulation) settle(p *culture.Particle, c *culture.Culture) {
	p.State = culture.Contained{}
	poly := c.Polygon(1)
	if p.Border {
		p.VX, p.VY = 0, 0
		p.Edge = s.Rand.Intn(poly.Sides)
		p.EdgeT = s.Rand.Float()
		pt := poly.EdgePoint(p.Edge, p.EdgeT)
		p.X, p.Y = pt.X, pt.Y
		return
	}
	pos := geom.Vec{X: p.X, Y: p.Y}
	vel := geom.Vec{}
	geom.ClampToRadius(&pos, &vel, poly.Apothem()*0.8, 0)
	p.X, p.Y = pos.X, pos.Y
	p.VX, p.VY = s.Rand.Impulse(s.Params.ParticleBrownian * 0.2)
}
