// Scope-filter aggregation: while a filter hides higher-scope cultures, each
// hidden parent with visible children is represented by a transient synthetic
// group polygon hovering near its children.
package engine

import (
	"log/slog"
	"math"

	"github.com/talgya/kinship-viz/internal/culture"
	"github.com/talgya/kinship-viz/internal/geom"
)

// refreshAggregation reconciles the synthetic group set against the current
// filter every frame: new qualifying parents gain a group, stale groups are
// dropped, surviving groups track their children's centroid.
func (s *Simulation) refreshAggregation(dt float64) {
	if s.Filter == nil {
		if len(s.Groups) > 0 {
			s.retireGroups()
		}
		return
	}

	// Visible children grouped by hidden parent name.
	members := make(map[string][]*culture.Culture)
	for _, c := range s.Cultures {
		if c.Scope > *s.Filter || c.ParentName == "" {
			continue
		}
		parent := s.cultureByID(c.Parent)
		if parent == nil || parent.Scope <= *s.Filter {
			continue
		}
		members[c.ParentName] = append(members[c.ParentName], c)
	}

	for name, g := range s.Groups {
		if len(members[name]) == 0 {
			s.releaseChildren(g)
			delete(s.Groups, name)
		}
	}

	p := s.Params
	for name, kids := range members {
		centroid := childCentroid(kids)
		size := p.GroupBaseSize + p.GroupSizeIncrement*float64(len(kids))
		for _, k := range kids {
			// Large children still fit under the group outline.
			if need := (k.Radius() + p.GroupChildMargin) * 2; need > size {
				size = need
			}
		}

		g, ok := s.Groups[name]
		if !ok {
			parent := s.cultureByID(kids[0].Parent)
			g = &culture.SyntheticGroup{
				Name:     name,
				Sides:    parent.Sides,
				Rotation: s.Rand.Angle(),
				Hue:      parent.Hue,
				Size:     size,
			}
			pos := s.placeGroup(centroid, size/2)
			g.X, g.Y = pos.X, pos.Y
			s.seedGroupParticles(g)
			s.Groups[name] = g
			slog.Debug("synthetic group created", "parent", name, "children", len(kids))
		}

		g.Children = g.Children[:0]
		for _, k := range kids {
			g.Children = append(g.Children, k.ID)
		}
		// Recenter gently so the group shadows its drifting children.
		g.X += (centroid.X - g.X) * 0.05
		g.Y += (centroid.Y - g.Y) * 0.05
		g.Size += (size - g.Size) * 0.05
		g.Opacity = relax(g.Opacity, 1, p.OpacityRelax, dt)
	}

	s.separateGroups()
	s.holdChildren()
}

// retireGroups discards every synthetic group and releases its children.
func (s *Simulation) retireGroups() {
	for name, g := range s.Groups {
		s.releaseChildren(g)
		delete(s.Groups, name)
	}
}

// releaseChildren restores the original homes of a retiring group's children.
func (s *Simulation) releaseChildren(g *culture.SyntheticGroup) {
	for _, kid := range g.Children {
		if c := s.cultureByID(kid); c != nil {
			c.HomeX, c.HomeY = s.baseHomes[int(kid)].X, s.baseHomes[int(kid)].Y
		}
	}
}

// holdChildren parks each group's children at angular slots inside the group
// and re-clamps them after the group has moved. Runs after separation so the
// clamp tracks the group's final position for the frame.
func (s *Simulation) holdChildren() {
	margin := s.Params.GroupChildMargin
	for _, g := range s.Groups {
		n := len(g.Children)
		for i, kid := range g.Children {
			c := s.cultureByID(kid)
			if c == nil || c.Transitioning {
				continue
			}
			limit := g.Size/2 - c.Radius() - margin
			if limit < 0 {
				limit = 0
			}

			ang := 2 * math.Pi * float64(i) / float64(n)
			c.HomeX = g.X + math.Cos(ang)*limit*0.6
			c.HomeY = g.Y + math.Sin(ang)*limit*0.6

			rel := c.Center().Sub(g.Center())
			vel := geom.Vec{X: c.VX, Y: c.VY}
			if geom.ClampToRadius(&rel, &vel, limit, s.Params.ContactDamping) {
				c.X = g.X + rel.X
				c.Y = g.Y + rel.Y
				c.VX, c.VY = vel.X, vel.Y
			}
		}
	}
}

func childCentroid(kids []*culture.Culture) geom.Vec {
	var sum geom.Vec
	for _, k := range kids {
		sum = sum.Add(k.Center())
	}
	return sum.Scale(1 / float64(len(kids)))
}

// placeGroup rejection-samples positions around the preferred point, keeping
// the candidate that overlaps existing groups least.
func (s *Simulation) placeGroup(prefer geom.Vec, radius float64) geom.Vec {
	p := s.Params
	best := prefer
	bestOverlap := math.Inf(1)
	for attempt := 0; attempt < p.GroupPlaceAttempts; attempt++ {
		cand := prefer
		if attempt > 0 {
			cand = prefer.Add(geom.Vec{
				X: s.Rand.Range(-radius*2, radius*2),
				Y: s.Rand.Range(-radius*2, radius*2),
			})
		}
		total := 0.0
		for _, g := range s.Groups {
			if depth, hit := geom.Overlap(cand, g.Center(), radius, g.Size/2, p.GroupPadding); hit {
				total += depth
			}
		}
		for _, c := range s.Cultures {
			if s.Filter != nil && c.Scope > *s.Filter {
				continue
			}
			if depth, hit := geom.Overlap(cand, c.Center(), radius, c.Radius(), p.GroupPadding); hit {
				total += depth
			}
		}
		if total < bestOverlap {
			bestOverlap = total
			best = cand
		}
		if total == 0 {
			break
		}
	}
	return best
}

// separateGroups nudges overlapping groups apart for a bounded number of
// iterations. Groups never join force physics so this stays cheap.
func (s *Simulation) separateGroups() {
	p := s.Params
	groups := make([]*culture.SyntheticGroup, 0, len(s.Groups))
	for _, g := range s.Groups {
		groups = append(groups, g)
	}
	for iter := 0; iter < p.GroupSeparationIters; iter++ {
		moved := false
		for i := 0; i < len(groups); i++ {
			for j := i + 1; j < len(groups); j++ {
				a, b := groups[i], groups[j]
				depth, hit := geom.Overlap(a.Center(), b.Center(), a.Size/2, b.Size/2, p.GroupPadding)
				if !hit {
					continue
				}
				axis := b.Center().Sub(a.Center()).Norm()
				if axis == (geom.Vec{}) {
					axis = geom.Vec{X: 1}
				}
				shift := depth / 2
				a.X -= axis.X * shift
				a.Y -= axis.Y * shift
				b.X += axis.X * shift
				b.Y += axis.Y * shift
				moved = true
			}
		}
		if !moved {
			break
		}
	}
}

// seedGroupParticles fills a fresh group with interior particles. They live
// and die with the group.
func (s *Simulation) seedGroupParticles(g *culture.SyntheticGroup) {
	inner := g.Shape().Apothem() * 0.8
	for i := 0; i < s.Params.GroupParticleCount; i++ {
		pt := s.randomPointInDisc(inner)
		g.Particles = append(g.Particles, &culture.Particle{
			Home:    culture.NoCulture,
			Culture: culture.NoCulture,
			X:       pt.X,
			Y:       pt.Y,
			Color:   s.jitteredColor(g.Hue),
			Size:    s.particleSize(),
			State:   culture.Contained{},
		})
	}
}
