// Simulation owns the complete visualization state and runs every system once
// per frame: camera, layout forces, transition relaxation, aggregation,
// particle physics, snapshot publish.
package engine

import (
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/talgya/kinship-viz/internal/culture"
	"github.com/talgya/kinship-viz/internal/entropy"
	"github.com/talgya/kinship-viz/internal/geom"
	"github.com/talgya/kinship-viz/internal/ingest"
)

// VisualMode selects how border particles are presented.
type VisualMode uint8

const (
	ModeBordered   VisualMode = 0
	ModeBorderless VisualMode = 1
)

// ModeName returns the wire name of a visual mode.
func ModeName(m VisualMode) string {
	if m == ModeBorderless {
		return "borderless"
	}
	return "bordered"
}

// Stats tracks aggregate engine counters, refreshed every frame.
type Stats struct {
	Contained  int    `json:"contained"`
	Activating int    `json:"activating"`
	Flowing    int    `json:"flowing"`
	Returning  int    `json:"returning"`
	Border     int    `json:"border"`
	Groups     int    `json:"groups"`
	Exchanges  uint64 `json:"exchanges"` // cumulative completed color exchanges
	Episodes   uint64 `json:"episodes"`  // cumulative focus episodes
}

// Simulation is the single owner of all mutable visualization state. All
// mutation happens inside Advance on the engine goroutine; external callers
// submit operations through Do and read the last published Snapshot.
type Simulation struct {
	Params Params
	Rand   *entropy.Source

	Cultures  []*culture.Culture
	ByName    map[string]*culture.Culture
	Particles []*culture.Particle
	Groups    map[string]*culture.SyntheticGroup

	Camera  Camera
	Mode    VisualMode
	Filter  *culture.ScopeLevel
	Focused culture.ID

	Stats Stats

	baseHomes []geom.Vec // original home positions, restored after focus
	seq       *exitSequence

	now  float64
	tick uint64

	ops      chan func(*Simulation)
	snapshot atomic.Pointer[Snapshot]
}

// NewSimulation builds a simulation from ingested culture records. Kinship and
// affiliation names are resolved here; missing references and invalid
// hierarchies are dropped with a warning.
func NewSimulation(records []ingest.Record, p Params, src *entropy.Source) *Simulation {
	s := &Simulation{
		Params:  p,
		Rand:    src,
		ByName:  make(map[string]*culture.Culture, len(records)),
		Groups:  make(map[string]*culture.SyntheticGroup),
		Focused: culture.NoCulture,
		ops:     make(chan func(*Simulation), 64),
	}
	s.Camera = newCamera(p)

	for i, rec := range records {
		c := &culture.Culture{
			ID:   culture.ID(i),
			Name: rec.Name,
			Geometry: culture.Geometry{
				Sides:       rec.Sides,
				Rotation:    src.Angle(),
				MorphOffset: src.Angle(),
			},
			Scale:         p.RestScale,
			Opacity:       p.RestOpacity,
			TargetScale:   p.RestScale,
			TargetOpacity: p.RestOpacity,
			Layer:         p.RestLayer,
			Scope:         rec.Scope,
			Parent:        culture.NoCulture,
			Hue:           rec.Hue,
			Knowledge:     rec.Knowledge,
			Openness:      rec.Openness,
			Language:      rec.Language,
			InteriorCount: rec.Interior,
			PerEdge:       rec.PerEdge,
		}
		s.Cultures = append(s.Cultures, c)
		s.ByName[c.Name] = c
	}

	// Resolve relations now that every culture exists.
	for i, rec := range records {
		c := s.Cultures[i]
		for _, kn := range rec.Kinships {
			kin, ok := s.ByName[kn]
			if !ok {
				slog.Warn("dropping unknown kinship", "culture", c.Name, "kinship", kn)
				continue
			}
			if kin.ID == c.ID {
				continue
			}
			c.Kinships = append(c.Kinships, kin.ID)
		}
		if rec.Affiliation != "" {
			parent, ok := s.ByName[rec.Affiliation]
			switch {
			case !ok:
				slog.Warn("dropping unknown affiliation", "culture", c.Name, "parent", rec.Affiliation)
			case parent.Scope <= c.Scope:
				slog.Warn("dropping affiliation without higher scope",
					"culture", c.Name, "parent", rec.Affiliation,
					"scope", culture.ScopeName(c.Scope), "parent_scope", culture.ScopeName(parent.Scope))
			default:
				c.Parent = parent.ID
				c.ParentName = parent.Name
			}
		}

		// Sides track the resolved connection count, never below 3.
		c.Sides = len(c.Kinships)
		if c.Sides < 3 {
			c.Sides = 3
		}
		c.BorderCount = c.Sides * maxInt(1, c.PerEdge)
		total := c.InteriorCount + c.BorderCount
		c.Size = p.SizeBase + p.SizePerParticle*math.Sqrt(float64(total))
	}

	s.placeHomes()
	s.InitParticles()
	s.publishSnapshot()
	return s
}

// placeHomes scatters cultures across the world with a few rejection-sampling
// attempts per culture to avoid heavy initial overlap.
func (s *Simulation) placeHomes() {
	p := s.Params
	s.baseHomes = make([]geom.Vec, len(s.Cultures))
	for i, c := range s.Cultures {
		var best geom.Vec
		bestOverlap := math.Inf(1)
		for attempt := 0; attempt < 16; attempt++ {
			cand := geom.Vec{
				X: s.Rand.Range(p.WorldMargin+c.Radius(), p.WorldWidth-p.WorldMargin-c.Radius()),
				Y: s.Rand.Range(p.WorldMargin+c.Radius(), p.WorldHeight-p.WorldMargin-c.Radius()),
			}
			worst := 0.0
			for j := 0; j < i; j++ {
				o := s.Cultures[j]
				if depth, hit := geom.Overlap(cand, o.Center(), c.Radius(), o.Radius(), p.CollisionPadding); hit {
					worst += depth
				}
			}
			if worst < bestOverlap {
				bestOverlap = worst
				best = cand
			}
			if worst == 0 {
				break
			}
		}
		c.X, c.Y = best.X, best.Y
		c.HomeX, c.HomeY = best.X, best.Y
		c.TargetX, c.TargetY = best.X, best.Y
		s.baseHomes[i] = best
	}
}

// InitParticles (re)creates the particle set from the per-culture counts.
// Calling it again is idempotent: counts always equal interior+border.
func (s *Simulation) InitParticles() {
	s.Particles = s.Particles[:0]
	for _, c := range s.Cultures {
		poly := c.Polygon(1)
		inner := poly.Apothem() * 0.8

		for i := 0; i < c.InteriorCount; i++ {
			pt := s.randomPointInDisc(inner)
			s.Particles = append(s.Particles, &culture.Particle{
				Home:    c.ID,
				Culture: c.ID,
				X:       pt.X,
				Y:       pt.Y,
				Color:   s.jitteredColor(c.Hue),
				Size:    s.particleSize(),
				State:   culture.Contained{},
			})
		}

		perEdge := maxInt(1, c.PerEdge)
		for e := 0; e < c.Sides; e++ {
			for k := 0; k < perEdge; k++ {
				t := (float64(k) + 0.5) / float64(perEdge)
				pt := poly.EdgePoint(e, t)
				s.Particles = append(s.Particles, &culture.Particle{
					Home:       c.ID,
					Culture:    c.ID,
					X:          pt.X,
					Y:          pt.Y,
					Color:      s.jitteredColor(c.Hue),
					Size:       s.particleSize(),
					Border:     true,
					Edge:       e,
					EdgeT:      t,
					FloatPhase: s.Rand.Angle(),
					State:      culture.Contained{},
				})
			}
		}
	}
}

// ResetPositions randomizes particle positions and physical state while
// preserving color and the border/interior class, and returns every particle
// to its home culture in the contained state.
func (s *Simulation) ResetPositions() {
	for _, p := range s.Particles {
		c := s.cultureByID(p.Home)
		if c == nil {
			continue
		}
		p.Culture = p.Home
		p.State = culture.Contained{}
		poly := c.Polygon(1)
		if p.Border {
			p.EdgeT = s.Rand.Float()
			p.FloatPhase = s.Rand.Angle()
			pt := poly.EdgePoint(p.Edge, p.EdgeT)
			p.X, p.Y = pt.X, pt.Y
			p.VX, p.VY = 0, 0
			continue
		}
		pt := s.randomPointInDisc(poly.Apothem() * 0.8)
		p.X, p.Y = pt.X, pt.Y
		p.VX, p.VY = s.Rand.Impulse(s.Params.ParticleBrownian * 0.2)
	}
}

// Do submits an operation to run at the start of the next frame. Operations
// are dropped with a warning when the queue is saturated.
func (s *Simulation) Do(op func(*Simulation)) {
	select {
	case s.ops <- op:
	default:
		slog.Warn("operation queue full, dropping operation")
	}
}

func (s *Simulation) drainOps() {
	for {
		select {
		case op := <-s.ops:
			op(s)
		default:
			return
		}
	}
}

// SetViewport records the collaborator's viewport size. Camera operations are
// no-ops until this has been called at least once.
func (s *Simulation) SetViewport(w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	s.Camera.setViewport(w, h)
}

// SetVisualMode switches between bordered and borderless presentation.
func (s *Simulation) SetVisualMode(m VisualMode) { s.Mode = m }

// Now returns the simulation clock in seconds.
func (s *Simulation) Now() float64 { return s.now }

// CurrentTick returns the most recently processed frame number.
func (s *Simulation) CurrentTick() uint64 { return s.tick }

// Advance runs one frame to completion. dt is the frame duration in seconds.
func (s *Simulation) Advance(dt float64) {
	s.now += dt
	s.tick++

	s.drainOps()
	s.Camera.update(dt)
	s.updateLayout(dt)
	s.updateTransitions(dt)
	if s.seq != nil {
		s.seq.step(s)
	}
	s.refreshAggregation(dt)
	s.updateParticles(dt)
	s.updateStats()
	s.publishSnapshot()
}

// updateTransitions relaxes scale and opacity toward their targets for every
// culture and moves manually transitioning cultures toward their target
// positions.
func (s *Simulation) updateTransitions(dt float64) {
	p := s.Params
	for _, c := range s.Cultures {
		c.Scale = relax(c.Scale, c.TargetScale, p.ScaleRelax, dt)
		c.Opacity = relax(c.Opacity, c.TargetOpacity, p.OpacityRelax, dt)

		if !c.Transitioning {
			continue
		}
		c.X = relax(c.X, c.TargetX, p.MoveRelax, dt)
		c.Y = relax(c.Y, c.TargetY, p.MoveRelax, dt)
		if math.Abs(c.X-c.TargetX) < 0.5 && math.Abs(c.Y-c.TargetY) < 0.5 {
			c.X, c.Y = c.TargetX, c.TargetY
			c.VX, c.VY = 0, 0
			c.Transitioning = false
		}
	}
}

func (s *Simulation) updateStats() {
	st := Stats{Exchanges: s.Stats.Exchanges, Episodes: s.Stats.Episodes}
	count := func(p *culture.Particle) {
		if p.Border {
			st.Border++
		}
		switch p.State.(type) {
		case culture.Activating:
			st.Activating++
		case culture.Flowing:
			st.Flowing++
		case culture.Returning:
			st.Returning++
		default:
			st.Contained++
		}
	}
	for _, p := range s.Particles {
		count(p)
	}
	for _, g := range s.Groups {
		for _, p := range g.Particles {
			count(p)
		}
	}
	st.Groups = len(s.Groups)
	s.Stats = st
}

func (s *Simulation) cultureByID(id culture.ID) *culture.Culture {
	if id < 0 || int(id) >= len(s.Cultures) {
		return nil
	}
	return s.Cultures[int(id)]
}

func (s *Simulation) randomPointInDisc(radius float64) geom.Vec {
	a := s.Rand.Angle()
	r := radius * math.Sqrt(s.Rand.Float())
	return geom.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)}
}

func (s *Simulation) particleSize() float64 {
	return s.Rand.Range(s.Params.ParticleSizeMin, s.Params.ParticleSizeMax)
}

func (s *Simulation) jitteredColor(hue float64) culture.Color {
	return culture.Color{
		Hue:        hue,
		Saturation: clamp(0.62+s.Rand.Range(-0.15, 0.15), 0, 1),
		Lightness:  clamp(0.55+s.Rand.Range(-0.12, 0.12), 0, 1),
	}
}

// relax moves cur toward target at an exponential per-second rate, snapping
// when close.
func relax(cur, target, rate, dt float64) float64 {
	f := rate * dt
	if f > 1 {
		f = 1
	}
	next := cur + (target-cur)*f
	if math.Abs(next-target) < 1e-3 {
		return target
	}
	return next
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
