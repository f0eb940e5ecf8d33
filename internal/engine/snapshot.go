package engine

import (
	"github.com/talgya/kinship-viz/internal/culture"
)

// Snapshot is an immutable copy of the render-relevant state, published once
// per frame. Readers on other goroutines always see a complete frame.
type Snapshot struct {
	Tick    uint64      `json:"tick"`
	Time    float64     `json:"time"`
	Mode    string      `json:"mode"`
	Focused string      `json:"focused,omitempty"`
	Filter  string      `json:"filter,omitempty"`
	Camera  CameraState `json:"camera"`

	Cultures  []CultureView  `json:"cultures"`
	Groups    []GroupView    `json:"groups,omitempty"`
	Particles []ParticleView `json:"particles"`

	Stats Stats `json:"stats"`
}

// CultureView is the wire form of one culture polygon.
type CultureView struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Sides     int     `json:"sides"`
	Size      float64 `json:"size"`
	Rotation  float64 `json:"rotation"`
	Scale     float64 `json:"scale"`
	Opacity   float64 `json:"opacity"`
	Layer     int     `json:"layer"`
	Hue       float64 `json:"hue"`
	Scope     string  `json:"scope"`
	Parent    string  `json:"parent,omitempty"`
	Kinships  []int   `json:"kinships,omitempty"`
	Knowledge int     `json:"knowledge"`
	Openness  int     `json:"openness"`
	Language  int     `json:"language"`
}

// GroupView is the wire form of one synthetic parent group.
type GroupView struct {
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Sides    int     `json:"sides"`
	Size     float64 `json:"size"`
	Rotation float64 `json:"rotation"`
	Hue      float64 `json:"hue"`
	Opacity  float64 `json:"opacity"`
	Children int     `json:"children"`
}

// ParticleView is the wire form of one particle in world coordinates.
type ParticleView struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Lightness  float64 `json:"lightness"`
	Size       float64 `json:"size"`
	Border     bool    `json:"border,omitempty"`
	State      string  `json:"state"`
	Culture    int     `json:"culture"`
}

// publishSnapshot deep-copies the current frame into a fresh Snapshot and
// swaps it in atomically.
func (s *Simulation) publishSnapshot() {
	snap := &Snapshot{
		Tick:   s.tick,
		Time:   s.now,
		Mode:   ModeName(s.Mode),
		Camera: s.Camera.State(),
		Stats:  s.Stats,
	}
	if f := s.cultureByID(s.Focused); f != nil {
		snap.Focused = f.Name
	}
	if s.Filter != nil {
		snap.Filter = culture.ScopeName(*s.Filter)
	}

	snap.Cultures = make([]CultureView, 0, len(s.Cultures))
	for _, c := range s.Cultures {
		v := CultureView{
			ID:        int(c.ID),
			Name:      c.Name,
			X:         c.X,
			Y:         c.Y,
			Sides:     c.Sides,
			Size:      c.Size,
			Rotation:  c.Rotation,
			Scale:     c.Scale,
			Opacity:   c.Opacity,
			Layer:     c.Layer,
			Hue:       c.Hue,
			Scope:     culture.ScopeName(c.Scope),
			Parent:    c.ParentName,
			Knowledge: c.Knowledge,
			Openness:  c.Openness,
			Language:  c.Language,
		}
		for _, k := range c.Kinships {
			v.Kinships = append(v.Kinships, int(k))
		}
		snap.Cultures = append(snap.Cultures, v)
	}

	for _, g := range s.Groups {
		snap.Groups = append(snap.Groups, GroupView{
			Name:     g.Name,
			X:        g.X,
			Y:        g.Y,
			Sides:    g.Sides,
			Size:     g.Size,
			Rotation: g.Rotation,
			Hue:      g.Hue,
			Opacity:  g.Opacity,
			Children: len(g.Children),
		})
	}

	snap.Particles = make([]ParticleView, 0, len(s.Particles))
	borderless := s.Mode == ModeBorderless
	appendParticle := func(p *culture.Particle, cx, cy float64, cid culture.ID) {
		if borderless && p.Border {
			return
		}
		snap.Particles = append(snap.Particles, ParticleView{
			X:          cx + p.X,
			Y:          cy + p.Y,
			Hue:        p.Color.Hue,
			Saturation: p.Color.Saturation,
			Lightness:  p.Color.Lightness,
			Size:       p.Size,
			Border:     p.Border,
			State:      culture.StateName(p.State),
			Culture:    int(cid),
		})
	}
	for _, p := range s.Particles {
		if c := s.cultureByID(p.Culture); c != nil {
			appendParticle(p, c.X, c.Y, c.ID)
		}
	}
	for _, g := range s.Groups {
		for _, p := range g.Particles {
			appendParticle(p, g.X, g.Y, culture.NoCulture)
		}
	}

	s.snapshot.Store(snap)
}

// LatestSnapshot returns the most recently published frame. Safe to call from
// any goroutine.
func (s *Simulation) LatestSnapshot() *Snapshot {
	return s.snapshot.Load()
}
