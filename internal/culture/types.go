// Package culture provides the entity model for the visualization: culture
// polygons, transient synthetic parent groups, scope levels, and particles.
package culture

import (
	"math"

	"github.com/talgya/kinship-viz/internal/geom"
)

// ID identifies a culture within one simulation. NoCulture marks an absent
// reference (no parent, no flow target).
type ID int

// NoCulture is the sentinel for an absent culture reference.
const NoCulture ID = -1

// ScopeLevel is the ordinal classification of a culture's reach.
type ScopeLevel uint8

const (
	ScopeFamily   ScopeLevel = iota
	ScopeLocal
	ScopeRegional
	ScopeNational
	ScopeGlobal
)

// ScopeName returns a human-readable name for a scope level.
func ScopeName(s ScopeLevel) string {
	switch s {
	case ScopeFamily:
		return "family"
	case ScopeLocal:
		return "local"
	case ScopeRegional:
		return "regional"
	case ScopeNational:
		return "national"
	case ScopeGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Geometry holds the polygon parameters of a culture.
type Geometry struct {
	Sides       int     // never below 3
	Size        float64 // polygon diameter at scale 1
	Rotation    float64 // radians
	MorphOffset float64 // per-entity phase for edge morphing
}

// Polygon returns the culture's polygon at the given scale.
func (g Geometry) Polygon(scale float64) geom.Polygon {
	return geom.Polygon{
		Sides:    g.Sides,
		Radius:   g.Size / 2 * scale,
		Rotation: g.Rotation,
	}
}

// Culture is a polygon entity representing one dataset node.
type Culture struct {
	ID   ID
	Name string
	Geometry

	// Kinematics.
	X, Y   float64
	VX, VY float64
	HomeX  float64
	HomeY  float64

	// Transition targets: position moves only during a manual transition;
	// scale and opacity always relax toward their targets.
	TargetX, TargetY float64
	Transitioning    bool

	Scale         float64
	Opacity       float64
	TargetScale   float64
	TargetOpacity float64
	Layer         int // draw layer, higher drawn later

	Scope ScopeLevel

	// Relations, resolved to IDs at simulation build time.
	Kinships   []ID
	Parent     ID     // NoCulture when unaffiliated
	ParentName string // raw affiliation name, kept for aggregation grouping

	Hue       float64 // degrees in [0, 360)
	Knowledge int     // 1-10
	Openness  int     // 1-10
	Language  int     // 1-10

	// Particle counts fixed at ingestion.
	InteriorCount int
	PerEdge       int
	BorderCount   int
}

// Center returns the culture's world position.
func (c *Culture) Center() geom.Vec { return geom.Vec{X: c.X, Y: c.Y} }

// Shape returns the culture's polygon at its current scale.
func (c *Culture) Shape() geom.Polygon { return c.Polygon(c.Scale) }

// Radius returns the current circumradius.
func (c *Culture) Radius() float64 { return c.Size / 2 * c.Scale }

// Speed returns the current velocity magnitude.
func (c *Culture) Speed() float64 { return math.Hypot(c.VX, c.VY) }

// Entity is the geometry/render capability shared by real cultures and
// synthetic parent groups.
type Entity interface {
	Label() string
	Center() geom.Vec
	Shape() geom.Polygon
	EntityHue() float64
}

// Label implements Entity.
func (c *Culture) Label() string { return c.Name }

// EntityHue implements Entity.
func (c *Culture) EntityHue() float64 { return c.Hue }

// SyntheticGroup is a transient aggregate entity standing in for a hidden
// higher-scope parent while a scope filter is active. Synthetic groups never
// participate in force physics and always hold scale 1.
type SyntheticGroup struct {
	Name     string // parent culture name, the grouping key
	X, Y     float64
	Size     float64
	Sides    int
	Rotation float64
	Hue      float64
	Opacity  float64
	Children []ID

	// Particles seeded once at creation, discarded with the group.
	Particles []*Particle
}

// Label implements Entity.
func (g *SyntheticGroup) Label() string { return g.Name }

// Center implements Entity.
func (g *SyntheticGroup) Center() geom.Vec { return geom.Vec{X: g.X, Y: g.Y} }

// Shape implements Entity.
func (g *SyntheticGroup) Shape() geom.Polygon {
	return geom.Polygon{Sides: g.Sides, Radius: g.Size / 2, Rotation: g.Rotation}
}

// EntityHue implements Entity.
func (g *SyntheticGroup) EntityHue() float64 { return g.Hue }
