package culture

// Color is a particle color in HSL space. Hue is in degrees, saturation and
// lightness in [0, 1].
type Color struct {
	Hue        float64
	Saturation float64
	Lightness  float64
}

// Particle is a point entity rendered inside or around a culture. Position and
// velocity are local to the particle's current container center so contained
// particles ride along when layout forces move their culture.
type Particle struct {
	Home    ID // origin culture, stable across exchanges
	Culture ID // current logical container

	X, Y   float64
	VX, VY float64

	Color Color
	Size  float64 // render radius, fixed at creation

	// Border membership is fixed at creation. Border particles drift along
	// their assigned edge and never participate in flow.
	Border     bool
	Edge       int     // assigned edge index for border particles
	EdgeT      float64 // position along the edge in [0, 1]
	FloatPhase float64 // phase offset for perpendicular floating motion

	State State
}

// Contained reports whether the particle is at rest inside its container.
func (p *Particle) Contained() bool {
	_, ok := p.State.(Contained)
	return ok
}

// State is the particle lifecycle state. The concrete types form a closed set:
// Contained, Activating, Flowing, Returning.
type State interface {
	stateName() string
}

// Contained is the resting state: border drift or interior brownian motion
// within the container polygon.
type Contained struct{}

// Activating is the staging state of a flow episode. Before Delay elapses the
// particle behaves as contained; afterwards it blends into directed flow over
// a fixed transition window.
type Activating struct {
	Delay     float64 // seconds before the blend starts
	StartedAt float64 // sim-clock time the episode began
	Target    ID
	Partner   ID
	Exchange  *ID // pending color exchange target, nil when none
}

// Flowing is directed travel toward Target. When Exchange is set the particle
// adopts the target hue on arrival and returns home; otherwise it re-parents
// and oscillates between Target and Partner.
type Flowing struct {
	Target   ID
	Partner  ID
	Exchange *ID
}

// Returning is directed travel back to Target (the home culture); it always
// terminates in Contained.
type Returning struct {
	Target ID
}

func (Contained) stateName() string  { return "contained" }
func (Activating) stateName() string { return "activating" }
func (Flowing) stateName() string    { return "flowing" }
func (Returning) stateName() string  { return "returning" }

// StateName returns the wire name of a particle state.
func StateName(s State) string {
	if s == nil {
		return "contained"
	}
	return s.stateName()
}
